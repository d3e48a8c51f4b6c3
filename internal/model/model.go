package model

import (
	"context"
	"time"
)

// ToolKind selects one of the fixed assessment-generation modes. Each kind
// maps to its own instruction template and expected output shape.
type ToolKind string

const (
	ToolCodeEvaluation      ToolKind = "code-evaluation"
	ToolCodeEvaluationGrade ToolKind = "code-evaluation-grade"
	ToolCodeAnalysis        ToolKind = "code-analysis"
	ToolQCMGenerator        ToolKind = "qcm-generator"
)

// Role represents a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in a generation request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Difficulty represents question difficulty level. The instruction templates
// are French, so the canonical values are the French ones.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "facile"
	DifficultyMedium Difficulty = "moyen"
	DifficultyHard   Difficulty = "difficile"
)

// GeneratedQuestion is one open question produced by the code-evaluation tool.
type GeneratedQuestion struct {
	ID         int        `json:"id"`
	Question   string     `json:"question"`
	Type       string     `json:"type"`
	Difficulty Difficulty `json:"difficulty"`
	Points     int        `json:"points"`
}

// QuestionSet is the full code-evaluation output. TotalPoints is whatever the
// model claims; it is not reconciled against the per-question points.
type QuestionSet struct {
	Questions   []GeneratedQuestion `json:"questions"`
	TotalPoints int                 `json:"total_points"`
}

// Evaluation grades one submitted answer.
type Evaluation struct {
	QuestionID int    `json:"question_id"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"max_score"`
	Feedback   string `json:"feedback"`
}

// Grading is the code-evaluation-grade output. The evaluations slice may be
// shorter or longer than the submitted question list.
type Grading struct {
	Evaluations     []Evaluation `json:"evaluations"`
	TotalScore      int          `json:"total_score"`
	TotalPossible   int          `json:"total_possible"`
	Percentage      int          `json:"percentage"`
	GeneralFeedback string       `json:"general_feedback"`
}

// Compliance scores how well the code matches its specifications.
type Compliance struct {
	Score   int    `json:"score"`
	Details string `json:"details"`
}

// HelpQuestion is a guided question for understanding the analyzed code.
type HelpQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// Analysis holds the qualitative part of a code-analysis report.
type Analysis struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// AnalysisReport is the code-analysis output.
type AnalysisReport struct {
	Analysis      Analysis       `json:"analysis"`
	Compliance    Compliance     `json:"compliance"`
	HelpQuestions []HelpQuestion `json:"help_questions"`
}

// QCMOption is one of the four choices of a multiple-choice question.
type QCMOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QCMQuestion is one multiple-choice question. CorrectAnswer should name one
// of the option IDs; nothing guarantees it does, and a question whose correct
// answer matches no option can never be scored correct.
type QCMQuestion struct {
	ID            int         `json:"id"`
	Question      string      `json:"question"`
	Options       []QCMOption `json:"options"`
	CorrectAnswer string      `json:"correct_answer"`
	Explanation   string      `json:"explanation"`
	Difficulty    Difficulty  `json:"difficulty"`
	Competency    string      `json:"competency"`
}

// QCMMetadata describes a generated bank.
type QCMMetadata struct {
	Subject        string `json:"subject"`
	TotalQuestions int    `json:"total_questions"`
	EstimatedTime  string `json:"estimated_time"`
}

// QCMBank is the qcm-generator output: the full question pool an exam
// session samples from. Immutable once generated.
type QCMBank struct {
	Questions []QCMQuestion `json:"questions"`
	Metadata  QCMMetadata   `json:"metadata"`
}

// QuestionOutcome is the per-question detail of a submitted exam.
type QuestionOutcome struct {
	QuestionID     int    `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Skipped        bool   `json:"skipped"`
	Reported       bool   `json:"reported"`
}

// ExamResult is the immutable outcome of a submitted exam session.
type ExamResult struct {
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Percentage int               `json:"percentage"`
	Details    []QuestionOutcome `json:"details"`
}

// User represents an instructor account.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// StoredBank is a QCM bank saved for later exam runs.
type StoredBank struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Bank      QCMBank   `json:"bank"`
	CreatedAt time.Time `json:"created_at"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Addr           string
	LLMModel       string
	SecureCookies  bool
	AllowedOrigins []string
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
