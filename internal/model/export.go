package model

import "time"

// ExportKind tags the payload carried by an ExportDocument.
type ExportKind string

const (
	ExportQuestionSet ExportKind = "question_set"
	ExportGrading     ExportKind = "grading"
	ExportAnalysis    ExportKind = "analysis"
	ExportQCMBank     ExportKind = "qcm_bank"
	ExportExamResult  ExportKind = "exam_result"
)

// ValidExportKind reports whether k is one of the known export kinds.
func ValidExportKind(k ExportKind) bool {
	switch k {
	case ExportQuestionSet, ExportGrading, ExportAnalysis, ExportQCMBank, ExportExamResult:
		return true
	}
	return false
}

// ExportDocument is the top-level JSON structure for report export. Inputs
// holds whatever the instructor submitted (code, specifications, subject);
// Artifact holds the generated payload unmodified.
type ExportDocument struct {
	ID        string         `json:"id"`
	Kind      ExportKind     `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Artifact  any            `json:"artifact"`
}

// BankExport mirrors the QCM database file the front-end downloads:
// the full bank plus a generation timestamp.
type BankExport struct {
	Timestamp      time.Time     `json:"timestamp"`
	Metadata       QCMMetadata   `json:"metadata"`
	Questions      []QCMQuestion `json:"questions"`
	TotalQuestions int           `json:"total_questions"`
}
