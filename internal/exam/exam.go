// Package exam drives the multiple-choice exam lifecycle: sampling a bank,
// shuffling, answer/skip/report transitions, and scoring. Sessions live in
// memory only; there is no durable identity for an exam attempt.
package exam

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/cgirard/profeval/internal/model"
)

// Status represents the lifecycle state of a session. There is no way back
// to InProgress from Submitted; a new exam is a new session instance.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

var (
	// ErrEmptyBank means the bank has no questions to sample.
	ErrEmptyBank = errors.New("bank has no questions")
	// ErrBadCount means the requested question count is not positive.
	ErrBadCount = errors.New("question count must be positive")
	// ErrNotInProgress means a mutation was attempted on a session that is
	// not in progress (already submitted, or never started).
	ErrNotInProgress = errors.New("exam session is not in progress")
	// ErrUnknownQuestion means the question id is not part of the session.
	ErrUnknownQuestion = errors.New("question is not part of this session")
	// ErrUnknownOption means the option id is not one of the question's options.
	ErrUnknownOption = errors.New("option is not part of this question")
)

// Session is one instructor-initiated attempt at a sampled subset of a
// bank's questions. It is exclusively owned by the Engine that created it
// and is never mutated by anything else.
type Session struct {
	questions []model.QCMQuestion
	answers   map[int]string
	skipped   map[int]struct{}
	reported  map[int]struct{}
	status    Status
}

// NewSession samples min(count, |bank|) questions from the bank using an
// unbiased permutation and independently re-shuffles each sampled question's
// options. The bank itself is never mutated.
func NewSession(bank model.QCMBank, count int) (*Session, error) {
	if count <= 0 {
		return nil, ErrBadCount
	}
	if len(bank.Questions) == 0 {
		return nil, ErrEmptyBank
	}

	sampled := make([]model.QCMQuestion, len(bank.Questions))
	copy(sampled, bank.Questions)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	if count < len(sampled) {
		sampled = sampled[:count]
	}

	for i := range sampled {
		opts := make([]model.QCMOption, len(sampled[i].Options))
		copy(opts, sampled[i].Options)
		rand.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		sampled[i].Options = opts
	}

	return &Session{
		questions: sampled,
		answers:   make(map[int]string),
		skipped:   make(map[int]struct{}),
		reported:  make(map[int]struct{}),
		status:    StatusInProgress,
	}, nil
}

// Status returns the session's lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// Questions returns the sampled questions in session order.
func (s *Session) Questions() []model.QCMQuestion {
	return s.questions
}

func (s *Session) question(id int) (model.QCMQuestion, bool) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.QCMQuestion{}, false
}

// SelectAnswer records (or overwrites) the answer for a question. Answering
// does not un-skip a previously skipped question: skip and answer are
// independent flags, resolved at scoring time.
func (s *Session) SelectAnswer(questionID int, optionID string) error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	q, ok := s.question(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	valid := false
	for _, opt := range q.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return ErrUnknownOption
	}
	s.answers[questionID] = optionID
	return nil
}

// Skip marks a question as skipped and clears any stored answer. Idempotent.
func (s *Session) Skip(questionID int) error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	if _, ok := s.question(questionID); !ok {
		return ErrUnknownQuestion
	}
	s.skipped[questionID] = struct{}{}
	delete(s.answers, questionID)
	return nil
}

// Report flags a question for later human review. Idempotent, and orthogonal
// to skip/answer: a reported question can still be answered normally.
func (s *Session) Report(questionID int) error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	if _, ok := s.question(questionID); !ok {
		return ErrUnknownQuestion
	}
	s.reported[questionID] = struct{}{}
	return nil
}

// Submit scores the session and transitions it to Submitted. A question
// counts toward the score only when its selected answer matches the correct
// answer AND it is not skipped; a skipped question never scores even if an
// answer was recorded after the skip. Subsequent mutations fail.
func (s *Session) Submit() (*model.ExamResult, error) {
	if s.status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	details := make([]model.QuestionOutcome, 0, len(s.questions))
	score := 0
	for _, q := range s.questions {
		selected := s.answers[q.ID]
		_, isSkipped := s.skipped[q.ID]
		_, isReported := s.reported[q.ID]
		isCorrect := selected != "" && selected == q.CorrectAnswer

		if isCorrect && !isSkipped {
			score++
		}
		details = append(details, model.QuestionOutcome{
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      isCorrect,
			Skipped:        isSkipped,
			Reported:       isReported,
		})
	}

	s.status = StatusSubmitted
	total := len(s.questions)
	return &model.ExamResult{
		Score:      score,
		Total:      total,
		Percentage: percentage(score, total),
		Details:    details,
	}, nil
}

// percentage rounds score/total*100 half-up. math.Round rounds half away
// from zero, which is half-up for the non-negative values possible here.
func percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
