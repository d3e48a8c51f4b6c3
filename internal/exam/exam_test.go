package exam

import (
	"fmt"
	"testing"

	"github.com/cgirard/profeval/internal/model"
)

func testBank(t *testing.T, n int) model.QCMBank {
	t.Helper()
	questions := make([]model.QCMQuestion, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, model.QCMQuestion{
			ID:       i,
			Question: fmt.Sprintf("Question %d", i),
			Options: []model.QCMOption{
				{ID: "A", Text: fmt.Sprintf("Option A of %d", i)},
				{ID: "B", Text: fmt.Sprintf("Option B of %d", i)},
				{ID: "C", Text: fmt.Sprintf("Option C of %d", i)},
				{ID: "D", Text: fmt.Sprintf("Option D of %d", i)},
			},
			CorrectAnswer: string(rune('A' + (i % 4))),
			Explanation:   "because",
			Difficulty:    model.DifficultyMedium,
			Competency:    "testing",
		})
	}
	return model.QCMBank{
		Questions: questions,
		Metadata:  model.QCMMetadata{Subject: "Go", TotalQuestions: n, EstimatedTime: "10 minutes"},
	}
}

func TestNewSessionSampling(t *testing.T) {
	bank := testBank(t, 5)

	for _, count := range []int{1, 3, 5} {
		sess, err := NewSession(bank, count)
		if err != nil {
			t.Fatalf("NewSession(%d): %v", count, err)
		}
		questions := sess.Questions()
		if len(questions) != count {
			t.Fatalf("expected %d questions, got %d", count, len(questions))
		}

		seen := make(map[int]bool)
		byID := make(map[int]model.QCMQuestion)
		for _, q := range bank.Questions {
			byID[q.ID] = q
		}
		for _, q := range questions {
			if seen[q.ID] {
				t.Errorf("duplicate question id %d", q.ID)
			}
			seen[q.ID] = true

			orig, ok := byID[q.ID]
			if !ok {
				t.Fatalf("question id %d is not in the bank", q.ID)
			}
			if q.Question != orig.Question || q.CorrectAnswer != orig.CorrectAnswer {
				t.Errorf("question %d content diverged from the bank", q.ID)
			}
		}
	}
}

func TestNewSessionCountExceedsBank(t *testing.T) {
	bank := testBank(t, 3)
	sess, err := NewSession(bank, 10)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if got := len(sess.Questions()); got != 3 {
		t.Errorf("expected all 3 bank questions, got %d", got)
	}
}

func TestNewSessionRejectsBadInputs(t *testing.T) {
	if _, err := NewSession(testBank(t, 3), 0); err != ErrBadCount {
		t.Errorf("count 0: got %v, want ErrBadCount", err)
	}
	if _, err := NewSession(testBank(t, 3), -1); err != ErrBadCount {
		t.Errorf("count -1: got %v, want ErrBadCount", err)
	}
	if _, err := NewSession(model.QCMBank{}, 3); err != ErrEmptyBank {
		t.Errorf("empty bank: got %v, want ErrEmptyBank", err)
	}
}

func TestOptionShufflePreservesContent(t *testing.T) {
	bank := testBank(t, 5)
	sess, err := NewSession(bank, 5)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	byID := make(map[int]model.QCMQuestion)
	for _, q := range bank.Questions {
		byID[q.ID] = q
	}

	for _, q := range sess.Questions() {
		orig := byID[q.ID]
		if len(q.Options) != len(orig.Options) {
			t.Fatalf("question %d: option count changed", q.ID)
		}
		want := make(map[string]string)
		for _, opt := range orig.Options {
			want[opt.ID] = opt.Text
		}
		for _, opt := range q.Options {
			text, ok := want[opt.ID]
			if !ok {
				t.Errorf("question %d: unexpected option id %s", q.ID, opt.ID)
				continue
			}
			if text != opt.Text {
				t.Errorf("question %d option %s: text changed", q.ID, opt.ID)
			}
		}
	}
}

func TestNewSessionDoesNotMutateBank(t *testing.T) {
	bank := testBank(t, 5)
	originalOrder := make([]int, len(bank.Questions))
	for i, q := range bank.Questions {
		originalOrder[i] = q.ID
	}
	originalOptions := make([]string, len(bank.Questions[0].Options))
	for i, opt := range bank.Questions[0].Options {
		originalOptions[i] = opt.ID
	}

	for i := 0; i < 20; i++ {
		if _, err := NewSession(bank, 5); err != nil {
			t.Fatalf("NewSession: %v", err)
		}
	}

	for i, q := range bank.Questions {
		if q.ID != originalOrder[i] {
			t.Fatal("bank question order was mutated")
		}
	}
	for i, opt := range bank.Questions[0].Options {
		if opt.ID != originalOptions[i] {
			t.Fatal("bank option order was mutated")
		}
	}
}

func TestSelectAnswer(t *testing.T) {
	sess, err := NewSession(testBank(t, 3), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	q := sess.Questions()[0]

	if err := sess.SelectAnswer(q.ID, q.Options[0].ID); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	// Overwriting is allowed.
	if err := sess.SelectAnswer(q.ID, q.Options[1].ID); err != nil {
		t.Fatalf("SelectAnswer overwrite: %v", err)
	}

	if err := sess.SelectAnswer(999, "A"); err != ErrUnknownQuestion {
		t.Errorf("unknown question: got %v, want ErrUnknownQuestion", err)
	}
	if err := sess.SelectAnswer(q.ID, "Z"); err != ErrUnknownOption {
		t.Errorf("unknown option: got %v, want ErrUnknownOption", err)
	}
}

func TestSkipIsIdempotentAndClearsAnswer(t *testing.T) {
	sess, err := NewSession(testBank(t, 3), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	q := sess.Questions()[0]

	if err := sess.SelectAnswer(q.ID, q.Options[0].ID); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := sess.Skip(q.ID); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if err := sess.Skip(q.ID); err != nil {
		t.Fatalf("second Skip: %v", err)
	}
	if len(sess.skipped) != 1 {
		t.Errorf("skipped set grew on repeat skip: %d entries", len(sess.skipped))
	}
	if _, ok := sess.answers[q.ID]; ok {
		t.Error("skip did not clear the stored answer")
	}

	if err := sess.Skip(999); err != ErrUnknownQuestion {
		t.Errorf("unknown question: got %v, want ErrUnknownQuestion", err)
	}
}

func TestReportIsOrthogonal(t *testing.T) {
	sess, err := NewSession(testBank(t, 3), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	q := sess.Questions()[0]

	if err := sess.Report(q.ID); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := sess.Report(q.ID); err != nil {
		t.Fatalf("second Report: %v", err)
	}
	// A reported question can still be answered.
	if err := sess.SelectAnswer(q.ID, q.Options[0].ID); err != nil {
		t.Fatalf("SelectAnswer after Report: %v", err)
	}
	if _, ok := sess.answers[q.ID]; !ok {
		t.Error("report cleared the stored answer")
	}
}

func TestSubmitAllCorrect(t *testing.T) {
	sess, err := NewSession(testBank(t, 5), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for _, q := range sess.Questions() {
		if err := sess.SelectAnswer(q.ID, q.CorrectAnswer); err != nil {
			t.Fatalf("SelectAnswer(%d): %v", q.ID, err)
		}
	}

	result, err := sess.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 3 || result.Total != 3 || result.Percentage != 100 {
		t.Errorf("got %d/%d (%d%%), want 3/3 (100%%)", result.Score, result.Total, result.Percentage)
	}
	for _, d := range result.Details {
		if !d.IsCorrect || d.Skipped {
			t.Errorf("question %d: IsCorrect=%v Skipped=%v, want correct and not skipped", d.QuestionID, d.IsCorrect, d.Skipped)
		}
	}
}

func TestSubmitAllSkipped(t *testing.T) {
	sess, err := NewSession(testBank(t, 5), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for _, q := range sess.Questions() {
		if err := sess.Skip(q.ID); err != nil {
			t.Fatalf("Skip(%d): %v", q.ID, err)
		}
	}

	result, err := sess.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 0 || result.Total != 3 || result.Percentage != 0 {
		t.Errorf("got %d/%d (%d%%), want 0/3 (0%%)", result.Score, result.Total, result.Percentage)
	}
	for _, d := range result.Details {
		if !d.Skipped {
			t.Errorf("question %d: expected skipped detail", d.QuestionID)
		}
		if d.SelectedAnswer != "" {
			t.Errorf("question %d: expected empty selected answer, got %q", d.QuestionID, d.SelectedAnswer)
		}
	}
}

func TestSkippedCorrectAnswerDoesNotScore(t *testing.T) {
	sess, err := NewSession(testBank(t, 3), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	q := sess.Questions()[0]

	// Skip, then answer correctly afterwards: the skip flag survives and
	// the question must not score.
	if err := sess.Skip(q.ID); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if err := sess.SelectAnswer(q.ID, q.CorrectAnswer); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	result, err := sess.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("skipped question scored: %d", result.Score)
	}
	detail := result.Details[0]
	for _, d := range result.Details {
		if d.QuestionID == q.ID {
			detail = d
		}
	}
	if !detail.Skipped || !detail.IsCorrect {
		t.Errorf("detail = %+v, want skipped with a correct stored answer", detail)
	}
}

func TestMismatchedCorrectAnswerNeverScores(t *testing.T) {
	bank := model.QCMBank{Questions: []model.QCMQuestion{{
		ID:       1,
		Question: "Broken question",
		Options: []model.QCMOption{
			{ID: "A", Text: "a"}, {ID: "B", Text: "b"},
			{ID: "C", Text: "c"}, {ID: "D", Text: "d"},
		},
		CorrectAnswer: "E",
	}}}
	for _, optID := range []string{"A", "B", "C", "D"} {
		sess, err := NewSession(bank, 1)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		if err := sess.SelectAnswer(1, optID); err != nil {
			t.Fatalf("SelectAnswer(%s): %v", optID, err)
		}
		result, err := sess.Submit()
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if result.Score != 0 {
			t.Errorf("option %s scored against correct_answer E", optID)
		}
	}
}

func TestSubmittedSessionRejectsMutations(t *testing.T) {
	sess, err := NewSession(testBank(t, 3), 3)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	q := sess.Questions()[0]
	if _, err := sess.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.Status() != StatusSubmitted {
		t.Fatalf("status = %s, want submitted", sess.Status())
	}

	if err := sess.SelectAnswer(q.ID, q.Options[0].ID); err != ErrNotInProgress {
		t.Errorf("SelectAnswer after submit: got %v, want ErrNotInProgress", err)
	}
	if err := sess.Skip(q.ID); err != ErrNotInProgress {
		t.Errorf("Skip after submit: got %v, want ErrNotInProgress", err)
	}
	if err := sess.Report(q.ID); err != ErrNotInProgress {
		t.Errorf("Report after submit: got %v, want ErrNotInProgress", err)
	}
	if _, err := sess.Submit(); err != ErrNotInProgress {
		t.Errorf("second Submit: got %v, want ErrNotInProgress", err)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 3, 0},
		{3, 3, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds half-up
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("percentage(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}
