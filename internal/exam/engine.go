package exam

import (
	"sync"

	"github.com/cgirard/profeval/internal/model"
)

// Engine owns the single active exam session. Replacement is wholesale:
// starting or resetting swaps the session pointer under the lock, never
// merging field-by-field, so concurrent callers observe last-write-wins at
// the granularity of a full session.
type Engine struct {
	mu      sync.Mutex
	session *Session
}

// NewEngine creates an engine with no active session.
func NewEngine() *Engine {
	return &Engine{}
}

// Start discards any existing session and creates a new one from the bank.
func (e *Engine) Start(bank model.QCMBank, count int) ([]model.QCMQuestion, error) {
	sess, err := NewSession(bank, count)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = sess
	return sess.Questions(), nil
}

// SelectAnswer records an answer on the active session.
func (e *Engine) SelectAnswer(questionID int, optionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNotInProgress
	}
	return e.session.SelectAnswer(questionID, optionID)
}

// Skip marks a question skipped on the active session.
func (e *Engine) Skip(questionID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNotInProgress
	}
	return e.session.Skip(questionID)
}

// Report flags a question on the active session.
func (e *Engine) Report(questionID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNotInProgress
	}
	return e.session.Report(questionID)
}

// Submit scores and closes the active session.
func (e *Engine) Submit() (*model.ExamResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, ErrNotInProgress
	}
	return e.session.Submit()
}

// Reset discards the active session, if any. The next exam starts fresh.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
}

// Active reports whether a session is currently in progress.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.Status() == StatusInProgress
}
