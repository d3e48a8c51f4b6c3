package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cgirard/profeval/internal/exam"
	appI18n "github.com/cgirard/profeval/internal/i18n"
	"github.com/cgirard/profeval/internal/model"
)

type examStartRequest struct {
	BankID string         `json:"bank_id"`
	Bank   *model.QCMBank `json:"bank"`
	Count  int            `json:"count"`
}

type examQuestionRequest struct {
	QuestionID int    `json:"question_id"`
	OptionID   string `json:"option_id"`
}

// handleExamStart creates a fresh session from either an inline bank or a
// stored one. Any previous session is discarded wholesale.
func (h *Handler) handleExamStart(w http.ResponseWriter, r *http.Request) {
	var req examStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}

	var bank model.QCMBank
	switch {
	case req.Bank != nil:
		bank = *req.Bank
	case req.BankID != "":
		sb, err := h.store.GetBank(req.BankID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
			return
		}
		if sb == nil {
			respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "BankNotFound"), "")
			return
		}
		bank = sb.Bank
	default:
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), "bank or bank_id is required")
		return
	}

	questions, err := h.engine.Start(bank, req.Count)
	if err != nil {
		h.respondExamError(w, r, err)
		return
	}

	slog.Info("exam started", "requested", req.Count, "served", len(questions))
	respondJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"message":   appI18n.Td(r.Context(), "ExamQuestions", map[string]any{"Count": len(questions)}),
	})
}

func (h *Handler) handleExamAnswer(w http.ResponseWriter, r *http.Request) {
	var req examQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}
	if err := h.engine.SelectAnswer(req.QuestionID, req.OptionID); err != nil {
		h.respondExamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExamSkip(w http.ResponseWriter, r *http.Request) {
	var req examQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}
	if err := h.engine.Skip(req.QuestionID); err != nil {
		h.respondExamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExamReport(w http.ResponseWriter, r *http.Request) {
	var req examQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}
	if err := h.engine.Report(req.QuestionID); err != nil {
		h.respondExamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExamSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Submit()
	if err != nil {
		h.respondExamError(w, r, err)
		return
	}
	slog.Info("exam submitted", "score", result.Score, "total", result.Total, "percentage", result.Percentage)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExamReset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// respondExamError maps engine errors onto HTTP statuses: state-machine
// violations are conflicts, unknown ids and bad inputs are bad requests.
func (h *Handler) respondExamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, exam.ErrNotInProgress):
		respondError(w, http.StatusConflict, appI18n.T(r.Context(), "SessionNotInProgress"), err.Error())
	case errors.Is(err, exam.ErrUnknownQuestion), errors.Is(err, exam.ErrUnknownOption):
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "UnknownQuestion"), err.Error())
	case errors.Is(err, exam.ErrEmptyBank), errors.Is(err, exam.ErrBadCount):
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "EmptyBank"), err.Error())
	default:
		slog.Error("exam operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
	}
}
