package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cgirard/profeval/internal/exam"
	appI18n "github.com/cgirard/profeval/internal/i18n"
	"github.com/cgirard/profeval/internal/interpret"
	"github.com/cgirard/profeval/internal/llm"
	"github.com/cgirard/profeval/internal/llm/prompts"
	"github.com/cgirard/profeval/internal/model"
	"github.com/cgirard/profeval/internal/report"
	"github.com/cgirard/profeval/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    *llm.Client
	engine *exam.Engine
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, l *llm.Client, e *exam.Engine, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, llm: l, engine: e, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/logout", h.handleLogout)
		r.Get("/api/config", h.handleConfig)

		r.Post("/api/ai", h.handleGenerate)

		r.Post("/api/exam/start", h.handleExamStart)
		r.Post("/api/exam/answer", h.handleExamAnswer)
		r.Post("/api/exam/skip", h.handleExamSkip)
		r.Post("/api/exam/report", h.handleExamReport)
		r.Post("/api/exam/submit", h.handleExamSubmit)
		r.Post("/api/exam/reset", h.handleExamReset)

		r.Get("/api/banks", h.handleListBanks)
		r.Post("/api/banks", h.handleSaveBank)
		r.Get("/api/banks/{bankID}", h.handleGetBank)
		r.Delete("/api/banks/{bankID}", h.handleDeleteBank)
		r.Get("/api/banks/{bankID}/export", h.handleExportBank)

		r.Post("/api/export", h.handleExportDocument)
	})
}

// generateRequest is the wire shape of a generation request. Temperature and
// MaxTokens are pointers so an absent field can fall back to the defaults.
type generateRequest struct {
	Model       string              `json:"model"`
	Messages    []model.ChatMessage `json:"messages"`
	Temperature *float64            `json:"temperature"`
	MaxTokens   *int                `json:"max_tokens"`
	Tool        model.ToolKind      `json:"tool"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}

	temperature := llm.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := llm.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	chatReq, err := llm.Compose(req.Tool, req.Messages, req.Model, temperature, maxTokens)
	if err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}

	completion, err := h.llm.Send(r.Context(), chatReq)
	if err != nil {
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) {
			slog.Error("upstream model error", "status", upstream.StatusCode, "tool", req.Tool)
			respondError(w, upstream.StatusCode, appI18n.T(r.Context(), "UpstreamError"), upstream.Body)
			return
		}
		slog.Error("generation failed", "tool", req.Tool, "error", err)
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}

	artifact := interpret.Interpret(req.Tool, completion.Content)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"data":         artifact,
		"raw_response": completion.Content,
		"usage":        completion.Usage,
	})
}

// exportRequest wraps any generated artifact for download. The artifact is
// kept as raw JSON so it round-trips unmodified.
type exportRequest struct {
	Kind     model.ExportKind `json:"kind"`
	Inputs   map[string]any   `json:"inputs"`
	Artifact json.RawMessage  `json:"artifact"`
}

func (h *Handler) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}
	if !model.ValidExportKind(req.Kind) {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), "unknown export kind")
		return
	}

	doc := report.Assemble(req.Kind, req.Inputs, req.Artifact)
	slog.Info("assembled export document", "kind", doc.Kind, "id", doc.ID)
	respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetPlatformInfo()
	if err != nil {
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	resp := map[string]any{
		"title":    appI18n.T(r.Context(), "AppTitle"),
		"platform": info,
		"tools":    prompts.Tools(),
	}
	if user := model.UserFromContext(r.Context()); user != nil {
		resp["user"] = map[string]any{
			"username":     user.Username,
			"display_name": user.DisplayName,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	respondJSON(w, status, body)
}

// bankIDParam pulls the bank id out of the route.
func bankIDParam(r *http.Request) string {
	return chi.URLParam(r, "bankID")
}

func (h *Handler) handleSaveBank(w http.ResponseWriter, r *http.Request) {
	var bank model.QCMBank
	if err := json.NewDecoder(r.Body).Decode(&bank); err != nil {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidRequest"), err.Error())
		return
	}
	if len(bank.Questions) == 0 {
		respondError(w, http.StatusBadRequest, appI18n.T(r.Context(), "EmptyBank"), "")
		return
	}
	id, err := h.store.SaveBank(bank)
	if err != nil {
		slog.Error("save bank failed", "error", err)
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": appI18n.T(r.Context(), "BankSaved"),
	})
}

func (h *Handler) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.store.ListBanks()
	if err != nil {
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"banks": banks})
}

func (h *Handler) handleGetBank(w http.ResponseWriter, r *http.Request) {
	sb, err := h.store.GetBank(bankIDParam(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	if sb == nil {
		respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "BankNotFound"), "")
		return
	}
	respondJSON(w, http.StatusOK, sb)
}

func (h *Handler) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBank(bankIDParam(r)); err != nil {
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportBank(w http.ResponseWriter, r *http.Request) {
	sb, err := h.store.GetBank(bankIDParam(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"), err.Error())
		return
	}
	if sb == nil {
		respondError(w, http.StatusNotFound, appI18n.T(r.Context(), "BankNotFound"), "")
		return
	}
	doc := report.Assemble(model.ExportQCMBank,
		map[string]any{"subject": sb.Subject, "bank_id": sb.ID},
		report.AssembleBank(sb.Bank),
	)
	respondJSON(w, http.StatusOK, doc)
}
