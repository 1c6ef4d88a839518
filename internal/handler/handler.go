package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/store"
	"github.com/pavelanni/proctor/internal/token"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	tokens *token.Issuer
}

// New creates a new Handler.
func New(s *store.Store, tokens *token.Issuer) *Handler {
	return &Handler{store: s, tokens: tokens}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/exams/available", h.handleAvailableExams)
		r.Post("/exams/{examID}/start", h.handleStartExam)
		r.Post("/exams/save-answer", h.handleSaveAnswer)
		r.Post("/exams/submit", h.handleSubmit)

		// Question bank and exam management.
		r.Group(func(r chi.Router) {
			r.Use(requirePermission(model.Role.CanManageContent))

			r.Get("/exams", h.handleListExams)
			r.Post("/exams", h.handleCreateExam)
			r.Get("/exams/{examID}/results", h.handleExamResults)
			r.Delete("/exams/{examID}", h.handleDeleteExam)

			r.Get("/questions", h.handleListQuestions)
			r.Post("/questions", h.handleCreateQuestion)
			r.Put("/questions/{questionID}", h.handleUpdateQuestion)
			r.Delete("/questions/{questionID}", h.handleDeleteQuestion)
			r.Get("/questions/export", h.handleExportQuestions)
			r.Post("/questions/import", h.handleImportQuestions)
		})

		// User administration.
		r.Group(func(r chi.Router) {
			r.Use(requirePermission(model.Role.CanManageUsers))

			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
			r.Get("/users/{userID}", h.handleGetUser)
			r.Put("/users/{userID}", h.handleUpdateUser)
			r.Delete("/users/{userID}", h.handleDeleteUser)
		})
	})
}

// apiError carries an HTTP status with a client-safe message.
type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string { return e.Msg }

func errBadRequest(format string, args ...any) error {
	return &apiError{Status: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func errUnauthorized(msg string) error {
	return &apiError{Status: http.StatusUnauthorized, Msg: msg}
}

func errForbidden(msg string) error {
	return &apiError{Status: http.StatusForbidden, Msg: msg}
}

func errNotFound(msg string) error {
	return &apiError{Status: http.StatusNotFound, Msg: msg}
}

func errConflict(msg string) error {
	return &apiError{Status: http.StatusConflict, Msg: msg}
}

// writeError maps an error to an HTTP status and a JSON error body. Store
// failures are logged and never leaked verbatim to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		respondJSON(w, apiErr.Status, map[string]string{"error": apiErr.Msg})
	case errors.Is(err, sql.ErrNoRows):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrAlreadyStarted):
		respondJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrSubmissionClosed):
		respondJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateEmail):
		respondJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest("invalid JSON body: %v", err)
	}
	return nil
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errBadRequest("invalid %s", name)
	}
	return id, nil
}
