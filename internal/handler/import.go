package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	appI18n "github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/qimport"
)

const maxImportSize = 10 << 20

// handleImportQuestions accepts a multipart csv or xlsx upload and inserts
// the parsed questions row by row. A failed row is reported, not fatal.
func (h *Handler) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, r, errBadRequest("file too large or malformed upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, errBadRequest("no file uploaded"))
		return
	}
	defer file.Close()

	var rows []qimport.Row
	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".csv":
		rows, err = qimport.ParseCSV(file)
	case ".xlsx":
		rows, err = qimport.ParseXLSX(file)
	case ".zip":
		writeError(w, r, errBadRequest("%s", appI18n.T(r.Context(), "ArchiveUnsupported")))
		return
	default:
		writeError(w, r, errBadRequest("unsupported file type %q, expected .csv or .xlsx", ext))
		return
	}
	if err != nil {
		writeError(w, r, errBadRequest("cannot parse %s: %v", header.Filename, err))
		return
	}

	var createdBy int64
	if user := model.UserFromContext(r.Context()); user != nil {
		createdBy = user.ID
	}

	report := qimport.Process(rows, createdBy, h.store)
	if report.Errors == nil {
		report.Errors = []string{}
	}
	slog.Info("imported questions",
		"filename", header.Filename,
		"imported", report.Imported,
		"failed", report.Failed,
	)
	respondJSON(w, http.StatusOK, report)
}
