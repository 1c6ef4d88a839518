package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/proctor/internal/model"
)

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions(r.URL.Query().Get("subject"), r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Text == "" {
		writeError(w, r, errBadRequest("question text required"))
		return
	}
	applyQuestionDefaults(&q)
	if user := model.UserFromContext(r.Context()); user != nil {
		q.CreatedBy = user.ID
	}

	id, err := h.store.InsertQuestion(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.store.GetQuestion(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "questionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var q model.Question
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Text == "" {
		writeError(w, r, errBadRequest("question text required"))
		return
	}
	applyQuestionDefaults(&q)
	q.ID = id

	if err := h.store.UpdateQuestion(q); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.store.GetQuestion(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "questionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applyQuestionDefaults(q *model.Question) {
	if q.Type == "" {
		q.Type = model.TypeMultipleChoice
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if q.Subject == "" {
		q.Subject = "General"
	}
	if q.Points <= 0 {
		q.Points = 10
	}
}

var exportHeader = []string{
	"question_text", "question_type", "option_a", "option_b", "option_c", "option_d",
	"correct_answer", "subject", "difficulty", "points",
}

func questionRecord(q model.Question) []string {
	return []string{
		q.Text, string(q.Type),
		q.Options["A"], q.Options["B"], q.Options["C"], q.Options["D"],
		q.CorrectAnswer, q.Subject, string(q.Difficulty), strconv.Itoa(q.Points),
	}
}

// handleExportQuestions streams the filtered question bank as csv (default)
// or xlsx, using the same column set the importer recognizes.
func (h *Handler) handleExportQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions(r.URL.Query().Get("subject"), r.URL.Query().Get("difficulty"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="questions.csv"`)
		cw := csv.NewWriter(w)
		if err := cw.Write(exportHeader); err != nil {
			writeError(w, r, err)
			return
		}
		for _, q := range questions {
			if err := cw.Write(questionRecord(q)); err != nil {
				writeError(w, r, err)
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			writeError(w, r, err)
		}
	case "xlsx":
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		for i, col := range exportHeader {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(sheet, cell, col); err != nil {
				writeError(w, r, err)
				return
			}
		}
		for row, q := range questions {
			for i, val := range questionRecord(q) {
				cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					writeError(w, r, err)
					return
				}
			}
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="questions.xlsx"`)
		if err := f.Write(w); err != nil {
			writeError(w, r, err)
		}
	default:
		writeError(w, r, errBadRequest("unsupported export format %q", format))
	}
}
