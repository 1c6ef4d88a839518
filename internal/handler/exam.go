package handler

import (
	"log/slog"
	"net/http"
	"time"

	appI18n "github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
)

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var e model.Exam
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	if e.Title == "" {
		writeError(w, r, errBadRequest("exam title required"))
		return
	}
	if e.Duration <= 0 {
		writeError(w, r, errBadRequest("exam duration must be positive"))
		return
	}
	if e.StartTime != nil && e.EndTime != nil && e.EndTime.Before(*e.StartTime) {
		writeError(w, r, errBadRequest("exam window ends before it starts"))
		return
	}
	if user := model.UserFromContext(r.Context()); user != nil {
		e.CreatedBy = user.ID
	}

	id, err := h.store.CreateExam(e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.store.GetExam(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteExam(id); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleAvailableExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListOpenExams(time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

// examQuestionView is a question as shown to an exam taker: the correct
// answer never leaves the server before finalize.
type examQuestionView struct {
	ID      int64              `json:"id"`
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"question_type"`
	Options map[string]string  `json:"options,omitempty"`
	Points  int                `json:"points"`
}

type startExamResponse struct {
	Submission model.Submission   `json:"submission"`
	Exam       model.Exam         `json:"exam"`
	Questions  []examQuestionView `json:"questions"`
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	examID, err := urlParamInt64(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := model.UserFromContext(r.Context())

	exam, err := h.store.GetExam(examID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exam.OpenAt(time.Now()) {
		writeError(w, r, errConflict(appI18n.T(r.Context(), "ExamClosed")))
		return
	}

	sub, err := h.store.StartSubmission(examID, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	questions, err := h.store.ExamQuestions(examID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]examQuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, examQuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Options: q.Options,
			Points:  q.Points,
		})
	}

	slog.Info("exam started", "exam_id", examID, "user_id", user.ID, "submission_id", sub.ID)
	respondJSON(w, http.StatusCreated, startExamResponse{
		Submission: sub,
		Exam:       exam,
		Questions:  views,
	})
}

type saveAnswerRequest struct {
	SubmissionID int64  `json:"submission_id"`
	QuestionID   int64  `json:"question_id"`
	Answer       string `json:"answer"`
}

func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req saveAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SubmissionID == 0 || req.QuestionID == 0 {
		writeError(w, r, errBadRequest("submission_id and question_id required"))
		return
	}

	sub, err := h.submissionForCaller(r, req.SubmissionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.store.SaveAnswer(sub.ID, req.QuestionID, req.Answer); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "saved",
		"saved_at": time.Now(),
	})
}

type submitRequest struct {
	SubmissionID int64 `json:"submission_id"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SubmissionID == 0 {
		writeError(w, r, errBadRequest("submission_id required"))
		return
	}

	sub, err := h.submissionForCaller(r, req.SubmissionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.store.FinalizeSubmission(sub.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("submission finalized",
		"submission_id", sub.ID,
		"score", result.Score,
		"max_score", result.MaxScore,
	)
	respondJSON(w, http.StatusOK, result)
}

// submissionForCaller loads a submission and verifies it belongs to the
// authenticated user.
func (h *Handler) submissionForCaller(r *http.Request, submissionID int64) (model.Submission, error) {
	sub, err := h.store.GetSubmission(submissionID)
	if err != nil {
		return sub, err
	}
	user := model.UserFromContext(r.Context())
	if user == nil || sub.UserID != user.ID {
		return sub, errNotFound("submission not found")
	}
	return sub, nil
}

type examResultsResponse struct {
	Exam        model.Exam         `json:"exam"`
	Submissions []model.Submission `json:"submissions"`
}

func (h *Handler) handleExamResults(w http.ResponseWriter, r *http.Request) {
	examID, err := urlParamInt64(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	exam, err := h.store.GetExam(examID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	subs, err := h.store.ListSubmissionsForExam(examID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	respondJSON(w, http.StatusOK, examResultsResponse{Exam: exam, Submissions: subs})
}
