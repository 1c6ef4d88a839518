package model

import "time"

// ResultsExport is the top-level JSON structure for the export subcommand.
type ResultsExport struct {
	ExportedAt time.Time     `json:"exported_at"`
	Exams      []ExamResults `json:"exams"`
}

// ExamResults holds all submissions for one exam.
type ExamResults struct {
	ExamID      int64              `json:"exam_id"`
	Title       string             `json:"title"`
	MaxScore    int                `json:"max_score"`
	Submissions []SubmissionExport `json:"submissions"`
}

// SubmissionExport holds one student's submission data for export.
type SubmissionExport struct {
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name"`
	Status      SubmissionStatus `json:"status"`
	Score       int              `json:"score"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	Answers     []AnswerExport   `json:"answers"`
}

// AnswerExport is a single answered question in an exported submission.
type AnswerExport struct {
	QuestionID int64     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Correct    bool      `json:"correct"`
	Points     int       `json:"points"`
	SavedAt    time.Time `json:"saved_at"`
}
