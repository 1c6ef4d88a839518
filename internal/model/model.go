package model

import (
	"context"
	"time"
)

// Role represents a user's access level.
type Role string

const (
	// RoleStudent is a student user role.
	RoleStudent Role = "student"
	// RoleTeacher is a teacher user role.
	RoleTeacher Role = "teacher"
	// RoleAdmin is an admin user role.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// CanManageUsers reports whether the role may create, update, or delete users.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanManageContent reports whether the role may manage questions and exams.
func (r Role) CanManageContent() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType represents the kind of answer a question expects.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question represents a question-bank entry. Options maps option labels
// (A, B, ...) to option text and is empty for non-choice questions.
type Question struct {
	ID            int64             `json:"id"`
	Text          string            `json:"text"`
	Type          QuestionType      `json:"question_type"`
	Options       map[string]string `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	Subject       string            `json:"subject"`
	Difficulty    Difficulty        `json:"difficulty"`
	Points        int               `json:"points"`
	CreatedBy     int64             `json:"created_by"`
}

// Exam defines a scheduled exam built from question-bank entries.
type Exam struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    int        `json:"duration_minutes"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	QuestionIDs []int64    `json:"question_ids,omitempty"`
}

// OpenAt reports whether the exam's scheduling window contains t.
// A missing bound leaves that side of the window open.
func (e Exam) OpenAt(t time.Time) bool {
	if e.StartTime != nil && t.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && t.After(*e.EndTime) {
		return false
	}
	return true
}

// SubmissionStatus represents the lifecycle state of a submission.
// Status only moves forward: in_progress -> submitted.
type SubmissionStatus string

const (
	StatusInProgress SubmissionStatus = "in_progress"
	StatusSubmitted  SubmissionStatus = "submitted"
)

// Submission is one student's attempt instance at one exam.
type Submission struct {
	ID          int64            `json:"id"`
	ExamID      int64            `json:"exam_id"`
	UserID      int64            `json:"user_id"`
	Status      SubmissionStatus `json:"status"`
	Score       int              `json:"score"`
	StartedAt   time.Time        `json:"started_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
}

// Answer holds the latest saved answer for one question in a submission.
// Autosave overwrites in place; no history is kept.
type Answer struct {
	ID           int64     `json:"id"`
	SubmissionID int64     `json:"submission_id"`
	QuestionID   int64     `json:"question_id"`
	Text         string    `json:"answer"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuestionResult is the per-question outcome included in a finalize response.
type QuestionResult struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	Earned     int    `json:"earned"`
}

// SubmissionResult is the payload returned by the finalize call.
type SubmissionResult struct {
	SubmissionID int64            `json:"submission_id"`
	Score        int              `json:"score"`
	MaxScore     int              `json:"max_score"`
	Results      []QuestionResult `json:"results"`
}

// ImportReport summarizes a question batch import. Errors holds at most
// the first five row failure messages.
type ImportReport struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}
