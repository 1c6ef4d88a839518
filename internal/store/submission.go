package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// ErrAlreadyStarted is returned when a student starts an exam they already
// have a submission for.
var ErrAlreadyStarted = errors.New("submission already exists for this exam")

// ErrSubmissionClosed is returned when an answer write or a second finalize
// hits a submission that is no longer in progress.
var ErrSubmissionClosed = errors.New("submission is no longer in progress")

// StartSubmission creates the in-progress submission for one (exam, user)
// pair. A second start for the same pair fails with ErrAlreadyStarted.
func (s *Store) StartSubmission(examID, userID int64) (model.Submission, error) {
	var sub model.Submission
	res, err := s.db.Exec(
		`INSERT INTO submissions (exam_id, user_id, status, started_at) VALUES (?, ?, ?, ?)`,
		examID, userID, model.StatusInProgress, time.Now(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return sub, ErrAlreadyStarted
		}
		return sub, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return sub, err
	}
	return s.GetSubmission(id)
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id int64) (model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, exam_id, user_id, status, score, started_at, submitted_at
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.ExamID, &sub.UserID, &sub.Status, &sub.Score, &sub.StartedAt, &sub.SubmittedAt)
	return sub, err
}

// GetSubmissionForUser returns the submission for an (exam, user) pair,
// or nil if the user has not started the exam.
func (s *Store) GetSubmissionForUser(examID, userID int64) (*model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, exam_id, user_id, status, score, started_at, submitted_at
		 FROM submissions WHERE exam_id = ? AND user_id = ?`, examID, userID,
	).Scan(&sub.ID, &sub.ExamID, &sub.UserID, &sub.Status, &sub.Score, &sub.StartedAt, &sub.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissionsForExam returns all submissions for an exam, newest first.
func (s *Store) ListSubmissionsForExam(examID int64) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, user_id, status, score, started_at, submitted_at
		 FROM submissions WHERE exam_id = ? ORDER BY id DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.ExamID, &sub.UserID, &sub.Status, &sub.Score, &sub.StartedAt, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SaveAnswer upserts the answer for one question in a submission. The latest
// write wins. Writes against a submitted submission fail with
// ErrSubmissionClosed.
func (s *Store) SaveAnswer(submissionID, questionID int64, text string) error {
	sub, err := s.GetSubmission(submissionID)
	if err != nil {
		return err
	}
	if sub.Status != model.StatusInProgress {
		return ErrSubmissionClosed
	}
	_, err = s.db.Exec(
		`INSERT INTO answers (submission_id, question_id, answer_text, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(submission_id, question_id) DO UPDATE SET answer_text = ?, updated_at = ?`,
		submissionID, questionID, text, time.Now(), text, time.Now(),
	)
	return err
}

// GetAnswers returns all saved answers for a submission, keyed by question.
func (s *Store) GetAnswers(submissionID int64) (map[int64]model.Answer, error) {
	return getAnswers(s.db, submissionID)
}

func getAnswers(db querier, submissionID int64) (map[int64]model.Answer, error) {
	rows, err := db.Query(
		`SELECT id, submission_id, question_id, answer_text, updated_at
		 FROM answers WHERE submission_id = ?`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	answers := make(map[int64]model.Answer)
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.Text, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers[a.QuestionID] = a
	}
	return answers, rows.Err()
}

// answerMatches compares a saved answer against the stored correct answer.
// Comparison is trimmed and case-insensitive; for choice questions the
// answer text is the option label.
func answerMatches(correct, given string) bool {
	correct = strings.TrimSpace(correct)
	given = strings.TrimSpace(given)
	return correct != "" && strings.EqualFold(correct, given)
}

// FinalizeSubmission computes the score from the saved answer set, moves the
// submission to submitted, and returns the result. The score is computed
// exactly once: a finalize against an already-submitted submission fails
// with ErrSubmissionClosed and does not rescore.
func (s *Store) FinalizeSubmission(submissionID int64) (*model.SubmissionResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var sub model.Submission
	err = tx.QueryRow(
		`SELECT id, exam_id, user_id, status FROM submissions WHERE id = ?`, submissionID,
	).Scan(&sub.ID, &sub.ExamID, &sub.UserID, &sub.Status)
	if err != nil {
		return nil, err
	}
	if sub.Status != model.StatusInProgress {
		return nil, ErrSubmissionClosed
	}

	// Reads must stay on the transaction's connection: a pooled read runs
	// elsewhere, and under the :memory: DSN that is a different database.
	questions, err := examQuestions(tx, sub.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := getAnswers(tx, submissionID)
	if err != nil {
		return nil, err
	}

	result := &model.SubmissionResult{SubmissionID: submissionID}
	for _, q := range questions {
		qr := model.QuestionResult{QuestionID: q.ID, Points: q.Points}
		if a, ok := answers[q.ID]; ok {
			qr.Answer = a.Text
			if answerMatches(q.CorrectAnswer, a.Text) {
				qr.Correct = true
				qr.Earned = q.Points
			}
		}
		result.Score += qr.Earned
		result.MaxScore += q.Points
		result.Results = append(result.Results, qr)
	}

	_, err = tx.Exec(
		`UPDATE submissions SET status = ?, score = ?, submitted_at = ? WHERE id = ?`,
		model.StatusSubmitted, result.Score, time.Now(), submissionID,
	)
	if err != nil {
		return nil, err
	}
	return result, tx.Commit()
}
