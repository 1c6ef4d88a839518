package store

import (
	"database/sql"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// CreateExam creates an exam and links its questions in order.
func (s *Store) CreateExam(e model.Exam) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO exams (title, description, duration_minutes, start_time, end_time, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Duration, e.StartTime, e.EndTime, e.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, qID := range e.QuestionIDs {
		_, err := tx.Exec(
			`INSERT INTO exam_questions (exam_id, question_id, position) VALUES (?, ?, ?)`,
			examID, qID, i,
		)
		if err != nil {
			return 0, err
		}
	}

	return examID, tx.Commit()
}

// GetExam returns an exam by ID, including its ordered question IDs.
func (s *Store) GetExam(id int64) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, title, description, duration_minutes, start_time, end_time, created_by
		 FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.Duration, &e.StartTime, &e.EndTime, &e.CreatedBy)
	if err != nil {
		return e, err
	}
	e.QuestionIDs, err = s.examQuestionIDs(id)
	return e, err
}

func (s *Store) examQuestionIDs(examID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT question_id FROM exam_questions WHERE exam_id = ? ORDER BY position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListExams returns all exams, newest first, without question lists.
func (s *Store) ListExams() ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, duration_minutes, start_time, end_time, created_by
		 FROM exams ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Duration, &e.StartTime, &e.EndTime, &e.CreatedBy); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListOpenExams returns exams whose scheduling window contains now.
func (s *Store) ListOpenExams(now time.Time) ([]model.Exam, error) {
	exams, err := s.ListExams()
	if err != nil {
		return nil, err
	}
	var open []model.Exam
	for _, e := range exams {
		if e.OpenAt(now) {
			open = append(open, e)
		}
	}
	return open, nil
}

// ExamQuestions returns the exam's questions in position order.
func (s *Store) ExamQuestions(examID int64) ([]model.Question, error) {
	return examQuestions(s.db, examID)
}

func examQuestions(db querier, examID int64) ([]model.Question, error) {
	rows, err := db.Query(
		`SELECT q.id, q.text, q.question_type, q.options, q.correct_answer, q.subject, q.difficulty, q.points, q.created_by
		 FROM questions q
		 JOIN exam_questions eq ON eq.question_id = q.id
		 WHERE eq.exam_id = ?
		 ORDER BY eq.position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeleteExam removes an exam and its question links.
func (s *Store) DeleteExam(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exam_questions WHERE exam_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM exams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
