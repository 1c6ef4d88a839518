package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pavelanni/proctor/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// querier is the read surface shared by *sql.DB and *sql.Tx, so reads that
// must observe an open transaction can run through it.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		question_type TEXT NOT NULL DEFAULT 'multiple_choice',
		options TEXT NOT NULL DEFAULT '{}',
		correct_answer TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT 'General',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		points INTEGER NOT NULL DEFAULT 10,
		created_by INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		start_time DATETIME,
		end_time DATETIME,
		created_by INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exam_questions (
		exam_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (exam_id, question_id),
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		score INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		submitted_at DATETIME,
		UNIQUE (exam_id, user_id),
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		answer_text TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL,
		UNIQUE (submission_id, question_id),
		FOREIGN KEY (submission_id) REFERENCES submissions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func encodeOptions(opts map[string]string) (string, error) {
	if len(opts) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	return string(b), nil
}

func decodeOptions(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var opts map[string]string
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

// InsertQuestion stores a question.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	opts, err := encodeOptions(q.Options)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (text, question_type, options, correct_answer, subject, difficulty, points, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Text, q.Type, opts, q.CorrectAnswer, q.Subject, q.Difficulty, q.Points, q.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const questionCols = `id, text, question_type, options, correct_answer, subject, difficulty, points, created_by`

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var opts string
	err := row.Scan(&q.ID, &q.Text, &q.Type, &opts, &q.CorrectAnswer, &q.Subject, &q.Difficulty, &q.Points, &q.CreatedBy)
	if err != nil {
		return q, err
	}
	q.Options, err = decodeOptions(opts)
	return q, err
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionCols+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// ListQuestions returns questions matching the given filters.
// Empty strings mean no filtering on that field.
func (s *Store) ListQuestions(subject string, difficulty string) ([]model.Question, error) {
	query := `SELECT ` + questionCols + ` FROM questions WHERE 1=1`
	var args []any
	if subject != "" {
		query += ` AND subject = ?`
		args = append(args, subject)
	}
	if difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, difficulty)
	}
	query += ` ORDER BY id`
	rows, err := s.db.Query(query, args...)
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

// UpdateQuestion replaces all mutable fields of a question.
func (s *Store) UpdateQuestion(q model.Question) error {
	opts, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE questions SET text = ?, question_type = ?, options = ?, correct_answer = ?,
		 subject = ?, difficulty = ?, points = ? WHERE id = ?`,
		q.Text, q.Type, opts, q.CorrectAnswer, q.Subject, q.Difficulty, q.Points, q.ID,
	)
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
	return nil
}

// DeleteQuestion removes a question from the bank.
func (s *Store) DeleteQuestion(id int64) error {
	res, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
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
	return nil
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
