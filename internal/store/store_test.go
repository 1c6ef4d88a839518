package store

import (
	"database/sql"
	"testing"

	"github.com/pavelanni/proctor/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestQuestion(t *testing.T, s *Store, text, subject, correct string, points int) int64 {
	t.Helper()
	id, err := s.InsertQuestion(model.Question{
		Text:          text,
		Type:          model.TypeMultipleChoice,
		Options:       map[string]string{"A": "first", "B": "second"},
		CorrectAnswer: correct,
		Subject:       subject,
		Difficulty:    model.DifficultyMedium,
		Points:        points,
	})
	if err != nil {
		t.Fatalf("insertTestQuestion: %v", err)
	}
	return id
}

func createTestUser(t *testing.T, s *Store, email string, role model.Role) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func TestQuestionCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}

	id := insertTestQuestion(t, s, "What is Go?", "Programming", "A", 10)
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Text != "What is Go?" {
		t.Errorf("expected text 'What is Go?', got %q", q.Text)
	}
	if q.Options["A"] != "first" || q.Options["B"] != "second" {
		t.Errorf("options did not round-trip: %v", q.Options)
	}
	if q.CorrectAnswer != "A" {
		t.Errorf("expected correct answer A, got %q", q.CorrectAnswer)
	}

	// Not found.
	_, err = s.GetQuestion(9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	// Update.
	q.Text = "What is a goroutine?"
	q.Points = 20
	if err := s.UpdateQuestion(q); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	q, _ = s.GetQuestion(id)
	if q.Text != "What is a goroutine?" || q.Points != 20 {
		t.Errorf("update not applied: %+v", q)
	}

	// Delete.
	if err := s.DeleteQuestion(id); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if err := s.DeleteQuestion(id); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows on double delete, got %v", err)
	}
}

func TestQuestionWithoutOptions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertQuestion(model.Question{
		Text:          "Name the capital of France",
		Type:          model.TypeShortAnswer,
		CorrectAnswer: "Paris",
		Subject:       "Geography",
		Difficulty:    model.DifficultyEasy,
		Points:        5,
	})
	if err != nil {
		t.Fatalf("InsertQuestion: %v", err)
	}
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Options != nil {
		t.Errorf("expected nil options, got %v", q.Options)
	}
}

func TestListQuestionsFiltered(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, "Q1", "Math", "A", 10)
	insertTestQuestion(t, s, "Q2", "Math", "A", 10)
	insertTestQuestion(t, s, "Q3", "Science", "A", 10)

	tests := []struct {
		name       string
		subject    string
		difficulty string
		wantCount  int
	}{
		{"no filter", "", "", 3},
		{"by subject", "Math", "", 2},
		{"by difficulty", "", "medium", 3},
		{"no match", "History", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := s.ListQuestions(tt.subject, tt.difficulty)
			if err != nil {
				t.Fatalf("ListQuestions: %v", err)
			}
			if len(qs) != tt.wantCount {
				t.Errorf("expected %d questions, got %d", tt.wantCount, len(qs))
			}
		})
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	id := createTestUser(t, s, "admin@example.com", model.RoleAdmin)

	u, err := s.GetUserByEmail("admin@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}

	// Missing user returns nil, not an error.
	u, err = s.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail missing: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}

	// Duplicate email rejected with the typed error.
	_, err = s.CreateUser(model.User{Email: "admin@example.com", PasswordHash: "x", Role: model.RoleStudent})
	if err != ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	// Update without password keeps the hash.
	u, _ = s.GetUserByID(id)
	upd := *u
	upd.DisplayName = "Administrator"
	upd.PasswordHash = ""
	if err := s.UpdateUser(upd); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.DisplayName != "Administrator" {
		t.Errorf("expected updated display name, got %q", u.DisplayName)
	}
	if u.PasswordHash != "x" {
		t.Errorf("password hash should be unchanged, got %q", u.PasswordHash)
	}

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}

	if err := s.DeleteUser(id); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := s.DeleteUser(id); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestExamCRUD(t *testing.T) {
	s := newTestStore(t)

	q1 := insertTestQuestion(t, s, "Q1", "Math", "A", 10)
	q2 := insertTestQuestion(t, s, "Q2", "Math", "B", 5)

	examID, err := s.CreateExam(model.Exam{
		Title:       "Midterm",
		Description: "First half",
		Duration:    90,
		QuestionIDs: []int64{q2, q1}, // deliberate order
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	e, err := s.GetExam(examID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if e.Title != "Midterm" || e.Duration != 90 {
		t.Errorf("unexpected exam: %+v", e)
	}
	if len(e.QuestionIDs) != 2 || e.QuestionIDs[0] != q2 || e.QuestionIDs[1] != q1 {
		t.Errorf("question order not preserved: %v", e.QuestionIDs)
	}

	qs, err := s.ExamQuestions(examID)
	if err != nil {
		t.Fatalf("ExamQuestions: %v", err)
	}
	if len(qs) != 2 || qs[0].ID != q2 || qs[1].ID != q1 {
		t.Errorf("ExamQuestions order wrong: %v", qs)
	}

	if err := s.DeleteExam(examID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	if _, err := s.GetExam(examID); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
}
