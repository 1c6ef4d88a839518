// Package client is the Go SDK for the exam-taking flow: an authenticated
// API session plus the countdown timer and autosave coordinator that drive
// one exam attempt.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Session holds the authenticated API state for one user: base URL, bearer
// token, and the logged-in user. It replaces ambient token storage with an
// explicit object that is initialized by Login and cleared by Logout.
type Session struct {
	baseURL string
	http    *http.Client
	token   string
	user    *model.User
}

// NewSession creates an unauthenticated session against the given base URL.
func NewSession(baseURL string) *Session {
	return &Session{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Login authenticates and stores the bearer token and user on the session.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	err := s.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return err
	}
	s.token = resp.Token
	s.user = &resp.User
	return nil
}

// Logout clears the session's token and user.
func (s *Session) Logout() {
	s.token = ""
	s.user = nil
}

// User returns the logged-in user, or nil.
func (s *Session) User() *model.User { return s.user }

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AvailableExams lists exams whose scheduling window is currently open.
func (s *Session) AvailableExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	err := s.do(ctx, http.MethodGet, "/exams/available", nil, &exams)
	return exams, err
}

// ExamQuestion is a question as presented to the exam taker.
type ExamQuestion struct {
	ID      int64              `json:"id"`
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"question_type"`
	Options map[string]string  `json:"options,omitempty"`
	Points  int                `json:"points"`
}

// Attempt is one in-progress exam attempt: its submission, questions,
// countdown timer, and autosave coordinator.
type Attempt struct {
	session      *Session
	SubmissionID int64
	Exam         model.Exam
	Questions    []ExamQuestion
	Timer        *Timer
	autosave     *Autosave
}

// AttemptOptions tunes an attempt's client-side behavior.
type AttemptOptions struct {
	Debounce time.Duration                     // autosave quiet period, DefaultDebounce if zero
	OnExpire func()                            // called once when the countdown reaches zero
	OnError  func(questionID int64, err error) // autosave failure surface
}

// StartExam begins an attempt: it creates the server-side submission, then
// wires a timer over the exam duration and an autosave coordinator that
// writes through /exams/save-answer.
func (s *Session) StartExam(ctx context.Context, examID int64, opts AttemptOptions) (*Attempt, error) {
	var resp struct {
		Submission model.Submission `json:"submission"`
		Exam       model.Exam       `json:"exam"`
		Questions  []ExamQuestion   `json:"questions"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/exams/%d/start", examID), nil, &resp)
	if err != nil {
		return nil, err
	}

	a := &Attempt{
		session:      s,
		SubmissionID: resp.Submission.ID,
		Exam:         resp.Exam,
		Questions:    resp.Questions,
	}
	a.autosave = NewAutosave(opts.Debounce, a.saveAnswer, opts.OnError)
	a.Timer = NewTimer(resp.Exam.Duration*60, true, opts.OnExpire)
	return a, nil
}

func (a *Attempt) saveAnswer(ctx context.Context, questionID int64, text string) error {
	return a.session.do(ctx, http.MethodPost, "/exams/save-answer", map[string]any{
		"submission_id": a.SubmissionID,
		"question_id":   questionID,
		"answer":        text,
	}, nil)
}

// UpdateAnswer records a draft edit; the remote write is debounced.
func (a *Attempt) UpdateAnswer(questionID int64, text string) {
	a.autosave.UpdateAnswer(questionID, text)
}

// Answer returns the current draft for a question.
func (a *Attempt) Answer(questionID int64) string {
	return a.autosave.Answer(questionID)
}

// Submit finalizes the attempt. All pending autosaves are flushed first, so
// the last edited value of every answer is persisted before the score is
// computed. The server rejects a second submit for the same submission.
func (a *Attempt) Submit(ctx context.Context) (*model.SubmissionResult, error) {
	a.Timer.Pause()
	if err := a.autosave.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush answers: %w", err)
	}
	var result model.SubmissionResult
	err := a.session.do(ctx, http.MethodPost, "/exams/submit",
		map[string]int64{"submission_id": a.SubmissionID}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
