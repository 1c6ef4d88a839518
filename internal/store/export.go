package store

import (
	"fmt"

	"github.com/pavelanni/proctor/internal/model"
)

// ExportAllResults builds export-ready results for every exam.
func (s *Store) ExportAllResults() ([]model.ExamResults, error) {
	exams, err := s.ListExams()
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	var out []model.ExamResults
	for _, exam := range exams {
		questions, err := s.ExamQuestions(exam.ID)
		if err != nil {
			return nil, fmt.Errorf("exam %d questions: %w", exam.ID, err)
		}
		maxScore := 0
		for _, q := range questions {
			maxScore += q.Points
		}

		subs, err := s.ListSubmissionsForExam(exam.ID)
		if err != nil {
			return nil, fmt.Errorf("exam %d submissions: %w", exam.ID, err)
		}

		er := model.ExamResults{ExamID: exam.ID, Title: exam.Title, MaxScore: maxScore}
		for _, sub := range subs {
			user, err := s.GetUserByID(sub.UserID)
			if err != nil {
				return nil, fmt.Errorf("get user %d: %w", sub.UserID, err)
			}

			se := model.SubmissionExport{
				Status:      sub.Status,
				Score:       sub.Score,
				StartedAt:   sub.StartedAt,
				SubmittedAt: sub.SubmittedAt,
			}
			if user != nil {
				se.Email = user.Email
				se.DisplayName = user.DisplayName
			}

			answers, err := s.GetAnswers(sub.ID)
			if err != nil {
				return nil, fmt.Errorf("submission %d answers: %w", sub.ID, err)
			}
			for _, q := range questions {
				a, ok := answers[q.ID]
				if !ok {
					continue
				}
				se.Answers = append(se.Answers, model.AnswerExport{
					QuestionID: q.ID,
					Question:   q.Text,
					Answer:     a.Text,
					Correct:    answerMatches(q.CorrectAnswer, a.Text),
					Points:     q.Points,
					SavedAt:    a.UpdatedAt,
				})
			}

			er.Submissions = append(er.Submissions, se)
		}
		out = append(out, er)
	}

	return out, nil
}
