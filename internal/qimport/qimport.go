// Package qimport turns uploaded tabular question data (CSV or xlsx) into
// question records and inserts them row by row. A bad row never aborts the
// batch; failures are collected into the import report instead.
package qimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/proctor/internal/model"
)

// maxReportedErrors caps the error list in the import report. The failed
// count still reflects every failure.
const maxReportedErrors = 5

// Row is one data row keyed by its canonical column name.
type Row map[string]string

// columnAliases maps recognized header spellings to canonical column names.
var columnAliases = map[string]string{
	"question_text":  "question_text",
	"question":       "question_text",
	"text":           "question_text",
	"question_type":  "question_type",
	"type":           "question_type",
	"option_a":       "option_a",
	"a":              "option_a",
	"option_b":       "option_b",
	"b":              "option_b",
	"option_c":       "option_c",
	"c":              "option_c",
	"option_d":       "option_d",
	"d":              "option_d",
	"correct_answer": "correct_answer",
	"correct":        "correct_answer",
	"answer":         "correct_answer",
	"subject":        "subject",
	"difficulty":     "difficulty",
	"points":         "points",
	"score":          "points",
}

func canonical(header string) string {
	return columnAliases[strings.ToLower(strings.TrimSpace(header))]
}

func rowsFromRecords(records [][]string) []Row {
	if len(records) < 2 {
		return nil
	}
	header := records[0]
	var rows []Row
	for _, rec := range records[1:] {
		row := make(Row)
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			if col := canonical(header[i]); col != "" {
				row[col] = strings.TrimSpace(cell)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseCSV reads a CSV file with a header row into rows.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsFromRecords(records), nil
}

// ParseXLSX reads the first sheet of an xlsx file into rows.
func ParseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromRecords(records), nil
}

// Normalize builds a question record from a row, applying defaults for
// absent fields. The second return value is false when the row lacks
// question text and should be skipped.
func Normalize(row Row) (model.Question, bool) {
	q := model.Question{
		Text:       row["question_text"],
		Type:       model.TypeMultipleChoice,
		Subject:    "General",
		Difficulty: model.DifficultyMedium,
		Points:     10,
	}
	if q.Text == "" {
		return q, false
	}

	if t := row["question_type"]; t != "" {
		q.Type = model.QuestionType(t)
	}
	if s := row["subject"]; s != "" {
		q.Subject = s
	}
	if d := row["difficulty"]; d != "" {
		q.Difficulty = model.Difficulty(d)
	}
	if p := row["points"]; p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			q.Points = n
		}
	}
	q.CorrectAnswer = row["correct_answer"]

	// Empty options are dropped rather than stored as blank choices.
	opts := make(map[string]string)
	for _, label := range []string{"A", "B", "C", "D"} {
		if v := row["option_"+strings.ToLower(label)]; v != "" {
			opts[label] = v
		}
	}
	if len(opts) > 0 {
		q.Options = opts
	}
	return q, true
}

// Inserter persists one question record.
type Inserter interface {
	InsertQuestion(q model.Question) (int64, error)
}

// Process normalizes and inserts every row, attributing inserted questions
// to createdBy. Rows without question text are skipped silently; insert
// failures are recorded and processing continues.
func Process(rows []Row, createdBy int64, ins Inserter) model.ImportReport {
	var report model.ImportReport
	for i, row := range rows {
		q, ok := Normalize(row)
		if !ok {
			continue
		}
		q.CreatedBy = createdBy
		if _, err := ins.InsertQuestion(q); err != nil {
			report.Failed++
			if len(report.Errors) < maxReportedErrors {
				// Data rows start at 2: row 1 is the header.
				report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			}
			slog.Warn("question import row failed", "row", i+2, "error", err)
			continue
		}
		report.Imported++
	}
	return report
}
