package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuestionRecord is one accepted multiple-choice question ready for storage.
// Answers keep source order; CorrectAnswer is always one of Answers.
type QuestionRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	QuestionText  string     `db:"question_text" json:"question_text"`
	Answers       AnswerList `db:"answers" json:"answers"`
	CorrectAnswer string     `db:"correct_answer" json:"correct_answer"`
	Category      string     `db:"category" json:"category"`
	SourceFile    string     `db:"source_file" json:"source_file"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// AnswerList is stored as a JSONB array.
type AnswerList []string

// Value implements driver.Valuer.
func (a AnswerList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *AnswerList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("answer list: unsupported source type")
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// Rejection describes a question block that failed the acceptance gate.
type Rejection struct {
	SourceFile   string          `json:"source_file"`
	Category     string          `json:"category"`
	Line         int             `json:"line"`
	QuestionText string          `json:"question_text"`
	AnswerCount  int             `json:"answer_count"`
	Reason       RejectionReason `json:"reason"`
}

// BatchError records one failed storage batch.
type BatchError struct {
	SourceFile string `json:"source_file,omitempty"`
	Index      int    `json:"index"`
	Offset     int    `json:"offset"`
	Size       int    `json:"size"`
	Message    string `json:"message"`
}

// FileError records an input file that could not be read.
type FileError struct {
	SourceFile string `json:"source_file"`
	Message    string `json:"message"`
}

// RunSummary aggregates the outcome of one ingestion run across all files.
type RunSummary struct {
	Files        int            `json:"files"`
	FilesSkipped int            `json:"files_skipped"`
	Parsed       int            `json:"parsed"`
	Accepted     int            `json:"accepted"`
	Dropped      int            `json:"dropped"`
	PerCategory  map[string]int `json:"per_category"`
	Submitted    int            `json:"submitted"`
	Inserted     int            `json:"inserted"`
	Failed       int            `json:"failed"`
	BatchErrors  []BatchError   `json:"batch_errors,omitempty"`
	FileErrors   []FileError    `json:"file_errors,omitempty"`
	Rejections   []Rejection    `json:"rejections,omitempty"`
}

// IngestionRun is the persisted history entry of one ingestion run.
type IngestionRun struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Trigger    RunTrigger      `db:"trigger" json:"trigger"`
	Status     RunStatus       `db:"status" json:"status"`
	DryRun     bool            `db:"dry_run" json:"dry_run"`
	Accepted   int             `db:"accepted" json:"accepted"`
	Inserted   int             `db:"inserted" json:"inserted"`
	Failed     int             `db:"failed" json:"failed"`
	Dropped    int             `db:"dropped" json:"dropped"`
	Summary    json.RawMessage `db:"summary" json:"summary"`
	StartedAt  time.Time       `db:"started_at" json:"started_at"`
	FinishedAt *time.Time      `db:"finished_at" json:"finished_at"`
}

// CategoryCount is the number of stored questions in a category.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}

// SourceCategory is the number of stored questions of one source file in one category.
type SourceCategory struct {
	SourceFile string `db:"source_file" json:"source_file"`
	Category   string `db:"category" json:"category"`
	Count      int    `db:"count" json:"count"`
}
