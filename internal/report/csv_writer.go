package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quizbank/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var rejectionColumns = []string{
	"Source File",
	"Category",
	"Line",
	"Question",
	"Answer Count",
	"Reason",
}

var recordColumns = []string{
	"Source File",
	"Category",
	"Question",
	"Answers",
	"Correct Answer",
}

// Writer wraps csv.Writer for exporting ingestion results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteRejections writes the header row followed by one row per rejection.
func (w *Writer) WriteRejections(rejections []domain.Rejection) error {
	if err := w.csv.Write(rejectionColumns); err != nil {
		return err
	}
	for i := range rejections {
		if err := w.csv.Write(rejectionToRow(&rejections[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecords writes the header row followed by one row per accepted record.
func (w *Writer) WriteRecords(records []domain.QuestionRecord) error {
	if err := w.csv.Write(recordColumns); err != nil {
		return err
	}
	for i := range records {
		if err := w.csv.Write(recordToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func rejectionToRow(r *domain.Rejection) []string {
	return []string{
		r.SourceFile,
		r.Category,
		strconv.Itoa(r.Line),
		r.QuestionText,
		strconv.Itoa(r.AnswerCount),
		string(r.Reason),
	}
}

func recordToRow(r *domain.QuestionRecord) []string {
	return []string{
		r.SourceFile,
		r.Category,
		r.QuestionText,
		strings.Join(r.Answers, " | "),
		r.CorrectAnswer,
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
