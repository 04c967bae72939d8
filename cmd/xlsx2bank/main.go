// Command xlsx2bank converts question spreadsheets into canonical question
// bank text files that cmd/ingest can load. Each sheet becomes one bank file.
// Row 1 is a header. Columns: A=question, B..E=answers A..D, F=correct
// (an option letter or the exact answer text).
// Usage: go run ./cmd/xlsx2bank -in questions.xlsx -out banks/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quizbank/internal/domain"
	"quizbank/internal/questionbank"
	"quizbank/internal/report"
)

const (
	colQuestion = 0
	colFirstAns = 1
	colCorrect  = 5
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input .xlsx workbook")
	out := flag.String("out", "banks", "output directory for bank files")
	flag.Parse()
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	f, err := excelize.OpenFile(*in)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	total := 0
	for _, sheet := range f.GetSheetList() {
		records, skipped, err := readSheet(f, sheet)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(records) == 0 {
			log.Printf("sheet %q: no usable rows (%d skipped)", sheet, skipped)
			continue
		}

		name := report.SanitizeFilename(sheet)
		if name == "" {
			name = "sheet"
		}
		path := filepath.Join(*out, name+".txt")
		if err := writeBankFile(path, records); err != nil {
			return err
		}
		total += len(records)
		log.Printf("sheet %q: %d questions written to %s (%d rows skipped)", sheet, len(records), path, skipped)
	}

	log.Printf("converted %d questions", total)
	return nil
}

// readSheet converts the rows of one sheet. Rows that cannot become a valid
// question are counted as skipped.
func readSheet(f *excelize.File, sheet string) ([]domain.QuestionRecord, int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, err
	}

	var (
		records []domain.QuestionRecord
		skipped int
	)
	for i := 1; i < len(rows); i++ {
		rec, ok := rowToRecord(rows[i])
		if !ok {
			if strings.TrimSpace(cellVal(rows[i], colQuestion)) != "" {
				skipped++
			}
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func rowToRecord(row []string) (domain.QuestionRecord, bool) {
	question := strings.TrimSpace(cellVal(row, colQuestion))
	if question == "" {
		return domain.QuestionRecord{}, false
	}

	var answers domain.AnswerList
	letters := map[string]string{}
	for c := colFirstAns; c < colCorrect; c++ {
		a := strings.TrimSpace(cellVal(row, c))
		if a == "" {
			continue
		}
		letters[string(rune('A'+c-colFirstAns))] = a
		answers = append(answers, a)
	}

	correct := strings.TrimSpace(cellVal(row, colCorrect))
	if a, ok := letters[strings.ToUpper(correct)]; ok {
		correct = a
	}

	rec := domain.QuestionRecord{QuestionText: question, Answers: answers, CorrectAnswer: correct}
	if _, err := questionbank.Format(1, &rec); err != nil {
		return domain.QuestionRecord{}, false
	}
	return rec, true
}

func writeBankFile(path string, records []domain.QuestionRecord) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := questionbank.WriteBank(out, records); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
