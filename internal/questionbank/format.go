package questionbank

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"quizbank/internal/domain"
)

var optionLetters = []string{"A", "B", "C", "D"}

// Format renders a record back into bank source form, numbered n. Parsing
// the output yields an equivalent record.
func Format(n int, rec *domain.QuestionRecord) (string, error) {
	text := singleLine(rec.QuestionText)
	if text == "" || len(rec.Answers) < MinAnswers {
		return "", domain.ErrInvalidRecord
	}
	if len(rec.Answers) > len(optionLetters) {
		return "", fmt.Errorf("question %d: %w", n, domain.ErrTooManyAnswers)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d) %s\n", n, text)
	marked := false
	for i, answer := range rec.Answers {
		mark := " "
		if !marked && answer == rec.CorrectAnswer {
			mark = "*"
			marked = true
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", optionLetters[i], mark, answer)
	}
	if !marked {
		return "", fmt.Errorf("question %d: correct answer not among answers: %w", n, domain.ErrInvalidRecord)
	}
	return b.String(), nil
}

// WriteBank writes records as a bank file, numbering questions from 1 and
// separating them with blank lines.
func WriteBank(w io.Writer, records []domain.QuestionRecord) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		block, err := Format(i+1, &records[i])
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(block); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func singleLine(s string) string {
	return strings.TrimSpace(newlineReplacer.Replace(s))
}
