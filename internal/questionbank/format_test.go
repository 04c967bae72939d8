package questionbank_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank/internal/domain"
	"quizbank/internal/questionbank"
)

func TestFormat(t *testing.T) {
	rec := &domain.QuestionRecord{
		QuestionText:  "What color is the sky?",
		Answers:       domain.AnswerList{"Green", "Blue", "Red"},
		CorrectAnswer: "Blue",
	}

	out, err := questionbank.Format(1, rec)
	require.NoError(t, err)
	assert.Equal(t, "1) What color is the sky?\nA [ ] Green\nB [*] Blue\nC [ ] Red\n", out)
}

func TestFormat_InvalidRecords(t *testing.T) {
	_, err := questionbank.Format(1, &domain.QuestionRecord{QuestionText: "q", Answers: domain.AnswerList{"a"}, CorrectAnswer: "a"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, err = questionbank.Format(1, &domain.QuestionRecord{QuestionText: "q", Answers: domain.AnswerList{"a", "b"}, CorrectAnswer: "c"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, err = questionbank.Format(1, &domain.QuestionRecord{
		QuestionText: "q", Answers: domain.AnswerList{"a", "b", "c", "d", "e"}, CorrectAnswer: "a",
	})
	assert.ErrorIs(t, err, domain.ErrTooManyAnswers)
}

func TestWriteBank_RoundTrip(t *testing.T) {
	src := `1) What is the speed limit
in urban areas?
A [*] 50 km/h
B [ ] 90 km/h

2) Which sign means stop?
A [ ] Triangle
B [ ] Circle
C [ ] Square
D [*] Octagon
`
	first, err := questionbank.Parse(strings.NewReader(src), "Road Rules", "road.txt", questionbank.Options{})
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	var buf bytes.Buffer
	require.NoError(t, questionbank.WriteBank(&buf, first.Records))

	second, err := questionbank.Parse(&buf, "Road Rules", "road.txt", questionbank.Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
}

func TestWriteBank_DuplicateAnswerTextRoundTrip(t *testing.T) {
	records := []domain.QuestionRecord{{
		QuestionText:  "Pick yes",
		Answers:       domain.AnswerList{"yes", "no", "yes"},
		CorrectAnswer: "yes",
		Category:      "c",
		SourceFile:    "f",
	}}

	var buf bytes.Buffer
	require.NoError(t, questionbank.WriteBank(&buf, records))

	res, err := questionbank.Parse(&buf, "c", "f", questionbank.Options{})
	require.NoError(t, err)
	assert.Equal(t, records, res.Records)
}
