// Package questionbank parses plain-text exam question banks into question
// records. A bank is a sequence of numbered question lines ("12) ...")
// followed by lettered checkbox answers ("B [*] ..."), where the asterisk
// marks the correct option.
package questionbank

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultOmittedMarker flags a line the author deliberately left out.
const DefaultOmittedMarker = "[omitted]"

// Tag classifies a single line of a question bank.
type Tag int

const (
	TagIgnorable Tag = iota
	TagQuestionStart
	TagQuestionContinuation
	TagAnswerOption
)

func (t Tag) String() string {
	switch t {
	case TagQuestionStart:
		return "QuestionStart"
	case TagQuestionContinuation:
		return "QuestionContinuation"
	case TagAnswerOption:
		return "AnswerOption"
	default:
		return "Ignorable"
	}
}

// Options tunes the accepted line dialect.
type Options struct {
	// OmittedMarker makes any line containing it ignorable. Empty uses DefaultOmittedMarker.
	OmittedMarker string
	// Lenient also accepts lowercase option letters, empty brackets and
	// x/X as the correct mark.
	Lenient bool
}

func (o Options) omittedMarker() string {
	if o.OmittedMarker == "" {
		return DefaultOmittedMarker
	}
	return o.OmittedMarker
}

// RawLine is one classified source line.
type RawLine struct {
	Number int
	Tag    Tag

	// Index is the source question number; diagnostics only.
	Index int
	// Fragment is question text for QuestionStart/QuestionContinuation
	// and option text for AnswerOption.
	Fragment string
	Letter   string
	Correct  bool
}

var (
	questionStartPattern = regexp.MustCompile(`^(\d+)\)\s+(.+)$`)
	strictAnswerPattern  = regexp.MustCompile(`^([A-D])\s*\[([ *])\]\s*(.*)$`)
	lenientAnswerPattern = regexp.MustCompile(`^([A-Da-d])\s*\[\s*([*xX]?)\s*\]\s*(.*)$`)
)

// Classify tags a single line. It never fails: anything unrecognised is
// either a continuation of the open question or ignorable. Whether a
// question is open is decided by the assembler, which drops continuations
// seen before the first question start.
func Classify(line string, opts Options) RawLine {
	s := strings.TrimSpace(line)

	if s == "" || strings.HasPrefix(s, "/*") || strings.HasPrefix(s, "*/") ||
		strings.Contains(s, opts.omittedMarker()) {
		return RawLine{Tag: TagIgnorable}
	}

	if m := questionStartPattern.FindStringSubmatch(s); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return RawLine{Tag: TagQuestionStart, Index: idx, Fragment: strings.TrimSpace(m[2])}
	}

	answerPattern := strictAnswerPattern
	if opts.Lenient {
		answerPattern = lenientAnswerPattern
	}
	if m := answerPattern.FindStringSubmatch(s); m != nil {
		text := strings.TrimSpace(m[3])
		if text == "" {
			return RawLine{Tag: TagIgnorable}
		}
		mark := strings.TrimSpace(m[2])
		return RawLine{
			Tag:      TagAnswerOption,
			Letter:   strings.ToUpper(m[1]),
			Correct:  mark != "",
			Fragment: text,
		}
	}

	return RawLine{Tag: TagQuestionContinuation, Fragment: s}
}
