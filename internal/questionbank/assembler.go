package questionbank

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"quizbank/internal/domain"
)

// MinAnswers is the smallest answer count a question needs to be accepted.
const MinAnswers = 2

// MaxAnswers is the largest answer count a question may have, one per option
// letter A to D.
const MaxAnswers = 4

// PendingQuestion accumulates a question while its lines are read.
type PendingQuestion struct {
	Line       int
	Index      int
	Text       string
	Answers    []string
	Correct    string
	HasCorrect bool
	// Marked counts correct-marked options; more than one means the last wins.
	Marked int
}

// State is the assembler state. The zero value is Idle.
type State struct {
	building bool
	pending  PendingQuestion
}

// Idle reports whether no question is being built.
func (s State) Idle() bool { return !s.building }

// Pending returns the question being built and whether there is one.
func (s State) Pending() (PendingQuestion, bool) { return s.pending, s.building }

// Emission is what a single transition produced: at most one of Record or
// Rejection is set.
type Emission struct {
	Record    *domain.QuestionRecord
	Rejection *domain.Rejection
}

// Stats counts what happened while assembling one file.
type Stats struct {
	Lines           int
	Ignored         int
	Parsed          int
	Accepted        int
	Dropped         int
	MultipleCorrect int
}

// Result is the output of assembling one file.
type Result struct {
	Category   string
	SourceFile string
	Records    []domain.QuestionRecord
	Rejections []domain.Rejection
	Stats      Stats
}

// Run binds the per-file category and source name to the transition
// functions. One Run processes exactly one file.
type Run struct {
	Category   string
	SourceFile string
}

// Step applies one classified line to st and returns the next state together
// with anything the transition emitted. It never mutates st.
func (r Run) Step(st State, line RawLine) (State, Emission) {
	switch line.Tag {
	case TagQuestionStart:
		var em Emission
		if st.building {
			em = r.gate(st.pending)
		}
		return State{
			building: true,
			pending:  PendingQuestion{Line: line.Number, Index: line.Index, Text: line.Fragment},
		}, em

	case TagQuestionContinuation:
		if !st.building || len(st.pending.Answers) > 0 {
			return st, Emission{}
		}
		next := st
		next.pending.Text = joinFragment(st.pending.Text, line.Fragment)
		return next, Emission{}

	case TagAnswerOption:
		if !st.building {
			return st, Emission{}
		}
		next := st
		answers := make([]string, len(st.pending.Answers), len(st.pending.Answers)+1)
		copy(answers, st.pending.Answers)
		next.pending.Answers = append(answers, line.Fragment)
		if line.Correct {
			next.pending.Correct = line.Fragment
			next.pending.HasCorrect = true
			next.pending.Marked++
		}
		return next, Emission{}
	}
	return st, Emission{}
}

// Finish gates the question still open at end of input, if any.
func (r Run) Finish(st State) Emission {
	if !st.building {
		return Emission{}
	}
	return r.gate(st.pending)
}

func (r Run) gate(p PendingQuestion) Emission {
	var reason domain.RejectionReason
	switch {
	case len(p.Answers) < MinAnswers:
		reason = domain.RejectTooFewAnswers
	case len(p.Answers) > MaxAnswers:
		reason = domain.RejectTooManyAnswers
	case !p.HasCorrect:
		reason = domain.RejectNoCorrectAnswer
	default:
		return Emission{Record: &domain.QuestionRecord{
			QuestionText:  p.Text,
			Answers:       domain.AnswerList(p.Answers),
			CorrectAnswer: p.Correct,
			Category:      r.Category,
			SourceFile:    r.SourceFile,
		}}
	}
	return Emission{Rejection: &domain.Rejection{
		SourceFile:   r.SourceFile,
		Category:     r.Category,
		Line:         p.Line,
		QuestionText: p.Text,
		AnswerCount:  len(p.Answers),
		Reason:       reason,
	}}
}

func joinFragment(text, fragment string) string {
	if text == "" {
		return fragment
	}
	return text + " " + fragment
}

// Assembler folds classified lines of one file into a Result.
type Assembler struct {
	run    Run
	state  State
	result Result
}

// NewAssembler creates an Assembler for one file in the given category.
func NewAssembler(category, sourceFile string) *Assembler {
	return &Assembler{
		run:    Run{Category: category, SourceFile: sourceFile},
		result: Result{Category: category, SourceFile: sourceFile},
	}
}

// Feed applies one classified line.
func (a *Assembler) Feed(line RawLine) {
	a.result.Stats.Lines++
	switch line.Tag {
	case TagIgnorable:
		a.result.Stats.Ignored++
	case TagQuestionStart:
		a.result.Stats.Parsed++
	case TagAnswerOption:
		if a.state.Idle() {
			a.result.Stats.Ignored++
		}
	case TagQuestionContinuation:
		if p, ok := a.state.Pending(); !ok || len(p.Answers) > 0 {
			a.result.Stats.Ignored++
		}
	}
	if line.Tag == TagQuestionStart && !a.state.Idle() {
		a.countMarked(a.state.pending)
	}
	var em Emission
	a.state, em = a.run.Step(a.state, line)
	a.collect(em)
}

// Finish closes the file and returns the accumulated result. The
// Assembler must not be fed afterwards.
func (a *Assembler) Finish() *Result {
	if p, ok := a.state.Pending(); ok {
		a.countMarked(p)
	}
	a.collect(a.run.Finish(a.state))
	a.state = State{}
	res := a.result
	return &res
}

func (a *Assembler) countMarked(p PendingQuestion) {
	if p.Marked > 1 {
		a.result.Stats.MultipleCorrect++
	}
}

func (a *Assembler) collect(em Emission) {
	if em.Record != nil {
		a.result.Records = append(a.result.Records, *em.Record)
		a.result.Stats.Accepted++
	}
	if em.Rejection != nil {
		a.result.Rejections = append(a.result.Rejections, *em.Rejection)
		a.result.Stats.Dropped++
	}
}

// Assemble folds already classified lines of one file.
func Assemble(lines []RawLine, category, sourceFile string) *Result {
	a := NewAssembler(category, sourceFile)
	for _, l := range lines {
		a.Feed(l)
	}
	return a.Finish()
}

const maxLineSize = 1024 * 1024

// Parse reads one question bank file and assembles it. The only error is a
// read error from r; malformed content is never an error.
func Parse(r io.Reader, category, sourceFile string, opts Options) (*Result, error) {
	a := NewAssembler(category, sourceFile)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if n == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		line := Classify(text, opts)
		line.Number = n
		a.Feed(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourceFile, err)
	}
	return a.Finish(), nil
}
