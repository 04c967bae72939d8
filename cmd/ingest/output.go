package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"quizbank/internal/domain"
	"quizbank/internal/questionbank"
	"quizbank/internal/service"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

// printSummary writes the human-readable run summary.
func printSummary(w io.Writer, result *service.IngestResult) {
	s := result.Summary
	run := result.Run

	heading.Fprintf(w, "Ingestion run %s\n", run.ID)
	if run.DryRun {
		warn.Fprintln(w, "dry run: nothing was written to the database")
	}
	fmt.Fprintf(w, "  files     %d", s.Files)
	if s.FilesSkipped > 0 {
		warn.Fprintf(w, " (%d skipped)", s.FilesSkipped)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  parsed    %d\n", s.Parsed)
	good.Fprintf(w, "  accepted  %d\n", s.Accepted)
	if s.Dropped > 0 {
		warn.Fprintf(w, "  dropped   %d\n", s.Dropped)
	} else {
		fmt.Fprintf(w, "  dropped   %d\n", s.Dropped)
	}
	if !run.DryRun {
		good.Fprintf(w, "  inserted  %d\n", s.Inserted)
		if s.Failed > 0 {
			bad.Fprintf(w, "  failed    %d\n", s.Failed)
		} else {
			fmt.Fprintf(w, "  failed    %d\n", s.Failed)
		}
	}

	if len(s.PerCategory) > 0 {
		heading.Fprintln(w, "Per category")
		names := make([]string, 0, len(s.PerCategory))
		for name := range s.PerCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %d\n", name, s.PerCategory[name])
		}
	}

	for _, e := range s.FileErrors {
		bad.Fprintf(w, "skipped %s: %s\n", e.SourceFile, e.Message)
	}
	for _, e := range s.BatchErrors {
		bad.Fprintf(w, "batch %d of %s (offset %d, %d records) failed: %s\n", e.Index, e.SourceFile, e.Offset, e.Size, e.Message)
	}

	status := good
	switch run.Status {
	case domain.RunStatusPartial:
		status = warn
	case domain.RunStatusFailed:
		status = bad
	}
	status.Fprintf(w, "status: %s\n", run.Status)
}

// runError reports a run that skipped files or did not complete.
func runError(result *service.IngestResult) error {
	run, s := result.Run, result.Summary
	if run.Status == domain.RunStatusCompleted && s.FilesSkipped == 0 {
		return nil
	}
	return fmt.Errorf("ingestion run %s %s: %d of %d files skipped, %d records failed",
		run.ID, run.Status, s.FilesSkipped, s.Files, s.Failed)
}

// writeNormalized writes accepted records back out as canonical bank files,
// one per source file, mirroring the source layout under dir. It returns the
// number of files written.
func writeNormalized(dir string, records []domain.QuestionRecord) (int, error) {
	bySource := map[string][]domain.QuestionRecord{}
	var order []string
	for _, r := range records {
		if _, ok := bySource[r.SourceFile]; !ok {
			order = append(order, r.SourceFile)
		}
		bySource[r.SourceFile] = append(bySource[r.SourceFile], r)
	}

	for _, src := range order {
		target, err := normalizedTarget(dir, src)
		if err != nil {
			return 0, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return 0, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		f, err := os.Create(target)
		if err != nil {
			return 0, fmt.Errorf("creating %s: %w", target, err)
		}
		if err := questionbank.WriteBank(f, bySource[src]); err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("writing %s: %w", target, err)
		}
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("closing %s: %w", target, err)
		}
	}
	return len(order), nil
}

// normalizedTarget maps a source name to its path under dir. Names that would
// escape dir are rejected.
func normalizedTarget(dir, src string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(src))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("source %q resolves outside %s", src, dir)
	}
	return target, nil
}
