package ses

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"quizbank/internal/domain"
)

func sampleRun() (*domain.IngestionRun, *domain.RunSummary) {
	run := &domain.IngestionRun{
		ID:      uuid.MustParse("7b0c1f2e-52a4-4d5e-9f10-0a1b2c3d4e5f"),
		Trigger: domain.TriggerCLI,
		Status:  domain.RunStatusPartial,
	}
	summary := &domain.RunSummary{
		Files:       2,
		Accepted:    120,
		Dropped:     3,
		Inserted:    70,
		Failed:      50,
		PerCategory: map[string]int{"networking": 20, "linux": 100},
		BatchErrors: []domain.BatchError{
			{SourceFile: "linux.txt", Index: 1, Offset: 50, Size: 50, Message: "connection reset"},
		},
	}
	return run, summary
}

func TestBuildSubject(t *testing.T) {
	run, summary := sampleRun()
	assert.Equal(t, "[quizbank] ingestion partial: 70 inserted, 50 failed, 3 dropped", buildSubject(run, summary))
}

func TestBuildSummaryText(t *testing.T) {
	run, summary := sampleRun()
	text := buildSummaryText(run, summary)

	assert.Contains(t, text, "Inserted:  70")
	assert.Contains(t, text, "linux.txt batch 1 (offset 50, 50 records): connection reset")
	assert.Less(t, strings.Index(text, "linux: 100"), strings.Index(text, "networking: 20"))
	assert.NotContains(t, text, "Dry run")
}

func TestBuildSummaryText_TruncatesErrors(t *testing.T) {
	run, summary := sampleRun()
	summary.BatchErrors = nil
	for i := 0; i < maxListedErrors+5; i++ {
		summary.BatchErrors = append(summary.BatchErrors, domain.BatchError{SourceFile: "a.txt", Index: i, Message: fmt.Sprintf("err %d", i)})
	}

	text := buildSummaryText(run, summary)
	assert.Contains(t, text, "... and 5 more")
	assert.NotContains(t, text, fmt.Sprintf("err %d", maxListedErrors))
}

func TestBuildSummaryHTML_EscapesContent(t *testing.T) {
	run, summary := sampleRun()
	summary.PerCategory = map[string]int{"<script>": 1}

	body := buildSummaryHTML(run, summary)
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

