package noop

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"quizbank/internal/domain"
)

func TestNoopNotifier_LogsSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNoopNotifier(zap.New(core))

	run := &domain.IngestionRun{ID: uuid.New(), Status: domain.RunStatusPartial}
	summary := &domain.RunSummary{Files: 2, Accepted: 120, Inserted: 70, Failed: 50}

	require.NoError(t, n.NotifyRunSummary(context.Background(), run, summary))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "partial", fields["status"])
	assert.Equal(t, int64(70), fields["inserted"])
	assert.Equal(t, int64(50), fields["failed"])
}
