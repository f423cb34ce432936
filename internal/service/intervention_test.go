package service

import (
	"context"
	"testing"
	"time"

	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterventionComplete(t *testing.T) {
	db := testutil.DB(t)
	cat := catalog.Default()
	svc := NewInterventionService(db, cat, nil)
	sc := testutil.User(t, db, "a@example.com", "A")
	ctx := context.Background()

	iv := cat.Interventions[0]
	row, err := svc.Complete(ctx, sc, iv.ID, 300, "  felt calmer ")
	require.NoError(t, err)
	assert.Equal(t, iv.Name, row.InterventionName)
	require.NotNil(t, row.Notes)
	assert.Equal(t, "felt calmer", *row.Notes)

	_, err = svc.Complete(ctx, sc, "no-such-thing", 60, "")
	assert.ErrorIs(t, err, ErrUnknownIntervention)

	_, err = svc.Complete(ctx, sc, iv.ID, -1, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	rows, err := svc.Completions(ctx, sc)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)

	bare, err := svc.Complete(ctx, sc, iv.ID, 60, "")
	require.NoError(t, err)
	assert.Nil(t, bare.Notes)
}

func TestSummarizeInterventions(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	at := func(id string, daysAgo, secs int) model.InterventionCompletion {
		return model.InterventionCompletion{InterventionID: id, DurationSeconds: secs, CompletedAt: now.AddDate(0, 0, -daysAgo)}
	}
	st := SummarizeInterventions([]model.InterventionCompletion{
		at("box-breathing", 0, 240),
		at("box-breathing", 3, 250),
		at("body-scan", 9, 600),
	}, now)

	assert.Equal(t, 3, st.TotalCompletions)
	assert.Equal(t, 2, st.ThisWeekCompletions)
	// 1090s is 18.17 minutes.
	assert.Equal(t, 18, st.TotalMinutes)
	assert.Equal(t, 2, st.PerIntervention["box-breathing"].Count)
	assert.True(t, st.PerIntervention["box-breathing"].LastCompletedAt.Equal(now))
	assert.Equal(t, 1, st.PerIntervention["body-scan"].Count)
}
