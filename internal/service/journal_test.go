package service

import (
	"context"
	"testing"
	"time"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/model"
	"guardian/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalCreateDefaultsAndSearch(t *testing.T) {
	db := testutil.DB(t)
	svc := NewJournalService(db, catalog.Default(), cache.NewMemory())
	sc := testutil.User(t, db, "a@example.com", "A")
	ctx := context.Background()

	e, err := svc.Create(ctx, sc, JournalInput{EntryType: "poetry", Content: "Quiet Patrol tonight"})
	require.NoError(t, err)
	assert.Equal(t, "freewrite", e.EntryType)
	assert.Equal(t, 3, e.MoodBefore)
	assert.Equal(t, 3, e.MoodAfter)

	_, err = svc.Create(ctx, sc, JournalInput{EntryType: "gratitude", Content: "Family dinner", MoodAfter: 5})
	require.NoError(t, err)

	got, err := svc.List(ctx, sc, "", "patrol")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)

	got, err = svc.List(ctx, sc, "gratitude", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Family dinner", got[0].Content)
}

func TestJournalValidation(t *testing.T) {
	db := testutil.DB(t)
	svc := NewJournalService(db, catalog.Default(), nil)
	sc := testutil.User(t, db, "a@example.com", "A")
	ctx := context.Background()

	_, err := svc.Create(ctx, sc, JournalInput{Content: " \n"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, sc, JournalInput{Content: "x", MoodAfter: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJournalUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	svc := NewJournalService(db, catalog.Default(), nil)
	sc := testutil.User(t, db, "a@example.com", "A")
	other := testutil.User(t, db, "b@example.com", "B")
	ctx := context.Background()

	e, err := svc.Create(ctx, sc, JournalInput{EntryType: "debrief", Content: "first"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other, e.ID, JournalInput{Content: "hijack"})
	assert.ErrorIs(t, err, ErrNotFound)

	up, err := svc.Update(ctx, sc, e.ID, JournalInput{EntryType: "reflection", Content: "second", MoodBefore: 2, MoodAfter: 4})
	require.NoError(t, err)
	assert.Equal(t, "second", up.Content)
	assert.Equal(t, "reflection", up.EntryType)
	assert.Equal(t, 4, up.MoodAfter)

	require.NoError(t, svc.Delete(ctx, sc, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, sc, e.ID), ErrNotFound)
}

func TestSummarizeJournal(t *testing.T) {
	now := time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)
	entry := func(daysAgo, mood int) model.JournalEntry {
		e := model.JournalEntry{MoodAfter: mood}
		e.CreatedAt = now.AddDate(0, 0, -daysAgo)
		return e
	}
	entries := []model.JournalEntry{entry(0, 5), entry(1, 4), entry(2, 0), entry(10, 2)}

	st := SummarizeJournal(entries, now)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.ThisWeek)
	assert.Equal(t, 3, st.Streak)
	// (5+4+3+2)/4 with the missing mood counted as neutral.
	assert.Equal(t, 3.5, st.AvgMoodAfter)

	assert.Equal(t, JournalStats{}, SummarizeJournal(nil, now))
}
