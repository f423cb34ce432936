package store_test

import (
	"context"
	"testing"
	"time"

	"guardian/internal/model"
	"guardian/internal/store"
	"guardian/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	sc := testutil.User(t, db, "officer@example.com", "Pat Officer")
	ctx := context.Background()

	entry := &model.JournalEntry{EntryType: "debrief", Content: "Long night shift.", MoodBefore: 2, MoodAfter: 4}
	require.NoError(t, store.Insert(ctx, db, sc, entry))
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, sc.UserID, entry.UserID)

	rows, err := store.List[model.JournalEntry](ctx, db, sc, "created_at DESC")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entry.ID, rows[0].ID)
	assert.Equal(t, "Long night shift.", rows[0].Content)
	assert.Equal(t, 2, rows[0].MoodBefore)
	assert.Equal(t, 4, rows[0].MoodAfter)
}

func TestRowsAreInvisibleToOtherUsers(t *testing.T) {
	db := testutil.DB(t)
	alice := testutil.User(t, db, "alice@example.com", "Alice")
	bob := testutil.User(t, db, "bob@example.com", "Bob")
	ctx := context.Background()

	g := &model.Goal{Title: "Run 5k", Status: model.GoalActive}
	require.NoError(t, store.Insert(ctx, db, alice, g))

	rows, err := store.List[model.Goal](ctx, db, bob, "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = store.Get[model.Goal](ctx, db, bob, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = store.Update[model.Goal](ctx, db, bob, g.ID, map[string]any{"title": "hijacked"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, store.Delete[model.Goal](ctx, db, bob, g.ID), store.ErrNotFound)

	got, err := store.Get[model.Goal](ctx, db, alice, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run 5k", got.Title)
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	sc := testutil.User(t, db, "u@example.com", "")
	ctx := context.Background()

	s := &model.NucalmSession{SessionDate: time.Now(), DurationMinutes: 20, SessionType: "rescue", MoodBefore: 4, MoodAfter: 7}
	require.NoError(t, store.Insert(ctx, db, sc, s))

	updated, err := store.Update[model.NucalmSession](ctx, db, sc, s.ID, map[string]any{"duration_minutes": 45, "session_type": "reboot"})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.DurationMinutes)
	assert.Equal(t, "reboot", updated.SessionType)

	// same values again must not be reported as missing
	_, err = store.Update[model.NucalmSession](ctx, db, sc, s.ID, map[string]any{"duration_minutes": 45})
	require.NoError(t, err)

	require.NoError(t, store.Delete[model.NucalmSession](ctx, db, sc, s.ID))
	n, err := store.Count[model.NucalmSession](ctx, db, sc)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestZeroScopeIsRejected(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	_, err := store.List[model.Goal](ctx, db, store.Scope{}, "")
	assert.ErrorIs(t, err, store.ErrNoScope)
	assert.ErrorIs(t, store.Insert(ctx, db, store.Scope{}, &model.Goal{Title: "x"}), store.ErrNoScope)
}

func TestListConditions(t *testing.T) {
	db := testutil.DB(t)
	sc := testutil.User(t, db, "c@example.com", "")
	ctx := context.Background()

	for _, typ := range []string{"gratitude", "debrief", "gratitude"} {
		require.NoError(t, store.Insert(ctx, db, sc, &model.JournalEntry{EntryType: typ, Content: typ}))
	}
	rows, err := store.List[model.JournalEntry](ctx, db, sc, "", store.Where("entry_type = ?", "gratitude"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
