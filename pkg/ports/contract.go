package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a session with duplicates, annotations and a dead marker
		session := domain.NewSession(sessionID)
		session.Edges = []domain.Edge{
			{From: "1", To: "2", Chosen: true, Tag: "got potion"},
			{From: "1", To: "5"},
			{From: "1", To: "2"},
			{From: "2", To: "9", Chosen: true, Tag: domain.TagEnd, IsSecret: true},
			{From: "5", To: "5", Chosen: true},
			domain.Annotation("5", domain.TagRequired),
		}
		session.Required = []string{"5", "9"}

		// 2. Save
		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Edges, loaded.Edges, "log order and duplicates must survive")
		assert.Equal(t, session.Required, loaded.Required)
		assert.Equal(t, sessionID, loaded.ID)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		next := domain.NewSession(sessionID)
		next.Edges = []domain.Edge{{From: "7", To: "8", Chosen: true}}

		require.NoError(t, store.Save(ctx, sessionID, next))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, next.Edges, loaded.Edges)
		assert.Empty(t, loaded.Required)
	})

	t.Run("Load Isolated Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.NotEmpty(t, loaded.Edges)
		loaded.Edges[0].From = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Edges[0].From, "callers must not alias stored data")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		// Deleting again is a no-op
		assert.NoError(t, store.Delete(ctx, sessionID))
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2)))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
		assert.NotContains(t, sessions, sessionID)
	})
}
