package badger_test

import (
	"context"
	"testing"

	"github.com/aretw0/gamebook/pkg/adapters/badger"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_Contract(t *testing.T) {
	store, err := badger.Open(badger.Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	ports.RunSessionStoreContract(t, store)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := badger.Open(badger.Config{})
	assert.Error(t, err)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := badger.Open(badger.Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)

	session := domain.NewSession("s")
	session.Edges = []domain.Edge{{From: "1", To: "2", Chosen: true}}
	session.Required = []string{"2"}
	require.NoError(t, store.Save(ctx, "s", session))
	require.NoError(t, store.Close())

	reopened, err := badger.Open(badger.Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, session.Edges, loaded.Edges)
	assert.Equal(t, []string{"2"}, loaded.Required)

	ids, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, ids)
}
