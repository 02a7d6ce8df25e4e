package graphstore_test

import (
	"testing"

	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/graphstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialize_FirstWriteWins(t *testing.T) {
	st := graphstore.New()
	st.Append(
		domain.Edge{From: "1", To: "2", Chosen: false, Tag: "first"},
		domain.Edge{From: "2", To: "3", Chosen: true},
	)
	before := len(st.Materialize())

	st.Append(
		domain.Edge{From: "1", To: "2", Chosen: true, Tag: "second", IsSecret: true},
		domain.Edge{From: "1", To: "2", Chosen: true, Tag: "third"},
	)
	view := st.Materialize()

	assert.Equal(t, 4, st.Len())
	assert.Equal(t, before, len(view))
	require.Len(t, view, 2)
	assert.Equal(t, domain.Edge{From: "1", To: "2", Chosen: false, Tag: "first"}, view[0])
}

func TestMaterialize_ExcludesSelfLoopsAndAnnotations(t *testing.T) {
	st := graphstore.New()
	st.Append(
		domain.Edge{From: "41", To: "42", Chosen: true},
		domain.Edge{From: "42", To: "42", Chosen: true},
		domain.Annotation("41", domain.TagStart),
	)

	assert.Equal(t, []domain.Edge{{From: "41", To: "42", Chosen: true}}, st.Materialize())
	assert.Equal(t, []string{"42"}, st.DeadNodes())
}

func TestDeadNodes(t *testing.T) {
	st := graphstore.New()
	st.Append(
		domain.Edge{From: "9", To: "9", Chosen: true},
		domain.Edge{From: "400", To: "400", Chosen: true, Tag: "end"},
		domain.Annotation("7", domain.TagDead),
		domain.Edge{From: "9", To: "9", Chosen: true},
	)

	assert.Equal(t, []string{"9", "7"}, st.DeadNodes())
}

func TestRequire_AppendOnlyAndOrdered(t *testing.T) {
	st := graphstore.New()
	st.Require("5", "3")
	st.Append(domain.Annotation("8", domain.TagRequired))
	st.Require("5", "")

	assert.Equal(t, []string{"5", "3", "8"}, st.Required())
	assert.True(t, st.IsRequired("8"))
	assert.False(t, st.IsRequired("1"))
}

func TestReset_ReplacesWholesale(t *testing.T) {
	st := graphstore.New()
	st.Append(domain.Edge{From: "1", To: "2", Chosen: true})
	st.Require("2")

	st.Reset([]domain.Edge{{From: "a", To: "b", Chosen: true}}, []string{"b"})

	assert.Equal(t, []domain.Edge{{From: "a", To: "b", Chosen: true}}, st.Edges())
	assert.Equal(t, []string{"b"}, st.Required())
	assert.False(t, st.IsRequired("2"))
}

func TestFirstSource(t *testing.T) {
	st := graphstore.New()
	_, ok := st.FirstSource()
	assert.False(t, ok)

	st.Append(domain.Edge{From: "1", To: "2"}, domain.Edge{From: "0", To: "1"})
	first, ok := st.FirstSource()
	assert.True(t, ok)
	assert.Equal(t, "1", first)
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := graphstore.New()
	st.Append(domain.Edge{From: "1", To: "2", Chosen: true})
	st.Require("2", "9")

	sess := st.Snapshot("s1")
	assert.Equal(t, "s1", sess.ID)

	restored := graphstore.FromSession(sess)
	assert.Equal(t, st.Edges(), restored.Edges())
	assert.Equal(t, st.Required(), restored.Required())
	assert.Equal(t, []string{"1", "2", "9"}, restored.Nodes())
}
