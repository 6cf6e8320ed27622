// Integration tests for multi-session coordination: sessions sharing one
// presence channel see each other, concurrent edits of the same row surface
// as conflicts, and closing a session removes it from the shared space.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/internal/channel"
	"github.com/mesh-intelligence/slate/pkg/slate"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// openPair opens two editors for distinct users over one shared in-process
// channel, both loaded with the sales dataset.
func openPair(t *testing.T) (*slate.Editor, *slate.Editor) {
	t.Helper()
	shared := channel.NewMemory()
	ds := loadSalesDataset(t)
	ctx := context.Background()

	cfgA := testConfig("sales-review", t.TempDir())
	cfgA.Presence.User = "alice"
	edA := openEditor(t, cfgA, slate.WithChannel(shared))
	require.NoError(t, edA.Load(ctx, ds))

	cfgB := testConfig("sales-review", t.TempDir())
	cfgB.Presence.User = "bob"
	edB := openEditor(t, cfgB, slate.WithChannel(shared))
	require.NoError(t, edB.Load(ctx, ds))

	return edA, edB
}

func TestCollaboration_SessionsSeeEachOther(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	assert.Equal(t, "alice", edA.User())
	assert.Equal(t, "bob", edB.User())

	sessions, err := edA.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	users := []string{sessions[0].User, sessions[1].User}
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)
	for _, s := range sessions {
		assert.Equal(t, types.StatusViewing, s.Status, "no edits staged yet")
		assert.NotEmpty(t, s.ID)
	}
}

func TestCollaboration_ConflictOnSharedRow(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	require.NoError(t, edA.Edit(0, "status", "approved"))
	require.NoError(t, edB.Edit(0, "comments", "disagree"))

	conflicts, err := edA.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, "East|Q1|row-0", c.RowKey)
	assert.Equal(t, []string{"alice", "bob"}, c.Users, "users are sorted")
	assert.Equal(t, []string{"comments", "status"}, c.Fields, "fields are the sorted union")

	// Both participants observe the same conflict.
	conflicts, err = edB.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, c.RowKey, conflicts[0].RowKey)
}

func TestCollaboration_NoConflictOnDistinctRows(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	require.NoError(t, edA.Edit(0, "status", "approved"))
	require.NoError(t, edB.Edit(1, "status", "pending"))

	conflicts, err := edA.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCollaboration_DiscardReleasesRow(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	require.NoError(t, edA.Edit(0, "status", "approved"))
	require.NoError(t, edB.Edit(0, "status", "rejected"))

	conflicts, err := edA.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	edB.Discard(ctx)
	conflicts, err = edA.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts, "discarding returns the session to viewing")
}

func TestCollaboration_CloseRemovesSession(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	require.NoError(t, edB.Close(ctx))

	sessions, err := edA.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "alice", sessions[0].User)
}

func TestCollaboration_SaveClearsConflict(t *testing.T) {
	edA, edB := openPair(t)
	ctx := context.Background()

	require.NoError(t, edA.Edit(0, "status", "approved"))
	require.NoError(t, edB.Edit(0, "status", "rejected"))

	_, err := edA.Save(ctx)
	require.NoError(t, err)

	// Saving drains the buffer but the presence claim on the row stands
	// until the session moves on or discards.
	conflicts, err := edA.Conflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1, "both sessions still claim the row")

	_, err = edB.Save(ctx)
	require.NoError(t, err)
	edB.Discard(ctx)
	edA.Discard(ctx)

	conflicts, err = edA.Conflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
