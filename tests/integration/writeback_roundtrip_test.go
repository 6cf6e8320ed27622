// Integration tests for the writeback round trip: staged edits flow through
// validation and row re-anchoring into the sqlite store, and surface as the
// display baseline of the next session against the same data directory.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func TestWriteback_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("sales-review", dir)
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))

	key, err := ed.Key(0)
	require.NoError(t, err)
	assert.Equal(t, "East|Q1|row-0", key)

	require.NoError(t, ed.Edit(0, "status", "approved"))
	require.NoError(t, ed.Edit(0, "comments", "looks right"))
	require.True(t, ed.HasUnsaved())

	summary, err := ed.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records, "both edits target one row")
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, "tester", summary.SavedBy)
	assert.False(t, ed.HasUnsaved(), "buffer drains on successful save")

	require.NoError(t, ed.Close(ctx))

	// A fresh session against the same store sees the persisted values as
	// its baseline.
	ed2 := openEditor(t, cfg)
	require.NoError(t, ed2.Load(ctx, ds))
	assert.Equal(t, "approved", ed2.Value(key, "status"))
	assert.Equal(t, "looks right", ed2.Value(key, "comments"))
	assert.False(t, ed2.HasUnsaved(), "baseline values are not pending edits")
}

func TestWriteback_PendingEditWinsOverBaseline(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("sales-review", dir)
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))
	require.NoError(t, ed.Edit(0, "status", "approved"))
	_, err := ed.Save(ctx)
	require.NoError(t, err)

	// Stage a newer value, then reload: the pending edit must survive the
	// merge and win over the persisted baseline.
	require.NoError(t, ed.Edit(0, "status", "rejected"))
	require.NoError(t, ed.Load(ctx, ds))

	key, err := ed.Key(0)
	require.NoError(t, err)
	assert.Equal(t, "rejected", ed.Value(key, "status"))
	assert.True(t, ed.HasUnsaved())

	// A reload after the edit is confirmed by the store drops it.
	_, err = ed.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, ed.Load(ctx, ds))
	assert.Equal(t, "rejected", ed.Value(key, "status"))
	assert.False(t, ed.HasUnsaved())
}

func TestWriteback_UnresolvableRowSkipped(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("sales-review", dir)
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))

	// A key no current row produces: the edit is dropped with a warning,
	// not an error, and the rest of the save proceeds.
	ed.EditKey("Nowhere|Q9|row-9", "status", "approved")
	require.NoError(t, ed.Edit(1, "status", "pending"))

	summary, err := ed.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, 1, summary.Skipped)
	assert.False(t, ed.HasUnsaved(), "dropped edits are cleared with the save")
}

func TestWriteback_ValidationFailureKeepsBuffer(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("sales-review", dir)
	cfg.WritebackColumns = append(cfg.WritebackColumns, types.WritebackColumn{
		Name: "score", Type: types.ColumnTypeNumber,
		Bounds: types.Bounds{Max: f64(100)},
	})
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))
	require.NoError(t, ed.Edit(0, "score", 250))

	_, err := ed.Save(ctx)
	require.Error(t, err)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, "score", verr.Violations[0].Field)
	assert.True(t, ed.HasUnsaved(), "a refused save leaves the buffer intact")
}

func TestWriteback_JournalSurvivesDatabaseLoss(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("sales-review", dir)
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))
	require.NoError(t, ed.Edit(0, "status", "approved"))
	_, err := ed.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, ed.Close(ctx))

	require.FileExists(t, filepath.Join(dir, "writeback.jsonl"))

	// The journal is the source of truth: the sqlite file is a rebuildable
	// cache and its loss must not lose writes.
	require.NoError(t, os.Remove(filepath.Join(dir, "slate.db")))

	ed2 := openEditor(t, cfg)
	require.NoError(t, ed2.Load(ctx, ds))
	key, err := ed2.Key(0)
	require.NoError(t, err)
	assert.Equal(t, "approved", ed2.Value(key, "status"))
}

func TestWriteback_AppScoping(t *testing.T) {
	dir := t.TempDir()
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, testConfig("app-one", dir))
	require.NoError(t, ed.Load(ctx, ds))
	require.NoError(t, ed.Edit(0, "status", "approved"))
	_, err := ed.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, ed.Close(ctx))

	// A different application against the same store sees nothing.
	ed2 := openEditor(t, testConfig("app-two", dir))
	require.NoError(t, ed2.Load(ctx, ds))
	key, err := ed2.Key(0)
	require.NoError(t, err)
	assert.Nil(t, ed2.Value(key, "status"))
}

func TestWriteback_DiscardDropsPendingEdits(t *testing.T) {
	cfg := testConfig("sales-review", t.TempDir())
	ds := loadSalesDataset(t)
	ctx := context.Background()

	ed := openEditor(t, cfg)
	require.NoError(t, ed.Load(ctx, ds))
	require.NoError(t, ed.Edit(0, "status", "approved"))
	require.True(t, ed.HasUnsaved())

	ed.Discard(ctx)
	assert.False(t, ed.HasUnsaved())

	key, err := ed.Key(0)
	require.NoError(t, err)
	assert.Nil(t, ed.Value(key, "status"))
}

func f64(v float64) *float64 { return &v }
