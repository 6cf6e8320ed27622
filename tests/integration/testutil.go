// Package integration provides shared test helpers for integration tests.
package integration

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mesh-intelligence/slate/internal/grid"
	"github.com/mesh-intelligence/slate/pkg/slate"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// salesCSV is the shared source dataset: two key dimensions plus a numeric
// column, covering both categorical and aggregated column kinds.
const salesCSV = `region,quarter,revenue
East,Q1,1200
East,Q2,1350
West,Q1,900
`

// testConfig builds a configuration with a two-dimension concatenate key and
// a small writeback schema, backed by a sqlite store in dir.
func testConfig(appID, dir string) types.Config {
	return types.Config{
		AppID: appID,
		KeyDimensions: []types.KeyDimension{
			{Field: "region", IsKey: true, Order: 1},
			{Field: "quarter", IsKey: true, Order: 2},
		},
		WritebackColumns: []types.WritebackColumn{
			{Name: "status", Type: types.ColumnTypeDropdown},
			{Name: "comments", Type: types.ColumnTypeTextarea},
		},
		Presence: types.PresenceConfig{User: "tester"},
		Store:    types.StoreConfig{Kind: types.StoreSQLite, DataDir: dir},
	}
}

// loadSalesDataset parses salesCSV into a dataset.
func loadSalesDataset(t *testing.T) *types.Dataset {
	t.Helper()
	ds, err := grid.Read(strings.NewReader(salesCSV))
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	return ds
}

// openEditor opens an editor with a quiet logger and registers cleanup.
func openEditor(t *testing.T, cfg types.Config, opts ...slate.Option) *slate.Editor {
	t.Helper()
	opts = append(opts, slate.WithLogger(quietLogger()))
	ed, err := slate.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("open editor: %v", err)
	}
	t.Cleanup(func() { ed.Close(context.Background()) })
	return ed
}

// quietLogger discards all log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
