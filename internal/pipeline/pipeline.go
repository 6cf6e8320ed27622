// Package pipeline reconciles staged edits against the current source
// dataset and moves them to and from the writeback store.
//
// The save path validates every pending edit, groups them by row key,
// re-anchors each key to a concrete source row, builds one persistence
// record per resolved row and hands the whole batch to the store as a
// single logical write. Validation failures refuse the save outright;
// unresolvable rows are skipped with a warning while the rest of the batch
// proceeds; a transport failure fails the save as a whole and leaves the
// edit buffer intact for retry.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/slate/internal/editbuf"
	"github.com/mesh-intelligence/slate/internal/rowkey"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Pipeline is the persistence path for one session. Safe for use from timer
// callbacks; all state is read-only after construction.
type Pipeline struct {
	cfg       types.Config
	store     types.Store
	user      string
	sessionID string
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline writing on behalf of user within the given session.
// store may be nil, in which case saves fail with ErrNoStore and loads
// return an empty baseline.
func New(cfg types.Config, store types.Store, user, sessionID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		store:     store,
		user:      user,
		sessionID: sessionID,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// JoinerFor returns the edit-buffer key joiner for the configured strategy.
// Composite keys contain the configured separator and JSON punctuation, so
// they get the wider joiner to keep the field boundary parseable.
func JoinerFor(cfg types.Config) string {
	if cfg.EffectiveStrategy() == types.StrategyComposite {
		return editbuf.JoinDouble
	}
	return editbuf.JoinDash
}

// Save drains the buffer's pending edits into one store write.
//
// On success the persisted entries are cleared from the buffer (edits staged
// while the write was in flight survive) and a summary is returned. On a
// validation error or transport failure nothing is cleared.
func (p *Pipeline) Save(ctx context.Context, buf *editbuf.Buffer, dataset *types.Dataset) (*types.SaveSummary, error) {
	if p.store == nil {
		return nil, types.ErrNoStore
	}

	snapshot := buf.Snapshot()
	if len(snapshot) == 0 {
		return &types.SaveSummary{SavedAt: p.now(), SavedBy: p.user}, nil
	}

	matcher := NewMatcher(columnNames(p.cfg.WritebackColumns))
	violations, unmatched := validate(matcher, p.cfg.WritebackColumns, snapshot)
	if len(violations) > 0 {
		return nil, &types.ValidationError{Violations: violations}
	}
	for _, e := range unmatched {
		p.log.Warn("edit matches no writeback column, excluded from save",
			"row_key", e.RowKey, "field", e.Field)
	}

	res := rowkey.NewResolver(p.cfg, dataset.Columns)
	groups, order := groupByRow(snapshot, unmatched)

	now := p.now()
	audit := types.Audit{
		CreatedBy:  p.user,
		ModifiedBy: p.user,
		CreatedAt:  now,
		ModifiedAt: now,
		Version:    versionStamp(now),
		SessionID:  p.sessionID,
		AppID:      p.cfg.AppID,
	}

	var records []types.Record
	skipped := 0
	for _, key := range order {
		row, ok := resolveRow(res, key, dataset.Rows)
		if !ok {
			p.log.Warn("row key no longer resolves to a source row, edits dropped",
				"row_key", key, "edits", len(groups[key]))
			skipped++
			continue
		}
		records = append(records, p.buildRecord(res, key, row, groups[key], audit))
	}

	batch := types.Batch{
		AppID:     p.cfg.AppID,
		SessionID: p.sessionID,
		Columns:   batchColumns(res.Fields(), p.cfg.WritebackColumns),
		Records:   records,
	}

	ack, err := p.store.Write(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}

	buf.ClearSaved(snapshot)

	summary := &types.SaveSummary{
		Records: len(records),
		Skipped: skipped,
		SavedAt: now,
		SavedBy: p.user,
	}
	if ack != nil {
		summary.File = ack.File
	}
	p.log.Info("writeback saved",
		"records", summary.Records, "skipped", summary.Skipped, "file", summary.File)
	return summary, nil
}

// Load fetches the latest persisted batch and re-keys it against the current
// dataset, returning baseline entries keyed by composite entry key. Rows
// whose stored key no longer resolves are dropped. A read failure degrades
// to an empty baseline so the caller is never blocked on the store.
func (p *Pipeline) Load(ctx context.Context, dataset *types.Dataset) (map[string]any, error) {
	baseline := make(map[string]any)
	if p.store == nil {
		return baseline, nil
	}

	snap, err := p.store.Read(ctx, p.cfg.AppID, types.ReadLatest)
	if err != nil {
		p.log.Warn("writeback load failed, starting from empty baseline", "error", err)
		return baseline, nil
	}
	if snap == nil || len(snap.Rows) == 0 {
		return baseline, nil
	}

	keyIdx := columnIndex(snap.Columns, types.RowKeyColumn)
	if keyIdx < 0 {
		p.log.Warn("persisted snapshot has no row_key column, ignored")
		return baseline, nil
	}

	res := rowkey.NewResolver(p.cfg, dataset.Columns)
	joiner := JoinerFor(p.cfg)

	for _, stored := range snap.Rows {
		if keyIdx >= len(stored) {
			continue
		}
		row, ok := resolveRow(res, stored[keyIdx], dataset.Rows)
		if !ok {
			p.log.Debug("persisted row no longer resolves", "row_key", stored[keyIdx])
			continue
		}
		currentKey := res.Key(row)
		for _, col := range p.cfg.WritebackColumns {
			i := columnIndex(snap.Columns, col.Name)
			if i < 0 || i >= len(stored) || stored[i] == "" {
				continue
			}
			baseline[currentKey+joiner+col.Name] = stored[i]
		}
	}
	return baseline, nil
}

// buildRecord assembles one persistence record: the resolved row's key
// values, every configured writeback column (nil when the row has no edit
// for it), and the audit stamp.
func (p *Pipeline) buildRecord(res *rowkey.Resolver, key string, row types.Row, entries []editbuf.Entry, audit types.Audit) types.Record {
	keys := make(map[string]string)
	values := res.Values(row)
	for i, field := range res.Fields() {
		keys[field] = values[i]
	}

	editFields := make([]string, len(entries))
	byField := make(map[string]any, len(entries))
	for i, e := range entries {
		editFields[i] = e.Field
		byField[e.Field] = e.Value
	}

	recordValues := make(map[string]any, len(p.cfg.WritebackColumns))
	for _, col := range p.cfg.WritebackColumns {
		if field, ok := Find(col.Name, editFields); ok {
			recordValues[col.Name] = byField[field]
		} else {
			recordValues[col.Name] = nil
		}
	}

	return types.Record{RowKey: key, Keys: keys, Values: recordValues, Audit: audit}
}

// groupByRow groups matched entries by row key, preserving snapshot order,
// with unmatched entries removed.
func groupByRow(snapshot, unmatched []editbuf.Entry) (map[string][]editbuf.Entry, []string) {
	skip := make(map[string]bool, len(unmatched))
	for _, e := range unmatched {
		skip[e.RowKey+"\x00"+e.Field] = true
	}

	groups := make(map[string][]editbuf.Entry)
	var order []string
	for _, e := range snapshot {
		if skip[e.RowKey+"\x00"+e.Field] {
			continue
		}
		if _, seen := groups[e.RowKey]; !seen {
			order = append(order, e.RowKey)
		}
		groups[e.RowKey] = append(groups[e.RowKey], e)
	}
	return groups, order
}

// batchColumns fixes the tabular column order of a batch: key dimensions in
// key order, the row key, writeback columns in configuration order, then the
// audit columns.
func batchColumns(keyFields []string, writeback []types.WritebackColumn) []string {
	columns := make([]string, 0, len(keyFields)+1+len(writeback)+len(types.AuditColumns))
	columns = append(columns, keyFields...)
	columns = append(columns, types.RowKeyColumn)
	for _, c := range writeback {
		columns = append(columns, c.Name)
	}
	return append(columns, types.AuditColumns...)
}

// versionStamp derives the record version from wall-clock fragments
// (day-of-year and seconds-of-day). It is an ordering hint only; it wraps
// across years and two saves within one second share a stamp.
func versionStamp(now time.Time) int64 {
	secondOfDay := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return int64(now.YearDay())*1_000_000 + int64(secondOfDay)
}

func columnNames(columns []types.WritebackColumn) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
