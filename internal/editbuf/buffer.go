// Package editbuf holds the pending, unsaved cell edits of one session.
//
// The buffer keeps two layers: pending edits staged by the local user, and a
// read-only baseline of server-confirmed values merged in on load. Reads see
// pending over baseline, so a freshly loaded baseline never clobbers work in
// progress. Pending entries survive failed saves and are only dropped when a
// save confirms the exact value that was in flight.
package editbuf

import (
	"sort"
	"sync"
)

// Joiner constants for the composite entry key.
const (
	JoinDash   = "-"
	JoinDouble = "::"
)

// Entry is one staged cell edit.
type Entry struct {
	RowKey string
	Field  string
	Value  any
}

// Buffer is a goroutine-safe map of pending cell edits plus the merged
// server baseline. Timer-driven save policies read it concurrently with
// user-input writes.
type Buffer struct {
	mu       sync.RWMutex
	joiner   string
	pending  map[string]Entry
	baseline map[string]any
	rows     map[string]map[string]bool // rowKey -> edited field set
	notify   func(rowKey string, fields []string)
}

// New creates an empty buffer. The joiner builds the composite entry key
// (rowKey + joiner + field); composite-key deployments use JoinDouble so the
// field boundary stays parseable. notify, when non-nil, is called after every
// Set with the owning row key and that row's full edited-field set; it is
// invoked outside the buffer lock.
func New(joiner string, notify func(rowKey string, fields []string)) *Buffer {
	if joiner == "" {
		joiner = JoinDash
	}
	return &Buffer{
		joiner:   joiner,
		pending:  make(map[string]Entry),
		baseline: make(map[string]any),
		rows:     make(map[string]map[string]bool),
		notify:   notify,
	}
}

// EntryKey returns the composite key for one cell.
func (b *Buffer) EntryKey(rowKey, field string) string {
	return rowKey + b.joiner + field
}

// Set stages a value for one cell, overwriting any previous edit of the same
// cell. Last write wins within the session.
func (b *Buffer) Set(rowKey, field string, value any) {
	b.mu.Lock()
	b.pending[b.EntryKey(rowKey, field)] = Entry{RowKey: rowKey, Field: field, Value: value}
	if b.rows[rowKey] == nil {
		b.rows[rowKey] = make(map[string]bool)
	}
	b.rows[rowKey][field] = true
	fields := sortedFields(b.rows[rowKey])
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(rowKey, fields)
	}
}

// Get returns the display value for one cell: the pending edit when one is
// staged, else the merged baseline value, else def.
func (b *Buffer) Get(rowKey, field string, def any) any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	key := b.EntryKey(rowKey, field)
	if e, ok := b.pending[key]; ok {
		return e.Value
	}
	if v, ok := b.baseline[key]; ok {
		return v
	}
	return def
}

// Has reports whether a pending edit is staged for the cell.
func (b *Buffer) Has(rowKey, field string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.pending[b.EntryKey(rowKey, field)]
	return ok
}

// MergeBaseline merges server-confirmed values keyed by composite entry key.
// Baseline values only fill display reads where no pending edit exists; a
// staged local edit always wins over a freshly loaded baseline.
func (b *Buffer) MergeBaseline(server map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, v := range server {
		b.baseline[key] = v
	}
}

// Reconcile drops pending edits whose value the server now confirms: a
// reloaded baseline entry equal to the staged value supersedes the edit.
// Pending edits that still differ from the baseline are kept.
func (b *Buffer) Reconcile(server map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, v := range server {
		if e, ok := b.pending[key]; ok && e.Value == v {
			b.dropLocked(key, e)
		}
	}
}

// Snapshot returns the pending edits in deterministic (key-sorted) order.
// Save paths validate and persist a snapshot, then clear exactly the
// snapshot's entries once the write is confirmed.
func (b *Buffer) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = b.pending[k]
	}
	return out
}

// ByRow groups the pending edits by row key.
func (b *Buffer) ByRow() map[string][]Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]Entry)
	for _, e := range b.pending {
		out[e.RowKey] = append(out[e.RowKey], e)
	}
	for _, entries := range out {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Field < entries[j].Field })
	}
	return out
}

// ClearSaved removes the pending entries a confirmed save persisted. An
// entry is removed only when its current value still equals the saved one;
// edits staged while the save was in flight are never lost.
func (b *Buffer) ClearSaved(saved []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range saved {
		key := b.EntryKey(s.RowKey, s.Field)
		if e, ok := b.pending[key]; ok && e.Value == s.Value {
			b.dropLocked(key, e)
		}
	}
}

// Clear discards every pending edit. The baseline is kept: discarding work
// in progress returns the display to the last loaded server state.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = make(map[string]Entry)
	b.rows = make(map[string]map[string]bool)
}

// Len returns the number of pending edits.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending)
}

// Baseline returns the merged baseline value for one cell.
func (b *Buffer) Baseline(rowKey, field string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.baseline[b.EntryKey(rowKey, field)]
	return v, ok
}

func (b *Buffer) dropLocked(key string, e Entry) {
	delete(b.pending, key)
	if fields, ok := b.rows[e.RowKey]; ok {
		delete(fields, e.Field)
		if len(fields) == 0 {
			delete(b.rows, e.RowKey)
		}
	}
}

func sortedFields(set map[string]bool) []string {
	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
