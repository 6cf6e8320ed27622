package types

import "time"

// Audit column names, in persisted order.
const (
	AuditCreatedBy  = "created_by"
	AuditModifiedBy = "modified_by"
	AuditCreatedAt  = "created_at"
	AuditModifiedAt = "modified_at"
	AuditVersion    = "version"
	AuditSessionID  = "session_id"
	AuditAppID      = "app_id"
)

// RowKeyColumn is the reserved column carrying the row identity in persisted
// batches. Load-time re-anchoring parses it with the same positional plus
// leading-value scheme used at save time.
const RowKeyColumn = "row_key"

// AuditColumns lists the audit column names in persisted order.
var AuditColumns = []string{
	AuditCreatedBy,
	AuditModifiedBy,
	AuditCreatedAt,
	AuditModifiedAt,
	AuditVersion,
	AuditSessionID,
	AuditAppID,
}

// Audit carries the who/when/version stamp applied to every persisted record.
// Version is a wall-clock-derived ordering hint, not a logical clock; it must
// not be treated as a correctness-bearing mechanism.
type Audit struct {
	CreatedBy  string    `json:"created_by"`
	ModifiedBy string    `json:"modified_by"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Version    int64     `json:"version"`
	SessionID  string    `json:"session_id"`
	AppID      string    `json:"app_id"`
}

// Record is one row of the writeback store's write format: the canonical
// key-dimension values of the resolved source row, every configured writeback
// column (unresolved values are nil, never omitted), and the audit stamp.
type Record struct {
	RowKey string            `json:"row_key"`
	Keys   map[string]string `json:"keys"`
	Values map[string]any    `json:"values"`
	Audit  Audit             `json:"audit"`
}

// Batch is one logical write: all records produced by a single save, plus the
// column order stores need to lay the records out as a table. Columns holds
// key-dimension columns in key order, then RowKeyColumn, then writeback
// columns in configuration order, then AuditColumns.
type Batch struct {
	AppID     string   `json:"app_id"`
	SessionID string   `json:"session_id"`
	Columns   []string `json:"columns"`
	Records   []Record `json:"records"`
}

// WriteAck is the optional metadata a store echoes back for a successful
// write, such as the assigned journal file name.
type WriteAck struct {
	File string `json:"file,omitempty"`
}

// Snapshot is the result of a store read: the most recent persisted dataset
// as a header row plus data rows.
type Snapshot struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// SaveSummary reports a completed save.
type SaveSummary struct {
	// Records is the number of records written.
	Records int `json:"records"`

	// Skipped counts rows whose edits were dropped because the row key no
	// longer resolved to a source row.
	Skipped int `json:"skipped"`

	// SavedAt is the completion timestamp.
	SavedAt time.Time `json:"saved_at"`

	// SavedBy is the acting user.
	SavedBy string `json:"saved_by"`

	// File is the store-assigned file name, when the store reports one.
	File string `json:"file,omitempty"`
}
