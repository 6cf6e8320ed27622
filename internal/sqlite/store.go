// Package sqlite implements the local writeback store: SQLite as the query
// engine and a JSONL journal as the source of truth.
//
// Attach builds a fresh database from the journal; every Write appends one
// batch to both. The journal survives process restarts and is the file named
// in write acknowledgements; the database file is disposable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// dbFile is the on-disk name of the rebuilt query database.
const dbFile = "slate.db"

// Store implements types.Store on local files. It must be attached before
// use and detached to release the database handle.
type Store struct {
	mu       sync.RWMutex
	attached bool
	dataDir  string
	db       *sql.DB
	journal  []journalEntry
	now      func() time.Time
	log      *slog.Logger
}

// NewStore creates an unattached store; call Attach before use.
func NewStore() *Store {
	return &Store{now: time.Now, log: slog.Default()}
}

// SetLogger replaces the store's logger. Call before Attach.
func (s *Store) SetLogger(log *slog.Logger) {
	s.log = log
}

// Attach creates the data directory if needed, rebuilds the SQLite database
// from the journal, and readies the store for reads and writes.
// Returns ErrAlreadyAttached when called twice without a Detach.
func (s *Store) Attach(cfg types.StoreConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The database is rebuilt from the journal; stale files are discarded.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	entries, err := readJournal(dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("read journal: %w", err)
	}
	for _, e := range entries {
		if err := insertBatch(db, e); err != nil {
			db.Close()
			return fmt.Errorf("load journal batch %s: %w", e.BatchID, err)
		}
	}

	s.dataDir = dataDir
	s.db = db
	s.journal = entries
	s.attached = true
	s.log.Debug("writeback store attached", "data_dir", dataDir, "batches", len(entries))
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrStoreDetached until the next Attach.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.journal = nil
	s.attached = false
	return nil
}

// Write persists the batch: one insert transaction plus an atomic journal
// rewrite. The returned acknowledgement names the journal file.
func (s *Store) Write(ctx context.Context, batch types.Batch) (*types.WriteAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	entry := journalEntry{
		BatchID:   newBatchID(),
		AppID:     batch.AppID,
		SessionID: batch.SessionID,
		SavedAt:   s.now().UTC(),
		Columns:   batch.Columns,
		Records:   batch.Records,
	}

	if err := insertBatch(s.db, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}

	journal := append(s.journal, entry)
	if err := writeJournal(s.dataDir, journal); err != nil {
		// The journal is the source of truth; an unjournaled batch is a
		// failed write even though the database row landed. The next
		// Attach rebuilds from the journal and discards it.
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	s.journal = journal

	return &types.WriteAck{File: journalFile}, nil
}

// Read returns the persisted dataset for the application as a header row
// plus data rows. With token ReadLatest a store holding no batches returns
// an empty snapshot; an unknown explicit batch ID returns ErrBatchNotFound.
func (s *Store) Read(ctx context.Context, appID, token string) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	var (
		batchID    string
		columnsRaw string
		err        error
	)
	if token == types.ReadLatest {
		err = s.db.QueryRowContext(ctx,
			`SELECT batch_id, columns FROM batches WHERE app_id = ?
			 ORDER BY saved_at DESC, rowid DESC LIMIT 1`, appID).
			Scan(&batchID, &columnsRaw)
		if err == sql.ErrNoRows {
			return &types.Snapshot{}, nil
		}
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT batch_id, columns FROM batches WHERE app_id = ? AND batch_id = ?`,
			appID, token).
			Scan(&batchID, &columnsRaw)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", types.ErrBatchNotFound, token)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}

	var columns []string
	if err := json.Unmarshal([]byte(columnsRaw), &columns); err != nil {
		return nil, fmt.Errorf("decode batch columns: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_key, keys, vals, created_by, modified_by, created_at,
		        modified_at, version, session_id, app_id
		 FROM records WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer rows.Close()

	snap := &types.Snapshot{Columns: columns}
	for rows.Next() {
		var rowKey, keysRaw, valsRaw string
		var createdBy, modifiedBy, createdAt, modifiedAt string
		var sessionID, recAppID string
		var version int64
		if err := rows.Scan(&rowKey, &keysRaw, &valsRaw, &createdBy, &modifiedBy,
			&createdAt, &modifiedAt, &version, &sessionID, &recAppID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		var keys map[string]string
		var vals map[string]any
		if err := json.Unmarshal([]byte(keysRaw), &keys); err != nil {
			return nil, fmt.Errorf("decode record keys: %w", err)
		}
		if err := json.Unmarshal([]byte(valsRaw), &vals); err != nil {
			return nil, fmt.Errorf("decode record values: %w", err)
		}

		audit := map[string]string{
			types.AuditCreatedBy:  createdBy,
			types.AuditModifiedBy: modifiedBy,
			types.AuditCreatedAt:  createdAt,
			types.AuditModifiedAt: modifiedAt,
			types.AuditVersion:    strconv.FormatInt(version, 10),
			types.AuditSessionID:  sessionID,
			types.AuditAppID:      recAppID,
		}

		line := make([]string, len(columns))
		for i, col := range columns {
			switch {
			case col == types.RowKeyColumn:
				line[i] = rowKey
			case keys[col] != "":
				line[i] = keys[col]
			case audit[col] != "":
				line[i] = audit[col]
			default:
				line[i] = formatValue(vals[col])
			}
		}
		snap.Rows = append(snap.Rows, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	return snap, nil
}

// insertBatch writes one batch and its records in a single transaction.
func insertBatch(db *sql.DB, e journalEntry) error {
	columns, err := json.Marshal(e.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO batches (batch_id, app_id, session_id, saved_at, columns, file)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.BatchID, e.AppID, e.SessionID, e.SavedAt.Format(time.RFC3339Nano),
		string(columns), journalFile); err != nil {
		return err
	}

	for i, rec := range e.Records {
		keys, err := json.Marshal(rec.Keys)
		if err != nil {
			return fmt.Errorf("encode record keys: %w", err)
		}
		vals, err := json.Marshal(rec.Values)
		if err != nil {
			return fmt.Errorf("encode record values: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO records (batch_id, position, row_key, keys, vals,
			    created_by, modified_by, created_at, modified_at, version,
			    session_id, app_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.BatchID, i, rec.RowKey, string(keys), string(vals),
			rec.Audit.CreatedBy, rec.Audit.ModifiedBy,
			rec.Audit.CreatedAt.Format(time.RFC3339Nano),
			rec.Audit.ModifiedAt.Format(time.RFC3339Nano),
			rec.Audit.Version, rec.Audit.SessionID, rec.Audit.AppID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// formatValue renders a record value as snapshot cell text. Nil is the
// empty string, matching how unresolved fields are persisted.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// newBatchID returns a UUID v7 so batch IDs sort by creation time.
func newBatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
