package sqlite

// Schema DDL. SQLite is the query engine; the JSONL journal on disk is the
// source of truth and is reloaded into a fresh database on every Attach.
const (
	createBatches = `CREATE TABLE batches (
    batch_id TEXT PRIMARY KEY,
    app_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    saved_at TEXT NOT NULL,
    columns TEXT NOT NULL,
    file TEXT NOT NULL
);`

	createRecords = `CREATE TABLE records (
    batch_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    row_key TEXT NOT NULL,
    keys TEXT NOT NULL,
    vals TEXT NOT NULL,
    created_by TEXT NOT NULL,
    modified_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    modified_at TEXT NOT NULL,
    version INTEGER NOT NULL,
    session_id TEXT NOT NULL,
    app_id TEXT NOT NULL,
    PRIMARY KEY (batch_id, position),
    FOREIGN KEY (batch_id) REFERENCES batches(batch_id)
);`

	createBatchesAppIndex = `CREATE INDEX idx_batches_app ON batches(app_id, saved_at);`
)

// schemaDDL lists the statements executed on Attach, in order.
var schemaDDL = []string{
	createBatches,
	createRecords,
	createBatchesAppIndex,
}
