// JSONL journal helpers with atomic persistence.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// journalFile is the on-disk name of the writeback journal.
const journalFile = "writeback.jsonl"

// journalEntry is one persisted batch: the batch identity and metadata plus
// its records, one JSON line per batch.
type journalEntry struct {
	BatchID   string         `json:"batch_id"`
	AppID     string         `json:"app_id"`
	SessionID string         `json:"session_id"`
	SavedAt   time.Time      `json:"saved_at"`
	Columns   []string       `json:"columns"`
	Records   []types.Record `json:"records"`
}

// readJournal reads the journal and returns each parseable line. A missing
// file is an empty journal; malformed lines are skipped so one corrupt batch
// never poisons the rest.
func readJournal(dataDir string) ([]journalEntry, error) {
	f, err := os.Open(filepath.Join(dataDir, journalFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var entries []journalEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e journalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning journal: %w", err)
	}
	return entries, nil
}

// writeJournal atomically rewrites the journal using the temp-file, fsync,
// rename pattern.
func writeJournal(dataDir string, entries []journalEntry) error {
	path := filepath.Join(dataDir, journalFile)
	tmp, err := os.CreateTemp(dataDir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("encoding batch %s: %w", e.BatchID, err)
		}
		if _, err := w.Write(line); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing batch: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
