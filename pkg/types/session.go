package types

import "time"

// Session states. A session moves between viewing, editing, and typing as the
// user interacts, and falls back to idle after a period without input.
const (
	StatusViewing = "viewing"
	StatusEditing = "editing"
	StatusTyping  = "typing"
	StatusIdle    = "idle"
)

// validStatuses is the set of recognized session status values.
var validStatuses = map[string]bool{
	StatusViewing: true,
	StatusEditing: true,
	StatusTyping:  true,
	StatusIdle:    true,
}

// Session represents one live client process participating in the shared
// editing space. Sessions are published to the shared channel and refreshed
// by heartbeat and activity ticks; peers only ever see the published copy.
type Session struct {
	// ID is a UUID v7, generated when the session registers.
	ID string `json:"session_id"`

	// User is the best-effort resolved identity of the local user.
	User string `json:"user"`

	// Status is one of the Status constants.
	Status string `json:"status"`

	// EditingRow is the row key currently being edited, or empty when the
	// session is only viewing.
	EditingRow string `json:"editing_row,omitempty"`

	// EditingFields lists the fields being edited on EditingRow.
	EditingFields []string `json:"editing_fields,omitempty"`

	// StartedAt is the registration timestamp.
	StartedAt time.Time `json:"started_at"`

	// LastActivity is refreshed on every heartbeat and activity update.
	// Readers use it to filter out stale sessions.
	LastActivity time.Time `json:"last_activity"`

	// AppID scopes the session to one writeback application.
	AppID string `json:"app_id,omitempty"`
}

// SetStatus sets the session status to the given value.
// Returns ErrInvalidStatus if the status is not recognized.
// Idempotent: setting the current status succeeds without error.
func (s *Session) SetStatus(status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	s.Status = status
	return nil
}

// IsEditing reports whether the session currently claims an edit target.
// Typing is a sub-state of editing and counts.
func (s *Session) IsEditing() bool {
	return s.EditingRow != "" && (s.Status == StatusEditing || s.Status == StatusTyping)
}

// Conflict reports two or more live sessions editing the same logical row.
// Conflicts are derived from the published session set on each recompute and
// are never stored.
type Conflict struct {
	// RowKey identifies the contested row.
	RowKey string `json:"row_key"`

	// Users lists the distinct users editing the row, sorted.
	Users []string `json:"users"`

	// Fields is the union of all editors' editing fields, sorted.
	Fields []string `json:"fields"`
}
