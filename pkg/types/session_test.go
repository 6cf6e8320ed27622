package types

import "testing"

func TestSessionSetStatus(t *testing.T) {
	s := &Session{Status: StatusViewing}

	for _, status := range []string{StatusEditing, StatusTyping, StatusIdle, StatusViewing} {
		if err := s.SetStatus(status); err != nil {
			t.Errorf("SetStatus(%q) = %v, want nil", status, err)
		}
		if s.Status != status {
			t.Errorf("Status = %q after SetStatus(%q)", s.Status, status)
		}
	}

	if err := s.SetStatus("away"); err != ErrInvalidStatus {
		t.Errorf("SetStatus(%q) = %v, want %v", "away", err, ErrInvalidStatus)
	}
}

func TestSessionIsEditing(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"editing with target", Session{Status: StatusEditing, EditingRow: "k|row-0"}, true},
		{"typing with target", Session{Status: StatusTyping, EditingRow: "k|row-0"}, true},
		{"editing without target", Session{Status: StatusEditing}, false},
		{"viewing with stale target", Session{Status: StatusViewing, EditingRow: "k|row-0"}, false},
		{"idle with target", Session{Status: StatusIdle, EditingRow: "k|row-0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsEditing(); got != tt.want {
				t.Errorf("IsEditing() = %v, want %v", got, tt.want)
			}
		})
	}
}
