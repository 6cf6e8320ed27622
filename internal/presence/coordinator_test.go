package presence

import (
	"context"
	"testing"
	"time"

	"github.com/mesh-intelligence/slate/internal/channel"
	"github.com/mesh-intelligence/slate/pkg/types"
)

func testCoordinator(t *testing.T, ch types.Channel, user string, now *time.Time) *Coordinator {
	t.Helper()
	c := New(ch, types.PresenceConfig{User: user}, "orders",
		WithClock(func() time.Time { return *now }))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = c.Stop(context.Background()) })
	return c
}

func TestStartPublishesViewingSession(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	all, err := ch.ReadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("published %d sessions, want 1", len(all))
	}
	if all[0].User != "alice" || all[0].Status != types.StatusViewing {
		t.Errorf("session = %+v", all[0])
	}
	if all[0].ID != c.Session().ID {
		t.Error("published ID differs from local session ID")
	}
}

func TestUpdateEditingPublishesImmediately(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	// No recent keystroke: plain editing, not typing.
	now = now.Add(10 * time.Second)
	if err := c.UpdateEditing(context.Background(), "East|row-0", []string{"Notes"}); err != nil {
		t.Fatal(err)
	}

	all, _ := ch.ReadAll(context.Background())
	if all[0].Status != types.StatusEditing || all[0].EditingRow != "East|row-0" {
		t.Errorf("session = %+v", all[0])
	}

	// Clearing the target returns to viewing.
	if err := c.UpdateEditing(context.Background(), "", nil); err != nil {
		t.Fatal(err)
	}
	all, _ = ch.ReadAll(context.Background())
	if all[0].Status != types.StatusViewing || all[0].EditingRow != "" {
		t.Errorf("session = %+v", all[0])
	}
}

func TestTypingWithinTwoSeconds(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	now = now.Add(5 * time.Second)
	c.NoteKeystroke()
	now = now.Add(time.Second)
	if err := c.UpdateEditing(context.Background(), "row-0", []string{"Notes"}); err != nil {
		t.Fatal(err)
	}
	if got := c.Session().Status; got != types.StatusTyping {
		t.Errorf("status = %s, want typing", got)
	}

	// The typing window closes two seconds after the last keystroke.
	now = now.Add(3 * time.Second)
	_ = c.UpdateEditing(context.Background(), "row-0", []string{"Notes"})
	if got := c.Session().Status; got != types.StatusEditing {
		t.Errorf("status = %s, want editing", got)
	}
}

func TestIdleAfterThreshold(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	now = now.Add(types.DefaultIdleAfter + time.Second)
	_ = c.UpdateEditing(context.Background(), "row-0", nil)
	if got := c.Session().Status; got != types.StatusIdle {
		t.Errorf("status = %s, want idle", got)
	}
}

func TestActiveFiltersStaleSessions(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	stale := types.Session{
		ID: "zz-stale", User: "bob", Status: types.StatusEditing,
		LastActivity: now.Add(-4 * time.Minute),
	}
	if err := ch.Publish(context.Background(), stale); err != nil {
		t.Fatal(err)
	}

	live, err := c.Active(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 || live[0].User != "alice" {
		t.Fatalf("Active = %+v, want only alice", live)
	}

	// The stale record is filtered, not deleted.
	all, _ := ch.ReadAll(context.Background())
	if len(all) != 2 {
		t.Errorf("channel holds %d sessions, want 2", len(all))
	}
}

func TestDetectConflicts(t *testing.T) {
	sessions := []types.Session{
		{ID: "1", User: "alice", Status: types.StatusEditing,
			EditingRow: "East|row-0", EditingFields: []string{"Notes"}},
		{ID: "2", User: "bob", Status: types.StatusTyping,
			EditingRow: "East|row-0", EditingFields: []string{"Status", "Notes"}},
		{ID: "3", User: "carol", Status: types.StatusEditing,
			EditingRow: "West|row-1", EditingFields: []string{"Notes"}},
		{ID: "4", User: "dave", Status: types.StatusViewing},
	}

	conflicts := DetectConflicts(sessions)
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want exactly 1", conflicts)
	}
	c := conflicts[0]
	if c.RowKey != "East|row-0" {
		t.Errorf("RowKey = %s", c.RowKey)
	}
	if len(c.Users) != 2 || c.Users[0] != "alice" || c.Users[1] != "bob" {
		t.Errorf("Users = %v", c.Users)
	}
	if len(c.Fields) != 2 || c.Fields[0] != "Notes" || c.Fields[1] != "Status" {
		t.Errorf("Fields = %v, want union [Notes Status]", c.Fields)
	}
}

func TestDetectConflictsSameUserTwoSessions(t *testing.T) {
	// The same user in two tabs is not a conflict.
	sessions := []types.Session{
		{ID: "1", User: "alice", Status: types.StatusEditing, EditingRow: "row-0"},
		{ID: "2", User: "alice", Status: types.StatusEditing, EditingRow: "row-0"},
	}
	if got := DetectConflicts(sessions); len(got) != 0 {
		t.Errorf("conflicts = %+v, want none", got)
	}
}

func TestStopRemovesOwnSession(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()
	c := testCoordinator(t, ch, "alice", &now)

	peer := types.Session{ID: "peer", User: "bob"}
	_ = ch.Publish(context.Background(), peer)

	if err := c.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("second Stop errored: %v", err)
	}

	all, _ := ch.ReadAll(context.Background())
	if len(all) != 1 || all[0].ID != "peer" {
		t.Errorf("channel = %+v, want only the peer", all)
	}
}

func TestConflictHookFiresOnEditChange(t *testing.T) {
	ch := channel.NewMemory()
	now := time.Now()

	peer := types.Session{
		ID: "peer", User: "bob", Status: types.StatusEditing,
		EditingRow: "row-0", EditingFields: []string{"Notes"},
		LastActivity: now,
	}
	_ = ch.Publish(context.Background(), peer)

	var got []types.Conflict
	c := New(ch, types.PresenceConfig{User: "alice"}, "orders",
		WithClock(func() time.Time { return now }),
		WithConflictHook(func(conflicts []types.Conflict) { got = conflicts }))
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Stop(context.Background()) }()

	if err := c.UpdateEditing(context.Background(), "row-0", []string{"Status"}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].RowKey != "row-0" {
		t.Fatalf("hook conflicts = %+v", got)
	}
}
