// Package presence tracks which live session is editing which logical row.
//
// Every client process registers one session on a shared channel and keeps
// it fresh with two independent timers: a heartbeat that republishes
// liveness, and an activity tick that recomputes the session's status and
// edit target before republishing. There is no central server; peers read
// the full published set, filter stale entries by last-activity age, and
// derive conflicts locally each time.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// typingWindow is how recently a keystroke must have landed for the session
// to report typing rather than editing.
const typingWindow = 2 * time.Second

// Coordinator owns the local session and its view of the peers.
type Coordinator struct {
	ch    types.Channel
	cfg   types.PresenceConfig
	appID string
	log   *slog.Logger
	now   func() time.Time

	// onConflict, when set, receives the recomputed conflict set after
	// every edit-target change and activity tick.
	onConflict func([]types.Conflict)

	mu        sync.Mutex
	session   types.Session
	lastInput time.Time
	heartbeat *time.Timer
	activity  *time.Timer
	started   bool
	stopped   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithConflictHook registers a callback invoked with the conflict set after
// each recompute. The callback runs on the caller's or a timer goroutine.
func WithConflictHook(fn func([]types.Conflict)) Option {
	return func(c *Coordinator) { c.onConflict = fn }
}

// New builds a coordinator publishing to ch. Nothing is published until
// Start.
func New(ch types.Channel, cfg types.PresenceConfig, appID string, opts ...Option) *Coordinator {
	c := &Coordinator{
		ch:    ch,
		cfg:   cfg,
		appID: appID,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start registers the local session on the channel and arms the heartbeat
// and activity timers. Calling Start twice is an error in usage but safe; the
// second call is a no-op.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	now := c.now()
	c.session = types.Session{
		ID:           newSessionID(),
		User:         ResolveUser(c.cfg),
		Status:       types.StatusViewing,
		StartedAt:    now,
		LastActivity: now,
		AppID:        c.appID,
	}
	c.lastInput = now
	c.started = true
	session := c.session
	c.mu.Unlock()

	if err := c.ch.Publish(ctx, session); err != nil {
		return err
	}

	c.mu.Lock()
	c.heartbeat = time.AfterFunc(c.cfg.EffectiveHeartbeatInterval(), c.heartbeatTick)
	c.activity = time.AfterFunc(c.cfg.EffectiveActivityInterval(), c.activityTick)
	c.mu.Unlock()

	c.log.Info("presence session registered", "session_id", session.ID, "user", session.User)
	return nil
}

// Session returns a copy of the local session as last published.
func (c *Coordinator) Session() types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// UpdateEditing declares the local edit target and republishes immediately,
// bypassing the timers so peers observe the change with low latency. An
// empty rowKey returns the session to viewing. The conflict set is recomputed
// afterwards.
func (c *Coordinator) UpdateEditing(ctx context.Context, rowKey string, fields []string) error {
	c.mu.Lock()
	now := c.now()
	c.session.EditingRow = rowKey
	c.session.EditingFields = append([]string(nil), fields...)
	c.session.LastActivity = now
	c.session.Status = c.statusLocked(now)
	session := c.session
	c.mu.Unlock()

	if err := c.ch.Publish(ctx, session); err != nil {
		return err
	}
	c.notifyConflicts(ctx)
	return nil
}

// NoteKeystroke records local input. Recent input promotes an editing
// session to typing and defers the idle transition; the next publish carries
// the new status.
func (c *Coordinator) NoteKeystroke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastInput = c.now()
}

// Active reads the channel and returns the sessions seen alive within the
// timeout (zero means the configured default). Stale entries are filtered,
// never removed: each session deletes only its own record on shutdown.
func (c *Coordinator) Active(ctx context.Context, timeout time.Duration) ([]types.Session, error) {
	if timeout <= 0 {
		timeout = c.cfg.EffectiveSessionTimeout()
	}
	all, err := c.ch.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	live := all[:0]
	for _, s := range all {
		if now.Sub(s.LastActivity) < timeout {
			live = append(live, s)
		}
	}
	return live, nil
}

// Conflicts returns the current conflict set: live sessions grouped by edit
// target, reported wherever more than one distinct user claims the same row.
func (c *Coordinator) Conflicts(ctx context.Context) ([]types.Conflict, error) {
	live, err := c.Active(ctx, 0)
	if err != nil {
		return nil, err
	}
	return DetectConflicts(live), nil
}

// Stop removes the local session from the channel and disarms both timers.
// It must run on process termination so peers do not wait out the staleness
// timeout. Idempotent.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped || !c.started {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	if c.heartbeat != nil {
		c.heartbeat.Stop()
	}
	if c.activity != nil {
		c.activity.Stop()
	}
	id := c.session.ID
	c.mu.Unlock()

	return c.ch.Remove(ctx, id)
}

// heartbeatTick republishes liveness only: last activity is bumped, status
// and edit target are left as last computed.
func (c *Coordinator) heartbeatTick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.session.LastActivity = c.now()
	session := c.session
	c.heartbeat.Reset(c.cfg.EffectiveHeartbeatInterval())
	c.mu.Unlock()

	if err := c.ch.Publish(context.Background(), session); err != nil {
		c.log.Warn("heartbeat publish failed", "error", err)
	}
}

// activityTick recomputes status from input recency, republishes the full
// session, and recomputes the conflict set.
func (c *Coordinator) activityTick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	now := c.now()
	c.session.Status = c.statusLocked(now)
	c.session.LastActivity = now
	session := c.session
	c.activity.Reset(c.cfg.EffectiveActivityInterval())
	c.mu.Unlock()

	ctx := context.Background()
	if err := c.ch.Publish(ctx, session); err != nil {
		c.log.Warn("activity publish failed", "error", err)
		return
	}
	c.notifyConflicts(ctx)
}

// statusLocked derives the session status from the edit target and input
// recency. Caller holds c.mu.
func (c *Coordinator) statusLocked(now time.Time) string {
	idle := now.Sub(c.lastInput) >= c.cfg.EffectiveIdleAfter()
	switch {
	case idle:
		return types.StatusIdle
	case c.session.EditingRow == "":
		return types.StatusViewing
	case now.Sub(c.lastInput) <= typingWindow:
		return types.StatusTyping
	default:
		return types.StatusEditing
	}
}

func (c *Coordinator) notifyConflicts(ctx context.Context) {
	if c.onConflict == nil {
		return
	}
	conflicts, err := c.Conflicts(ctx)
	if err != nil {
		c.log.Warn("conflict recompute failed", "error", err)
		return
	}
	c.onConflict(conflicts)
}

// DetectConflicts groups the editing sessions by edit target and reports
// every row claimed by more than one distinct user. Typing counts as
// editing. Fields are the union of all editors' declared fields.
func DetectConflicts(sessions []types.Session) []types.Conflict {
	type group struct {
		users  map[string]bool
		fields map[string]bool
	}
	groups := make(map[string]*group)
	for _, s := range sessions {
		if !s.IsEditing() {
			continue
		}
		g := groups[s.EditingRow]
		if g == nil {
			g = &group{users: make(map[string]bool), fields: make(map[string]bool)}
			groups[s.EditingRow] = g
		}
		g.users[s.User] = true
		for _, f := range s.EditingFields {
			g.fields[f] = true
		}
	}

	var conflicts []types.Conflict
	for rowKey, g := range groups {
		if len(g.users) < 2 {
			continue
		}
		conflicts = append(conflicts, types.Conflict{
			RowKey: rowKey,
			Users:  sortedKeys(g.users),
			Fields: sortedKeys(g.fields),
		})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].RowKey < conflicts[j].RowKey })
	return conflicts
}

// newSessionID returns a UUID v7, falling back to v4 when the clock-based
// generator fails.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
