// Package slate is the collaborative writeback editor: a shared tabular
// dataset viewed by several sessions at once, with out-of-band edits staged
// locally, persisted through a writeback store, and cross-session conflict
// detection over a shared presence channel.
package slate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/slate/internal/channel"
	"github.com/mesh-intelligence/slate/internal/editbuf"
	"github.com/mesh-intelligence/slate/internal/pipeline"
	"github.com/mesh-intelligence/slate/internal/presence"
	"github.com/mesh-intelligence/slate/internal/rowkey"
	"github.com/mesh-intelligence/slate/internal/sqlite"
	"github.com/mesh-intelligence/slate/internal/webhook"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Editor is one session's view of the shared editing space. It owns the
// edit buffer, the persistence pipeline, the save policy timers and the
// presence coordinator; Close releases all of them.
type Editor struct {
	cfg   types.Config
	log   *slog.Logger
	user  string
	store types.Store
	chn   types.Channel
	buf   *editbuf.Buffer
	pipe  *pipeline.Pipeline
	saver *pipeline.Saver
	coord *presence.Coordinator

	// detachStore releases a store Open constructed itself; nil when the
	// store was injected or none is configured.
	detachStore func() error

	mu      sync.Mutex
	dataset *types.Dataset
	res     *rowkey.Resolver
}

// Option configures an Editor before it starts.
type Option func(*Editor)

// WithLogger sets the editor's logger; the default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Editor) { e.log = log }
}

// WithStore injects a writeback store, overriding the configured kind.
func WithStore(store types.Store) Option {
	return func(e *Editor) { e.store = store }
}

// WithChannel injects a presence channel, overriding the configured kind.
func WithChannel(ch types.Channel) Option {
	return func(e *Editor) { e.chn = ch }
}

// Open validates the configuration, builds the configured store and channel
// (unless injected), registers the local session, and arms the save-policy
// timers. The editor is live until Close.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	e := &Editor{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		if err := e.buildStore(); err != nil {
			return nil, err
		}
	}
	if e.chn == nil {
		if err := e.buildChannel(ctx); err != nil {
			_ = e.releaseStore()
			return nil, err
		}
	}

	e.user = presence.ResolveUser(cfg.Presence)
	e.coord = presence.New(e.chn, cfg.Presence, cfg.AppID, presence.WithLogger(e.log))
	if err := e.coord.Start(ctx); err != nil {
		_ = e.releaseStore()
		return nil, fmt.Errorf("register session: %w", err)
	}

	// Every staged edit flows to the peers and to the save policy: the
	// buffer notifies presence of the row under edit and arms the
	// debounce, both outside the buffer lock.
	e.buf = editbuf.New(pipeline.JoinerFor(cfg), func(rowKey string, fields []string) {
		if err := e.coord.UpdateEditing(context.Background(), rowKey, fields); err != nil {
			e.log.Warn("presence update failed", "error", err)
		}
		e.saver.NoteEdit()
	})

	e.pipe = pipeline.New(cfg, e.store, e.user, e.coord.Session().ID,
		pipeline.WithLogger(e.log))
	e.saver = pipeline.NewSaver(cfg, e.timerSave, func() bool { return e.buf.Len() > 0 })
	e.saver.Start()

	return e, nil
}

// User returns the resolved local identity.
func (e *Editor) User() string {
	return e.user
}

// Load installs the dataset for this load cycle and merges the previously
// persisted writeback values as the display baseline. Pending edits the
// server now confirms are dropped; the rest stay staged and win over the
// baseline. A store read failure degrades to an empty baseline.
func (e *Editor) Load(ctx context.Context, dataset *types.Dataset) error {
	res := rowkey.NewResolver(e.cfg, dataset.Columns)

	if e.cfg.ValidateKeyUniqueness {
		for _, dup := range res.Duplicates(dataset) {
			e.log.Warn("key values shared by multiple rows", "key", dup)
		}
	}

	baseline, err := e.pipe.Load(ctx, dataset)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.dataset = dataset
	e.res = res
	e.mu.Unlock()

	e.buf.Reconcile(baseline)
	e.buf.MergeBaseline(baseline)
	return nil
}

// Key returns the row key of the dataset row at the given index.
func (e *Editor) Key(rowIndex int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dataset == nil {
		return "", fmt.Errorf("no dataset loaded")
	}
	if rowIndex < 0 || rowIndex >= len(e.dataset.Rows) {
		return "", fmt.Errorf("row %d out of range", rowIndex)
	}
	return e.res.Key(e.dataset.Rows[rowIndex]), nil
}

// Edit stages a value for a cell addressed by row index.
func (e *Editor) Edit(rowIndex int, field string, value any) error {
	key, err := e.Key(rowIndex)
	if err != nil {
		return err
	}
	e.EditKey(key, field, value)
	return nil
}

// EditKey stages a value for a cell addressed by row key. The presence
// coordinator learns the edit target immediately; under the auto save
// policy the debounce timer restarts.
func (e *Editor) EditKey(rowKey, field string, value any) {
	e.coord.NoteKeystroke()
	e.buf.Set(rowKey, field, value)
}

// Value returns the display value for a cell: the pending edit if one is
// staged, else the merged baseline, else nil.
func (e *Editor) Value(rowKey, field string) any {
	return e.buf.Get(rowKey, field, nil)
}

// HasUnsaved reports whether pending edits exist.
func (e *Editor) HasUnsaved() bool {
	return e.buf.Len() > 0
}

// Discard drops every pending edit and returns the session to viewing.
func (e *Editor) Discard(ctx context.Context) {
	e.buf.Clear()
	if err := e.coord.UpdateEditing(ctx, "", nil); err != nil {
		e.log.Warn("presence update failed", "error", err)
	}
}

// Save drains the pending edits through the pipeline as one logical write.
// On a validation error or transport failure the buffer is left intact.
func (e *Editor) Save(ctx context.Context) (*types.SaveSummary, error) {
	e.mu.Lock()
	dataset := e.dataset
	e.mu.Unlock()
	if dataset == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}
	return e.pipe.Save(ctx, e.buf, dataset)
}

// Sessions returns the live sessions in this editing space.
func (e *Editor) Sessions(ctx context.Context) ([]types.Session, error) {
	return e.coord.Active(ctx, 0)
}

// Conflicts returns the rows currently edited by more than one user.
func (e *Editor) Conflicts(ctx context.Context) ([]types.Conflict, error) {
	return e.coord.Conflicts(ctx)
}

// Close deregisters the session, disarms the save timers and releases the
// store and channel. Pending edits are not saved; call Save first when they
// should survive.
func (e *Editor) Close(ctx context.Context) error {
	e.saver.Stop()
	err := e.coord.Stop(ctx)
	if serr := e.releaseStore(); err == nil {
		err = serr
	}
	if closer, ok := e.chn.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// timerSave is the fire callback for the auto and batch save policies.
func (e *Editor) timerSave() {
	if _, err := e.Save(context.Background()); err != nil {
		e.log.Warn("timed save failed, edits retained", "error", err)
	}
}

// buildStore constructs the configured writeback store. No configured kind
// means no store: saves fail until one is provided, loads start empty.
func (e *Editor) buildStore() error {
	switch e.cfg.Store.Kind {
	case "":
		return nil
	case types.StoreSQLite:
		s := sqlite.NewStore()
		s.SetLogger(e.log)
		if err := s.Attach(e.cfg.Store); err != nil {
			return fmt.Errorf("attach store: %w", err)
		}
		e.store = s
		e.detachStore = s.Detach
		return nil
	case types.StoreWebhook:
		c, err := webhook.New(e.cfg.Store, webhook.WithLogger(e.log))
		if err != nil {
			return fmt.Errorf("webhook store: %w", err)
		}
		e.store = c
		return nil
	default:
		return fmt.Errorf("%w: %q", types.ErrStoreKindUnknown, e.cfg.Store.Kind)
	}
}

// buildChannel constructs the configured presence channel.
func (e *Editor) buildChannel(ctx context.Context) error {
	switch e.cfg.Presence.EffectiveChannel() {
	case types.ChannelMemory:
		e.chn = channel.NewMemory()
		return nil
	case types.ChannelRedis:
		r, err := channel.NewRedis(ctx, e.cfg.Presence.RedisURL, e.cfg.AppID,
			2*e.cfg.Presence.EffectiveSessionTimeout())
		if err != nil {
			return fmt.Errorf("redis channel: %w", err)
		}
		e.chn = r
		return nil
	default:
		return fmt.Errorf("%w: %q", types.ErrChannelKindUnknown, e.cfg.Presence.Channel)
	}
}

// releaseStore detaches a store Open constructed.
func (e *Editor) releaseStore() error {
	if e.detachStore == nil {
		return nil
	}
	detach := e.detachStore
	e.detachStore = nil
	return detach()
}
