// Save-policy timers: manual, debounced auto, fixed-interval batch.
package pipeline

import (
	"sync"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// Saver drives when saves fire. Exactly one policy is active, selected by
// configuration:
//
//   - manual: NoteEdit is a no-op; only explicit triggers save.
//   - auto: every edit (re)starts a debounce timer; the save fires when the
//     delay elapses without another edit.
//   - batch: a fixed-interval timer fires the save whenever unsaved changes
//     exist, independent of edit timing.
//
// The fire callback runs on a timer goroutine and owns its own error
// handling; Saver never inspects the outcome.
type Saver struct {
	mode     string
	delay    time.Duration
	interval time.Duration
	fire     func()
	dirty    func() bool

	mu       sync.Mutex
	debounce *time.Timer
	ticker   *time.Timer
	stopped  bool
}

// NewSaver builds a saver for the configured mode. dirty reports whether
// unsaved changes exist; the batch policy polls it before firing.
func NewSaver(cfg types.Config, fire func(), dirty func() bool) *Saver {
	return &Saver{
		mode:     cfg.EffectiveSaveMode(),
		delay:    cfg.EffectiveAutoSaveDelay(),
		interval: cfg.EffectiveBatchSaveInterval(),
		fire:     fire,
		dirty:    dirty,
	}
}

// Mode returns the active save policy.
func (s *Saver) Mode() string {
	return s.mode
}

// Start arms the batch-interval timer. Manual and auto modes need no
// arming and Start is a no-op for them.
func (s *Saver) Start() {
	if s.mode != types.SaveBatch || s.interval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil || s.stopped {
		return
	}
	s.ticker = time.AfterFunc(s.interval, s.batchTick)
}

// batchTick fires a save when dirty, then re-arms itself unless stopped.
func (s *Saver) batchTick() {
	if s.dirty() {
		s.fire()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil && !s.stopped {
		s.ticker.Reset(s.interval)
	}
}

// NoteEdit reports one user edit. Under the auto policy it (re)starts the
// debounce timer; under manual and batch it does nothing.
func (s *Saver) NoteEdit() {
	if s.mode != types.SaveAuto {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.debounce == nil {
		s.debounce = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.debounce.Reset(s.delay)
}

// Stop disarms all timers. Idempotent; a Saver cannot be restarted.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
