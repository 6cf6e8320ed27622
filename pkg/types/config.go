package types

import (
	"fmt"
	"time"
)

// Save mode constants. Exactly one mode is active at a time.
const (
	SaveManual = "manual"
	SaveAuto   = "auto"
	SaveBatch  = "batch"
)

// Store kind constants.
const (
	StoreSQLite  = "sqlite"
	StoreWebhook = "webhook"
)

// Channel kind constants.
const (
	ChannelMemory = "memory"
	ChannelRedis  = "redis"
)

// Defaults applied by the Effective* accessors when a setting is unset.
const (
	DefaultKeySeparator      = "|"
	DefaultAutoSaveDelay     = 2 * time.Second
	DefaultBatchSaveInterval = 30 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultActivityInterval  = 60 * time.Second
	DefaultSessionTimeout    = 180 * time.Second
	DefaultIdleAfter         = 120 * time.Second
	DefaultStoreTimeout      = 30 * time.Second
)

var validSaveModes = map[string]bool{
	SaveManual: true,
	SaveAuto:   true,
	SaveBatch:  true,
}

var validStoreKinds = map[string]bool{
	StoreSQLite:  true,
	StoreWebhook: true,
}

var validChannelKinds = map[string]bool{
	ChannelMemory: true,
	ChannelRedis:  true,
}

// PresenceConfig holds the multi-session coordination parameters.
type PresenceConfig struct {
	// Channel selects the shared channel backend (memory, redis).
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty" mapstructure:"channel"`

	// RedisURL is the redis:// connection URL for the redis channel.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`

	// User overrides the resolved local identity when set.
	User string `json:"user,omitempty" yaml:"user,omitempty" mapstructure:"user"`

	// HeartbeatInterval is the liveness republish period (default 30s).
	HeartbeatInterval time.Duration `json:"heartbeat_interval,omitempty" yaml:"heartbeat_interval,omitempty" mapstructure:"heartbeat_interval"`

	// ActivityInterval is the status recompute period (default 60s).
	ActivityInterval time.Duration `json:"activity_interval,omitempty" yaml:"activity_interval,omitempty" mapstructure:"activity_interval"`

	// SessionTimeout is the reader-side staleness cutoff (default 180s).
	SessionTimeout time.Duration `json:"session_timeout,omitempty" yaml:"session_timeout,omitempty" mapstructure:"session_timeout"`

	// IdleAfter is how long without local input before the session
	// reports idle (default 120s).
	IdleAfter time.Duration `json:"idle_after,omitempty" yaml:"idle_after,omitempty" mapstructure:"idle_after"`
}

// StoreConfig selects and parameterizes the writeback store.
type StoreConfig struct {
	// Kind selects the store backend (sqlite, webhook). Empty means no
	// store is configured; saves and loads fail until one is.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`

	// DataDir is the sqlite store's directory.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`

	// WriteURL and ReadURL are the webhook endpoints.
	WriteURL string `json:"write_url,omitempty" yaml:"write_url,omitempty" mapstructure:"write_url"`
	ReadURL  string `json:"read_url,omitempty" yaml:"read_url,omitempty" mapstructure:"read_url"`

	// Token is sent as a bearer token on webhook requests when set.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// Timeout bounds one webhook round trip (default 30s). Transport
	// policy lives in the store, not in the save path.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Config is the full configuration surface for one writeback application.
type Config struct {
	// AppID scopes persisted batches and presence to one application.
	AppID string `json:"app_id" yaml:"app_id" mapstructure:"app_id"`

	// KeyDimensions configures row identity. Empty falls back to
	// first-three-cell identity.
	KeyDimensions []KeyDimension `json:"key_dimensions,omitempty" yaml:"key_dimensions,omitempty" mapstructure:"key_dimensions"`

	// KeyStrategy is one of the Strategy constants (default concatenate).
	KeyStrategy string `json:"key_strategy,omitempty" yaml:"key_strategy,omitempty" mapstructure:"key_strategy"`

	// KeySeparator joins key segments under the concatenate strategy
	// (default "|").
	KeySeparator string `json:"key_separator,omitempty" yaml:"key_separator,omitempty" mapstructure:"key_separator"`

	// ValidateKeyUniqueness enables warn-only duplicate key detection on
	// load.
	ValidateKeyUniqueness bool `json:"validate_key_uniqueness,omitempty" yaml:"validate_key_uniqueness,omitempty" mapstructure:"validate_key_uniqueness"`

	// WritebackColumns declares the editable columns.
	WritebackColumns []WritebackColumn `json:"writeback_columns,omitempty" yaml:"writeback_columns,omitempty" mapstructure:"writeback_columns"`

	// SaveMode is one of the Save constants (default manual).
	SaveMode string `json:"save_mode,omitempty" yaml:"save_mode,omitempty" mapstructure:"save_mode"`

	// AutoSaveDelay is the auto-mode debounce delay (default 2s).
	AutoSaveDelay time.Duration `json:"auto_save_delay,omitempty" yaml:"auto_save_delay,omitempty" mapstructure:"auto_save_delay"`

	// BatchSaveInterval is the batch-mode period (default 30s).
	BatchSaveInterval time.Duration `json:"batch_save_interval,omitempty" yaml:"batch_save_interval,omitempty" mapstructure:"batch_save_interval"`

	Presence PresenceConfig `json:"presence,omitempty" yaml:"presence,omitempty" mapstructure:"presence"`
	Store    StoreConfig    `json:"store,omitempty" yaml:"store,omitempty" mapstructure:"store"`
}

// EffectiveStrategy returns the key strategy with the default applied.
func (c Config) EffectiveStrategy() string {
	if c.KeyStrategy == "" {
		return StrategyConcatenate
	}
	return c.KeyStrategy
}

// EffectiveSeparator returns the key separator with the default applied.
func (c Config) EffectiveSeparator() string {
	if c.KeySeparator == "" {
		return DefaultKeySeparator
	}
	return c.KeySeparator
}

// EffectiveSaveMode returns the save mode with the default applied.
func (c Config) EffectiveSaveMode() string {
	if c.SaveMode == "" {
		return SaveManual
	}
	return c.SaveMode
}

// EffectiveAutoSaveDelay returns the debounce delay with the default applied.
func (c Config) EffectiveAutoSaveDelay() time.Duration {
	if c.AutoSaveDelay <= 0 {
		return DefaultAutoSaveDelay
	}
	return c.AutoSaveDelay
}

// EffectiveBatchSaveInterval returns the batch period with the default applied.
func (c Config) EffectiveBatchSaveInterval() time.Duration {
	if c.BatchSaveInterval <= 0 {
		return DefaultBatchSaveInterval
	}
	return c.BatchSaveInterval
}

// EffectiveChannel returns the channel kind with the default applied.
func (p PresenceConfig) EffectiveChannel() string {
	if p.Channel == "" {
		return ChannelMemory
	}
	return p.Channel
}

// EffectiveHeartbeatInterval returns the heartbeat period with the default applied.
func (p PresenceConfig) EffectiveHeartbeatInterval() time.Duration {
	if p.HeartbeatInterval <= 0 {
		return DefaultHeartbeatInterval
	}
	return p.HeartbeatInterval
}

// EffectiveActivityInterval returns the activity period with the default applied.
func (p PresenceConfig) EffectiveActivityInterval() time.Duration {
	if p.ActivityInterval <= 0 {
		return DefaultActivityInterval
	}
	return p.ActivityInterval
}

// EffectiveSessionTimeout returns the staleness cutoff with the default applied.
func (p PresenceConfig) EffectiveSessionTimeout() time.Duration {
	if p.SessionTimeout <= 0 {
		return DefaultSessionTimeout
	}
	return p.SessionTimeout
}

// EffectiveIdleAfter returns the idle threshold with the default applied.
func (p PresenceConfig) EffectiveIdleAfter() time.Duration {
	if p.IdleAfter <= 0 {
		return DefaultIdleAfter
	}
	return p.IdleAfter
}

// EffectiveTimeout returns the store timeout with the default applied.
func (s StoreConfig) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultStoreTimeout
	}
	return s.Timeout
}

// Validate checks that the Config is well-formed. It returns an error
// wrapping one of this package's sentinel errors on the first problem found.
// Validation never repairs: duplicate key fields and duplicate explicit key
// orders are reported, not deduplicated. Unset orders defaulting to the same
// value are the documented first-seen-wins ambiguity and pass validation.
func (c Config) Validate() error {
	if c.KeyStrategy != "" && !validStrategies[c.KeyStrategy] {
		return fmt.Errorf("%w: %q", ErrStrategyUnknown, c.KeyStrategy)
	}
	if c.SaveMode != "" && !validSaveModes[c.SaveMode] {
		return fmt.Errorf("%w: %q", ErrSaveModeUnknown, c.SaveMode)
	}

	seenField := make(map[string]bool, len(c.KeyDimensions))
	seenOrder := make(map[int]string)
	for _, kd := range c.KeyDimensions {
		if seenField[kd.Field] {
			return fmt.Errorf("%w: %q", ErrDuplicateKeyField, kd.Field)
		}
		seenField[kd.Field] = true
		if !kd.IsKey || kd.Order == 0 {
			continue
		}
		if prev, ok := seenOrder[kd.Order]; ok {
			return fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateKeyOrder, kd.Order, prev, kd.Field)
		}
		seenOrder[kd.Order] = kd.Field
	}

	for _, wc := range c.WritebackColumns {
		if wc.Name == "" {
			return ErrColumnNameEmpty
		}
		if !validColumnTypes[wc.Type] {
			return fmt.Errorf("%w: %q on column %q", ErrInvalidColumnType, wc.Type, wc.Name)
		}
	}

	if c.AutoSaveDelay < 0 {
		return ErrAutoDelayInvalid
	}
	if c.BatchSaveInterval < 0 {
		return ErrBatchIntervalInvalid
	}

	if c.Store.Kind != "" {
		if !validStoreKinds[c.Store.Kind] {
			return fmt.Errorf("%w: %q", ErrStoreKindUnknown, c.Store.Kind)
		}
		if c.Store.Kind == StoreWebhook && c.Store.WriteURL == "" {
			return fmt.Errorf("%w: webhook store needs write_url", ErrEndpointMissing)
		}
	}

	if c.Presence.Channel != "" && !validChannelKinds[c.Presence.Channel] {
		return fmt.Errorf("%w: %q", ErrChannelKindUnknown, c.Presence.Channel)
	}

	return nil
}
