package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"empty config", Config{}, nil},
		{
			"valid full config",
			Config{
				AppID: "orders",
				KeyDimensions: []KeyDimension{
					{Field: "Region", IsKey: true, Order: 1},
					{Field: "Product", IsKey: true, Order: 2},
				},
				KeyStrategy:  StrategyHash,
				SaveMode:     SaveAuto,
				WritebackColumns: []WritebackColumn{
					{Name: "Notes", Type: ColumnTypeText},
					{Name: "Approved", Type: ColumnTypeCheckbox},
				},
				Store: StoreConfig{Kind: StoreSQLite, DataDir: "."},
			},
			nil,
		},
		{"unknown strategy", Config{KeyStrategy: "random"}, ErrStrategyUnknown},
		{"unknown save mode", Config{SaveMode: "eager"}, ErrSaveModeUnknown},
		{
			"duplicate key field",
			Config{KeyDimensions: []KeyDimension{
				{Field: "Region", IsKey: true, Order: 1},
				{Field: "Region", IsKey: false},
			}},
			ErrDuplicateKeyField,
		},
		{
			"duplicate explicit order",
			Config{KeyDimensions: []KeyDimension{
				{Field: "Region", IsKey: true, Order: 2},
				{Field: "Product", IsKey: true, Order: 2},
			}},
			ErrDuplicateKeyOrder,
		},
		{
			"unset orders tie is allowed",
			Config{KeyDimensions: []KeyDimension{
				{Field: "Region", IsKey: true},
				{Field: "Product", IsKey: true},
			}},
			nil,
		},
		{
			"non-key duplicate order is allowed",
			Config{KeyDimensions: []KeyDimension{
				{Field: "Region", IsKey: true, Order: 1},
				{Field: "Product", IsKey: false, Order: 1},
			}},
			nil,
		},
		{
			"empty column name",
			Config{WritebackColumns: []WritebackColumn{{Name: "", Type: ColumnTypeText}}},
			ErrColumnNameEmpty,
		},
		{
			"bad column type",
			Config{WritebackColumns: []WritebackColumn{{Name: "Notes", Type: "blob"}}},
			ErrInvalidColumnType,
		},
		{"negative auto delay", Config{AutoSaveDelay: -time.Second}, ErrAutoDelayInvalid},
		{"negative batch interval", Config{BatchSaveInterval: -time.Second}, ErrBatchIntervalInvalid},
		{"unknown store kind", Config{Store: StoreConfig{Kind: "s3"}}, ErrStoreKindUnknown},
		{
			"webhook store without write url",
			Config{Store: StoreConfig{Kind: StoreWebhook}},
			ErrEndpointMissing,
		},
		{"unknown channel kind", Config{Presence: PresenceConfig{Channel: "nats"}}, ErrChannelKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	if got := c.EffectiveStrategy(); got != StrategyConcatenate {
		t.Errorf("EffectiveStrategy() = %q, want %q", got, StrategyConcatenate)
	}
	if got := c.EffectiveSeparator(); got != "|" {
		t.Errorf("EffectiveSeparator() = %q, want %q", got, "|")
	}
	if got := c.EffectiveSaveMode(); got != SaveManual {
		t.Errorf("EffectiveSaveMode() = %q, want %q", got, SaveManual)
	}
	if got := c.EffectiveAutoSaveDelay(); got != DefaultAutoSaveDelay {
		t.Errorf("EffectiveAutoSaveDelay() = %v, want %v", got, DefaultAutoSaveDelay)
	}
	if got := c.Presence.EffectiveSessionTimeout(); got != DefaultSessionTimeout {
		t.Errorf("EffectiveSessionTimeout() = %v, want %v", got, DefaultSessionTimeout)
	}
	if got := c.Presence.EffectiveChannel(); got != ChannelMemory {
		t.Errorf("EffectiveChannel() = %q, want %q", got, ChannelMemory)
	}
	if got := c.Store.EffectiveTimeout(); got != DefaultStoreTimeout {
		t.Errorf("EffectiveTimeout() = %v, want %v", got, DefaultStoreTimeout)
	}
}
