package types

// Key generation strategy constants.
const (
	StrategyConcatenate = "concatenate"
	StrategyHash        = "hash"
	StrategyComposite   = "composite"
)

// validStrategies is the set of recognized key generation strategies.
var validStrategies = map[string]bool{
	StrategyConcatenate: true,
	StrategyHash:        true,
	StrategyComposite:   true,
}

// IsValidStrategy reports whether s is a recognized key generation strategy.
func IsValidStrategy(s string) bool {
	return validStrategies[s]
}

// KeyDimension configures one column's participation in row identity.
// The configured list is user-ordered; among IsKey entries the Order values
// must be unique (validated, never repaired).
type KeyDimension struct {
	// Field is the column name this spec applies to. At most one spec
	// per field.
	Field string `json:"field" yaml:"field" mapstructure:"field"`

	// IsKey marks the column as part of the row identity.
	IsKey bool `json:"is_key" yaml:"is_key" mapstructure:"is_key"`

	// Order positions the column among the key dimensions. Zero means
	// unset and is treated as 1; ties keep input order.
	Order int `json:"order" yaml:"order" mapstructure:"order"`

	// Description is free-form and carried for configuration surfaces.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// EffectiveOrder returns the sort order with the unset-zero default applied.
func (k KeyDimension) EffectiveOrder() int {
	if k.Order == 0 {
		return 1
	}
	return k.Order
}
