// Writeback column declarations and their value handling.
package types

// Writeback column type constants.
const (
	ColumnTypeText     = "text"
	ColumnTypeTextarea = "textarea"
	ColumnTypeNumber   = "number"
	ColumnTypeDropdown = "dropdown"
	ColumnTypeDate     = "date"
	ColumnTypeCheckbox = "checkbox"
)

// validColumnTypes is the set of recognized writeback column types.
var validColumnTypes = map[string]bool{
	ColumnTypeText:     true,
	ColumnTypeTextarea: true,
	ColumnTypeNumber:   true,
	ColumnTypeDropdown: true,
	ColumnTypeDate:     true,
	ColumnTypeCheckbox: true,
}

// IsValidColumnType reports whether t is a recognized writeback column type.
func IsValidColumnType(t string) bool {
	return validColumnTypes[t]
}

// DefaultValue returns the zero value for a writeback column type.
// Returns ErrInvalidColumnType for unrecognized types.
func DefaultValue(columnType string) (any, error) {
	switch columnType {
	case ColumnTypeText, ColumnTypeTextarea, ColumnTypeDropdown, ColumnTypeDate:
		return "", nil
	case ColumnTypeNumber:
		return float64(0), nil
	case ColumnTypeCheckbox:
		return false, nil
	default:
		return nil, ErrInvalidColumnType
	}
}

// Bounds holds the declared validation limits for a writeback column.
// Nil pointers mean "no bound declared".
type Bounds struct {
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length,omitempty" mapstructure:"min_length"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
}

// WritebackColumn declares one editable column: its canonical storage name,
// value type, and validation rules. The Name is the canonical name used in
// persisted records; UI-facing labels may diverge and are reconciled at save
// time by the field matcher.
type WritebackColumn struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Type     string `json:"type" yaml:"type" mapstructure:"type"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	ReadOnly bool   `json:"read_only,omitempty" yaml:"read_only,omitempty" mapstructure:"read_only"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Bounds   Bounds `json:"validation,omitempty" yaml:"validation,omitempty" mapstructure:"validation"`
}
