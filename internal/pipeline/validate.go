// Edit validation against the declared writeback columns.
package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/slate/internal/editbuf"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// dateLayouts are the accepted spellings for date column values.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// validate checks every pending entry against its resolved writeback column
// and aggregates all violations; a save proceeds only on an empty result.
// Entries whose field resolves to no configured column are returned in
// unmatched and excluded from the save (warned, not fatal).
func validate(m *Matcher, columns []types.WritebackColumn, entries []editbuf.Entry) (violations []types.Violation, unmatched []editbuf.Entry) {
	byName := make(map[string]types.WritebackColumn, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}

	for _, e := range entries {
		name, ok := m.Canonical(e.Field)
		if !ok {
			unmatched = append(unmatched, e)
			continue
		}
		col := byName[name]

		if col.ReadOnly {
			violations = append(violations, types.Violation{
				RowKey: e.RowKey, Field: e.Field, Rule: "read_only",
				Message: fmt.Sprintf("column %q is read-only", col.Name),
			})
			continue
		}
		violations = append(violations, checkValue(e, col)...)
	}
	return violations, unmatched
}

// checkValue applies the column's type and bounds rules to one value.
func checkValue(e editbuf.Entry, col types.WritebackColumn) []types.Violation {
	var out []types.Violation
	add := func(rule, msg string) {
		out = append(out, types.Violation{RowKey: e.RowKey, Field: e.Field, Rule: rule, Message: msg})
	}

	text, isText := e.Value.(string)
	empty := e.Value == nil || (isText && text == "")

	if col.Required && empty {
		add("required", fmt.Sprintf("column %q requires a value", col.Name))
		return out
	}
	if empty {
		return out
	}

	switch col.Type {
	case types.ColumnTypeText, types.ColumnTypeTextarea, types.ColumnTypeDropdown:
		if !isText {
			add("type", fmt.Sprintf("column %q expects text, got %T", col.Name, e.Value))
			return out
		}
		if col.Bounds.MinLength != nil && len(text) < *col.Bounds.MinLength {
			add("min_length", fmt.Sprintf("column %q needs at least %d characters", col.Name, *col.Bounds.MinLength))
		}
		if col.Bounds.MaxLength != nil && len(text) > *col.Bounds.MaxLength {
			add("max_length", fmt.Sprintf("column %q allows at most %d characters", col.Name, *col.Bounds.MaxLength))
		}

	case types.ColumnTypeNumber:
		n, ok := toNumber(e.Value)
		if !ok {
			add("type", fmt.Sprintf("column %q expects a number, got %v", col.Name, e.Value))
			return out
		}
		if col.Bounds.Min != nil && n < *col.Bounds.Min {
			add("min", fmt.Sprintf("column %q minimum is %v", col.Name, *col.Bounds.Min))
		}
		if col.Bounds.Max != nil && n > *col.Bounds.Max {
			add("max", fmt.Sprintf("column %q maximum is %v", col.Name, *col.Bounds.Max))
		}

	case types.ColumnTypeDate:
		if !isText || !parseableDate(text) {
			add("type", fmt.Sprintf("column %q expects a date, got %v", col.Name, e.Value))
		}

	case types.ColumnTypeCheckbox:
		switch v := e.Value.(type) {
		case bool:
		case string:
			if v != "true" && v != "false" {
				add("type", fmt.Sprintf("column %q expects true or false, got %q", col.Name, v))
			}
		default:
			add("type", fmt.Sprintf("column %q expects a boolean, got %T", col.Name, e.Value))
		}
	}
	return out
}

// toNumber accepts the scalar shapes a number can arrive in from config
// files, JSON payloads and raw UI strings.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseableDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
