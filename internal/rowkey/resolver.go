// Package rowkey derives stable row identities from row content.
//
// A row key is a pure function of (row content, row index, configuration):
// the active key dimension values joined by the configured strategy, suffixed
// with a positional "row-<index>" discriminator so keys stay unique even when
// key values collide or are empty. With no key dimensions configured the
// fallback identity is the first three non-empty cell texts joined by "|".
package rowkey

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// rowPrefix introduces the positional discriminator segment.
const rowPrefix = "row-"

// fallbackCells is how many leading cells the no-key fallback samples.
const fallbackCells = 3

// Resolver derives row keys for one load cycle. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	strategy  string
	separator string
	fields    []string // active key fields, order-sorted
	indices   []int    // cell index per active field
}

// NewResolver selects the active key dimensions against the dataset's column
// schema. A dimension is active when IsKey is set and its field names a
// present column. Active dimensions sort by EffectiveOrder ascending; ties
// keep input order (first seen wins, by design left unrepaired).
func NewResolver(cfg types.Config, columns []types.Column) *Resolver {
	r := &Resolver{
		strategy:  cfg.EffectiveStrategy(),
		separator: cfg.EffectiveSeparator(),
	}

	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c.Name] = i
	}

	type active struct {
		field string
		index int
		order int
	}
	var dims []active
	for _, kd := range cfg.KeyDimensions {
		if !kd.IsKey {
			continue
		}
		ci, ok := colIndex[kd.Field]
		if !ok {
			continue
		}
		dims = append(dims, active{field: kd.Field, index: ci, order: kd.EffectiveOrder()})
	}
	sort.SliceStable(dims, func(i, j int) bool { return dims[i].order < dims[j].order })

	for _, d := range dims {
		r.fields = append(r.fields, d.field)
		r.indices = append(r.indices, d.index)
	}
	return r
}

// Fields returns the active key field names in resolution order.
func (r *Resolver) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Key returns the full row key for the given row, discriminator included.
// Missing or empty cells contribute empty strings, never an error.
func (r *Resolver) Key(row types.Row) string {
	prefix := r.Prefix(row)
	disc := rowPrefix + strconv.Itoa(row.Index)
	if prefix == "" {
		return disc
	}
	return prefix + r.discSeparator() + disc
}

// Prefix returns the row key without the positional discriminator: the
// strategy-joined key dimension values, or the fallback identity when no
// dimensions are active.
func (r *Resolver) Prefix(row types.Row) string {
	if len(r.fields) == 0 {
		return strings.Join(r.fallbackValues(row), types.DefaultKeySeparator)
	}

	values := make([]string, len(r.indices))
	for i, ci := range r.indices {
		values[i] = row.Text(ci)
	}

	switch r.strategy {
	case types.StrategyHash:
		return strconv.FormatInt(hash32(strings.Join(values, r.separator)), 10)
	case types.StrategyComposite:
		encoded, err := json.Marshal(values)
		if err != nil {
			// []string cannot fail to marshal; fall through defensively.
			return strings.Join(values, r.separator)
		}
		return string(encoded)
	default:
		return strings.Join(values, r.separator)
	}
}

// Values returns the raw cell texts identity is built from: the active key
// dimension values in resolution order, or the fallback sample when no
// dimensions are active.
func (r *Resolver) Values(row types.Row) []string {
	if len(r.fields) == 0 {
		return r.fallbackValues(row)
	}
	values := make([]string, len(r.indices))
	for i, ci := range r.indices {
		values[i] = row.Text(ci)
	}
	return values
}

// Segments splits a key prefix back into its constituent values using the
// same shape Prefix produced: configured-separator split for concatenate,
// JSON list for composite, the digit string itself for hash, "|" split for
// the fallback identity.
func (r *Resolver) Segments(prefix string) []string {
	if prefix == "" {
		return nil
	}
	if len(r.fields) == 0 {
		return strings.Split(prefix, types.DefaultKeySeparator)
	}
	switch r.strategy {
	case types.StrategyHash:
		return []string{prefix}
	case types.StrategyComposite:
		var values []string
		if err := json.Unmarshal([]byte(prefix), &values); err != nil {
			return []string{prefix}
		}
		return values
	default:
		return strings.Split(prefix, r.separator)
	}
}

// SplitIndex parses a full row key into its prefix and positional index.
// Returns ok=false for keys without a well-formed trailing discriminator.
func (r *Resolver) SplitIndex(key string) (prefix string, index int, ok bool) {
	i := strings.LastIndex(key, rowPrefix)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[i+len(rowPrefix):])
	if err != nil || n < 0 {
		return "", 0, false
	}
	prefix = strings.TrimSuffix(key[:i], r.discSeparator())
	return prefix, n, true
}

// Duplicates returns the key prefixes shared by more than one row, sorted.
// Collisions are legal (the discriminator keeps full keys unique); callers
// that enable uniqueness validation report them as warnings.
func (r *Resolver) Duplicates(dataset *types.Dataset) []string {
	counts := make(map[string]int, len(dataset.Rows))
	for _, row := range dataset.Rows {
		counts[r.Prefix(row)]++
	}
	var dups []string
	for prefix, n := range counts {
		if n > 1 && prefix != "" {
			dups = append(dups, prefix)
		}
	}
	sort.Strings(dups)
	return dups
}

// discSeparator returns the joiner between prefix and discriminator: the
// configured separator under concatenate, "|" everywhere else.
func (r *Resolver) discSeparator() string {
	if len(r.fields) > 0 && r.strategy == types.StrategyConcatenate {
		return r.separator
	}
	return types.DefaultKeySeparator
}

// fallbackValues returns the first three non-empty cell texts.
func (r *Resolver) fallbackValues(row types.Row) []string {
	var values []string
	for _, cell := range row.Cells {
		if cell.Text == "" {
			continue
		}
		values = append(values, cell.Text)
		if len(values) == fallbackCells {
			break
		}
	}
	return values
}

// hash32 is the 32-bit polynomial rolling hash used by the hash strategy:
// h = h*31 + c over the string, two's-complement wrap, absolute value. The
// absolute value is taken in 64 bits so the minimum 32-bit value stays
// positive.
func hash32(s string) int64 {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
