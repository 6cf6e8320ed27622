// Row re-anchoring: mapping a stored row key back to a source row.
package pipeline

import (
	"github.com/mesh-intelligence/slate/internal/rowkey"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// resolveRow maps a row key back to a row of the current dataset. The key
// encodes both a position and the key values seen at key-generation time;
// when the dataset reordered in between, the position lies and the values
// are the only anchor. Three tiers, weakest last:
//
//  1. positional: take rows[N] from the trailing "row-<N>" segment and
//     confirm the key values still match;
//  2. scan on the first key segment;
//  3. scan requiring at least two of the first three segments to match.
//
// This reconstruction is inherently fragile under concurrent dataset
// mutation between load and save; the tiered fallback is a compatibility
// behavior, not a guarantee. Returns ok=false when no row resolves, which
// callers treat as a skip, not a failure.
func resolveRow(res *rowkey.Resolver, key string, rows []types.Row) (types.Row, bool) {
	prefix, index, ok := res.SplitIndex(key)
	if !ok {
		return types.Row{}, false
	}

	if index < len(rows) {
		row := rows[index]
		if res.Prefix(row) == prefix {
			return row, true
		}
	}

	segments := res.Segments(prefix)
	if len(segments) == 0 {
		return types.Row{}, false
	}

	for _, row := range rows {
		values := res.Values(row)
		if len(values) > 0 && values[0] == segments[0] {
			return row, true
		}
	}

	for _, row := range rows {
		if partialMatch(segments, res.Values(row)) >= 2 {
			return row, true
		}
	}

	return types.Row{}, false
}

// partialMatch counts position-wise equal values among the first three
// segments.
func partialMatch(segments, values []string) int {
	n := len(segments)
	if n > 3 {
		n = 3
	}
	if len(values) < n {
		n = len(values)
	}
	matched := 0
	for i := 0; i < n; i++ {
		if segments[i] != "" && segments[i] == values[i] {
			matched++
		}
	}
	return matched
}
