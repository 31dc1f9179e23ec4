package extraction

import (
	"sort"
	"strconv"
	"strings"
)

// UnifiedTable is a table after schema reconciliation: unique columns, every
// row exactly len(Columns) wide, missing cells as empty strings.
type UnifiedTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// SchemaUnifier reconciles the column sets of tables extracted from the same
// document into one consistent ordering. The first table with descriptive
// (non-positional) column labels becomes the reference schema; positional
// tables of matching width are remapped onto it by position.
type SchemaUnifier struct{}

func NewSchemaUnifier() *SchemaUnifier {
	return &SchemaUnifier{}
}

// Unify returns one UnifiedTable per input table, all sharing the unified
// column set. Merge derives the concatenated view from the same pass.
func (u *SchemaUnifier) Unify(raw []RawTable) []UnifiedTable {
	if len(raw) == 0 {
		return nil
	}

	normalized := make([]RawTable, len(raw))
	for i, table := range raw {
		normalized[i] = normalize(table)
	}

	refIdx := -1
	for i, table := range normalized {
		if !isPositional(table.Columns) {
			refIdx = i
			break
		}
	}

	if refIdx >= 0 {
		ref := normalized[refIdx].Columns
		for i := range normalized {
			if i == refIdx {
				continue
			}
			if isPositional(normalized[i].Columns) && len(normalized[i].Columns) == len(ref) {
				normalized[i].Columns = ref
			}
		}
	}

	var unified []string
	if refIdx >= 0 {
		unified = normalized[refIdx].Columns
	} else {
		unified = sortedUnion(normalized)
	}

	out := make([]UnifiedTable, len(normalized))
	for i, table := range normalized {
		out[i] = reindex(table, unified)
	}
	return out
}

// Merge concatenates unified tables, table order first, row order within
// each table. All inputs are expected to share a column set already.
func (u *SchemaUnifier) Merge(tables []UnifiedTable) UnifiedTable {
	if len(tables) == 0 {
		return UnifiedTable{}
	}
	merged := UnifiedTable{Columns: tables[0].Columns}
	for _, table := range tables {
		merged.Rows = append(merged.Rows, table.Rows...)
	}
	return merged
}

// normalize gives a table concrete columns (synthesizing positional labels
// when none arrived) and pads or truncates every row to the column count.
func normalize(table RawTable) RawTable {
	width := len(table.Columns)
	if width == 0 {
		for _, row := range table.Rows {
			if len(row) > width {
				width = len(row)
			}
		}
		table.Columns = positionalColumns(width)
	}

	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		fixed := make([]string, width)
		copy(fixed, row)
		rows[i] = fixed
	}
	table.Rows = rows
	return table
}

// sortedUnion collects every distinct column label. The compare is
// numeric-aware so positional labels order "0","1",...,"10" rather than
// lexically.
func sortedUnion(tables []RawTable) []string {
	seen := make(map[string]bool)
	var union []string
	for _, table := range tables {
		for _, col := range table.Columns {
			if !seen[col] {
				seen[col] = true
				union = append(union, col)
			}
		}
	}
	sort.Slice(union, func(i, j int) bool {
		a, aErr := strconv.Atoi(strings.TrimSpace(union[i]))
		b, bErr := strconv.Atoi(strings.TrimSpace(union[j]))
		if aErr == nil && bErr == nil {
			return a < b
		}
		return union[i] < union[j]
	})
	return union
}

// reindex projects a table onto the unified column set: columns present keep
// their values, absent ones fill with the empty marker.
func reindex(table RawTable, unified []string) UnifiedTable {
	index := make(map[string]int, len(table.Columns))
	for i, col := range table.Columns {
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		out := make([]string, len(unified))
		for j, col := range unified {
			if src, ok := index[col]; ok && src < len(row) {
				out[j] = row[src]
			}
		}
		rows[i] = out
	}
	return UnifiedTable{Columns: append([]string(nil), unified...), Rows: rows}
}
