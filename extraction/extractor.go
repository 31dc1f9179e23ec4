package extraction

import (
	"context"
	"errors"
)

// ErrNoTabularData is the terminal cascade outcome for documents where no
// strategy found anything table-shaped. It is an expected result for
// unextractable files, not a system error.
var ErrNoTabularData = errors.New("no tabular data found")

// Document identifies the file a job operates on.
type Document struct {
	Path  string
	Label string
}

// OutputShape selects how unified tables are returned.
type OutputShape string

const (
	// ShapePerTable keeps each detected table separate.
	ShapePerTable OutputShape = "per_table"
	// ShapeMerged concatenates all tables into one view.
	ShapeMerged OutputShape = "merged"
)

// Params are the caller-supplied extraction parameters. They participate in
// the cache key, so different parameters never share cached results.
type Params struct {
	MaxRowsPerTable int         `json:"max_rows_per_table"`
	OutputShape     OutputShape `json:"output_shape"`
}

// RawTable is the output of a single extraction strategy, before schema
// unification. Rows are not guaranteed to match the column count yet.
type RawTable struct {
	Columns    []string
	Rows       [][]string
	Method     string
	Confidence float64
}

// Extractor is one extraction strategy in the cascade. TryExtract reports
// whether its output meets the strategy's acceptance criterion; a rejected
// or failed strategy hands over to the next one in priority order.
type Extractor interface {
	Name() string
	TryExtract(ctx context.Context, doc Document, heur *Heuristics) ([]RawTable, bool, error)
}
