package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/cache"
)

type fakeExtractor struct {
	name     string
	tables   []RawTable
	accepted bool
	err      error
	calls    int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) TryExtract(ctx context.Context, doc Document, heur *Heuristics) ([]RawTable, bool, error) {
	f.calls++
	return f.tables, f.accepted, f.err
}

func tempDoc(t *testing.T) Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Document{Path: path, Label: "scan.pdf"}
}

func namedTable() RawTable {
	return RawTable{
		Columns:    []string{"Name", "Amount"},
		Rows:       [][]string{{"Alice", "10"}, {"Bob", "20"}},
		Method:     "structural",
		Confidence: 0.9,
	}
}

func TestCascadeStopsAtFirstAcceptedStage(t *testing.T) {
	first := &fakeExtractor{name: "structural", tables: []RawTable{namedTable()}, accepted: true}
	second := &fakeExtractor{name: "text-delimiter", accepted: true}

	p := NewPipeline([]Extractor{first, second}, nil, nil, nil)
	result, err := p.Extract(context.Background(), tempDoc(t), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Method != "structural" {
		t.Errorf("method = %q, want structural", result.Method)
	}
	if second.calls != 0 {
		t.Errorf("later stage ran after an earlier stage was accepted")
	}
}

func TestCascadeSkipsFailingAndRejectedStages(t *testing.T) {
	failing := &fakeExtractor{name: "structural", err: errors.New("render exploded")}
	rejected := &fakeExtractor{name: "text-delimiter", accepted: false}
	fallback := &fakeExtractor{
		name: "line-grouping",
		tables: []RawTable{{
			Columns: []string{"0", "1"},
			Rows:    [][]string{{"total", "42"}, {"tax", "7"}},
			Method:  "line-grouping",
		}},
		accepted: true,
	}

	p := NewPipeline([]Extractor{failing, rejected, fallback}, nil, nil, nil)
	result, err := p.Extract(context.Background(), tempDoc(t), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Method != "line-grouping" {
		t.Errorf("method = %q, want line-grouping", result.Method)
	}
	if result.TablesFound != 1 || result.TotalRows != 2 {
		t.Errorf("unexpected result shape: %+v", result)
	}
}

func TestAllStagesRejectedReportsNoTabularData(t *testing.T) {
	p := NewPipeline([]Extractor{
		&fakeExtractor{name: "structural"},
		&fakeExtractor{name: "text-delimiter"},
		&fakeExtractor{name: "line-grouping"},
	}, nil, nil, nil)

	_, err := p.Extract(context.Background(), tempDoc(t), Params{})
	if !errors.Is(err, ErrNoTabularData) {
		t.Fatalf("expected ErrNoTabularData, got %v", err)
	}
}

func TestRowLimitAndTotals(t *testing.T) {
	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{"r", "v"}
	}
	ex := &fakeExtractor{
		name:     "structural",
		tables:   []RawTable{{Columns: []string{"Key", "Value"}, Rows: rows}},
		accepted: true,
	}

	p := NewPipeline([]Extractor{ex}, nil, nil, nil)
	result, err := p.Extract(context.Background(), tempDoc(t), Params{MaxRowsPerTable: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Tables[0].Rows) != 3 {
		t.Errorf("rows not capped: %d", len(result.Tables[0].Rows))
	}
	if result.TotalRows != 10 {
		t.Errorf("total rows = %d, want pre-cap 10", result.TotalRows)
	}
}

func TestMergedShapeCollapsesTables(t *testing.T) {
	ex := &fakeExtractor{
		name: "structural",
		tables: []RawTable{
			{Columns: []string{"Name", "Amount"}, Rows: [][]string{{"Alice", "10"}}},
			{Columns: []string{"0", "1"}, Rows: [][]string{{"Bob", "20"}}},
		},
		accepted: true,
	}

	p := NewPipeline([]Extractor{ex}, nil, nil, nil)
	result, err := p.Extract(context.Background(), tempDoc(t), Params{OutputShape: ShapeMerged})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TablesFound != 1 || len(result.Tables) != 1 {
		t.Fatalf("expected single merged table, got %+v", result)
	}
	if len(result.Tables[0].Rows) != 2 {
		t.Errorf("merged rows = %d, want 2", len(result.Tables[0].Rows))
	}
}

func TestCacheHitShortCircuitsCascade(t *testing.T) {
	resultCache, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resultCache.Close()

	ex := &fakeExtractor{name: "structural", tables: []RawTable{namedTable()}, accepted: true}
	p := NewPipeline([]Extractor{ex}, nil, resultCache, nil)
	doc := tempDoc(t)

	first, err := p.Extract(context.Background(), doc, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.calls != 1 {
		t.Fatalf("expected one extraction, got %d", ex.calls)
	}

	second, err := p.Extract(context.Background(), doc, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.calls != 1 {
		t.Errorf("cache hit still ran the cascade")
	}
	if second.TablesFound != first.TablesFound || second.TotalRows != first.TotalRows {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if second.Method != first.Method {
		t.Errorf("cached method = %q, want %q", second.Method, first.Method)
	}
}

func TestDifferentParamsDoNotShareCache(t *testing.T) {
	resultCache, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resultCache.Close()

	ex := &fakeExtractor{name: "structural", tables: []RawTable{namedTable()}, accepted: true}
	p := NewPipeline([]Extractor{ex}, nil, resultCache, nil)
	doc := tempDoc(t)

	if _, err := p.Extract(context.Background(), doc, Params{MaxRowsPerTable: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Extract(context.Background(), doc, Params{MaxRowsPerTable: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.calls != 2 {
		t.Errorf("distinct params must miss the cache, got %d calls", ex.calls)
	}
}
