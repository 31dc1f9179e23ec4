package extraction

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHeuristicsEmptyPathReturnsDefaults(t *testing.T) {
	heur, err := LoadHeuristics("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if heur.MinStructuralCells != 2 || heur.MinTokenFields != 3 {
		t.Errorf("unexpected defaults: %+v", heur)
	}
}

func TestLoadHeuristicsOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	content := "min_delimiter_rows: 5\nrender_dpi: 150\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	heur, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if heur.MinDelimiterRows != 5 {
		t.Errorf("MinDelimiterRows = %d, want 5", heur.MinDelimiterRows)
	}
	if heur.RenderDPI != 150 {
		t.Errorf("RenderDPI = %v, want 150", heur.RenderDPI)
	}
	// untouched fields keep their defaults
	if heur.MinLineWords != 2 {
		t.Errorf("MinLineWords = %d, want default 2", heur.MinLineWords)
	}
}

func TestLoadHeuristicsMissingFile(t *testing.T) {
	if _, err := LoadHeuristics("/nonexistent/heuristics.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
