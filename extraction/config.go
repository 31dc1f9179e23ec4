package extraction

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristics are the cascade acceptance thresholds. The defaults reproduce
// the tuned production values; deployments can override them from a yaml
// file when documents in their corpus look different.
type Heuristics struct {
	// A structural grid is accepted once one row carries at least this
	// many populated cells.
	MinStructuralCells int `yaml:"min_structural_cells"`
	// A delimited line qualifies as a row with at least this many fields.
	MinDelimiterFields int `yaml:"min_delimiter_fields"`
	// Last-resort row qualification: whitespace tokens per line.
	MinTokenFields int `yaml:"min_token_fields"`
	// The delimiter stage is accepted with at least this many rows.
	MinDelimiterRows int `yaml:"min_delimiter_rows"`
	// An OCR line qualifies in the grouping fallback with this many words.
	MinLineWords int `yaml:"min_line_words"`
	// DPI used when rendering pages for OCR.
	RenderDPI float64 `yaml:"render_dpi"`
}

func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		MinStructuralCells: 2,
		MinDelimiterFields: 2,
		MinTokenFields:     3,
		MinDelimiterRows:   2,
		MinLineWords:       2,
		RenderDPI:          300,
	}
}

// LoadHeuristics reads threshold overrides from a yaml file. An empty path
// returns the defaults.
func LoadHeuristics(path string) (*Heuristics, error) {
	heur := DefaultHeuristics()
	if path == "" {
		return heur, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read heuristics file: %w", err)
	}
	if err := yaml.Unmarshal(data, heur); err != nil {
		return nil, fmt.Errorf("failed to parse heuristics file: %w", err)
	}
	return heur, nil
}
