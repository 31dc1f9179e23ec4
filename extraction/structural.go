package extraction

import (
	"context"
	"image"
	"strings"

	"go.uber.org/zap"
)

const (
	lineDarkRatio = 0.55
	darkLuminance = 128
	cellInsetPx   = 2
	minCellSpanPx = 8
)

// StructuralExtractor locates ruled table grids on rendered pages by
// detecting long horizontal and vertical line runs, then OCRs each cell
// region. Cheapest-to-trust stage: if a grid is present, cell boundaries
// are exact.
type StructuralExtractor struct {
	logger *zap.Logger
}

func NewStructuralExtractor(logger *zap.Logger) *StructuralExtractor {
	return &StructuralExtractor{logger: logger}
}

func (e *StructuralExtractor) Name() string { return "structural" }

func (e *StructuralExtractor) TryExtract(ctx context.Context, doc Document, heur *Heuristics) ([]RawTable, bool, error) {
	pages, err := renderPages(doc.Path, heur.RenderDPI)
	if err != nil {
		return nil, false, err
	}

	client := newOCRClient()
	defer client.Close()

	var tables []RawTable
	for pageNum, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		xs, ys := detectGridLines(page)
		if len(xs) < 2 || len(ys) < 2 {
			continue
		}

		cells := make([][]string, 0, len(ys)-1)
		for r := 0; r < len(ys)-1; r++ {
			row := make([]string, 0, len(xs)-1)
			for c := 0; c < len(xs)-1; c++ {
				rect := image.Rect(xs[c]+cellInsetPx, ys[r]+cellInsetPx, xs[c+1]-cellInsetPx, ys[r+1]-cellInsetPx)
				if rect.Dx() < minCellSpanPx || rect.Dy() < minCellSpanPx {
					row = append(row, "")
					continue
				}
				text, err := ocrImage(client, page.SubImage(rect))
				if err != nil {
					e.logger.Warn("cell OCR failed",
						zap.String("file", doc.Path),
						zap.Int("page", pageNum+1),
						zap.Error(err))
					text = ""
				}
				row = append(row, strings.TrimSpace(text))
			}
			cells = append(cells, row)
		}

		columns, data := chooseHeader(cells)
		tables = append(tables, RawTable{
			Columns:    columns,
			Rows:       data,
			Method:     e.Name(),
			Confidence: 0.9,
		})
	}

	return tables, acceptStructural(tables, heur), nil
}

// acceptStructural checks the stage criterion: at least one row carrying
// MinStructuralCells populated cells.
func acceptStructural(tables []RawTable, heur *Heuristics) bool {
	for _, table := range tables {
		for _, row := range table.Rows {
			if countPopulated(row) >= heur.MinStructuralCells {
				return true
			}
		}
	}
	return false
}

// detectGridLines scans a rendered page for rows and columns that are mostly
// dark pixels, collapsing adjacent hits into single ruling positions.
func detectGridLines(img *image.RGBA) (xs, ys []int) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, nil
	}

	rowHits := make([]bool, height)
	colDark := make([]int, width)
	for y := 0; y < height; y++ {
		dark := 0
		for x := 0; x < width; x++ {
			if isDark(img, bounds.Min.X+x, bounds.Min.Y+y) {
				dark++
				colDark[x]++
			}
		}
		rowHits[y] = float64(dark) >= lineDarkRatio*float64(width)
	}

	colHits := make([]bool, width)
	for x := 0; x < width; x++ {
		colHits[x] = float64(colDark[x]) >= lineDarkRatio*float64(height)
	}

	ys = collapseRuns(rowHits, bounds.Min.Y)
	xs = collapseRuns(colHits, bounds.Min.X)
	return xs, ys
}

func isDark(img *image.RGBA, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
	return lum < darkLuminance
}

// collapseRuns reduces each consecutive run of hits to its center position.
func collapseRuns(hits []bool, offset int) []int {
	var centers []int
	start := -1
	for i, hit := range hits {
		if hit && start < 0 {
			start = i
		}
		if (!hit || i == len(hits)-1) && start >= 0 {
			end := i
			if hit && i == len(hits)-1 {
				end = i + 1
			}
			centers = append(centers, offset+(start+end-1)/2)
			start = -1
		}
	}
	return centers
}
