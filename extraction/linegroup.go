package extraction

import (
	"context"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// LineGroupingExtractor is the terminal fallback: it groups raw OCR word
// boxes by their line index and keeps every line with enough words to pass
// for a row. Most permissive stage; it only comes up empty when the page
// has no recognizable text at all.
type LineGroupingExtractor struct {
	logger *zap.Logger
}

func NewLineGroupingExtractor(logger *zap.Logger) *LineGroupingExtractor {
	return &LineGroupingExtractor{logger: logger}
}

func (e *LineGroupingExtractor) Name() string { return "line-grouping" }

func (e *LineGroupingExtractor) TryExtract(ctx context.Context, doc Document, heur *Heuristics) ([]RawTable, bool, error) {
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

		boxes, err := ocrWords(client, page)
		if err != nil {
			e.logger.Warn("word box OCR failed",
				zap.String("file", doc.Path),
				zap.Int("page", pageNum+1),
				zap.Error(err))
			continue
		}

		rows, confidence := groupByLine(boxes, heur.MinLineWords)
		if len(rows) == 0 {
			continue
		}

		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		tables = append(tables, RawTable{
			Columns:    positionalColumns(width),
			Rows:       rows,
			Method:     e.Name(),
			Confidence: confidence,
		})
	}

	return tables, len(tables) > 0, nil
}

type lineKey struct {
	block, par, line int
}

// groupByLine buckets word boxes by their (block, paragraph, line) index and
// keeps lines with at least minWords words, in reading order.
func groupByLine(boxes []gosseract.BoundingBox, minWords int) ([][]string, float64) {
	lines := make(map[lineKey][]gosseract.BoundingBox)
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		key := lineKey{block: box.BlockNum, par: box.ParNum, line: box.LineNum}
		lines[key] = append(lines[key], box)
	}

	keys := make([]lineKey, 0, len(lines))
	for key := range lines {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].block != keys[j].block {
			return keys[i].block < keys[j].block
		}
		if keys[i].par != keys[j].par {
			return keys[i].par < keys[j].par
		}
		return keys[i].line < keys[j].line
	})

	var rows [][]string
	confSum := 0.0
	confCount := 0
	for _, key := range keys {
		words := lines[key]
		if len(words) < minWords {
			continue
		}
		sort.Slice(words, func(i, j int) bool {
			return words[i].Box.Min.X < words[j].Box.Min.X
		})
		row := make([]string, 0, len(words))
		for _, w := range words {
			row = append(row, strings.TrimSpace(w.Word))
			confSum += w.Confidence
			confCount++
		}
		rows = append(rows, row)
	}

	if confCount == 0 {
		return rows, 0
	}
	// tesseract reports word confidence on a 0-100 scale
	return rows, confSum / float64(confCount) / 100
}
