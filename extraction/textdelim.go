package extraction

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Candidate delimiters tried per line, most structured first. A run of two
// spaces stands in for column-aligned text.
var delimiterCandidates = []string{"\t", "|", ";", "  ", ","}

// TextDelimiterExtractor pulls the document's full text (embedded text layer
// when present, full-page OCR otherwise) and rebuilds rows by splitting each
// line on its best-scoring delimiter.
type TextDelimiterExtractor struct {
	logger *zap.Logger
}

func NewTextDelimiterExtractor(logger *zap.Logger) *TextDelimiterExtractor {
	return &TextDelimiterExtractor{logger: logger}
}

func (e *TextDelimiterExtractor) Name() string { return "text-delimiter" }

func (e *TextDelimiterExtractor) TryExtract(ctx context.Context, doc Document, heur *Heuristics) ([]RawTable, bool, error) {
	text, err := e.fullText(ctx, doc, heur)
	if err != nil {
		return nil, false, err
	}

	rows := parseDelimitedRows(text, heur)
	if len(rows) < heur.MinDelimiterRows {
		return nil, false, nil
	}

	columns, data := chooseHeader(rows)
	table := RawTable{
		Columns:    columns,
		Rows:       data,
		Method:     e.Name(),
		Confidence: 0.6,
	}
	return []RawTable{table}, true, nil
}

// fullText prefers the embedded text layer and falls back to page OCR when
// the document has none (scans, images).
func (e *TextDelimiterExtractor) fullText(ctx context.Context, doc Document, heur *Heuristics) (string, error) {
	if strings.ToLower(filepath.Ext(doc.Path)) == ".pdf" {
		if text, err := textLayer(doc.Path); err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		} else if err != nil {
			e.logger.Debug("no usable text layer, falling back to OCR",
				zap.String("file", doc.Path),
				zap.Error(err))
		}
	}

	pages, err := renderPages(doc.Path, heur.RenderDPI)
	if err != nil {
		return "", err
	}

	client := newOCRClient()
	defer client.Close()

	var sb strings.Builder
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := ocrImage(client, page)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func textLayer(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

// parseDelimitedRows turns text lines into rows. A line qualifies when its
// best delimiter yields MinDelimiterFields fields, or as a last resort when
// it splits into MinTokenFields whitespace tokens.
func parseDelimitedRows(text string, heur *Heuristics) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitBest(line)
		if len(fields) >= heur.MinDelimiterFields {
			rows = append(rows, fields)
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) >= heur.MinTokenFields {
			rows = append(rows, tokens)
		}
	}
	return rows
}

// splitBest tries every candidate delimiter and keeps the split producing
// the most non-empty fields.
func splitBest(line string) []string {
	var best []string
	for _, delim := range delimiterCandidates {
		if !strings.Contains(line, delim) {
			continue
		}
		var fields []string
		for _, part := range strings.Split(line, delim) {
			part = strings.TrimSpace(part)
			if part != "" {
				fields = append(fields, part)
			}
		}
		if len(fields) > len(best) {
			best = fields
		}
	}
	return best
}
