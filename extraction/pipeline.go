package extraction

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/cache"
)

// DefaultMaxRowsPerTable caps how many rows a result (and its cached
// preview) carries per table when the caller does not say.
const DefaultMaxRowsPerTable = 50

// Result is the pipeline's successful output.
type Result struct {
	Tables      []UnifiedTable `json:"tables"`
	Method      string         `json:"method"`
	TablesFound int            `json:"tables_found"`
	TotalRows   int            `json:"total_rows"`
}

// Pipeline runs extraction strategies in fixed priority order, stopping at
// the first whose output is accepted, then unifies schemas and caches a
// preview under the document's content address.
type Pipeline struct {
	extractors []Extractor
	unifier    *SchemaUnifier
	heuristics *Heuristics
	cache      *cache.ResultCache
	logger     *zap.Logger
}

func NewPipeline(extractors []Extractor, heuristics *Heuristics, resultCache *cache.ResultCache, logger *zap.Logger) *Pipeline {
	if heuristics == nil {
		heuristics = DefaultHeuristics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		extractors: extractors,
		unifier:    NewSchemaUnifier(),
		heuristics: heuristics,
		cache:      resultCache,
		logger:     logger,
	}
}

// Extract consults the cache first, then walks the cascade. A strategy
// error or rejection hands over to the next stage; when every stage comes
// up empty the outcome is ErrNoTabularData.
func (p *Pipeline) Extract(ctx context.Context, doc Document, params Params) (*Result, error) {
	if params.MaxRowsPerTable <= 0 {
		params.MaxRowsPerTable = DefaultMaxRowsPerTable
	}
	if params.OutputShape == "" {
		params.OutputShape = ShapePerTable
	}

	info, err := os.Stat(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	if p.cache != nil {
		if preview, ok := p.cache.Get(doc.Path, info.ModTime(), params); ok {
			p.logger.Info("cache hit",
				zap.String("file", doc.Path),
				zap.String("method", preview.Method))
			return resultFromPreview(preview), nil
		}
	}

	for _, extractor := range p.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, accepted, err := extractor.TryExtract(ctx, doc, p.heuristics)
		if err != nil {
			p.logger.Warn("extractor failed, trying next",
				zap.String("extractor", extractor.Name()),
				zap.String("file", doc.Path),
				zap.Error(err))
			continue
		}
		if !accepted || len(raw) == 0 {
			continue
		}

		result, preview := p.buildResult(raw, extractor.Name(), params)
		p.logger.Info("extraction accepted",
			zap.String("extractor", extractor.Name()),
			zap.String("file", doc.Path),
			zap.Int("tables", result.TablesFound),
			zap.Int("rows", result.TotalRows))

		if p.cache != nil {
			if err := p.cache.Put(doc.Path, info.ModTime(), params, preview, 0); err != nil {
				p.logger.Warn("failed to cache result",
					zap.String("file", doc.Path),
					zap.Error(err))
			}
		}
		return result, nil
	}

	return nil, ErrNoTabularData
}

// buildResult unifies the accepted tables, applies the per-table row cap
// and produces the row-limited preview persisted alongside the result.
func (p *Pipeline) buildResult(raw []RawTable, method string, params Params) (*Result, *cache.Preview) {
	unified := p.unifier.Unify(raw)
	if params.OutputShape == ShapeMerged {
		unified = []UnifiedTable{p.unifier.Merge(unified)}
	}

	result := &Result{Method: method, TablesFound: len(unified)}
	preview := &cache.Preview{TablesFound: len(unified), Method: method}
	for i, table := range unified {
		totalRows := len(table.Rows)
		result.TotalRows += totalRows
		if totalRows > params.MaxRowsPerTable {
			table.Rows = table.Rows[:params.MaxRowsPerTable]
		}
		result.Tables = append(result.Tables, table)
		preview.Tables = append(preview.Tables, cache.TablePreview{
			TableNumber: i + 1,
			Columns:     table.Columns,
			SampleRows:  table.Rows,
			TotalRows:   totalRows,
		})
	}
	return result, preview
}

func resultFromPreview(preview *cache.Preview) *Result {
	result := &Result{
		Method:      preview.Method,
		TablesFound: preview.TablesFound,
	}
	for _, table := range preview.Tables {
		result.Tables = append(result.Tables, UnifiedTable{
			Columns: table.Columns,
			Rows:    table.SampleRows,
		})
		result.TotalRows += table.TotalRows
	}
	return result
}
