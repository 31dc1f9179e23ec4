package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/api"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/cache"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/config"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/extraction"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/scheduler"
)

const (
	cleanupInterval = time.Hour
	jobRetention    = 24 * time.Hour
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// Result cache
	// =========
	resultCache, err := cache.Open(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to open result cache: %v", err)
	}
	defer resultCache.Close()

	// =========
	// Extraction pipeline
	// =========
	heuristics, err := extraction.LoadHeuristics(cfg.HeuristicsPath)
	if err != nil {
		log.Fatalf("Failed to load heuristics: %v", err)
	}
	pipeline := extraction.NewPipeline([]extraction.Extractor{
		extraction.NewStructuralExtractor(logger),
		extraction.NewTextDelimiterExtractor(logger),
		extraction.NewLineGroupingExtractor(logger),
	}, heuristics, resultCache, logger)

	// =========
	// Scheduler
	// =========
	sched := scheduler.New(cfg.MaxConcurrent, cfg.MaxQueueSize, logger)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			if removed := sched.Cleanup(jobRetention); removed > 0 {
				logger.Info("cleaned up old jobs", zap.Int("removed", removed))
			}
		}
	}()

	// =========
	// API server
	// =========
	server := api.NewServer(sched, pipeline, cfg.JobTimeout, logger)
	log.Fatal(server.Start(cfg.AppPort))
}
