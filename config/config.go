package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort        int
	CachePath      string
	CacheTTL       time.Duration
	MaxConcurrent  int
	MaxQueueSize   int
	JobTimeout     time.Duration
	HeuristicsPath string
}

func Load() (*Config, error) {
	appPort, err := strconv.Atoi(getEnv("APP_PORT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:        appPort,
		CachePath:      getEnvOr("CACHE_PATH", "./data/extractions.db"),
		CacheTTL:       getDurationOr("CACHE_TTL", 6*time.Hour),
		MaxConcurrent:  getIntOr("MAX_CONCURRENT_JOBS", 3),
		MaxQueueSize:   getIntOr("MAX_QUEUE_SIZE", 20),
		JobTimeout:     getDurationOr("JOB_TIMEOUT", 5*time.Minute),
		HeuristicsPath: os.Getenv("HEURISTICS_PATH"),
	}, nil
}

func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func getEnvOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Environment variable %s must be an integer: %v", key, err)
	}
	return n
}

func getDurationOr(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Environment variable %s must be a duration: %v", key, err)
	}
	return d
}
