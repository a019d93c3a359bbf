// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every environment-sourced setting the core consumes. Values
// that have a sensible spec-reference default are optional; values naming a
// required external collaborator fail fast if missing.
type Config struct {
	// Object storage (spec §6 "Source retrieval")
	StorageEndpoint  string
	StorageBucket    string
	StorageAccessKey string
	StorageSecretKey string
	StorageRegion    string

	// Completion callback (spec §6 "Completion callback")
	CallbackURL string
	// CallbackSigningKey signs the JWT sent with the completion callback so
	// the receiver can verify the POST originated from this service.
	CallbackSigningKey string

	// Metadata store
	DatabaseURL string

	// Optional band-index accelerator cache (spec §3 "band_index ... optional accelerator")
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Ambient
	LogLevel string
	LogFile  string
	HTTPAddr string

	// Decision policy tunables (spec.md §4.7) — default to the spec's
	// reference values when unset. The extraction-side constants (sample
	// rate, frame rate, hash width, band layout) are not configurable:
	// they are load-bearing invariants baked into the hash format itself
	// and must be identical at index time and query time for every video
	// ever admitted, so spec.md §4.1/§4.2/§4.5/§4.6 fixes them rather
	// than exposing them as environment overrides.
	CandidateKVisual int
	CandidateKAudio  int
	IndexBatchSize   int
}

// Load reads Config from the environment. Required fields (the object
// store and the completion callback, since the core cannot function
// without either) fail fast; everything else falls back to the spec's
// reference defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageBucket:    os.Getenv("STORAGE_BUCKET"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageRegion:    getEnvOrDefault("STORAGE_REGION", "us-east-1"),

		CallbackURL:        os.Getenv("CALLBACK_URL"),
		CallbackSigningKey: os.Getenv("CALLBACK_SIGNING_KEY"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "videofp.log"),
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),

		CandidateKVisual: getEnvInt("CANDIDATE_K_VISUAL", 5),
		CandidateKAudio:  getEnvInt("CANDIDATE_K_AUDIO", 20),
		IndexBatchSize:   getEnvInt("INDEX_BATCH_SIZE", 100),
	}

	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET environment variable not set - this is REQUIRED to fetch source videos")
	}
	if cfg.CallbackURL == "" {
		return nil, fmt.Errorf("CALLBACK_URL environment variable not set - this is REQUIRED to report completion")
	}

	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
