// Package main documents the videofp repository layout. Executable entry
// points live under cmd/server, cmd/videocli, and cmd/migrate; this file
// carries no func main itself.

// - internal/audio: audio decoding and Shazam-style landmark hashing
// - internal/video: frame extraction and perceptual hashing
// - internal/fingerprint: pipeline orchestrating audio and video extraction
// - internal/decider: duplicate-candidate generation and commit decision
// - internal/queue: worker pool processing submitted fingerprint jobs
// - internal/repository: the fingerprint index (GORM-backed Postgres/SQLite)
// - internal/storage: fetches source video bytes from S3-compatible storage
// - internal/cache: Redis-backed LSH band-index accelerator cache
// - internal/callback: signed completion callback client
// - internal/kernel: dependency-injection container wiring it all together
// - internal/handlers: HTTP handlers for the process/status/health routes
// - internal/middleware: HTTP middleware (request ID, metrics, rate limiting, tracing)
// - internal/telemetry: OpenTelemetry tracing setup and instrumentation helpers
// - internal/metrics: Prometheus metrics registry
// - internal/logger: structured logging setup
// - internal/config: environment-derived configuration
// - internal/database: database connection and migrations
// - internal/models: data models and database schemas
// - internal/errors: typed application errors
package main
