// Package kernel provides dependency injection management for the
// fingerprinting service. It consolidates all services and provides
// type-safe access to dependencies, grounded on the teacher's own
// internal/kernel.Kernel service-locator pattern, generalized from the
// social-app's ~15 collaborators down to the fingerprinting core's six.
package kernel

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clipguard/videofp/internal/cache"
	"github.com/clipguard/videofp/internal/callback"
	"github.com/clipguard/videofp/internal/decider"
	"github.com/clipguard/videofp/internal/fingerprint"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/queue"
	"github.com/clipguard/videofp/internal/repository"
	"github.com/clipguard/videofp/internal/storage"
)

// Kernel holds all application dependencies and provides type-safe
// access. It implements the Service Locator pattern with additional
// lifecycle management.
type Kernel struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Fingerprinting collaborators
	fetcher  storage.Fetcher
	index    repository.FingerprintIndex
	pipeline *fingerprint.Pipeline
	decider  *decider.Decider
	queue    *queue.FingerprintQueue
	callback *callback.Client

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty kernel. Services should be registered using
// Set* methods.
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetDB registers the database connection.
func (c *Kernel) SetDB(db *gorm.DB) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection.
func (c *Kernel) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger.
func (c *Kernel) SetLogger(l *zap.Logger) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance.
func (c *Kernel) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the optional band-index accelerator cache.
func (c *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, or nil if none was registered.
func (c *Kernel) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetFetcher registers the source-retrieval collaborator (spec.md §6).
func (c *Kernel) SetFetcher(f storage.Fetcher) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetcher = f
	return c
}

// Fetcher returns the source-retrieval collaborator.
func (c *Kernel) Fetcher() storage.Fetcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetcher
}

// SetIndex registers the metadata store's FingerprintIndex.
func (c *Kernel) SetIndex(idx repository.FingerprintIndex) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = idx
	return c
}

// Index returns the FingerprintIndex.
func (c *Kernel) Index() repository.FingerprintIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// SetPipeline registers the C8 pipeline orchestrator.
func (c *Kernel) SetPipeline(p *fingerprint.Pipeline) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = p
	return c
}

// Pipeline returns the pipeline orchestrator.
func (c *Kernel) Pipeline() *fingerprint.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipeline
}

// SetDecider registers the C7 duplicate decider.
func (c *Kernel) SetDecider(d *decider.Decider) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decider = d
	return c
}

// Decider returns the duplicate decider.
func (c *Kernel) Decider() *decider.Decider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decider
}

// SetQueue registers the job ingress worker pool.
func (c *Kernel) SetQueue(q *queue.FingerprintQueue) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = q
	return c
}

// Queue returns the job ingress worker pool.
func (c *Kernel) Queue() *queue.FingerprintQueue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queue
}

// SetCallback registers the completion callback client.
func (c *Kernel) SetCallback(client *callback.Client) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = client
	return c
}

// Callback returns the completion callback client.
func (c *Kernel) Callback() *callback.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callback
}

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first
// cleaned up), mirroring the teacher's own shutdown-ordering discipline.
func (c *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup performs graceful shutdown of all registered services,
// calling cleanup functions in reverse order of registration.
func (c *Kernel) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger
	if log == nil {
		log = logger.Log
	}
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			log.Error("cleanup function failed", zap.Int("index", i), zap.Error(err))
		}
	}
	return nil
}

// Validate checks that all required dependencies are registered. This
// should be called after initialization and before starting the server.
func (c *Kernel) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.fetcher == nil {
		missing = append(missing, "source fetcher")
	}
	if c.index == nil {
		missing = append(missing, "fingerprint index")
	}
	if c.pipeline == nil {
		missing = append(missing, "pipeline orchestrator")
	}
	if c.decider == nil {
		missing = append(missing, "duplicate decider")
	}
	if c.queue == nil {
		missing = append(missing, "job queue")
	}
	if c.callback == nil {
		missing = append(missing, "completion callback client")
	}

	if len(missing) > 0 {
		return NewInitializationError("missing required dependencies", missing)
	}
	return nil
}
