package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of loaded classifiers kept by CachedOpener.
const DefaultCacheSize = 2

// Loader builds a classifier from a configuration.
type Loader func(Config) (Classifier, error)

// LoadHook observes every artifact load.
type LoadHook func(backend string, took time.Duration, err error)

// Opener hands out classifiers for single predictions. The release function
// must be called once the caller is done with the classifier.
type Opener interface {
	Acquire(ctx context.Context) (Classifier, func(), error)
	Close() error
}

// DiskOpener loads the classifier from disk on every Acquire and closes it on
// release, so a replaced artifact is picked up on the next call.
type DiskOpener struct {
	cfg    Config
	load   Loader
	onLoad LoadHook
}

// NewDiskOpener returns an opener that reloads per call. A nil load uses Load.
func NewDiskOpener(cfg Config, load Loader, onLoad LoadHook) *DiskOpener {
	if load == nil {
		load = Load
	}
	return &DiskOpener{cfg: cfg, load: load, onLoad: onLoad}
}

// Acquire loads a fresh classifier.
func (o *DiskOpener) Acquire(ctx context.Context) (Classifier, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	c, err := timedLoad(o.cfg, o.load, o.onLoad)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close classifier", "backend", c.Name(), "error", err)
		}
	}
	return c, release, nil
}

// Close is a no-op; every classifier is closed on release.
func (o *DiskOpener) Close() error { return nil }

type cacheEntry struct {
	c       Classifier
	refs    int
	evicted bool
}

// CachedOpener keeps loaded classifiers in an LRU keyed by backend and artifact
// identity (path, size, modification time). Changing an artifact on disk
// changes its key, which forces a reload.
type CachedOpener struct {
	cfg    Config
	load   Loader
	onLoad LoadHook

	mu     sync.Mutex
	cache  *lru.Cache[string, *cacheEntry]
	closed bool
}

// NewCachedOpener returns an opener that reuses loaded classifiers.
func NewCachedOpener(cfg Config, size int, load Loader, onLoad LoadHook) (*CachedOpener, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if load == nil {
		load = Load
	}
	o := &CachedOpener{cfg: cfg, load: load, onLoad: onLoad}
	cache, err := lru.NewWithEvict(size, o.evict)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier cache: %w", err)
	}
	o.cache = cache
	return o, nil
}

// evict runs with o.mu held, from Add or Purge.
func (o *CachedOpener) evict(key string, e *cacheEntry) {
	e.evicted = true
	if e.refs == 0 {
		closeEntry(key, e)
	}
}

func closeEntry(key string, e *cacheEntry) {
	if err := e.c.Close(); err != nil {
		slog.Warn("Failed to close cached classifier", "key", key, "error", err)
	}
}

// Acquire returns a cached classifier, loading it when the artifacts changed.
func (o *CachedOpener) Acquire(ctx context.Context) (Classifier, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	key, err := artifactKey(o.cfg)
	if err != nil {
		return nil, nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, nil, ErrClosed
	}

	e, ok := o.cache.Get(key)
	if !ok {
		c, err := timedLoad(o.cfg, o.load, o.onLoad)
		if err != nil {
			return nil, nil, err
		}
		e = &cacheEntry{c: c}
		o.cache.Add(key, e)
	}
	e.refs++

	var once sync.Once
	release := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			e.refs--
			if e.evicted && e.refs == 0 {
				closeEntry(key, e)
			}
		})
	}
	return e.c, release, nil
}

// Len returns the number of cached classifiers.
func (o *CachedOpener) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.Len()
}

// Close evicts every cached classifier. Classifiers still in use are closed
// when released.
func (o *CachedOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.cache.Purge()
	return nil
}

// NewOpener picks the cached or per-call opener.
func NewOpener(cfg Config, cacheModel bool, cacheSize int, onLoad LoadHook) (Opener, error) {
	if cacheModel {
		return NewCachedOpener(cfg, cacheSize, nil, onLoad)
	}
	return NewDiskOpener(cfg, nil, onLoad), nil
}

func timedLoad(cfg Config, load Loader, onLoad LoadHook) (Classifier, error) {
	start := time.Now()
	c, err := load(cfg)
	if onLoad != nil {
		onLoad(cfg.Backend, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Classifier loaded", "backend", c.Name(), "took", time.Since(start))
	return c, nil
}

func artifactKey(cfg Config) (string, error) {
	parts := []string{cfg.Backend}
	switch cfg.Backend {
	case BackendONNX:
		for _, p := range []string{cfg.ModelPath, cfg.LabelsPath} {
			st, err := os.Stat(p)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					// The loader reports the missing artifact or falls back.
					parts = append(parts, "missing:"+p)
					continue
				}
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s:%d:%d", p, st.Size(), st.ModTime().UnixNano()))
		}
	case BackendLingua:
		parts = append(parts, strings.Join(cfg.Languages, ","))
	}
	return strings.Join(parts, "|"), nil
}
