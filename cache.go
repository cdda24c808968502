package sanitypress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/sanity"
)

// regenerateTimeout bounds a background regeneration.
const regenerateTimeout = 15 * time.Second

// prewarmConcurrency bounds concurrent CMS fetches during warm-up.
const prewarmConcurrency = 4

// PostLoader loads the detail data of one post.
type PostLoader interface {
	GetPost(ctx context.Context, slug string) (content.Post, error)
}

// Logger is the subset of echo.Logger the cache reports through.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// PageCacheConfig configures NewPageCache. Snapshots and Now are optional.
type PageCacheConfig struct {
	Loader     PostLoader
	Revalidate time.Duration
	Snapshots  *Store
	Logger     Logger
	Now        func() time.Time
}

type pageEntry struct {
	post        content.Post
	generatedAt time.Time
}

// PageCache is a stale-while-revalidate cache of detail pages keyed by slug.
//
// A fresh entry is served as is. A stale entry is served immediately while a
// single background regeneration runs for that slug. A missing entry is
// loaded while the request waits, with concurrent first requests sharing one
// load. Failed regenerations keep the last good entry.
type PageCache struct {
	mu         sync.RWMutex
	entries    map[string]pageEntry
	refreshing map[string]bool

	group      singleflight.Group
	loader     PostLoader
	snapshots  *Store
	revalidate time.Duration
	now        func() time.Time
	log        Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPageCache returns an empty cache. Call Close to stop background work.
func NewPageCache(cfg PageCacheConfig) *PageCache {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New("pagecache")
	}
	if cfg.Revalidate <= 0 {
		cfg.Revalidate = PostPage.Revalidate
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PageCache{
		entries:    make(map[string]pageEntry),
		refreshing: make(map[string]bool),
		loader:     cfg.Loader,
		snapshots:  cfg.Snapshots,
		revalidate: cfg.Revalidate,
		now:        cfg.Now,
		log:        cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Get returns the page for slug. content.ErrNotFound is returned, and never
// cached, when the CMS has no such post.
func (c *PageCache) Get(ctx context.Context, slug string) (content.Post, CacheState, error) {
	c.mu.RLock()
	e, ok := c.entries[slug]
	c.mu.RUnlock()
	if ok {
		if c.now().Sub(e.generatedAt) < c.revalidate {
			return e.post, CacheHit, nil
		}
		c.regenerate(slug)
		return e.post, CacheStale, nil
	}

	post, err := c.load(ctx, slug)
	if err == nil {
		return post, CacheMiss, nil
	}
	if errors.Is(err, content.ErrNotFound) {
		return content.Post{}, CacheMiss, err
	}
	if snap, ok := c.snapshot(slug); ok {
		c.log.Warnf("pagecache: serving snapshot of %s from %s: %v", slug, snap.GeneratedAt.Format(time.RFC3339), err)
		return snap.Post, CacheSnapshot, nil
	}
	return content.Post{}, CacheMiss, err
}

// Contains reports whether slug has a cached page, fresh or stale.
func (c *PageCache) Contains(slug string) bool {
	c.mu.RLock()
	_, ok := c.entries[slug]
	c.mu.RUnlock()
	return ok
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// load generates slug once for all concurrent callers. The fetch outlives a
// cancelled caller so the others still get a result.
func (c *PageCache) load(ctx context.Context, slug string) (content.Post, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(slug, func() (interface{}, error) {
		return c.generate(ctx, slug)
	})
	if err != nil {
		return content.Post{}, err
	}
	return v.(content.Post), nil
}

func (c *PageCache) generate(ctx context.Context, slug string) (content.Post, error) {
	post, err := c.loader.GetPost(ctx, slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			c.evict(slug)
		}
		return content.Post{}, err
	}
	at := c.now()
	c.mu.Lock()
	c.entries[slug] = pageEntry{post: post, generatedAt: at}
	c.mu.Unlock()
	if c.snapshots != nil {
		if err := c.snapshots.SaveSnapshot(slug, post, at); err != nil {
			c.log.Warnf("pagecache: save snapshot %s: %v", slug, err)
		}
	}
	return post, nil
}

func (c *PageCache) evict(slug string) {
	c.mu.Lock()
	delete(c.entries, slug)
	c.mu.Unlock()
	if c.snapshots != nil {
		if err := c.snapshots.DeleteSnapshot(slug); err != nil {
			c.log.Warnf("pagecache: delete snapshot %s: %v", slug, err)
		}
	}
}

// regenerate starts a background reload of slug unless one is running.
func (c *PageCache) regenerate(slug string) {
	c.mu.Lock()
	if c.refreshing[slug] || c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.refreshing[slug] = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, slug)
			c.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(c.ctx, regenerateTimeout)
		defer cancel()
		_, err, _ := c.group.Do(slug, func() (interface{}, error) {
			return c.generate(ctx, slug)
		})
		switch {
		case err == nil:
		case errors.Is(err, content.ErrNotFound):
			c.log.Infof("pagecache: %s no longer exists, evicted", slug)
		case retryable(err):
			c.log.Warnf("pagecache: regenerate %s, keeping last good page: %v", slug, err)
		default:
			c.log.Errorf("pagecache: regenerate %s, keeping last good page: %v", slug, err)
		}
	}()
}

func (c *PageCache) snapshot(slug string) (Snapshot, bool) {
	if c.snapshots == nil {
		return Snapshot{}, false
	}
	snap, err := c.snapshots.GetSnapshot(slug)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			c.log.Warnf("pagecache: read snapshot %s: %v", slug, err)
		}
		return Snapshot{}, false
	}
	return snap, true
}

// Restore loads every stored snapshot as a stale entry, so the first request
// for each page is served at once and triggers a regeneration.
func (c *PageCache) Restore() (int, error) {
	if c.snapshots == nil {
		return 0, nil
	}
	snaps, err := c.snapshots.ListSnapshots()
	if err != nil {
		return 0, fmt.Errorf("pagecache: restore: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range snaps {
		if _, ok := c.entries[s.Slug]; ok {
			continue
		}
		c.entries[s.Slug] = pageEntry{post: s.Post}
		n++
	}
	return n, nil
}

// Prewarm generates every slug with bounded concurrency. Unknown slugs are
// skipped; other failures are logged and counted in the returned error.
func (c *PageCache) Prewarm(ctx context.Context, slugs []string) error {
	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(prewarmConcurrency)
	for _, slug := range slugs {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			_, err, _ := c.group.Do(slug, func() (interface{}, error) {
				return c.generate(ctx, slug)
			})
			if err != nil && !errors.Is(err, content.ErrNotFound) {
				c.log.Warnf("pagecache: prewarm %s: %v", slug, err)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("pagecache: prewarm: %d of %d pages failed", n, len(slugs))
	}
	return nil
}

// Wait blocks until running regenerations finish.
func (c *PageCache) Wait() {
	c.wg.Wait()
}

// Close cancels running regenerations and waits for them.
func (c *PageCache) Close() {
	c.mu.Lock()
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}

// retryable reports whether err is a CMS or transport failure that is
// likely to clear on the next request.
func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *sanity.Error
	return errors.As(err, &apiErr) && apiErr.Temporary()
}
