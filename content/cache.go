package content

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of results a Cache keeps.
const DefaultCacheSize = 1024

// DefaultCacheTTL bounds how long a result may reflect an older repository
// snapshot.
const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes renders by content hash and viewer scope. A render is a
// pure function of both given a consistent repository snapshot, so entries
// expire after TTL and callers that mutate the repository should Purge.
type Cache struct {
	// TTL is how long an entry is served. Zero or negative keeps entries
	// until they are evicted or purged.
	TTL time.Duration

	renderer *Renderer
	size     int
	now      func() time.Time

	mu    sync.Mutex
	ll    *list.List
	items map[cacheKey]*list.Element

	group singleflight.Group
}

type cacheKey struct {
	content uint64
	scope   string
}

type cacheEntry struct {
	key    cacheKey
	result *Result
	stored time.Time
}

// NewCache wraps renderer with an LRU of size entries.
func NewCache(renderer *Renderer, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		TTL:      DefaultCacheTTL,
		renderer: renderer,
		size:     size,
		now:      time.Now,
		ll:       list.New(),
		items:    make(map[cacheKey]*list.Element),
	}
}

// Render returns a cached result or renders once, collapsing concurrent
// identical calls. Errors are never cached. The shared render is detached
// from any one caller's cancellation; each caller still returns as soon as
// its own ctx is done.
func (c *Cache) Render(ctx context.Context, source string, rc Context) (*Result, error) {
	key := cacheKey{content: hashOf(source), scope: scopeKey(rc)}
	if res, ok := c.get(key); ok {
		c.renderer.metrics.cacheLookup(true)
		return res.clone(), nil
	}
	c.renderer.metrics.cacheLookup(false)

	flight := strconv.FormatUint(key.content, 16) + "|" + key.scope
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		res, err := c.renderer.Render(flightCtx, source, rc)
		if err != nil {
			return nil, err
		}
		c.put(key, res)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		return out.Val.(*Result).clone(), nil
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[cacheKey]*list.Element)
}

func (c *Cache) get(key cacheKey) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.expired(entry) {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.result, true
}

func (c *Cache) expired(entry *cacheEntry) bool {
	return c.TTL > 0 && c.now().Sub(entry.stored) >= c.TTL
}

func (c *Cache) put(key cacheKey, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := c.now()
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.result, entry.stored = res, stored
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, result: res, stored: stored})
	for c.ll.Len() > c.size {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func hashOf(source string) uint64 { return xxhash.Sum64String(source) }

// scopeKey captures every part of the render context the output depends on.
func scopeKey(rc Context) string {
	var b strings.Builder
	if c := rc.Course; c != nil {
		fmt.Fprintf(&b, "c=%d/%s/%s", c.ID, c.PublicID, c.State)
	}
	if p := rc.Participation; p != nil {
		fmt.Fprintf(&b, "|p=%d/%s/%s", p.ID, p.PublicID, p.Role)
	}
	if v := rc.Conversation; v != nil {
		fmt.Fprintf(&b, "|v=%d/%s", v.ID, v.PublicID)
	}
	if m := rc.Message; m != nil {
		fmt.Fprintf(&b, "|m=%d/%s", m.ID, m.PublicID)
		if m.AuthorID != nil {
			fmt.Fprintf(&b, "/a=%d", *m.AuthorID)
		}
	}
	return b.String()
}
