package sanitypress

import (
	"strconv"
	"time"
)

// Fallback decides what a detail route does for a slug that was not
// generated ahead of time.
type Fallback int

const (
	// FallbackBlocking generates the page on the first request and caches it.
	FallbackBlocking Fallback = iota
	// FallbackNone answers 404 for anything not generated at startup.
	FallbackNone
)

func (f Fallback) String() string {
	switch f {
	case FallbackBlocking:
		return "blocking"
	case FallbackNone:
		return "none"
	default:
		return "Fallback(" + strconv.Itoa(int(f)) + ")"
	}
}

// DetailPage declares how a statically generated detail route is cached.
type DetailPage struct {
	Revalidate time.Duration // a cached page older than this is served stale and regenerated
	Fallback   Fallback
}

// PostPage is the declaration of /post/{slug}.
var PostPage = DetailPage{
	Revalidate: 60 * time.Second,
	Fallback:   FallbackBlocking,
}

// CacheState reports how PageCache answered a lookup. It is sent to clients
// in the X-Cache header.
type CacheState int

const (
	CacheMiss CacheState = iota
	CacheHit
	CacheStale
	CacheSnapshot
)

func (s CacheState) String() string {
	switch s {
	case CacheMiss:
		return "MISS"
	case CacheHit:
		return "HIT"
	case CacheStale:
		return "STALE"
	case CacheSnapshot:
		return "SNAPSHOT"
	default:
		return "CacheState(" + strconv.Itoa(int(s)) + ")"
	}
}
