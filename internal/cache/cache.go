package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-day-planner/config"
)

const (
	BackendMemory    = "memory"
	BackendRistretto = "ristretto"

	defaultTTL = 5 * time.Minute
)

// Key is a structural cache key. Two searches with the same query, bias and
// filters share an entry no matter how the filter map was built.
type Key struct {
	Namespace    string
	Query        string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Filters      map[string]string
}

func (k Key) canonical() string {
	var b strings.Builder
	b.WriteString(k.Namespace)
	b.WriteByte(0)
	b.WriteString(strings.ToLower(strings.TrimSpace(k.Query)))
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(k.Latitude, 'f', 5, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(k.Longitude, 'f', 5, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(k.RadiusMeters, 'f', 0, 64))

	names := make([]string, 0, len(k.Filters))
	for name := range k.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(k.Filters[name])
	}
	return b.String()
}

// Hash returns the xxhash of the canonical key.
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(k.canonical())
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%016x", k.Namespace, k.Hash())
}

// Cache stores immutable values for a bounded time.
type Cache[V any] interface {
	Get(key Key) (V, bool)
	Set(key Key, value V)
}

// New builds the backend selected in cfg.
func New[V any](cfg config.CacheConfig) (Cache[V], error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	switch cfg.Backend {
	case BackendRistretto:
		return NewRistrettoCache[V](cfg.MaxCost, ttl)
	case BackendMemory, "":
		return NewMemoryCache[V](ttl, cfg.CleanupInterval), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type MemoryCache[V any] struct {
	c *gocache.Cache
}

func NewMemoryCache[V any](ttl, cleanup time.Duration) *MemoryCache[V] {
	if cleanup <= 0 {
		cleanup = 2 * ttl
	}
	return &MemoryCache[V]{c: gocache.New(ttl, cleanup)}
}

func (m *MemoryCache[V]) Get(key Key) (V, bool) {
	var zero V
	raw, found := m.c.Get(key.String())
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (m *MemoryCache[V]) Set(key Key, value V) {
	m.c.Set(key.String(), value, gocache.DefaultExpiration)
}

// RistrettoCache bounds the number of entries as well as their age.
type RistrettoCache[V any] struct {
	c   *ristretto.Cache[uint64, V]
	ttl time.Duration
}

func NewRistrettoCache[V any](maxEntries int64, ttl time.Duration) (*RistrettoCache[V], error) {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, V]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	return &RistrettoCache[V]{c: c, ttl: ttl}, nil
}

func (r *RistrettoCache[V]) Get(key Key) (V, bool) {
	return r.c.Get(key.Hash())
}

func (r *RistrettoCache[V]) Set(key Key, value V) {
	r.c.SetWithTTL(key.Hash(), value, 1, r.ttl)
}

// Wait blocks until buffered writes are visible to Get.
func (r *RistrettoCache[V]) Wait() { r.c.Wait() }

func (r *RistrettoCache[V]) Close() { r.c.Close() }
