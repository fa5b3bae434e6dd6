package expr

import (
	"github.com/Yiling-J/theine-go"
	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultMaxCacheSize = 1000

var (
	compileCacheTotalCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_expr_compile_cache_total_count",
		Help: "The total number of expression compilations requested through a Compiler.",
	})

	compileCacheHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_expr_compile_cache_hit_count",
		Help: "The total number of expression compilations served from the cache.",
	})
)

// Compiler compiles expressions and keeps the resulting predicates in a
// bounded cache shared by every query that uses it.
type Compiler struct {
	maxCacheSize int64
	cache        *theine.Cache[uint64, *Predicate]
}

// CompilerOpt configures a Compiler.
type CompilerOpt func(*Compiler)

// WithMaxCacheSize sets the number of compiled predicates kept. A size of zero
// disables caching.
func WithMaxCacheSize(size int64) CompilerOpt {
	return func(c *Compiler) {
		c.maxCacheSize = size
	}
}

// NewCompiler constructs a Compiler. Close must be called to release the cache.
func NewCompiler(opts ...CompilerOpt) (*Compiler, error) {
	c := &Compiler{
		maxCacheSize: defaultMaxCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxCacheSize > 0 {
		cache, err := theine.NewBuilder[uint64, *Predicate](c.maxCacheSize).Build()
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	return c, nil
}

// Compile returns the predicate for source, compiling it on a cache miss.
// Compilation failures are not cached.
func (c *Compiler) Compile(source string) (*Predicate, error) {
	if c.cache == nil {
		return Compile(source)
	}

	compileCacheTotalCounter.Inc()

	key := xxhash.Sum64String(source)
	if p, ok := c.cache.Get(key); ok && p.source == source {
		compileCacheHitCounter.Inc()
		return p, nil
	}

	p, err := Compile(source)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, p, 1)
	return p, nil
}

// Close releases the cache. The Compiler keeps working without it.
func (c *Compiler) Close() {
	if c.cache != nil {
		c.cache.Close()
		c.cache = nil
	}
}
