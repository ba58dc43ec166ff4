// Package engine evaluates method trees against one image, memoizing the
// moving standard deviations each tree asks for.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Fepozopo/stdcontrast/pkg/colour"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
	"github.com/Fepozopo/stdcontrast/pkg/stats"
)

type key struct {
	window, minCount int
}

// Cache owns one source image and the statistics computed from it. A Cache
// is not safe for concurrent use; use one per image and goroutine.
type Cache struct {
	name string
	src  plane.Plane
	log  *zap.Logger

	native map[key]plane.Plane

	// HSV encoding of src and the statistics computed on it; built on first use
	altSrc   *plane.Plane
	altStats map[key]plane.Plane

	hits, misses int
}

// Option configures a Cache.
type Option func(*Cache)

// WithScale resamples the source by factor before anything is computed.
func WithScale(factor float64) Option {
	return func(c *Cache) {
		c.Rescale(factor)
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithName labels the cache in log output, usually with the input path.
func WithName(name string) Option {
	return func(c *Cache) {
		c.name = name
	}
}

// NewCache returns a cache for src. src must not be modified afterwards.
func NewCache(src plane.Plane, opts ...Option) *Cache {
	c := &Cache{
		src: src,
		log: zap.NewNop(),
	}
	c.reset()
	for _, opt := range opts {
		opt(c)
	}
	c.log.Info("cache created",
		zap.String("input", c.name),
		zap.Stringer("shape", c.src.Shape()))
	return c
}

func (c *Cache) reset() {
	c.native = map[key]plane.Plane{}
	c.altStats = map[key]plane.Plane{}
	c.altSrc = nil
}

// Rescale resamples the source with a Lanczos filter and drops every cached
// statistic. A factor of 1 or less than or equal to 0 is ignored.
func (c *Cache) Rescale(factor float64) {
	if factor == 1 || factor <= 0 {
		return
	}
	c.src = plane.Scale(c.src, factor)
	c.reset()
	c.log.Debug("source rescaled",
		zap.Float64("factor", factor),
		zap.Stringer("shape", c.src.Shape()))
}

// Source returns the (possibly rescaled) source image.
func (c *Cache) Source() plane.Plane { return c.src }

// Name returns the label given with WithName.
func (c *Cache) Name() string { return c.name }

// Bytes is the size of the source pixel buffer.
func (c *Cache) Bytes() int { return c.src.Bytes() }

// Hits counts statistic lookups answered from the cache.
func (c *Cache) Hits() int { return c.hits }

// Misses counts statistics that had to be computed.
func (c *Cache) Misses() int { return c.misses }

// Len is the number of statistics held across both encodings.
func (c *Cache) Len() int { return len(c.native) + len(c.altStats) }

// Stdev returns the quantized moving standard deviation of the source.
func (c *Cache) Stdev(window, minCount int) (plane.Plane, error) {
	return c.lookup(c.native, c.src, false, window, minCount)
}

// AltStdev is Stdev computed on the HSV encoding of the source.
func (c *Cache) AltStdev(window, minCount int) (plane.Plane, error) {
	alt, err := c.alternate()
	if err != nil {
		return plane.Plane{}, err
	}
	return c.lookup(c.altStats, alt, true, window, minCount)
}

func (c *Cache) lookup(m map[key]plane.Plane, src plane.Plane, hsv bool, window, minCount int) (plane.Plane, error) {
	k := key{window: window, minCount: minCount}
	if p, ok := m[k]; ok {
		c.hits++
		return p, nil
	}
	start := time.Now()
	p, err := stdevPlane(src, window, minCount)
	if err != nil {
		return plane.Plane{}, err
	}
	c.misses++
	m[k] = p
	c.log.Debug("statistic computed",
		zap.String("input", c.name),
		zap.Int("window", window),
		zap.Int("min_count", minCount),
		zap.Bool("hsv", hsv),
		zap.Duration("took", time.Since(start)))
	return p, nil
}

// alternate returns the HSV encoding of the source, building it once.
func (c *Cache) alternate() (plane.Plane, error) {
	if c.altSrc != nil {
		return *c.altSrc, nil
	}
	hsv, err := colour.ToHSV(plane.Normalize(c.src))
	if err != nil {
		return plane.Plane{}, fmt.Errorf("hsv encoding: %w", err)
	}
	alt := plane.Quantize(hsv)
	c.altSrc = &alt
	return alt, nil
}

func stdevPlane(src plane.Plane, window, minCount int) (plane.Plane, error) {
	return plane.Wrap(func(in []plane.Field) (plane.Field, error) {
		return stats.MovingStdev(in[0], window, minCount)
	})([]plane.Plane{src})
}
