package engine

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/stdcontrast/pkg/method"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// PrecomputeLimit is the source size from which Precompute does nothing.
const PrecomputeLimit = 100_000_000

// Mapper runs fn once for every index in [0, n) and returns the first error.
// Implementations stop scheduling new calls once ctx is done or a call fails.
type Mapper interface {
	Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Sequential runs every call on the calling goroutine.
type Sequential struct{}

func (Sequential) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Pool runs calls on up to Workers goroutines; zero or less means one per CPU.
type Pool struct {
	Workers int
}

func (p Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

type job struct {
	key
	hsv bool
}

// Precompute computes every window in ws that is not cached yet through m
// and stores the results once all of them have finished. Sources of
// PrecomputeLimit bytes or more are left to be computed lazily. A nil m runs
// sequentially.
func (c *Cache) Precompute(ctx context.Context, m Mapper, ws method.WindowSet) error {
	if m == nil {
		m = Sequential{}
	}
	if c.Bytes() >= PrecomputeLimit {
		c.log.Debug("precompute skipped",
			zap.String("input", c.name),
			zap.Int("bytes", c.Bytes()))
		return nil
	}

	var jobs []job
	for _, w := range ws.Native {
		k := key{window: w, minCount: 1}
		if _, ok := c.native[k]; !ok {
			jobs = append(jobs, job{key: k})
		}
	}
	var alt plane.Plane
	if len(ws.Alternate) > 0 {
		var err error
		if alt, err = c.alternate(); err != nil {
			return err
		}
		for _, w := range ws.Alternate {
			k := key{window: w, minCount: 1}
			if _, ok := c.altStats[k]; !ok {
				jobs = append(jobs, job{key: k, hsv: true})
			}
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	start := time.Now()
	results := make([]plane.Plane, len(jobs))
	err := m.Map(ctx, len(jobs), func(_ context.Context, i int) error {
		src := c.src
		if jobs[i].hsv {
			src = alt
		}
		p, err := stdevPlane(src, jobs[i].window, jobs[i].minCount)
		if err != nil {
			return err
		}
		results[i] = p
		return nil
	})
	if err != nil {
		return err
	}

	for i, j := range jobs {
		if j.hsv {
			c.altStats[j.key] = results[i]
		} else {
			c.native[j.key] = results[i]
		}
		c.misses++
	}
	c.log.Debug("statistics precomputed",
		zap.String("input", c.name),
		zap.Int("count", len(jobs)),
		zap.Duration("took", time.Since(start)))
	return nil
}
