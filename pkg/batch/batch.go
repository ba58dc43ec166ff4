// Package batch applies named methods to many images, one cache per image.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Fepozopo/stdcontrast/pkg/engine"
	"github.com/Fepozopo/stdcontrast/pkg/imageio"
	"github.com/Fepozopo/stdcontrast/pkg/method"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// Sink receives every output plane. The default writes files next to the input.
type Sink func(src imageio.Source, m method.Named, out plane.Plane) error

// Options configures a Run.
type Options struct {
	// Workers is the number of images processed at once. Zero or one runs
	// sequentially; a negative value uses one worker per CPU.
	Workers int
	// Precompute computes every window of an image up front through a Pool.
	Precompute bool
	// Scale resamples each image before processing; 0 or 1 leaves it alone.
	Scale float64
	// ModifyFilename writes outputs to Output/<stem>_<method><ext>.
	ModifyFilename bool
	Mode           imageio.Mode
	Logger         *zap.Logger
	Sink           Sink
}

// Result summarizes a Run.
type Result struct {
	Written int
	Failed  []Failure
}

// Failure records a method that could not be produced for an image.
type Failure struct {
	Source string
	Method string
	Err    error
}

func (f Failure) Error() string {
	if f.Method == "" {
		return fmt.Sprintf("%s: %v", f.Source, f.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", f.Source, f.Method, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Run applies every method to every source. A failing image or method is
// logged, recorded in the result and skipped; its siblings still run. The
// returned error is only non-nil when ctx ends the run early.
func Run(ctx context.Context, sources []imageio.Source, methods []method.Named, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = fileSink(opts.ModifyFilename)
	}

	workers := opts.Workers
	switch {
	case workers < 0:
		workers = runtime.NumCPU()
	case workers == 0:
		workers = 1
	}

	var (
		mu  sync.Mutex
		res Result
	)
	record := func(written int, failures []Failure) {
		mu.Lock()
		defer mu.Unlock()
		res.Written += written
		res.Failed = append(res.Failed, failures...)
	}

	trees := make([]method.Node, len(methods))
	for i, m := range methods {
		trees[i] = m.Node
	}
	windows := method.Windows(trees...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		src := src
		g.Go(func() error {
			written, failures := processOne(gctx, src, methods, windows, opts, sink, log)
			record(written, failures)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func processOne(ctx context.Context, src imageio.Source, methods []method.Named, windows method.WindowSet, opts Options, sink Sink, log *zap.Logger) (int, []Failure) {
	img, err := src.Open(opts.Mode)
	if err != nil {
		log.Warn("image skipped", zap.String("input", src.Path), zap.Error(err))
		return 0, []Failure{{Source: src.Path, Err: err}}
	}
	cache := engine.NewCache(img,
		engine.WithLogger(log),
		engine.WithName(src.Path),
		engine.WithScale(opts.Scale))

	if opts.Precompute {
		if err := cache.Precompute(ctx, engine.Pool{}, windows); err != nil && !errors.Is(err, context.Canceled) {
			// evaluation will hit the same error per method and report it there
			log.Debug("precompute failed", zap.String("input", src.Path), zap.Error(err))
		}
	}

	var (
		written  int
		failures []Failure
	)
	for _, m := range methods {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		out, err := cache.Apply(m.Node)
		if err == nil {
			err = sink(src, m, out)
		}
		if err != nil {
			log.Warn("method failed",
				zap.String("input", src.Path),
				zap.String("method", m.Name),
				zap.Error(err))
			failures = append(failures, Failure{Source: src.Path, Method: m.Name, Err: err})
			continue
		}
		written++
		log.Info("method written",
			zap.String("input", src.Path),
			zap.String("method", m.Name),
			zap.Duration("took", time.Since(start)))
	}
	log.Debug("image done",
		zap.String("input", src.Path),
		zap.Int("hits", cache.Hits()),
		zap.Int("misses", cache.Misses()))
	return written, failures
}

func fileSink(modifyFilename bool) Sink {
	return func(src imageio.Source, m method.Named, out plane.Plane) error {
		return imageio.Save(imageio.OutputPath(src.Path, m.Name, modifyFilename), out)
	}
}

// Sources wraps file paths as sources.
func Sources(paths []string) []imageio.Source {
	out := make([]imageio.Source, len(paths))
	for i, p := range paths {
		out[i] = imageio.FromPath(p)
	}
	return out
}
