package cartogram

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	"github.com/matzehuels/cartogram/pkg/geo"
	"github.com/matzehuels/cartogram/pkg/observability"
)

const (
	// DefaultMaxIterations is the iteration budget used when none is given.
	DefaultMaxIterations = 10

	// DefaultMaxAverageError is the convergence threshold used when none is
	// given.
	DefaultMaxAverageError = 0.1
)

// Status tells why a run stopped.
type Status int

const (
	// StatusConverged means the average error reached the threshold.
	StatusConverged Status = iota

	// StatusExhausted means the iteration budget ran out first. The error
	// may still exceed the threshold.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusExhausted:
		return "exhausted"
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "converged":
		return StatusConverged, true
	case "exhausted":
		return StatusExhausted, true
	}
	return 0, false
}

// Progress is reported after every completed iteration.
type Progress struct {
	// Iteration is the number of passes completed so far, starting at 1.
	Iteration int

	// AverageError is recomputed from the geometry produced by this pass.
	AverageError float64

	// Duration is the wall time of this pass alone.
	Duration time.Duration
}

// Observer receives progress reports.
type Observer interface {
	OnIteration(Progress)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Progress)

// OnIteration calls f(p).
func (f ObserverFunc) OnIteration(p Progress) { f(p) }

// Options bound and instrument a run. Values are used as given: zero
// MaxIterations performs no pass and zero MaxAverageError demands an exact
// fit. Use DefaultOptions for the usual bounds.
type Options struct {
	MaxIterations   int
	MaxAverageError float64

	// Workers is the number of goroutines displacing geometries within one
	// iteration. Values below two run sequentially.
	Workers int

	Observer Observer
	Logger   *log.Logger
}

// DefaultOptions returns 10 iterations, a 0.1 error threshold and
// sequential execution.
func DefaultOptions() Options {
	return Options{
		MaxIterations:   DefaultMaxIterations,
		MaxAverageError: DefaultMaxAverageError,
		Workers:         1,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Result describes a finished run.
type Result struct {
	// Collection is the transformed input.
	Collection *geo.Collection

	Iterations   int
	InitialError float64
	AverageError float64
	Status       Status
	Duration     time.Duration
}

// Transform turns c into a cartogram in place.
//
// The collection is validated and normalized, then displaced until the
// average error is at most opts.MaxAverageError or opts.MaxIterations
// passes have run, and normalized once more. Invalid input is rejected
// with an INVALID_* error before any geometry is touched. ctx is checked
// between iterations, and by each worker when opts.Workers > 1. On
// cancellation the geometry reflects the last completed pass and ctx.Err()
// is returned.
func Transform(ctx context.Context, c *geo.Collection, opts Options) (*Result, error) {
	if err := cerrors.ValidateIterationBounds(opts.MaxIterations, opts.MaxAverageError); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := opts.logger()
	hooks := observability.Cartogram()
	start := time.Now()

	c.Normalize()
	state := Derive(c, 0)
	hooks.OnRunStart(ctx, c.Len(), c.VertexCount())
	logger.Debug("starting cartogram",
		"features", c.Len(),
		"vertices", c.VertexCount(),
		"multipolygons", c.HasMultiPolygons(),
		"average_error", state.AverageError)

	result := &Result{Collection: c, InitialError: state.AverageError}

	iteration := 0
	var err error
	for iteration < opts.MaxIterations && state.AverageError > opts.MaxAverageError {
		if err = ctx.Err(); err != nil {
			break
		}

		passStart := time.Now()
		if err = displaceAll(ctx, c, state, opts.Workers); err != nil {
			break
		}
		iteration++
		state = Derive(c, iteration)

		p := Progress{Iteration: iteration, AverageError: state.AverageError, Duration: time.Since(passStart)}
		if opts.Observer != nil {
			opts.Observer.OnIteration(p)
		}
		hooks.OnIteration(ctx, p.Iteration, p.AverageError, p.Duration)
		logger.Debug("iteration complete", "iteration", p.Iteration, "average_error", p.AverageError, "duration", p.Duration)
	}

	c.Normalize()

	result.Iterations = iteration
	result.AverageError = state.AverageError
	result.Duration = time.Since(start)
	result.Status = StatusConverged
	if state.AverageError > opts.MaxAverageError {
		result.Status = StatusExhausted
	}

	hooks.OnRunComplete(ctx, result.Iterations, result.AverageError, result.Status.String(), result.Duration, err)
	if err != nil {
		return nil, err
	}

	logger.Debug("cartogram finished",
		"status", result.Status,
		"iterations", result.Iterations,
		"average_error", result.AverageError,
		"duration", result.Duration)
	return result, nil
}

// displaceAll applies one iteration's displacement to every geometry and
// replaces them in c. All geometries read the same frozen state. With
// several workers a cancelled ctx stops the pass and c is left as it was.
func displaceAll(ctx context.Context, c *geo.Collection, s *State, workers int) error {
	d := NewDisplacer(s.Features, s.ReductionFactor)
	out := make([]orb.Geometry, c.Len())

	if workers < 2 {
		for i, g := range c.Geometries {
			out[i] = d.Geometry(g)
		}
		return c.Replace(out)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, geom := range c.Geometries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = d.Geometry(geom)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return c.Replace(out)
}
