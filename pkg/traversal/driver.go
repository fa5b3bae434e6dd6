// Package traversal implements the pipe interpreter: a Program of stages is
// evaluated lazily by a Driver that moves a cursor back and forth across the
// stages, following the gremlin/pull/done signals they return.
package traversal

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/pipegraph/internal/telemetry"
	"github.com/openfga/pipegraph/pkg/graph"
	"github.com/openfga/pipegraph/pkg/logger"
)

var tracer = otel.Tracer("pipegraph/pkg/traversal")

// DriverOpt configures a Driver.
type DriverOpt func(*Driver)

// WithLogger sets the logger used for configuration issues and fatal errors.
func WithLogger(l logger.Logger) DriverOpt {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithRunID overrides the random id attached to every log line of the run.
func WithRunID(id string) DriverOpt {
	return func(d *Driver) {
		d.runID = id
	}
}

// WithMaxResults makes the Driver stop after n results. Zero means unbounded.
func WithMaxResults(n int) DriverOpt {
	return func(d *Driver) {
		d.maxResults = n
	}
}

// Driver evaluates a Program lazily. Each call to Next resumes exactly where
// the previous one stopped; no stage runs unless a result is requested.
// A Driver is not safe for concurrent use.
type Driver struct {
	graph      graph.Graph
	program    *Program
	logger     logger.Logger
	runID      string
	maxResults int

	pc   int
	last *Gremlin

	// every stage at or below exhausted has returned done or sits upstream of
	// one that has; it will never be invoked again.
	exhausted int

	results int
	issues  []error
	err     error
}

// NewDriver binds p to g. A Program can be bound to a single Driver.
func NewDriver(g graph.Graph, p *Program, opts ...DriverOpt) (*Driver, error) {
	if p.bound {
		return nil, ErrProgramConsumed
	}
	p.bound = true

	d := &Driver{
		graph:     g,
		program:   p,
		logger:    logger.NewNoopLogger(),
		runID:     uuid.NewString(),
		pc:        len(p.stages) - 1,
		exhausted: -1,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.logger = d.logger.With(zap.String("run_id", d.runID))
	return d, nil
}

// RunID returns the id attached to the run's log lines.
func (d *Driver) RunID() string {
	return d.runID
}

// Next returns the next result, ErrIteratorDone once there are no more, or
// the fatal error that aborted the traversal. Context errors are returned as
// is and leave the Driver resumable.
func (d *Driver) Next(ctx context.Context) (*Gremlin, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.maxResults > 0 && d.results >= d.maxResults {
		return nil, ErrIteratorDone
	}

	stages := d.program.stages
	for {
		if d.pc < 0 {
			return nil, ErrIteratorDone
		}

		if d.pc == len(stages) {
			g := d.last
			d.last = nil
			d.pc = len(stages) - 1
			d.results++
			traversalResultCounter.Inc()
			return g, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if d.pc <= d.exhausted {
			d.last = nil
			d.pc--
			continue
		}

		stage := stages[d.pc]
		stage.invocations.Inc()
		out, err := stage.handler(ctx, d.graph, stage.step.Args, d.last, &stage.state)
		d.collectIssues(stage)
		if err != nil {
			return nil, d.fail(stage, err)
		}

		switch out.Signal {
		case SignalGremlin:
			if out.Gremlin == nil {
				return nil, d.fail(stage, ErrInvalidOutcome)
			}
			d.last = out.Gremlin
			d.pc++
		case SignalPull:
			d.last = nil
			d.pc--
		case SignalDone:
			d.exhausted = max(d.exhausted, d.pc)
			d.last = nil
			d.pc--
		default:
			return nil, d.fail(stage, ErrInvalidOutcome)
		}
	}
}

func (d *Driver) fail(stage *Stage, cause error) error {
	d.err = &StageError{
		Stage:    stage.index,
		Pipetype: stage.step.Pipetype,
		Cause:    cause,
	}
	d.last = nil
	traversalErrorCounter.Inc()
	d.logger.Error("traversal aborted",
		zap.Int("stage", stage.index),
		zap.String("pipetype", stage.step.Pipetype),
		zap.Error(cause),
	)
	return d.err
}

func (d *Driver) collectIssues(stage *Stage) {
	for _, cause := range stage.state.issues[stage.reported:] {
		issue := &ConfigurationError{
			Stage:    stage.index,
			Pipetype: stage.step.Pipetype,
			Cause:    cause,
		}
		d.issues = append(d.issues, issue)
		d.logger.Warn("stage configuration error",
			zap.Int("stage", stage.index),
			zap.String("pipetype", stage.step.Pipetype),
			zap.Error(cause),
		)
	}
	stage.reported = len(stage.state.issues)
}

// Issues returns the configuration errors reported so far.
func (d *Driver) Issues() []error {
	return d.issues
}

// All returns the remaining results as a sequence. Iteration stops at the
// first error, which is yielded with a nil gremlin; exhaustion ends it silently.
func (d *Driver) All(ctx context.Context) iter.Seq2[*Gremlin, error] {
	return func(yield func(*Gremlin, error) bool) {
		for {
			g, err := d.Next(ctx)
			if errors.Is(err, ErrIteratorDone) {
				return
			}
			if !yield(g, err) || err != nil {
				return
			}
		}
	}
}

// Run drives p over g to exhaustion and returns every result in order.
func Run(ctx context.Context, g graph.Graph, p *Program, opts ...DriverOpt) ([]*Gremlin, error) {
	ctx, span := tracer.Start(ctx, "traversal.Run", trace.WithAttributes(
		attribute.Int("stages", p.Len()),
	))
	defer span.End()

	d, err := NewDriver(g, p, opts...)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("run_id", d.runID))

	var results []*Gremlin
	for gremlin, err := range d.All(ctx) {
		if err != nil {
			telemetry.TraceError(span, err)
			return nil, err
		}
		results = append(results, gremlin)
	}

	span.SetAttributes(
		attribute.Int("results", len(results)),
		attribute.Int("issues", len(d.issues)),
	)
	d.logger.Debug("traversal finished",
		zap.String("program", p.String()),
		zap.Int("results", len(results)),
		zap.Int("issues", len(d.issues)),
	)
	return results, nil
}
