package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

const tracerName = "github.com/pfrederiksen/around-the-grounds/internal/coordinator"

// Config controls concurrency, timeouts and retries.
type Config struct {
	MaxConcurrent     int           // sources in flight at once
	TimeoutPerRequest time.Duration // bound on one fetch+parse attempt
	MaxRetries        int           // total attempts per source, including the first
	BackoffUnit       time.Duration // wait before the second attempt; doubles after
	WindowDays        int           // events from today through today+WindowDays are kept
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:     5,
		TimeoutPerRequest: 60 * time.Second,
		MaxRetries:        3,
		BackoffUnit:       time.Second,
		WindowDays:        7,
	}
}

// Recorder receives run metrics. *metrics.Recorder implements it.
type Recorder interface {
	Attempt(source, outcome string)
	Failure(source, kind string)
	Events(source string, n int)
	RunFinished(d time.Duration, at time.Time)
}

type nopRecorder struct{}

func (nopRecorder) Attempt(string, string)              {}
func (nopRecorder) Failure(string, string)              {}
func (nopRecorder) Events(string, int)                  {}
func (nopRecorder) RunFinished(time.Duration, time.Time) {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to the package-level logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(c *Coordinator) { c.metrics = r }
}

// WithClock sets the function used for "now" when stamping errors and
// computing the event window.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithSleep replaces the backoff wait. The function must return early with
// ctx's error when ctx is done.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) { c.sleep = sleep }
}

// WithDeps sets the collaborators handed to parser constructors.
func WithDeps(deps parser.Deps) Option {
	return func(c *Coordinator) { c.deps = deps }
}

// Coordinator runs sources concurrently. It may be reused; each Run starts
// with an empty error list.
type Coordinator struct {
	registry *parser.Registry
	session  *fetch.Session
	cfg      Config

	log     *logger.Logger
	metrics Recorder
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	deps    parser.Deps
	tracer  trace.Tracer

	mu     sync.Mutex
	errors []*SourceError
}

// New creates a Coordinator. Zero fields in cfg take their default values.
func New(registry *parser.Registry, session *fetch.Session, cfg Config, opts ...Option) *Coordinator {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.TimeoutPerRequest <= 0 {
		cfg.TimeoutPerRequest = def.TimeoutPerRequest
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = def.BackoffUnit
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = def.WindowDays
	}

	c := &Coordinator{
		registry: registry,
		session:  session,
		cfg:      cfg,
		log:      logger.Default(),
		metrics:  nopRecorder{},
		now:      time.Now,
		sleep:    sleepContext,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.deps.Logger == nil {
		c.deps.Logger = c.log
	}
	return c
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Errors returns the errors recorded by the last Run.
func (c *Coordinator) Errors() []*SourceError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*SourceError, len(c.errors))
	copy(out, c.errors)
	return out
}

// HasErrors reports whether the last Run recorded any errors.
func (c *Coordinator) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

type sourceResult struct {
	events []*event.Event
	err    *SourceError
}

// Run scrapes sources and returns the in-window events sorted by date and
// start time, plus one error per failed source in source order.
func (c *Coordinator) Run(ctx context.Context, sources []event.Source) ([]*event.Event, []*SourceError) {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()

	if len(sources) == 0 {
		return []*event.Event{}, []*SourceError{}
	}

	ctx, span := c.tracer.Start(ctx, "coordinator.run", trace.WithAttributes(
		attribute.Int("sources", len(sources)),
	))
	defer span.End()
	start := c.now()

	c.log.Info("Starting run", logger.Fields{
		"sources":        len(sources),
		"max_concurrent": c.cfg.MaxConcurrent,
		"max_retries":    c.cfg.MaxRetries,
	})

	results := make([]sourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrent)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = c.runSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	events := make([]*event.Event, 0)
	errs := make([]*SourceError, 0)
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		events = append(events, r.events...)
	}

	today := tz.DateOf(tz.ToReferenceNaive(c.now()))
	events = event.FilterWindow(events, today, c.cfg.WindowDays)
	event.SortChronologically(events)

	c.mu.Lock()
	c.errors = errs
	c.mu.Unlock()

	finished := c.now()
	c.metrics.RunFinished(finished.Sub(start), finished)
	span.SetAttributes(attribute.Int("events", len(events)), attribute.Int("errors", len(errs)))
	if len(errs) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d sources failed", len(errs)))
	}

	c.log.Info("Run complete", logger.Fields{
		"events": len(events),
		"errors": len(errs),
	})
	return events, errs
}

// runSource resolves and attempts one source. It never panics.
func (c *Coordinator) runSource(ctx context.Context, src event.Source) sourceResult {
	ctx, span := c.tracer.Start(ctx, "coordinator.source", trace.WithAttributes(
		attribute.String("source.key", src.Key),
		attribute.String("source.parser_type", src.ParserType),
	))
	defer span.End()

	log := c.log.With(logger.Fields{"source": src.Key})

	p, err := c.resolve(src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindConfiguration))
		return sourceResult{err: c.fail(log, src, KindConfiguration, err, 0)}
	}

	b := c.newBackOff()
	var last outcome
	attempts := 0
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			wait := b.NextBackOff()
			log.Warn("Retrying source", logger.Fields{
				"attempt": attempt,
				"kind":    string(last.kind),
				"wait":    wait.String(),
			})
			if err := c.sleep(ctx, wait); err != nil {
				break
			}
		}

		attempts = attempt
		out := c.attempt(ctx, p, src, attempt)
		c.metrics.Attempt(src.Key, out.label())

		switch out.tag {
		case tagSuccess:
			c.metrics.Events(src.Key, len(out.events))
			log.Info("Source complete", logger.Fields{"attempt": attempt, "events": len(out.events)})
			return sourceResult{events: out.events}
		case tagFatal:
			span.RecordError(out.err)
			span.SetStatus(codes.Error, string(out.kind))
			return sourceResult{err: c.fail(log, src, out.kind, out.err, attempt)}
		}

		last = out
		if ctx.Err() != nil {
			break
		}
	}

	span.RecordError(last.err)
	span.SetStatus(codes.Error, string(last.kind))
	return sourceResult{err: c.fail(log, src, last.kind, last.err, attempts)}
}

// resolve looks up and constructs the parser for src. A panicking constructor
// is reported as an error.
func (c *Coordinator) resolve(src event.Source) (p parser.Parser, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, &panicError{value: r}
		}
	}()
	return c.registry.New(src, c.deps)
}

// attempt runs one bounded parse. The parser runs in its own goroutine so the
// timeout holds even when a parser ignores ctx.
func (c *Coordinator) attempt(ctx context.Context, p parser.Parser, src event.Source, n int) outcome {
	ctx, span := c.tracer.Start(ctx, "coordinator.attempt", trace.WithAttributes(
		attribute.String("source.key", src.Key),
		attribute.Int("attempt", n),
	))
	defer span.End()

	actx, cancel := context.WithTimeout(ctx, c.cfg.TimeoutPerRequest)
	defer cancel()

	type result struct {
		events []*event.Event
		err    error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("Parser panicked", logger.Fields{
					"source": src.Key,
					"stack":  string(debug.Stack()),
				}, fmt.Errorf("%v", r))
				done <- result{err: &panicError{value: r}}
			}
		}()
		events, err := p.Parse(actx, c.session)
		done <- result{events: events, err: err}
	}()

	// The parser has been told to stop once actx is done, but the next
	// attempt must not start until it actually returns.
	var r result
	select {
	case r = <-done:
	case <-actx.Done():
		select {
		case r = <-done:
		default:
			c.log.Warn("Waiting for parser to stop", logger.Fields{
				"source":  src.Key,
				"attempt": n,
			})
			<-done
			r = result{err: actx.Err()}
		}
	}

	if r.err == nil {
		span.SetAttributes(attribute.Int("events", len(r.events)))
		return success(r.events)
	}

	kind := classify(r.err)
	if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		kind = KindNetworkTimeout
		r.err = fmt.Errorf("attempt exceeded %s: %w", c.cfg.TimeoutPerRequest, r.err)
	}
	span.RecordError(r.err)
	span.SetStatus(codes.Error, string(kind))
	return failure(kind, r.err)
}

func (c *Coordinator) fail(log *logger.Logger, src event.Source, kind Kind, err error, attempts int) *SourceError {
	msg := "unknown failure"
	if err != nil {
		msg = err.Error()
	}
	c.metrics.Failure(src.Key, string(kind))
	log.Error("Source failed", logger.Fields{
		"kind":     string(kind),
		"attempts": attempts,
	}, err)
	return &SourceError{
		Source:     src,
		Kind:       kind,
		Message:    msg,
		Attempts:   attempts,
		OccurredAt: c.now(),
		Err:        err,
	}
}

// newBackOff returns a schedule of unit, 2*unit, 4*unit, ... with no jitter
// and no overall limit; the attempt count bounds it instead.
func (c *Coordinator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffUnit
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = math.MaxInt64
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
