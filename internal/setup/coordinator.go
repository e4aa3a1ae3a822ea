// Package setup brings an algorithm online against a live brokerage account.
//
// Setup runs validation, bounded initialization, driver resolution, the handshake and
// account reconciliation in that order. Every fault is captured in the run's ErrorList;
// the run succeeded exactly when that list is empty.
package setup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/isolate"
	"livetrade-go/internal/job"
	"livetrade-go/internal/metrics"
	"livetrade-go/internal/reconcile"
	"livetrade-go/internal/runlog"
	"livetrade-go/internal/status"
	"livetrade-go/internal/strategy"
	"livetrade-go/internal/util"
)

const (
	DefaultInitTimeout    = 10 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	storeTimeout          = 5 * time.Second
)

// Resolver finds the driver factory for a brokerage name.
type Resolver interface {
	Resolve(name string) (brokerage.Factory, error)
}

// Syncer merges brokerage state into an algorithm.
type Syncer interface {
	Sync(ctx context.Context, src reconcile.Source, alg strategy.Algorithm) error
}

// Deps are the collaborators a Coordinator drives. Store may be nil.
type Deps struct {
	Resolver   Resolver
	Reporter   status.Reporter
	Reconciler Syncer
	Store      runlog.Store
}

// Config bounds the blocking steps.
type Config struct {
	InitTimeout    time.Duration
	ConnectTimeout time.Duration
}

// Result is the outcome of one Setup call.
type Result struct {
	JobID         string
	State         State
	Errors        []string
	Brokerage     brokerage.Brokerage
	Dispatcher    *Dispatcher
	StartingValue decimal.Decimal
	StartedAt     time.Time
}

// OK reports whether setup collected no errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Close stops the dispatcher and releases the brokerage connection.
func (r Result) Close() error {
	if r.Dispatcher != nil {
		r.Dispatcher.Stop()
	}
	if r.Brokerage != nil {
		return r.Brokerage.Disconnect()
	}
	return nil
}

// Coordinator runs the setup state machine.
type Coordinator struct {
	log   zerolog.Logger
	deps  Deps
	cfg   Config
	state atomic.Int32
}

// NewCoordinator returns a Coordinator in NotStarted.
func NewCoordinator(log zerolog.Logger, deps Deps, cfg Config) *Coordinator {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = DefaultInitTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if deps.Reporter == nil {
		deps.Reporter = status.NewLogReporter(log)
	}
	return &Coordinator{log: util.Component(log, "setup"), deps: deps, cfg: cfg}
}

// State reports the step currently executing, or the terminal state.
func (c *Coordinator) State() State { return State(c.state.Load()) }

// run is the per-call scratch space threaded through the steps.
type run struct {
	ctx       context.Context
	alg       strategy.Algorithm
	job       job.Job
	log       zerolog.Logger
	errs      ErrorList
	factory   brokerage.Factory
	brokerage brokerage.Brokerage
	value     decimal.Decimal
	startedAt time.Time
}

type step struct {
	state State
	do    func(*run) bool
}

func (c *Coordinator) steps() []step {
	return []step{
		{ValidatingJob, c.validate},
		{Initializing, c.initialize},
		{ResolvingBrokerage, c.resolve},
		{Connecting, c.connect},
		{SyncingState, c.sync},
		{Complete, c.complete},
	}
}

// Setup brings alg online for j. It never panics and never returns a partial success:
// on failure the brokerage connection, if any, is already released.
func (c *Coordinator) Setup(ctx context.Context, alg strategy.Algorithm, j job.Job) Result {
	return c.execute(ctx, alg, j, c.steps())
}

func (c *Coordinator) execute(ctx context.Context, alg strategy.Algorithm, j job.Job, steps []step) Result {
	j = j.WithDefaults()
	r := &run{
		ctx: ctx,
		alg: alg,
		job: j,
		log: c.log.With().Str("job", j.ID).Str("brokerage", j.Brokerage).Logger(),
	}
	began := time.Now()
	c.state.Store(int32(NotStarted))

	for _, s := range steps {
		c.transition(r, s.state)
		start := time.Now()
		ok := c.guard(r, s)
		metrics.SetupPhaseSeconds.WithLabelValues(s.state.String()).Observe(time.Since(start).Seconds())
		if !ok && r.errs.Len() == 0 {
			c.fail(r, "setup step %s failed", s.state)
		}
		if r.errs.Len() > 0 {
			break
		}
	}

	res := Result{JobID: j.ID, Errors: r.errs.Items()}
	if res.OK() {
		res.State = Complete
		res.Brokerage = r.brokerage
		res.StartingValue = r.value
		res.StartedAt = r.startedAt
		if r.brokerage != nil {
			res.Dispatcher = NewDispatcher(r.log, c.deps.Reporter, alg)
			res.Dispatcher.Start(context.WithoutCancel(ctx), r.brokerage.Messages())
		}
		c.state.Store(int32(Complete))
		metrics.SetupRunsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		c.deps.Reporter.SetStatus(status.Running, "setup complete")
		r.log.Info().Str("starting_value", r.value.String()).Msg("live setup complete")
	} else {
		res.State = Failed
		c.transition(r, Failed)
		if r.brokerage != nil {
			if err := r.brokerage.Disconnect(); err != nil {
				r.log.Warn().Err(err).Msg("disconnect after failed setup")
			}
		}
		for _, e := range res.Errors {
			c.deps.Reporter.Error(e)
		}
		metrics.SetupRunsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		c.deps.Reporter.SetStatus(status.RuntimeError, "setup failed")
	}
	c.save(ctx, r, res, began)
	return res
}

func (c *Coordinator) transition(r *run, s State) {
	c.state.Store(int32(s))
	r.log.Info().Str("state", s.String()).Msg("setup state")
}

func (c *Coordinator) fail(r *run, format string, args ...any) {
	r.errs.Addf(format, args...)
	r.log.Error().Str("state", c.State().String()).Msgf(format, args...)
}

// guard runs one step, turning a panic into an error entry.
func (c *Coordinator) guard(r *run, s step) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			c.fail(r, "%s: unexpected fault: %v", s.state, rec)
			ok = false
		}
	}()
	return s.do(r)
}

func (c *Coordinator) validate(r *run) bool {
	if r.alg == nil {
		c.fail(r, "no algorithm to set up")
		return false
	}
	if err := r.job.Validate(); err != nil {
		c.fail(r, "invalid job: %v", err)
		return false
	}
	return true
}

func (c *Coordinator) initialize(r *run) bool {
	limits := r.job.Limits()
	out := isolate.Run(r.ctx, c.cfg.InitTimeout, func(context.Context) error {
		r.alg.SetAssetLimits(limits)
		r.alg.SetLiveMode(true)
		return r.alg.Initialize()
	})
	if !out.Completed {
		c.fail(r, "failed to initialize algorithm: timed out after %s", c.cfg.InitTimeout)
		return false
	}
	if out.Err != nil {
		c.fail(r, "failed to initialize algorithm: %v", out.Err)
		return false
	}
	return true
}

func (c *Coordinator) resolve(r *run) bool {
	f, err := c.deps.Resolver.Resolve(r.job.Brokerage)
	if err != nil {
		c.fail(r, "brokerage resolution failed: %v", err)
		return false
	}
	r.factory = f
	return true
}

func (c *Coordinator) connect(r *run) bool {
	c.deps.Reporter.SetStatus(status.LoggingIn, "logging in to "+r.factory.TypeName())
	ctx, cancel := context.WithTimeout(r.ctx, c.cfg.ConnectTimeout)
	defer cancel()
	b, err := brokerage.Connect(ctx, r.factory, r.job)
	if err != nil {
		c.fail(r, "error connecting to brokerage: %v", err)
		return false
	}
	r.brokerage = b
	return true
}

func (c *Coordinator) sync(r *run) bool {
	if err := c.deps.Reconciler.Sync(r.ctx, r.brokerage, r.alg); err != nil {
		c.fail(r, "error getting account state from brokerage: %v", err)
		return false
	}
	return true
}

func (c *Coordinator) complete(r *run) bool {
	if r.errs.Len() > 0 {
		return false
	}
	r.value = r.alg.Account().TotalValue()
	r.startedAt = time.Now().UTC()
	return true
}

func (c *Coordinator) save(ctx context.Context, r *run, res Result, began time.Time) {
	if c.deps.Store == nil {
		return
	}
	name := ""
	if r.alg != nil {
		name = r.alg.Name()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	rec := runlog.Record{
		JobID:         res.JobID,
		Strategy:      name,
		Brokerage:     r.job.Brokerage,
		State:         res.State.String(),
		Errors:        res.Errors,
		StartingValue: res.StartingValue,
		StartedAt:     began.UTC(),
		FinishedAt:    time.Now().UTC(),
	}
	if err := c.deps.Store.Save(ctx, rec); err != nil {
		r.log.Warn().Err(err).Msg("failed to save setup run record")
	}
}
