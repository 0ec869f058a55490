// Package pipeline drives the end-to-end plan generation state machine:
// model selection, prompt construction, retry/backoff around the
// generation call, response extraction, schema validation, resource
// filtering, and the local fallback plan.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/plan"
	"github.com/pathwise/pathwise/internal/provider"
	"github.com/pathwise/pathwise/internal/selector"
)

// phase names the orchestrator's states; used for logging and failure
// classification, the control flow itself is sequential.
type phase string

const (
	phaseSelectingModel     phase = "SELECTING_MODEL"
	phaseGenerating         phase = "GENERATING"
	phaseExtracting         phase = "EXTRACTING"
	phaseValidating         phase = "VALIDATING"
	phaseFilteringResources phase = "FILTERING_RESOURCES"
	phaseDone               phase = "DONE"
	phaseFallback           phase = "FALLBACK"
)

// Source records how a returned plan was produced.
type Source string

const (
	// SourceModel: the plan came from the generative backend.
	SourceModel Source = "model"
	// SourceFallback: the plan was synthesized locally because the
	// backend was unusable after retries.
	SourceFallback Source = "fallback"
)

// Result is a finished orchestrator run.
type Result struct {
	Plan   *plan.Plan
	Source Source
	Model  string
}

// LinkChecker validates one resource URL. Satisfied by linkcheck.Checker.
type LinkChecker interface {
	Check(ctx context.Context, url string, kind plan.ResourceKind) bool
}

// Options bound every loop and timeout in a run.
type Options struct {
	// Preferences is the ordered model-name substring ranking.
	Preferences []string
	// MaxAttempts caps generation calls per request.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; it doubles
	// per attempt up to MaxBackoff, plus jitter.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Temperature and MaxOutputTokens bound the generation call.
	Temperature     float64
	MaxOutputTokens int
	// StepFilterTimeout bounds resource validation per step; in-flight
	// checks past the deadline count as failures and are abandoned.
	StepFilterTimeout time.Duration
	// DisableFallback surfaces upstream exhaustion as an error instead
	// of a synthesized plan. Off by default.
	DisableFallback bool
}

// DefaultOptions mirror the service defaults; config can override each.
func DefaultOptions() Options {
	return Options{
		Preferences:       selector.DefaultPreferences,
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        16 * time.Second,
		Temperature:       0.7,
		MaxOutputTokens:   8192,
		StepFilterTimeout: 15 * time.Second,
	}
}

// Orchestrator runs the plan-generation pipeline. Each Run owns the plan
// it builds; there is no shared mutable state across concurrent runs.
type Orchestrator struct {
	catalog *selector.Catalog
	backend provider.Backend
	checker LinkChecker
	opts    Options
	metrics *Metrics
	logger  *zap.Logger
}

func New(catalog *selector.Catalog, backend provider.Backend, checker LinkChecker, opts Options, metrics *Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultOptions().InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = DefaultOptions().MaxBackoff
	}
	if opts.StepFilterTimeout <= 0 {
		opts.StepFilterTimeout = DefaultOptions().StepFilterTimeout
	}
	if len(opts.Preferences) == 0 {
		opts.Preferences = selector.DefaultPreferences
	}
	return &Orchestrator{
		catalog: catalog,
		backend: backend,
		checker: checker,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

// Run produces a validated plan for the goal or a classified *Error. The
// caller always gets either a plan (model-generated or fallback) or an
// explicit error; the pipeline never hangs past its timeouts.
func (o *Orchestrator) Run(ctx context.Context, goal plan.GoalRequest) (*Result, error) {
	start := time.Now()
	defer func() { o.metrics.observeDuration(time.Since(start).Seconds()) }()

	// SELECTING_MODEL: one selector invocation per request, not retried.
	o.logger.Debug("phase", zap.String("state", string(phaseSelectingModel)))
	models, err := o.catalog.Models(ctx)
	if err != nil {
		o.metrics.failure(FailureDiscovery)
		return nil, failed(FailureDiscovery, err)
	}
	model, err := selector.Select(models, o.opts.Preferences)
	if err != nil {
		o.metrics.failure(FailureDiscovery)
		return nil, failed(FailureDiscovery, err)
	}

	// GENERATING, with bounded retry.
	o.logger.Debug("phase", zap.String("state", string(phaseGenerating)), zap.String("model", model.Name))
	resp, genErr := o.generate(ctx, model.Name, goal)
	if genErr != nil {
		if ctx.Err() != nil {
			return nil, failed(FailureUpstream, ctx.Err())
		}
		if o.opts.DisableFallback {
			o.metrics.failure(FailureUpstream)
			return nil, failed(FailureUpstream, genErr)
		}
		// FALLBACK: the caller still gets a usable plan.
		o.logger.Warn("generation unusable, serving fallback plan",
			zap.String("goal", goal.Title), zap.Error(genErr))
		o.metrics.fallback()
		return &Result{Plan: plan.Fallback(goal.Title, goal.Description), Source: SourceFallback}, nil
	}

	// EXTRACTING.
	o.logger.Debug("phase", zap.String("state", string(phaseExtracting)))
	rawPlan, err := plan.Extract(resp.Text)
	if err != nil {
		o.metrics.failure(FailureExtract)
		return nil, failed(FailureExtract, err)
	}

	// VALIDATING.
	o.logger.Debug("phase", zap.String("state", string(phaseValidating)))
	p, err := plan.Parse(rawPlan)
	if err != nil {
		o.metrics.failure(FailureSchema)
		return nil, failed(FailureSchema, err)
	}

	// FILTERING_RESOURCES.
	o.logger.Debug("phase", zap.String("state", string(phaseFilteringResources)))
	dropped := o.filterResources(ctx, p)
	o.metrics.dropped(dropped)

	o.logger.Info("plan generated",
		zap.String("state", string(phaseDone)),
		zap.String("model", model.Name),
		zap.Int("steps", len(p.Steps)),
		zap.Int("resources_dropped", dropped),
		zap.Duration("elapsed", time.Since(start)))
	return &Result{Plan: p, Source: SourceModel, Model: model.Name}, nil
}

// generate calls the backend with exponential backoff plus jitter, at
// most MaxAttempts times. Attempts run sequentially: each must finish or
// time out before the next starts, otherwise the backoff is pointless.
func (o *Orchestrator) generate(ctx context.Context, model string, goal plan.GoalRequest) (*provider.GenerateResponse, error) {
	req := &provider.GenerateRequest{
		Model:           model,
		SystemPrompt:    systemPrompt,
		UserPrompt:      buildUserPrompt(goal.Title, goal.Description),
		Temperature:     o.opts.Temperature,
		MaxOutputTokens: o.opts.MaxOutputTokens,
	}

	var lastErr error
	delay := o.opts.InitialBackoff
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		o.metrics.attempt()
		resp, err := o.backend.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !provider.IsRetryable(err) {
			o.logger.Debug("generation attempt not retryable",
				zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}
		o.logger.Debug("generation attempt failed",
			zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))

		if attempt == o.opts.MaxAttempts {
			break
		}
		if err := sleep(ctx, withJitter(delay)); err != nil {
			return nil, err
		}
		delay *= 2
		if delay > o.opts.MaxBackoff {
			delay = o.opts.MaxBackoff
		}
	}
	return nil, fmt.Errorf("generation retries exhausted after %d attempts: %w", o.opts.MaxAttempts, lastErr)
}

// withJitter spreads retries out by up to 25% so concurrent requests
// don't hammer the backend in lockstep.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
