package job

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/voltgate/pkg/confidence"
	"github.com/zen-systems/voltgate/pkg/fallback"
	"github.com/zen-systems/voltgate/pkg/metrics"
	"github.com/zen-systems/voltgate/pkg/policy"
	"github.com/zen-systems/voltgate/pkg/provider"
	"github.com/zen-systems/voltgate/pkg/route"
	"github.com/zen-systems/voltgate/pkg/routing"
)

// DefaultConfidenceThreshold gates the enhancement phase: baselines at
// or above it are final as-is.
const DefaultConfidenceThreshold = 0.75

// Enhancer is the orchestrator dependency; see pkg/fallback.
type Enhancer interface {
	Enhance(ctx context.Context, req *provider.Request) (*provider.Response, error)
}

// Coordinator drives a job through its state machine. All dependencies
// are injected; the coordinator reads no ambient state.
type Coordinator struct {
	router    routing.BaselineRouter
	estimator *confidence.Estimator
	enhancer  Enhancer
	policy    *policy.AcceptancePolicy
	store     Store
	threshold float64
	logger    zerolog.Logger
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	Router    routing.BaselineRouter
	Estimator *confidence.Estimator
	Enhancer  Enhancer
	Policy    *policy.AcceptancePolicy
	Store     Store
	// ConfidenceThreshold defaults to 0.75.
	ConfidenceThreshold float64
	Logger              zerolog.Logger
}

// NewCoordinator wires up a coordinator.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Coordinator{
		router:    opts.Router,
		estimator: opts.Estimator,
		enhancer:  opts.Enhancer,
		policy:    opts.Policy,
		store:     opts.Store,
		threshold: threshold,
		logger:    opts.Logger,
	}
}

// Run drives rec to a terminal status. The returned error is non-nil
// only when the job FAILED: provider exhaustion is job-recoverable and
// completes the job with the baseline route, annotated on the record.
func (c *Coordinator) Run(ctx context.Context, rec *Record) error {
	start := time.Now()
	defer func() {
		metrics.JobDuration.Observe(time.Since(start).Seconds())
	}()

	if err := rec.transition(StatusComputingBaseline); err != nil {
		return c.fail(ctx, rec, err)
	}
	baseline, err := c.router.ComputeBaseline(ctx, rec.Origin, rec.Destination, rec.Constraints)
	if err != nil {
		return c.fail(ctx, rec, fmt.Errorf("compute baseline route: %w", err))
	}

	if err := rec.transition(StatusEvaluatingConfidence); err != nil {
		return c.fail(ctx, rec, err)
	}
	conf := route.Clamp01(c.estimator.Estimate(baseline.Metrics))
	rec.BaseConfidence = conf
	c.logger.Info().
		Str("job_id", rec.ID).
		Float64("confidence", conf).
		Float64("threshold", c.threshold).
		Msg("baseline confidence evaluated")

	if conf >= c.threshold {
		return c.complete(ctx, rec, baseline, SourceBaseline)
	}

	if err := rec.transition(StatusEnhancing); err != nil {
		return c.fail(ctx, rec, err)
	}
	req := &provider.Request{
		Baseline:    baseline,
		Origin:      rec.Origin,
		Destination: rec.Destination,
		Constraints: rec.Constraints,
		Metadata: map[string]any{
			"job_id":          rec.ID,
			"base_confidence": conf,
		},
	}
	resp, err := c.enhancer.Enhance(ctx, req)
	if err != nil {
		if fallback.IsAllProvidersFailed(err) {
			// Provider exhaustion never fails the job: keep the
			// baseline and record the failure for observability.
			rec.Enhancement = &Enhancement{Attempted: true, ProviderFailure: err.Error()}
			c.logger.Warn().
				Str("job_id", rec.ID).
				Err(err).
				Msg("all providers failed, completing with baseline route")
			return c.complete(ctx, rec, baseline, SourceBaseline)
		}
		return c.fail(ctx, rec, fmt.Errorf("enhance route: %w", err))
	}

	if err := rec.transition(StatusDeciding); err != nil {
		return c.fail(ctx, rec, err)
	}
	decision := c.policy.Decide(baseline, resp)
	rec.Enhancement = &Enhancement{
		Attempted:        true,
		Provider:         resp.Provider,
		ImprovementScore: resp.ImprovementScore,
		Accepted:         decision.Accepted(),
		Reason:           decision.Reason,
	}
	c.logger.Info().
		Str("job_id", rec.ID).
		Str("provider", resp.Provider).
		Bool("accepted", decision.Accepted()).
		Str("reason", decision.Reason).
		Msg("acceptance policy decided")

	if decision.Accepted() {
		return c.complete(ctx, rec, decision.Candidate, SourceProvider+":"+resp.Provider)
	}
	return c.complete(ctx, rec, baseline, SourceBaseline)
}

func (c *Coordinator) complete(ctx context.Context, rec *Record, final *route.Candidate, source string) error {
	if err := rec.transition(StatusCompleted); err != nil {
		return c.fail(ctx, rec, err)
	}
	rec.FinalRoute = final
	rec.Source = source
	now := time.Now().UTC()
	rec.CompletedAt = &now

	metrics.JobsCompleted.WithLabelValues(string(StatusCompleted), source).Inc()
	c.persist(ctx, rec)
	return nil
}

func (c *Coordinator) fail(ctx context.Context, rec *Record, cause error) error {
	// A transition error here means the record was already terminal;
	// leave it untouched and just report the cause.
	if err := rec.transition(StatusFailed); err == nil {
		rec.Error = cause.Error()
		now := time.Now().UTC()
		rec.CompletedAt = &now
		metrics.JobsCompleted.WithLabelValues(string(StatusFailed), "").Inc()
		c.persist(ctx, rec)
	}
	c.logger.Error().Str("job_id", rec.ID).Err(cause).Msg("job failed")
	return cause
}

// persist hands the terminal record to the store. Persistence failures
// are logged, not retried: the job outcome is already decided.
func (c *Coordinator) persist(ctx context.Context, rec *Record) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordJob(ctx, rec); err != nil {
		c.logger.Error().Str("job_id", rec.ID).Err(err).Msg("failed to persist job record")
	}
}
