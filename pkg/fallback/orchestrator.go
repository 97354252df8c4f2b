// Package fallback orchestrates route enhancement across an ordered
// chain of providers with bounded retries and exponential backoff.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zen-systems/voltgate/pkg/metrics"
	"github.com/zen-systems/voltgate/pkg/provider"
)

// Defaults for retry behavior.
const (
	DefaultMaxTries    = 3
	DefaultBaseBackoff = time.Second
)

// AllProvidersFailed reports that every provider in the chain was
// exhausted. Attempts holds every error in the order it occurred,
// primary provider first.
type AllProvidersFailed struct {
	Attempts []*provider.Error
}

func (e *AllProvidersFailed) Error() string {
	if len(e.Attempts) == 0 {
		return "all providers failed"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(parts, "; "))
}

// Orchestrator tries each provider in order with bounded retries.
// Provider order is part of the contract: callers can rely on the
// primary being exhausted before the secondary is touched.
type Orchestrator struct {
	providers   []provider.Provider
	maxTries    int
	baseBackoff time.Duration
	limiters    map[string]*rate.Limiter
	logger      zerolog.Logger

	// sleep is replaceable in tests. It must return early with the
	// context error when the context is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// Options configures an Orchestrator.
type Options struct {
	// MaxTries is the attempt budget per provider (default 3).
	MaxTries int
	// BaseBackoff is the first retry delay; attempt n waits
	// BaseBackoff * 2^(n-1) (default 1s).
	BaseBackoff time.Duration
	// ProviderRate caps sends per second against each provider,
	// shared across jobs. Zero means unlimited.
	ProviderRate float64
	Logger       zerolog.Logger
}

// New creates an orchestrator over the given provider chain.
func New(providers []provider.Provider, opts Options) *Orchestrator {
	maxTries := opts.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	baseBackoff := opts.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = DefaultBaseBackoff
	}

	limiters := make(map[string]*rate.Limiter)
	if opts.ProviderRate > 0 {
		for _, p := range providers {
			limiters[p.Name()] = rate.NewLimiter(rate.Limit(opts.ProviderRate), 1)
		}
	}

	return &Orchestrator{
		providers:   providers,
		maxTries:    maxTries,
		baseBackoff: baseBackoff,
		limiters:    limiters,
		logger:      opts.Logger,
		sleep:       sleepCtx,
	}
}

// Enhance tries the chain in order and returns the first successful
// response. At most one successful response is ever produced. On
// exhaustion it fails with *AllProvidersFailed carrying every attempt
// error with provider attribution.
func (o *Orchestrator) Enhance(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	var attempts []*provider.Error

	for i, p := range o.providers {
		if !p.Configured() {
			o.logger.Debug().Str("provider", p.Name()).Msg("provider not configured, skipping")
			attempts = append(attempts, provider.NotConfigured(p.Name()))
			continue
		}

		resp, errs := o.tryProvider(ctx, p, req)
		attempts = append(attempts, errs...)
		if resp != nil {
			return resp, nil
		}

		if err := ctx.Err(); err != nil {
			break
		}
		if i < len(o.providers)-1 {
			metrics.ProviderFallbacks.Inc()
			o.logger.Warn().
				Str("provider", p.Name()).
				Str("next", o.providers[i+1].Name()).
				Msg("provider exhausted, falling back")
		}
	}

	metrics.EnhancementsFailed.Inc()
	return nil, &AllProvidersFailed{Attempts: attempts}
}

// tryProvider runs the per-provider retry loop. It returns either a
// response or the errors it collected.
func (o *Orchestrator) tryProvider(ctx context.Context, p provider.Provider, req *provider.Request) (*provider.Response, []*provider.Error) {
	var errs []*provider.Error

	for attempt := 1; attempt <= o.maxTries; attempt++ {
		if err := o.waitLimiter(ctx, p.Name()); err != nil {
			errs = append(errs, provider.Classify(p.Name(), err))
			return nil, errs
		}

		resp, err := p.Enhance(ctx, req)
		if err == nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), "success").Inc()
			o.logger.Info().
				Str("provider", p.Name()).
				Int("attempt", attempt).
				Msg("provider returned a response")
			return resp, errs
		}

		perr := provider.Classify(p.Name(), err)
		metrics.ProviderAttempts.WithLabelValues(p.Name(), string(perr.Kind)).Inc()
		errs = append(errs, perr)
		o.logger.Warn().
			Str("provider", p.Name()).
			Int("attempt", attempt).
			Str("kind", string(perr.Kind)).
			Err(perr.Err).
			Msg("provider attempt failed")

		// Credentials will not heal between attempts.
		if perr.Kind == provider.KindUnauthorized {
			return nil, errs
		}
		if attempt == o.maxTries {
			break
		}

		backoff := o.baseBackoff * (1 << (attempt - 1))
		if err := o.sleep(ctx, backoff); err != nil {
			errs = append(errs, provider.Classify(p.Name(), err))
			return nil, errs
		}
	}

	return nil, errs
}

func (o *Orchestrator) waitLimiter(ctx context.Context, name string) error {
	limiter, ok := o.limiters[name]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsAllProvidersFailed reports whether err is an exhaustion failure, as
// opposed to a caller cancellation or an internal error.
func IsAllProvidersFailed(err error) bool {
	var apf *AllProvidersFailed
	return errors.As(err, &apf)
}
