// Package confidence scores how trustworthy a deterministic baseline
// route is, based on the routing metrics that produced it.
package confidence

import "github.com/zen-systems/voltgate/pkg/route"

// Default weights. Empty metrics score 1.0; the score decreases as the
// fraction of segments without road-network data grows and as the
// router takes algorithmic fallbacks.
const (
	DefaultUnknownWeight  = 0.8
	DefaultFallbackWeight = 0.03
	maxCountedFallbacks   = 5
)

// Estimator converts routing metrics into a confidence score in [0,1].
// The zero value is not usable; construct with New.
type Estimator struct {
	unknownWeight  float64
	fallbackWeight float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithUnknownWeight overrides the penalty per unit of unknown segment
// fraction.
func WithUnknownWeight(w float64) Option {
	return func(e *Estimator) { e.unknownWeight = w }
}

// WithFallbackWeight overrides the penalty per algorithmic fallback.
func WithFallbackWeight(w float64) Option {
	return func(e *Estimator) { e.fallbackWeight = w }
}

// New creates an estimator with the default weights.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		unknownWeight:  DefaultUnknownWeight,
		fallbackWeight: DefaultFallbackWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns a confidence score in [0,1]. It is deterministic,
// has no side effects, and is defined for all inputs: missing or
// malformed fields contribute nothing, and nil metrics score 1.0.
func (e *Estimator) Estimate(metrics route.Metrics) float64 {
	unknown, _ := metrics.Get(route.MetricUnknownFraction)
	if unknown < 0 {
		unknown = 0
	}

	fallbacks, _ := metrics.Get(route.MetricFallbacks)
	if fallbacks < 0 {
		fallbacks = 0
	}
	if fallbacks > maxCountedFallbacks {
		fallbacks = maxCountedFallbacks
	}

	score := 1.0 - unknown*e.unknownWeight - fallbacks*e.fallbackWeight
	return route.Clamp01(score)
}
