// Package policy decides whether a provider-suggested route supersedes
// the deterministic baseline.
package policy

import (
	"github.com/zen-systems/voltgate/pkg/provider"
	"github.com/zen-systems/voltgate/pkg/route"
)

// Defaults for the acceptance rule.
const (
	// DefaultImprovementThreshold accepts a scored candidate at a 2%
	// improvement or better (inclusive).
	DefaultImprovementThreshold = 0.02
	// durationRatio accepts an unscored candidate only when it is
	// strictly more than 1% faster than the baseline.
	durationRatio = 0.99
)

// Outcome tags a decision.
type Outcome string

const (
	OutcomeAcceptCandidate Outcome = "accept_candidate"
	OutcomeKeepBaseline    Outcome = "keep_baseline"
)

// Decision is the result of comparing a candidate to the baseline.
// Candidate is set only when the outcome is AcceptCandidate.
type Decision struct {
	Outcome   Outcome          `json:"outcome"`
	Candidate *route.Candidate `json:"candidate,omitempty"`
	Reason    string           `json:"reason"`
}

// Accepted reports whether the candidate won.
func (d Decision) Accepted() bool { return d.Outcome == OutcomeAcceptCandidate }

// AcceptancePolicy compares a baseline route against an enhancement
// response. Pure: no side effects, no ambient configuration.
type AcceptancePolicy struct {
	improvementThreshold float64
}

// Option configures an AcceptancePolicy.
type Option func(*AcceptancePolicy)

// WithImprovementThreshold overrides the improvement score cutoff.
func WithImprovementThreshold(threshold float64) Option {
	return func(p *AcceptancePolicy) { p.improvementThreshold = threshold }
}

// New creates a policy with the default thresholds.
func New(opts ...Option) *AcceptancePolicy {
	p := &AcceptancePolicy{improvementThreshold: DefaultImprovementThreshold}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide applies the two-tier acceptance rule:
//
//  1. No candidate: keep the baseline.
//  2. Provider supplied an improvement score: accept iff the score
//     meets the threshold (inclusive). A present score wins over the
//     duration comparison even when durations are available.
//  3. No score: accept iff the candidate's duration metric is strictly
//     below 99% of the baseline's. Missing durations keep the baseline.
func (p *AcceptancePolicy) Decide(baseline *route.Candidate, resp *provider.Response) Decision {
	if resp == nil || resp.Candidate == nil {
		return Decision{Outcome: OutcomeKeepBaseline, Reason: "no candidate proposed"}
	}

	if resp.ImprovementScore != nil {
		score := route.Clamp01(*resp.ImprovementScore)
		if score >= p.improvementThreshold {
			return Decision{
				Outcome:   OutcomeAcceptCandidate,
				Candidate: resp.Candidate,
				Reason:    "improvement score met threshold",
			}
		}
		return Decision{Outcome: OutcomeKeepBaseline, Reason: "improvement score below threshold"}
	}

	baseDuration, baseOK := baseline.Duration()
	candDuration, candOK := resp.Candidate.Duration()
	if !baseOK || !candOK {
		return Decision{Outcome: OutcomeKeepBaseline, Reason: "duration metric missing"}
	}
	if candDuration < baseDuration*durationRatio {
		return Decision{
			Outcome:   OutcomeAcceptCandidate,
			Candidate: resp.Candidate,
			Reason:    "candidate duration beat baseline",
		}
	}
	return Decision{Outcome: OutcomeKeepBaseline, Reason: "candidate not meaningfully faster"}
}
