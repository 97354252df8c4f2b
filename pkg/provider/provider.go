// Package provider implements clients for the external reasoning
// services that can propose enhanced routes.
package provider

import (
	"context"

	"github.com/zen-systems/voltgate/pkg/route"
)

// Provider defines the interface for route enhancement providers.
type Provider interface {
	// Enhance sends an enhancement request to the provider and parses
	// its reply. Failures are always *Error values.
	Enhance(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider's identifier.
	Name() string

	// Configured reports whether the provider has the credentials and
	// endpoint it needs. Unconfigured providers fail without touching
	// the network.
	Configured() bool
}

// Request carries the context a provider needs to propose a better
// route. It is constructed once per job and never mutated.
type Request struct {
	Baseline    *route.Candidate `json:"baseline"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Constraints map[string]any   `json:"constraints,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// Response is a provider's validated answer. Candidate and
// ImprovementScore are optional; a provider that answered but proposed
// nothing yields a Response with a nil Candidate.
type Response struct {
	Provider         string           `json:"provider"`
	Candidate        *route.Candidate `json:"candidate,omitempty"`
	ImprovementScore *float64         `json:"improvement_score,omitempty"`
	Metrics          route.Metrics    `json:"metrics,omitempty"`
}
