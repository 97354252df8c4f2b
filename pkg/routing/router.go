// Package routing provides the deterministic baseline router. The
// enhancement pipeline only depends on the BaselineRouter interface;
// the built-in implementation runs Dijkstra over a static city graph.
package routing

import (
	"context"
	"fmt"

	"github.com/zen-systems/voltgate/pkg/route"
)

// BaselineRouter computes the deterministic baseline route the
// enhancement pipeline starts from.
type BaselineRouter interface {
	ComputeBaseline(ctx context.Context, origin, destination string, constraints map[string]any) (*route.Candidate, error)
}

// UnknownLocationError reports an origin or destination that is not on
// the road network.
type UnknownLocationError struct {
	Location string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown location %q", e.Location)
}

// NoRouteError reports that no path connects origin and destination.
type NoRouteError struct {
	Origin      string
	Destination string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route from %q to %q", e.Origin, e.Destination)
}
