package routing

import (
	"container/heap"
	"context"
	"math"

	"github.com/zen-systems/voltgate/pkg/route"
)

// EV consumption and timing assumptions for the static city graph.
const (
	consumptionKWhPerKm = 0.2  // average EV consumption
	minutesPerKm        = 2.5  // ~24 km/h city average
	emissionsPerKWh     = 84.5 // Dutch grid factor, g CO2/kWh
	chargeIncrementKWh  = 20.0
)

// Constraint keys recognized by the static router. Anything else in
// the constraints map is carried through to providers untouched.
const (
	ConstraintBatteryCapacityKWh = "battery_capacity_kwh"
	ConstraintCurrentChargeKWh   = "current_charge_kwh"
)

// StaticRouter is the built-in BaselineRouter over a fixed graph.
type StaticRouter struct {
	graph *Graph
}

// NewStaticRouter creates a router over the given graph.
func NewStaticRouter(graph *Graph) *StaticRouter {
	return &StaticRouter{graph: graph}
}

// Graph exposes the underlying network for location listings.
func (r *StaticRouter) Graph() *Graph {
	return r.graph
}

// ComputeBaseline runs Dijkstra between origin and destination and
// derives route metrics from the path. The candidate's confidence is a
// quality heuristic; the pipeline recomputes its own confidence from
// the metrics.
func (r *StaticRouter) ComputeBaseline(ctx context.Context, origin, destination string, constraints map[string]any) (*route.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.graph.HasNode(origin) {
		return nil, &UnknownLocationError{Location: origin}
	}
	if !r.graph.HasNode(destination) {
		return nil, &UnknownLocationError{Location: destination}
	}

	path, distanceKm, ok := r.shortestPath(origin, destination)
	if !ok {
		return nil, &NoRouteError{Origin: origin, Destination: destination}
	}

	energyKWh := distanceKm * consumptionKWhPerKm
	durationS := distanceKm * minutesPerKm * 60

	chargingStops := r.chargingStopsNeeded(energyKWh, constraints)

	metrics := route.Metrics{
		route.MetricDistanceM:       distanceKm * 1000,
		route.MetricDurationS:       durationS,
		route.MetricEnergyKWh:       energyKWh,
		route.MetricEmissionsG:      energyKWh * emissionsPerKWh,
		route.MetricChargingStops:   float64(chargingStops),
		route.MetricUnknownFraction: 0, // the static graph is complete
		route.MetricFallbacks:       0,
	}

	return route.NewCandidate(path, metrics, routeConfidence(distanceKm, chargingStops, energyKWh)), nil
}

// routeConfidence scores route quality: long routes, charging detours,
// and heavy energy use all add uncertainty.
func routeConfidence(distanceKm float64, chargingStops int, energyKWh float64) float64 {
	confidence := 0.9
	if distanceKm > 20 {
		confidence -= 0.1
	}
	if chargingStops > 2 {
		confidence -= float64(chargingStops-2) * 0.05
	}
	if energyKWh > 15 {
		confidence -= 0.1
	}
	if energyKWh > 0 && distanceKm/energyKWh > 15 {
		confidence += 0.05
	}
	return route.Clamp01(confidence)
}

// chargingStopsNeeded estimates how many charge stops the trip needs
// given the battery constraints. Unparseable constraints mean none.
func (r *StaticRouter) chargingStopsNeeded(energyKWh float64, constraints map[string]any) int {
	charge, ok := floatConstraint(constraints, ConstraintCurrentChargeKWh)
	if !ok || energyKWh <= charge {
		return 0
	}
	return int(math.Ceil((energyKWh - charge) / chargeIncrementKWh))
}

func floatConstraint(constraints map[string]any, key string) (float64, bool) {
	if constraints == nil {
		return 0, false
	}
	switch v := constraints[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// pqItem is a priority queue entry for Dijkstra.
type pqItem struct {
	node     string
	distance float64
}

type pq []pqItem

func (q pq) Len() int           { return len(q) }
func (q pq) Less(i, j int) bool { return q[i].distance < q[j].distance }
func (q pq) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)        { *q = append(*q, x.(pqItem)) }

func (q *pq) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (r *StaticRouter) shortestPath(origin, destination string) ([]string, float64, bool) {
	dist := map[string]float64{origin: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	q := &pq{{node: origin, distance: 0}}
	for q.Len() > 0 {
		item := heap.Pop(q).(pqItem)
		if visited[item.node] {
			continue
		}
		visited[item.node] = true

		if item.node == destination {
			break
		}

		for _, e := range r.graph.adjacent[item.node] {
			if visited[e.to] {
				continue
			}
			next := item.distance + e.weightKm
			if current, seen := dist[e.to]; !seen || next < current {
				dist[e.to] = next
				prev[e.to] = item.node
				heap.Push(q, pqItem{node: e.to, distance: next})
			}
		}
	}

	total, ok := dist[destination]
	if !ok {
		return nil, 0, false
	}

	path := []string{destination}
	for node := destination; node != origin; {
		node = prev[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, total, true
}
