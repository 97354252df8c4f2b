package routing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/zen-systems/voltgate/pkg/route"
)

func TestShortestPathPicksCheaperDetour(t *testing.T) {
	r := NewStaticRouter(AmsterdamGraph())
	cand, err := r.ComputeBaseline(context.Background(), "Amsterdam_Central", "Museumplein", nil)
	if err != nil {
		t.Fatalf("compute baseline: %v", err)
	}

	want := []string{"Amsterdam_Central", "Jordaan", "Leidseplein", "Museumplein"}
	if len(cand.Waypoints) != len(want) {
		t.Fatalf("got path %v, want %v", cand.Waypoints, want)
	}
	for i := range want {
		if cand.Waypoints[i] != want[i] {
			t.Fatalf("got path %v, want %v", cand.Waypoints, want)
		}
	}

	distM, _ := cand.Metrics.Get(route.MetricDistanceM)
	if math.Abs(distM-2600) > 1e-6 {
		t.Fatalf("distance = %v m, want 2600", distM)
	}
}

func TestDirectEdge(t *testing.T) {
	r := NewStaticRouter(AmsterdamGraph())
	cand, err := r.ComputeBaseline(context.Background(), "Amsterdam_Central", "Dam_Square", nil)
	if err != nil {
		t.Fatalf("compute baseline: %v", err)
	}
	if len(cand.Waypoints) != 2 {
		t.Fatalf("expected direct route, got %v", cand.Waypoints)
	}
}

func TestMetricsDerivedFromDistance(t *testing.T) {
	r := NewStaticRouter(AmsterdamGraph())
	cand, err := r.ComputeBaseline(context.Background(), "Amsterdam_Central", "Dam_Square", nil)
	if err != nil {
		t.Fatalf("compute baseline: %v", err)
	}

	// 0.8 km at 2.5 min/km and 0.2 kWh/km.
	durS, _ := cand.Metrics.Get(route.MetricDurationS)
	if math.Abs(durS-120) > 1e-6 {
		t.Fatalf("duration = %v s, want 120", durS)
	}
	energy, _ := cand.Metrics.Get(route.MetricEnergyKWh)
	if math.Abs(energy-0.16) > 1e-9 {
		t.Fatalf("energy = %v kWh, want 0.16", energy)
	}
	if unknown, _ := cand.Metrics.Get(route.MetricUnknownFraction); unknown != 0 {
		t.Fatalf("static graph should have no unknown segments, got %v", unknown)
	}
	if cand.Confidence <= 0 || cand.Confidence > 1 {
		t.Fatalf("confidence %v outside (0,1]", cand.Confidence)
	}
}

func TestUnknownLocation(t *testing.T) {
	r := NewStaticRouter(AmsterdamGraph())
	_, err := r.ComputeBaseline(context.Background(), "Rotterdam", "Dam_Square", nil)
	var unknownErr *UnknownLocationError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownLocationError, got %v", err)
	}
	if unknownErr.Location != "Rotterdam" {
		t.Fatalf("expected Rotterdam in error, got %q", unknownErr.Location)
	}
}

func TestNoRoute(t *testing.T) {
	g := NewGraph()
	g.AddNode(Location{Name: "island_a"})
	g.AddNode(Location{Name: "island_b"})

	r := NewStaticRouter(g)
	_, err := r.ComputeBaseline(context.Background(), "island_a", "island_b", nil)
	var noRoute *NoRouteError
	if !errors.As(err, &noRoute) {
		t.Fatalf("expected NoRouteError, got %v", err)
	}
}

func TestChargingStopsFromConstraints(t *testing.T) {
	g := NewGraph()
	g.AddNode(Location{Name: "a"})
	g.AddNode(Location{Name: "b"})
	g.AddEdge("a", "b", 300) // 300 km, 60 kWh needed

	r := NewStaticRouter(g)
	cand, err := r.ComputeBaseline(context.Background(), "a", "b", map[string]any{
		ConstraintCurrentChargeKWh: 10.0,
	})
	if err != nil {
		t.Fatalf("compute baseline: %v", err)
	}
	stops, _ := cand.Metrics.Get(route.MetricChargingStops)
	if stops != 3 { // (60 - 10) / 20, rounded up
		t.Fatalf("charging stops = %v, want 3", stops)
	}
}
