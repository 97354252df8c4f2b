package confidence

import (
	"testing"

	"github.com/zen-systems/voltgate/pkg/route"
)

func TestEmptyMetricsScoreOne(t *testing.T) {
	e := New()
	if got := e.Estimate(nil); got != 1.0 {
		t.Fatalf("nil metrics: got %v, want 1.0", got)
	}
	if got := e.Estimate(route.Metrics{}); got != 1.0 {
		t.Fatalf("empty metrics: got %v, want 1.0", got)
	}
}

func TestScoreAlwaysInUnitInterval(t *testing.T) {
	e := New()
	inputs := []route.Metrics{
		{route.MetricUnknownFraction: 5, route.MetricFallbacks: 100},
		{route.MetricUnknownFraction: -3},
		{route.MetricFallbacks: -1},
		{route.MetricUnknownFraction: 0.5, route.MetricFallbacks: 2},
		{"unrelated_key": 9999},
	}
	for _, m := range inputs {
		got := e.Estimate(m)
		if got < 0 || got > 1 {
			t.Fatalf("Estimate(%v) = %v, outside [0,1]", m, got)
		}
	}
}

func TestReferenceFormula(t *testing.T) {
	e := New()
	m := route.Metrics{route.MetricUnknownFraction: 0.25, route.MetricFallbacks: 2}
	want := 1.0 - 0.25*0.8 - 2*0.03
	if got := e.Estimate(m); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMonotonicInUnknownFraction(t *testing.T) {
	e := New()
	prev := 2.0
	for _, frac := range []float64{0, 0.1, 0.3, 0.6, 0.9} {
		got := e.Estimate(route.Metrics{
			route.MetricUnknownFraction: frac,
			route.MetricFallbacks:       1,
		})
		if got >= prev {
			t.Fatalf("score did not decrease: frac=%v score=%v prev=%v", frac, got, prev)
		}
		prev = got
	}
}

func TestFallbacksCappedAtFive(t *testing.T) {
	e := New()
	atCap := e.Estimate(route.Metrics{route.MetricFallbacks: 5})
	beyond := e.Estimate(route.Metrics{route.MetricFallbacks: 50})
	if atCap != beyond {
		t.Fatalf("fallback penalty not capped: %v vs %v", atCap, beyond)
	}
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	e := New()
	base := e.Estimate(route.Metrics{route.MetricUnknownFraction: 0.2})
	withNoise := e.Estimate(route.Metrics{
		route.MetricUnknownFraction: 0.2,
		"weather_penalty":           3.5,
	})
	if base != withNoise {
		t.Fatalf("unknown keys changed the score: %v vs %v", base, withNoise)
	}
}
