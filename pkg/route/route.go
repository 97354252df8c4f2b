// Package route defines the route candidate types shared by the
// deterministic router, the enhancement providers, and the acceptance
// policy.
package route

// Well-known metric keys. Metrics is an open mapping; unknown keys are
// carried through untouched and ignored by anything that does not
// understand them.
const (
	MetricDistanceM       = "distance_m"
	MetricDurationS       = "duration_s"
	MetricEnergyKWh       = "energy_kwh"
	MetricEmissionsG      = "emissions_g"
	MetricChargingStops   = "charging_stops"
	MetricUnknownFraction = "unknown_segment_fraction"
	MetricFallbacks       = "fallbacks"
)

// Metrics is a mapping of named numeric indicators attached to a route.
type Metrics map[string]float64

// Get returns the named metric and whether it is present.
func (m Metrics) Get(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	return v, ok
}

// Clone returns a copy of the metrics map.
func (m Metrics) Clone() Metrics {
	if m == nil {
		return nil
	}
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Candidate is a computed route together with its metrics and a
// confidence score in [0,1]. Candidates are immutable once produced;
// components derive new candidates rather than mutating existing ones.
type Candidate struct {
	Waypoints  []string `json:"waypoints"`
	Metrics    Metrics  `json:"metrics,omitempty"`
	Confidence float64  `json:"confidence"`
}

// NewCandidate builds a candidate with the confidence clamped to [0,1].
func NewCandidate(waypoints []string, metrics Metrics, confidence float64) *Candidate {
	return &Candidate{
		Waypoints:  waypoints,
		Metrics:    metrics,
		Confidence: Clamp01(confidence),
	}
}

// Duration returns the duration metric and whether it is present.
func (c *Candidate) Duration() (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.Metrics.Get(MetricDurationS)
}

// Clamp01 clamps v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
