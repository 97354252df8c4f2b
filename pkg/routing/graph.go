package routing

import "math"

// Location is a named node in the road network.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// ChargingStation is a charging point usable along a route.
type ChargingStation struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Type    string  `json:"type"`
	PowerKW float64 `json:"power_kw"`
}

type edge struct {
	to       string
	weightKm float64
}

// Graph is an undirected weighted road network.
type Graph struct {
	nodes    map[string]Location
	adjacent map[string][]edge
	stations []ChargingStation
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]Location),
		adjacent: make(map[string][]edge),
	}
}

// AddNode registers a location.
func (g *Graph) AddNode(loc Location) {
	g.nodes[loc.Name] = loc
}

// AddEdge connects two locations with a road of the given length.
func (g *Graph) AddEdge(a, b string, weightKm float64) {
	g.adjacent[a] = append(g.adjacent[a], edge{to: b, weightKm: weightKm})
	g.adjacent[b] = append(g.adjacent[b], edge{to: a, weightKm: weightKm})
}

// HasNode reports whether the location exists.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Node returns the location by name.
func (g *Graph) Node(name string) (Location, bool) {
	loc, ok := g.nodes[name]
	return loc, ok
}

// Locations returns all registered locations.
func (g *Graph) Locations() []Location {
	out := make([]Location, 0, len(g.nodes))
	for _, loc := range g.nodes {
		out = append(out, loc)
	}
	return out
}

// Stations returns the charging stations on the network.
func (g *Graph) Stations() []ChargingStation {
	return g.stations
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// AmsterdamGraph builds the built-in Amsterdam road network.
func AmsterdamGraph() *Graph {
	g := NewGraph()

	locations := []Location{
		{Name: "Amsterdam_Central", Lat: 52.3791, Lon: 4.9003},
		{Name: "Dam_Square", Lat: 52.3730, Lon: 4.8926},
		{Name: "Museumplein", Lat: 52.3579, Lon: 4.8816},
		{Name: "Vondelpark", Lat: 52.3567, Lon: 4.8687},
		{Name: "Leidseplein", Lat: 52.3641, Lon: 4.8833},
		{Name: "Rembrandtplein", Lat: 52.3667, Lon: 4.8950},
		{Name: "Jordaan", Lat: 52.3733, Lon: 4.8792},
		{Name: "De_Pijp", Lat: 52.3558, Lon: 4.8927},
		{Name: "Oost", Lat: 52.3654, Lon: 4.9023},
		{Name: "West", Lat: 52.3689, Lon: 4.8891},
	}
	for _, loc := range locations {
		g.AddNode(loc)
	}

	edges := []struct {
		a, b     string
		weightKm float64
	}{
		{"Amsterdam_Central", "Dam_Square", 0.8},
		{"Dam_Square", "Rembrandtplein", 0.6},
		{"Rembrandtplein", "Leidseplein", 1.2},
		{"Leidseplein", "Museumplein", 0.5},
		{"Museumplein", "Vondelpark", 0.8},
		{"Leidseplein", "Jordaan", 1.1},
		{"Jordaan", "West", 0.9},
		{"West", "Oost", 2.1},
		{"Oost", "De_Pijp", 1.3},
		{"De_Pijp", "Museumplein", 0.7},
		{"Amsterdam_Central", "Jordaan", 1.0},
		{"Dam_Square", "West", 1.2},
		{"Rembrandtplein", "Oost", 1.8},
	}
	for _, e := range edges {
		g.AddEdge(e.a, e.b, e.weightKm)
	}

	g.stations = []ChargingStation{
		{ID: "CS001", Lat: 52.3676, Lon: 4.9041, Type: "fast", PowerKW: 50},
		{ID: "CS002", Lat: 52.3702, Lon: 4.8952, Type: "standard", PowerKW: 22},
		{ID: "CS003", Lat: 52.3654, Lon: 4.9023, Type: "fast", PowerKW: 50},
		{ID: "CS004", Lat: 52.3689, Lon: 4.8891, Type: "standard", PowerKW: 22},
		{ID: "CS005", Lat: 52.3721, Lon: 4.8934, Type: "ultra_fast", PowerKW: 150},
	}

	return g
}
