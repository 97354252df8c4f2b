package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zen-systems/voltgate/pkg/route"
)

// BuildPrompt renders the enhancement request as a prompt instructing
// the reasoning service to answer with a single JSON object.
func BuildPrompt(req *Request) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal enhancement request: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a route optimization service for electric vehicles.\n")
	sb.WriteString("Given the baseline route below, propose a better route between the\n")
	sb.WriteString("same origin and destination, or decline if the baseline is already good.\n\n")
	sb.WriteString("Request:\n")
	sb.Write(payload)
	sb.WriteString("\n\nAnswer with exactly one JSON object and nothing else, shaped as:\n")
	sb.WriteString(`{"waypoints": ["..."], "improvement_score": 0.0, "confidence": 0.0, "metrics": {"duration_s": 0.0, "distance_m": 0.0}}`)
	sb.WriteString("\nOmit \"waypoints\" (or set it to null) to decline. ")
	sb.WriteString("\"improvement_score\" is the fractional improvement over the baseline in [0,1].\n")
	return sb.String(), nil
}

// wireReply is the shape a reasoning service is asked to answer with.
// The legacy "route" key is accepted as an alias for "waypoints".
type wireReply struct {
	Waypoints        []string           `json:"waypoints"`
	Route            []string           `json:"route"`
	ImprovementScore *float64           `json:"improvement_score"`
	Confidence       *float64           `json:"confidence"`
	Metrics          map[string]float64 `json:"metrics"`
}

// ParseReply validates raw model output into a Response. Anything that
// fails to parse yields a MalformedResponse error, never a partially
// populated Response.
func ParseReply(providerName string, raw string) (*Response, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, Malformed(providerName, err)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var reply wireReply
	if err := dec.Decode(&reply); err != nil {
		return nil, Malformed(providerName, fmt.Errorf("decode reply: %w", err))
	}

	waypoints := reply.Waypoints
	if len(waypoints) == 0 {
		waypoints = reply.Route
	}

	resp := &Response{Provider: providerName, Metrics: route.Metrics(reply.Metrics)}

	if reply.ImprovementScore != nil {
		score := route.Clamp01(*reply.ImprovementScore)
		resp.ImprovementScore = &score
	}

	if len(waypoints) > 0 {
		if len(waypoints) < 2 {
			return nil, Malformed(providerName, fmt.Errorf("candidate route has %d waypoints", len(waypoints)))
		}
		confidence := 0.0
		if reply.Confidence != nil {
			confidence = *reply.Confidence
		}
		resp.Candidate = route.NewCandidate(waypoints, route.Metrics(reply.Metrics), confidence)
	}

	return resp, nil
}

// extractJSON pulls the first JSON object out of model output, peeling
// markdown code fences when present.
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty reply")
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in reply")
	}
	return trimmed[start : end+1], nil
}
