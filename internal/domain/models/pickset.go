package models

import "time"

// SessionPickSet is the full enriched recommendation list for one trading
// session. Exactly one logical instance is current at a time; only the
// session orchestrator replaces it, always as a whole object.
type SessionPickSet struct {
	SessionDate string           `json:"sessionDate"`
	AsOf        time.Time        `json:"asOf"`
	Results     []Recommendation `json:"results"`
}

// AgentMetrics is the external classifier client's counters. They are
// monotonic and reset only on process restart.
type AgentMetrics struct {
	TotalCalls      int64     `json:"totalCalls"`
	TotalFailures   int64     `json:"totalFailures"`
	TotalDurationMs int64     `json:"totalDurationMs"`
	AvgDurationMs   float64   `json:"avgDurationMs"`
	LastStatus      string    `json:"lastStatus"`
	LastError       string    `json:"lastError,omitempty"`
	LastOkAt        time.Time `json:"lastOkAt,omitempty"`
}
