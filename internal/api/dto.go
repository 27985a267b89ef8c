package api

import (
	"github.com/miradorstack/mirador-scheduler/internal/calendar"
	"github.com/miradorstack/mirador-scheduler/internal/report"
)

// OptimizeRequest is the transport shape shared by HTTP and gRPC.
type OptimizeRequest struct {
	WindowStart     string `json:"window_start"`
	WindowEnd       string `json:"window_end"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	LocationType    string `json:"location_type,omitempty"`
	Urgency         string `json:"urgency,omitempty"`
	// Timezone is the reference zone. Naive timestamps are read in it.
	Timezone       string                    `json:"timezone,omitempty"`
	TopK           int                       `json:"top_k,omitempty"`
	TimePreference string                    `json:"time_preference,omitempty"`
	Policy         map[string]any            `json:"policy,omitempty"`
	Participants   []calendar.ParticipantDoc `json:"participants"`
}

// OptimizeResponse echoes the run parameters alongside the ranked slots.
type OptimizeResponse struct {
	report.Document
	Cached bool `json:"cached"`
}

// PolicyResponse lists the effective base policy.
type PolicyResponse struct {
	Settings map[string]any `json:"settings"`
}

type errorResponse struct {
	Error string `json:"error"`
}
