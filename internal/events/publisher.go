// Package events publishes optimization results for downstream consumers
// such as booking or notification services.
package events

import (
	"context"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// SlotsProposed is emitted after every successful optimization.
type SlotsProposed struct {
	RunID           string                 `json:"run_id"`
	GeneratedAt     time.Time              `json:"generated_at"`
	WindowStart     time.Time              `json:"window_start"`
	WindowEnd       time.Time              `json:"window_end"`
	DurationMinutes int                    `json:"duration_minutes"`
	LocationType    models.LocationType    `json:"location_type"`
	Urgency         models.Urgency         `json:"urgency"`
	Timezone        string                 `json:"timezone"`
	ParticipantIDs  []string               `json:"participant_ids"`
	Slots           []models.CandidateSlot `json:"slots"`
}

// Publisher delivers result events.
type Publisher interface {
	PublishSlotsProposed(ctx context.Context, evt SlotsProposed) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// PublishSlotsProposed does nothing.
func (NoopPublisher) PublishSlotsProposed(context.Context, SlotsProposed) error { return nil }

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }
