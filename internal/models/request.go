package models

import (
	"fmt"
	"strings"
	"time"
)

// Urgency is caller-supplied priority. It is carried through but not scored.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// ParseUrgency accepts the enum spellings; empty means normal.
func ParseUrgency(value string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return UrgencyNormal, nil
	case "low":
		return UrgencyLow, nil
	case "high":
		return UrgencyHigh, nil
	case "urgent":
		return UrgencyUrgent, nil
	default:
		return UrgencyNormal, &InvalidRequestError{Field: "urgency", Reason: fmt.Sprintf("unknown value %q", value)}
	}
}

// LocationType describes where the meeting happens.
type LocationType string

const (
	LocationVirtual  LocationType = "virtual"
	LocationInPerson LocationType = "in_person"
	LocationHybrid   LocationType = "hybrid"
)

// ParseLocationType accepts in_person, in-person and "in person"; empty means virtual.
func ParseLocationType(value string) (LocationType, error) {
	normalised := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(value)))
	switch normalised {
	case "", "virtual":
		return LocationVirtual, nil
	case "in_person", "inperson":
		return LocationInPerson, nil
	case "hybrid":
		return LocationHybrid, nil
	default:
		return LocationVirtual, &InvalidRequestError{Field: "location_type", Reason: fmt.Sprintf("unknown value %q", value)}
	}
}

// MeetingRequest describes the meeting being scheduled.
type MeetingRequest struct {
	DurationMinutes int
	Urgency         Urgency
	LocationType    LocationType
	// Location is the reference zone used for work hours, lunch and weekday
	// rules. The engine requires it; callers resolve any default explicitly.
	Location *time.Location
	// TimePreference is an optional keyword ("lunch", "morning", ...) that
	// narrows the ranked output to matching hours when any slot matches.
	TimePreference string
}

// Duration returns the requested length as a time.Duration.
func (r MeetingRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// Validate checks the fields the engine depends on.
func (r MeetingRequest) Validate() error {
	if r.DurationMinutes <= 0 {
		return &InvalidRequestError{Field: "duration_minutes", Reason: "must be greater than zero"}
	}
	if r.Location == nil {
		return &InvalidRequestError{Field: "timezone", Reason: "reference timezone is required"}
	}
	switch r.LocationType {
	case LocationVirtual, LocationInPerson, LocationHybrid:
	default:
		return &InvalidRequestError{Field: "location_type", Reason: fmt.Sprintf("unknown value %q", r.LocationType)}
	}
	switch r.Urgency {
	case "", UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent:
	default:
		return &InvalidRequestError{Field: "urgency", Reason: fmt.Sprintf("unknown value %q", r.Urgency)}
	}
	return nil
}
