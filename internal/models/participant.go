package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay buckets a clock time into coarse periods.
type TimeOfDay string

const (
	TimeOfDayNone      TimeOfDay = "none"
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

// ParseTimeOfDay accepts the enum spellings case-insensitively; empty means none.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return TimeOfDayNone, nil
	case "morning":
		return TimeOfDayMorning, nil
	case "afternoon":
		return TimeOfDayAfternoon, nil
	case "evening":
		return TimeOfDayEvening, nil
	default:
		return TimeOfDayNone, &InvalidRequestError{Field: "preferred_time_of_day", Reason: fmt.Sprintf("unknown value %q", value)}
	}
}

// BucketOf returns the period a minute-of-day falls in:
// morning before 12:00, afternoon until 17:00, evening from 17:00.
func BucketOf(minuteOfDay int) TimeOfDay {
	switch {
	case minuteOfDay < 12*60:
		return TimeOfDayMorning
	case minuteOfDay < 17*60:
		return TimeOfDayAfternoon
	default:
		return TimeOfDayEvening
	}
}

// Preferences are a participant's soft scheduling wishes.
type Preferences struct {
	PreferredTimeOfDay TimeOfDay
	AvoidBackToBack    bool
	MinBreakMinutes    int
}

// Participant is one attendee with their busy time. The engine reads it but
// never mutates it.
type Participant struct {
	ID          string
	Name        string
	Email       string
	Timezone    string
	Busy        []TimeInterval
	Preferences Preferences
}

// DisplayName returns the best human label available.
func (p Participant) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	case p.ID != "":
		return p.ID
	default:
		return "participant"
	}
}

// HomeLocation loads the participant's timezone, falling back to fallback
// when the zone is empty or unknown.
func (p Participant) HomeLocation(fallback *time.Location) *time.Location {
	if p.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// TimezoneKey labels the participant zone for cache keys; "UTC" when unset.
func (p Participant) TimezoneKey() string {
	if p.Timezone == "" {
		return "UTC"
	}
	return p.Timezone
}
