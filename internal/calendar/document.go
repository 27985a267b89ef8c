// Package calendar converts calendar exports into engine participants.
package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

// Stats counts what happened to the events of one import.
type Stats struct {
	Events  int `json:"events"`
	Busy    int `json:"busy"`
	Ignored int `json:"ignored"`
	Skipped int `json:"skipped"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Events += other.Events
	s.Busy += other.Busy
	s.Ignored += other.Ignored
	s.Skipped += other.Skipped
}

// TimeValue is an event boundary. It accepts a bare ISO-8601 string or the
// Google Calendar object form {"dateTime": ..., "timeZone": ...}; "date"
// marks an all-day boundary.
type TimeValue struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *TimeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TimeValue{DateTime: s}
		return nil
	}
	type plain TimeValue
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = TimeValue(p)
	return nil
}

// IsZero reports whether neither a date nor a date-time is set.
func (v TimeValue) IsZero() bool { return v.DateTime == "" && v.Date == "" }

// Resolve parses the value. Naive timestamps are read in the value's own
// zone when it names one, otherwise in fallback.
func (v TimeValue) Resolve(fallback *time.Location) (time.Time, error) {
	loc := fallback
	if v.TimeZone != "" {
		zone, err := utils.LoadLocation(v.TimeZone)
		if err != nil {
			return time.Time{}, err
		}
		loc = zone
	}
	raw := v.DateTime
	if raw == "" {
		raw = v.Date
	}
	return utils.ParseTimestamp(raw, loc)
}

// EventDoc is one calendar entry.
type EventDoc struct {
	Start        TimeValue `json:"start"`
	End          TimeValue `json:"end"`
	Summary      string    `json:"summary,omitempty"`
	Status       string    `json:"status,omitempty"`
	Transparency string    `json:"transparency,omitempty"`
}

// blocksTime is false for cancelled events and ones marked as free.
func (e EventDoc) blocksTime() bool {
	return !strings.EqualFold(e.Status, "cancelled") && !strings.EqualFold(e.Transparency, "transparent")
}

// PreferencesDoc carries soft wishes. preferred_time_of_day wins over the
// older preferred_meeting_times list.
type PreferencesDoc struct {
	PreferredTimeOfDay    string   `json:"preferred_time_of_day,omitempty"`
	PreferredMeetingTimes []string `json:"preferred_meeting_times,omitempty"`
	AvoidBackToBack       bool     `json:"avoid_back_to_back,omitempty"`
	MinBreakMinutes       int      `json:"min_break_minutes,omitempty"`
}

// ParticipantDoc is one person's calendar.
type ParticipantDoc struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Preferences PreferencesDoc `json:"preferences"`
	Events      []EventDoc     `json:"events"`
}

// ToParticipant converts the document. Events whose timestamps cannot be
// parsed are skipped and counted; events with end <= start fail with
// *models.InvalidIntervalError.
func (d ParticipantDoc) ToParticipant(fallback *time.Location) (models.Participant, Stats, error) {
	if fallback == nil {
		fallback = time.UTC
	}
	var stats Stats

	home := fallback
	if d.Timezone != "" {
		loc, err := utils.LoadLocation(d.Timezone)
		if err != nil {
			return models.Participant{}, stats, &models.InvalidRequestError{Field: "timezone", Reason: fmt.Sprintf("participant %s: %v", d.label(), err)}
		}
		home = loc
	}

	prefs, err := d.Preferences.toModel()
	if err != nil {
		return models.Participant{}, stats, err
	}

	busy := make([]models.TimeInterval, 0, len(d.Events))
	for _, ev := range d.Events {
		stats.Events++
		if !ev.blocksTime() {
			stats.Ignored++
			continue
		}
		if ev.Start.IsZero() || ev.End.IsZero() {
			stats.Skipped++
			continue
		}
		start, errStart := ev.Start.Resolve(home)
		end, errEnd := ev.End.Resolve(home)
		if errStart != nil || errEnd != nil {
			stats.Skipped++
			continue
		}
		iv, err := models.NewTimeInterval(start, end)
		if err != nil {
			return models.Participant{}, stats, fmt.Errorf("participant %s event %q: %w", d.label(), ev.Summary, err)
		}
		busy = append(busy, iv)
		stats.Busy++
	}

	return models.Participant{
		ID:          d.ID,
		Name:        d.Name,
		Email:       d.Email,
		Timezone:    d.Timezone,
		Busy:        busy,
		Preferences: prefs,
	}, stats, nil
}

func (d ParticipantDoc) label() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

func (p PreferencesDoc) toModel() (models.Preferences, error) {
	if p.MinBreakMinutes < 0 {
		return models.Preferences{}, &models.InvalidRequestError{Field: "min_break_minutes", Reason: "must not be negative"}
	}
	tod, err := models.ParseTimeOfDay(p.PreferredTimeOfDay)
	if err != nil {
		return models.Preferences{}, err
	}
	if tod == models.TimeOfDayNone {
		for _, candidate := range p.PreferredMeetingTimes {
			if parsed, err := models.ParseTimeOfDay(candidate); err == nil && parsed != models.TimeOfDayNone {
				tod = parsed
				break
			}
		}
	}
	return models.Preferences{
		PreferredTimeOfDay: tod,
		AvoidBackToBack:    p.AvoidBackToBack,
		MinBreakMinutes:    p.MinBreakMinutes,
	}, nil
}
