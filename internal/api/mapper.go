package api

import (
	"fmt"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/calendar"
	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

// Optimization is a decoded OptimizeRequest ready for the engine.
type Optimization struct {
	Window       models.TimeInterval
	Participants []models.Participant
	Request      models.MeetingRequest
	Timezone     string
	TopK         int
	Overrides    map[string]any
	Stats        calendar.Stats
}

// ResolveTimezone picks the reference zone: the request's, then the
// configured default, then the first participant's. UTC when all are empty.
func ResolveTimezone(requested, fallback string, participants []calendar.ParticipantDoc) (string, *time.Location, error) {
	name := requested
	if name == "" {
		name = fallback
	}
	if name == "" {
		for _, p := range participants {
			if p.Timezone != "" {
				name = p.Timezone
				break
			}
		}
	}
	loc, err := utils.LoadLocation(name)
	if err != nil {
		return "", nil, &models.InvalidRequestError{Field: "timezone", Reason: err.Error()}
	}
	if name == "" {
		name = "UTC"
	}
	return name, loc, nil
}

// FromOptimizeRequest maps the transport request into domain values.
// A zero duration is left for the caller to default from policy.
func FromOptimizeRequest(req OptimizeRequest, defaultTimezone string) (Optimization, error) {
	name, loc, err := ResolveTimezone(req.Timezone, defaultTimezone, req.Participants)
	if err != nil {
		return Optimization{}, err
	}

	window, err := parseWindow(req.WindowStart, req.WindowEnd, loc)
	if err != nil {
		return Optimization{}, err
	}

	locationType, err := models.ParseLocationType(req.LocationType)
	if err != nil {
		return Optimization{}, err
	}
	urgency, err := models.ParseUrgency(req.Urgency)
	if err != nil {
		return Optimization{}, err
	}
	if req.DurationMinutes < 0 {
		return Optimization{}, &models.InvalidRequestError{Field: "duration_minutes", Reason: "must not be negative"}
	}
	if req.TopK < 0 {
		return Optimization{}, &models.InvalidRequestError{Field: "top_k", Reason: "must not be negative"}
	}

	participants, stats, err := calendar.Convert(req.Participants, loc)
	if err != nil {
		return Optimization{}, err
	}

	return Optimization{
		Window:       window,
		Participants: participants,
		Request: models.MeetingRequest{
			DurationMinutes: req.DurationMinutes,
			Urgency:         urgency,
			LocationType:    locationType,
			Location:        loc,
			TimePreference:  req.TimePreference,
		},
		Timezone:  name,
		TopK:      req.TopK,
		Overrides: req.Policy,
		Stats:     stats,
	}, nil
}

func parseWindow(startValue, endValue string, loc *time.Location) (models.TimeInterval, error) {
	if startValue == "" || endValue == "" {
		return models.TimeInterval{}, &models.InvalidRequestError{Field: "window", Reason: "window_start and window_end are required"}
	}
	start, err := utils.ParseTimestamp(startValue, loc)
	if err != nil {
		return models.TimeInterval{}, &models.InvalidRequestError{Field: "window_start", Reason: err.Error()}
	}
	end, err := utils.ParseTimestamp(endValue, loc)
	if err != nil {
		return models.TimeInterval{}, &models.InvalidRequestError{Field: "window_end", Reason: err.Error()}
	}
	window, err := models.NewTimeInterval(start, end)
	if err != nil {
		return models.TimeInterval{}, fmt.Errorf("window: %w", err)
	}
	return window, nil
}
