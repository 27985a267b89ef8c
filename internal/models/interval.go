package models

import "time"

// TimeInterval is a half-open [Start, End) range of absolute instants.
// Both bounds are held in UTC so comparisons never depend on the zone the
// caller used to express them.
type TimeInterval struct {
	start time.Time
	end   time.Time
}

// NewTimeInterval validates and normalises an interval. It fails with
// *InvalidIntervalError when end is not strictly after start.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if !end.After(start) {
		return TimeInterval{}, &InvalidIntervalError{Start: start, End: end}
	}
	return TimeInterval{start: start.UTC(), end: end.UTC()}, nil
}

// MustInterval is NewTimeInterval for literals known to be valid.
func MustInterval(start, end time.Time) TimeInterval {
	iv, err := NewTimeInterval(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Start returns the inclusive lower bound in UTC.
func (iv TimeInterval) Start() time.Time { return iv.start }

// End returns the exclusive upper bound in UTC.
func (iv TimeInterval) End() time.Time { return iv.end }

// IsZero reports whether the interval was never constructed.
func (iv TimeInterval) IsZero() bool { return iv.start.IsZero() && iv.end.IsZero() }

// Duration returns End - Start.
func (iv TimeInterval) Duration() time.Duration { return iv.end.Sub(iv.start) }

// DurationMinutes returns the whole minutes covered by the interval.
func (iv TimeInterval) DurationMinutes() int { return int(iv.Duration() / time.Minute) }

// Overlaps reports whether the two intervals share any instant. An interval
// ending exactly when the other starts does not overlap it.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

// Touches reports whether the intervals overlap or are directly adjacent.
func (iv TimeInterval) Touches(other TimeInterval) bool {
	return !iv.start.After(other.end) && !other.start.After(iv.end)
}

// Contains reports whether t lies in [Start, End).
func (iv TimeInterval) Contains(t time.Time) bool {
	return !t.Before(iv.start) && t.Before(iv.end)
}

// Clip returns the part of iv inside bounds; ok is false when nothing remains.
func (iv TimeInterval) Clip(bounds TimeInterval) (TimeInterval, bool) {
	start := iv.start
	if bounds.start.After(start) {
		start = bounds.start
	}
	end := iv.end
	if bounds.end.Before(end) {
		end = bounds.end
	}
	if !end.After(start) {
		return TimeInterval{}, false
	}
	return TimeInterval{start: start, end: end}, true
}

// Midpoint returns the instant halfway between Start and End.
func (iv TimeInterval) Midpoint() time.Time {
	return iv.start.Add(iv.Duration() / 2)
}

// In returns a copy of the bounds expressed in loc, for display.
func (iv TimeInterval) In(loc *time.Location) (time.Time, time.Time) {
	return iv.start.In(loc), iv.end.In(loc)
}

// SearchWindow bounds one optimization run.
type SearchWindow = TimeInterval

// NewSearchWindow validates a search window. A window shorter than the
// requested duration is accepted; it simply yields no candidates.
func NewSearchWindow(start, end time.Time) (SearchWindow, error) {
	return NewTimeInterval(start, end)
}
