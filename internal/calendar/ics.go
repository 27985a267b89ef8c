package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// DecodeICS reads iCalendar data and appends every blocking VEVENT to
// owner's busy list. Cancelled, TRANSP:TRANSPARENT and zero-length events
// are ignored.
// All-day events block the whole day in the event zone. Recurring events
// are expanded inside window; with a zero window only the first occurrence
// is used.
func DecodeICS(r io.Reader, owner models.Participant, window models.TimeInterval, fallback *time.Location) (models.Participant, Stats, error) {
	if fallback == nil {
		fallback = time.UTC
	}
	loc := owner.HomeLocation(fallback)
	var stats Stats

	busy := append([]models.TimeInterval(nil), owner.Busy...)
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Participant{}, stats, fmt.Errorf("decode ics: %w", err)
		}
		for _, ev := range cal.Events() {
			stats.Events++
			if !icsBlocksTime(ev) {
				stats.Ignored++
				continue
			}
			intervals, err := occurrences(ev, window, loc)
			if err != nil {
				if errors.Is(err, errZeroLength) {
					stats.Ignored++
					continue
				}
				if errors.Is(err, models.ErrInvalidInterval) {
					return models.Participant{}, stats, err
				}
				stats.Skipped++
				continue
			}
			busy = append(busy, intervals...)
			stats.Busy += len(intervals)
		}
	}

	owner.Busy = busy
	return owner, stats, nil
}

// LoadICSFile is DecodeICS on a file.
func LoadICSFile(path string, owner models.Participant, window models.TimeInterval, fallback *time.Location) (models.Participant, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Participant{}, Stats{}, err
	}
	defer f.Close()
	return DecodeICS(f, owner, window, fallback)
}

func icsBlocksTime(ev ical.Event) bool {
	if status, err := ev.Props.Text(ical.PropStatus); err == nil && strings.EqualFold(status, "CANCELLED") {
		return false
	}
	if transp, err := ev.Props.Text(ical.PropTransparency); err == nil && strings.EqualFold(transp, "TRANSPARENT") {
		return false
	}
	return true
}

var errZeroLength = errors.New("event occupies no time")

func occurrences(ev ical.Event, window models.TimeInterval, loc *time.Location) ([]models.TimeInterval, error) {
	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return nil, err
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, errors.New("event has no DTSTART")
	}
	// DTSTART with no DTEND or DURATION marks a point in time.
	if end.Equal(start) {
		return nil, errZeroLength
	}
	first, err := models.NewTimeInterval(start, end)
	if err != nil {
		return nil, err
	}
	if window.IsZero() {
		return []models.TimeInterval{first}, nil
	}

	set, err := ev.RecurrenceSet(loc)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return []models.TimeInterval{first}, nil
	}
	length := first.Duration()
	var out []models.TimeInterval
	for _, at := range set.Between(window.Start().Add(-length), window.End(), true) {
		out = append(out, models.MustInterval(at, at.Add(length)))
	}
	return out, nil
}
