package engine

import (
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// DefaultStep is the generator step when neither options nor policy set one.
const DefaultStep = 15 * time.Minute

// GenerateSlots enumerates every start position, step apart, where a slot of
// duration fits inside a single gap. Output is in gap order, then offset.
// With align set, each gap's first start is rounded up to the next multiple
// of step on the loc clock (09:07 becomes 09:15 for a 15 minute step).
func GenerateSlots(gaps []models.TimeInterval, duration, step time.Duration, align bool, loc *time.Location) []models.TimeInterval {
	slots := make([]models.TimeInterval, 0)
	if duration <= 0 {
		return slots
	}
	if step <= 0 {
		step = DefaultStep
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, gap := range gaps {
		if gap.Duration() < duration {
			continue
		}
		start := gap.Start()
		if align {
			start = alignUp(start, step, loc)
		}
		for end := start.Add(duration); !end.After(gap.End()); end = start.Add(duration) {
			slots = append(slots, models.MustInterval(start, end))
			start = start.Add(step)
		}
	}
	return slots
}

func alignUp(t time.Time, step time.Duration, loc *time.Location) time.Time {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := t.Sub(midnight)
	rem := offset % step
	if rem == 0 {
		return t
	}
	return t.Add(step - rem)
}
