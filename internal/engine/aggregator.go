package engine

import (
	"sort"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// MergeBusy collects every participant's busy time inside window and
// coalesces it into maximal, non-touching blocks ordered by start. Intervals
// entirely outside the window are dropped; the rest are clipped to it.
func MergeBusy(participants []models.Participant, window models.TimeInterval) []models.TimeInterval {
	busy := make([]models.TimeInterval, 0)
	for _, p := range participants {
		for _, iv := range p.Busy {
			if iv.IsZero() {
				continue
			}
			if clipped, ok := iv.Clip(window); ok {
				busy = append(busy, clipped)
			}
		}
	}
	if len(busy) == 0 {
		return busy
	}

	sort.Slice(busy, func(i, j int) bool {
		if busy[i].Start().Equal(busy[j].Start()) {
			return busy[i].End().Before(busy[j].End())
		}
		return busy[i].Start().Before(busy[j].Start())
	})

	merged := make([]models.TimeInterval, 0, len(busy))
	merged = append(merged, busy[0])
	for _, iv := range busy[1:] {
		last := merged[len(merged)-1]
		if last.Touches(iv) {
			if iv.End().After(last.End()) {
				merged[len(merged)-1] = models.MustInterval(last.Start(), iv.End())
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeGaps returns the complement of blocks within window. blocks must be
// sorted and coalesced, as MergeBusy returns them.
func FreeGaps(blocks []models.TimeInterval, window models.TimeInterval) []models.TimeInterval {
	gaps := make([]models.TimeInterval, 0, len(blocks)+1)
	cursor := window.Start()
	for _, b := range blocks {
		if b.Start().After(cursor) {
			gaps = append(gaps, models.MustInterval(cursor, b.Start()))
		}
		if b.End().After(cursor) {
			cursor = b.End()
		}
	}
	if window.End().After(cursor) {
		gaps = append(gaps, models.MustInterval(cursor, window.End()))
	}
	return gaps
}
