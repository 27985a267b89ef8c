package engine

import (
	"sort"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// DefaultTopK is the number of slots returned when the caller does not say.
const DefaultTopK = 5

// Rank orders slots by score descending, then earliest start, then closest
// midpoint to the middle of window, and returns the first k. The input slice
// and its reason slices are left untouched.
func Rank(slots []models.CandidateSlot, window models.TimeInterval, k int) []models.CandidateSlot {
	if k <= 0 {
		k = DefaultTopK
	}
	ranked := make([]models.CandidateSlot, len(slots))
	for i, s := range slots {
		ranked[i] = s.Clone()
	}

	mid := window.Midpoint()
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return distance(a, mid) < distance(b, mid)
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func distance(s models.CandidateSlot, mid time.Time) time.Duration {
	d := s.Interval().Midpoint().Sub(mid)
	if d < 0 {
		return -d
	}
	return d
}
