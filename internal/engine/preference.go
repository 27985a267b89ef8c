package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// HourRange is a [Start, End) span of local hours.
type HourRange struct {
	Start int
	End   int
}

var timePreferenceHours = map[string]HourRange{
	"lunch":          {11, 14},
	"lunchtime":      {11, 14},
	"noon":           {11, 14},
	"midday":         {11, 14},
	"dinner":         {17, 21},
	"dinner time":    {17, 21},
	"dinnertime":     {17, 21},
	"evening":        {17, 21},
	"morning":        {8, 12},
	"coffee":         {8, 11},
	"breakfast":      {7, 10},
	"afternoon":      {12, 17},
	"late afternoon": {15, 18},
	"early morning":  {7, 10},
	"night":          {18, 22},
}

// keywordsByLength is checked longest first so "late afternoon" wins over
// "afternoon".
var keywordsByLength = func() []string {
	keys := make([]string, 0, len(timePreferenceHours))
	for k := range timePreferenceHours {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// PreferredHours maps free text such as "team lunch" to an hour range.
func PreferredHours(preference string) (HourRange, bool) {
	text := strings.ToLower(strings.TrimSpace(preference))
	if text == "" {
		return HourRange{}, false
	}
	for _, kw := range keywordsByLength {
		if strings.Contains(text, kw) {
			return timePreferenceHours[kw], true
		}
	}
	return HourRange{}, false
}

// FilterByTimePreference keeps slots whose start hour on the loc clock falls
// in the preference's range. When the preference is unrecognised or nothing
// matches, slots is returned unchanged.
func FilterByTimePreference(slots []models.CandidateSlot, preference string, loc *time.Location) []models.CandidateSlot {
	hours, ok := PreferredHours(preference)
	if !ok {
		return slots
	}
	if loc == nil {
		loc = time.UTC
	}
	filtered := make([]models.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		h := s.Start.In(loc).Hour()
		if h >= hours.Start && h < hours.End {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return slots
	}
	return filtered
}
