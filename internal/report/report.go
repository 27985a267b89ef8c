// Package report renders ranked slots for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// Summary echoes the parameters of one optimization run.
type Summary struct {
	RunID           string              `json:"run_id,omitempty"`
	WindowStart     time.Time           `json:"window_start"`
	WindowEnd       time.Time           `json:"window_end"`
	DurationMinutes int                 `json:"duration_minutes"`
	LocationType    models.LocationType `json:"location_type"`
	Urgency         models.Urgency      `json:"urgency,omitempty"`
	Timezone        string              `json:"timezone"`
	Attendees       int                 `json:"num_attendees"`
}

// Slot is a ranked slot with a display label.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	StartTime string    `json:"start_time"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
}

// Document is the JSON result shape shared by the CLI and the HTTP API.
type Document struct {
	Summary
	Slots []Slot `json:"slots"`
}

// NewDocument labels slots in loc, which should be the reference zone.
func NewDocument(summary Summary, slots []models.CandidateSlot, loc *time.Location) Document {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, Slot{
			Start:     s.Start.In(loc),
			End:       s.End.In(loc),
			StartTime: FormatSlot(s.Start.In(loc), s.End.In(loc)),
			Score:     s.Score,
			Reasons:   append([]string(nil), s.Reasons...),
		})
	}
	summary.WindowStart = summary.WindowStart.In(loc)
	summary.WindowEnd = summary.WindowEnd.In(loc)
	return Document{Summary: summary, Slots: out}
}

// FormatSlot renders "Friday, March 15 at 10:00 AM - 11:00 AM EDT".
func FormatSlot(start, end time.Time) string {
	return fmt.Sprintf("%s at %s - %s", start.Format("Monday, January 2"), start.Format("3:04 PM"), end.Format("3:04 PM MST"))
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteText writes a human-readable report with a score bar per slot.
func WriteText(w io.Writer, doc Document) error {
	var b strings.Builder
	rule := strings.Repeat("=", 70)

	if len(doc.Slots) == 0 {
		b.WriteString("\nNo available meeting slots found in the specified time window.\n")
		b.WriteString("\nTips:\n")
		b.WriteString("  - Try expanding your time window\n")
		b.WriteString("  - Consider a shorter meeting duration\n")
		b.WriteString("  - Check if all attendees have conflicting events\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "\n%s\nOPTIMAL MEETING TIMES FOUND\n%s\n", rule, rule)
	b.WriteString("\nSearch parameters:\n")
	fmt.Fprintf(&b, "  - Attendees: %d people\n", doc.Attendees)
	fmt.Fprintf(&b, "  - Duration:  %d minutes\n", doc.DurationMinutes)
	fmt.Fprintf(&b, "  - Location:  %s\n", locationLabel(doc.LocationType))
	fmt.Fprintf(&b, "  - Window:    %s to %s\n", doc.WindowStart.Format("Mon Jan 2 15:04"), doc.WindowEnd.Format("Mon Jan 2 15:04 MST"))
	fmt.Fprintf(&b, "\nTop %d recommended times:\n\n", len(doc.Slots))

	for i, slot := range doc.Slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.StartTime)
		fmt.Fprintf(&b, "   Score: [%s] %.1f\n", ScoreBar(slot.Score), slot.Score)

		positives, cautions, notes := splitReasons(slot.Reasons)
		if len(positives) > 0 {
			fmt.Fprintf(&b, "   + %s\n", strings.Join(positives, ", "))
		}
		if len(cautions) > 0 {
			fmt.Fprintf(&b, "   ! %s\n", strings.Join(cautions, ", "))
		}
		for _, n := range notes {
			fmt.Fprintf(&b, "   i %s\n", n)
		}
		b.WriteString("\n")
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// ScoreBar draws ten cells, one per ten points, clamped to [0, 10].
func ScoreBar(score float64) string {
	filled := int(score / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func splitReasons(reasons []string) (positives, cautions, notes []string) {
	for _, r := range reasons {
		switch {
		case strings.HasPrefix(r, models.ReasonBonus):
			positives = append(positives, strings.TrimPrefix(r, models.ReasonBonus))
		case strings.HasPrefix(r, models.ReasonPenalty):
			cautions = append(cautions, strings.TrimPrefix(r, models.ReasonPenalty))
		case strings.HasPrefix(r, models.ReasonAdvisory):
			notes = append(notes, strings.TrimPrefix(r, models.ReasonAdvisory))
		default:
			notes = append(notes, r)
		}
	}
	return positives, cautions, notes
}

func locationLabel(t models.LocationType) string {
	switch t {
	case models.LocationInPerson:
		return "In-person"
	case models.LocationHybrid:
		return "Hybrid"
	default:
		return "Virtual"
	}
}
