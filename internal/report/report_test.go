package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

var est = time.FixedZone("EST", -5*3600)

func sampleDocument() Document {
	start := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	slots := []models.CandidateSlot{{
		Start:   start,
		End:     start.Add(time.Hour),
		Score:   120,
		Reasons: []string{"[+] Optimal time slot (+15)", "[-] Friday afternoon (-15)", "[i] Alex prefers morning meetings (slot is morning)"},
	}}
	summary := Summary{
		RunID:           "run-1",
		WindowStart:     time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC),
		WindowEnd:       time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		LocationType:    models.LocationVirtual,
		Timezone:        "EST",
		Attendees:       2,
	}
	return NewDocument(summary, slots, est)
}

func TestNewDocumentLabelsInReferenceZone(t *testing.T) {
	doc := sampleDocument()
	if got := doc.Slots[0].StartTime; got != "Friday, March 15 at 10:00 AM - 11:00 AM EST" {
		t.Fatalf("unexpected label %q", got)
	}
	if doc.WindowStart.Location() != est {
		t.Fatalf("window not expressed in reference zone")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleDocument()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"OPTIMAL MEETING TIMES FOUND",
		"Attendees: 2 people",
		"Score: [██████████] 120.0",
		"+ Optimal time slot (+15)",
		"! Friday afternoon (-15)",
		"i Alex prefers morning meetings",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Document{}); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "No available meeting slots") {
		t.Fatalf("expected empty-result message, got %q", buf.String())
	}
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleDocument()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"run_id", "window_start", "window_end", "duration_minutes", "location_type", "num_attendees", "slots"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, buf.String())
		}
	}
}

func TestScoreBarClamps(t *testing.T) {
	if got := ScoreBar(-30); got != strings.Repeat("░", 10) {
		t.Fatalf("negative score bar %q", got)
	}
	if got := ScoreBar(55); got != strings.Repeat("█", 5)+strings.Repeat("░", 5) {
		t.Fatalf("mid score bar %q", got)
	}
}
