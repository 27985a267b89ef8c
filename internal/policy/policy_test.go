package policy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	p := Default()
	if wh := p.WorkHours(); wh.Start != 540 || wh.End != 1020 {
		t.Fatalf("unexpected work hours: %+v", wh)
	}
	if l := p.Lunch(); l.Start != 720 || l.End != 780 {
		t.Fatalf("unexpected lunch window: %+v", l)
	}
	if p.Penalty(Weekend) != -40 || p.Penalty(AdditionalTimezone) != -5 {
		t.Fatalf("unexpected penalties: weekend=%d tz=%d", p.Penalty(Weekend), p.Penalty(AdditionalTimezone))
	}
	if p.Bonus(OptimalTimeSlot) != 15 || p.Bonus(InPersonMidday) != 5 {
		t.Fatalf("unexpected bonuses")
	}
	if p.Penalty(NoMorningBuffer) != 0 || p.Penalty(InPersonEarly) != 0 {
		t.Fatalf("supplemental penalties should be disabled by default")
	}
	if p.BaseScore() != 100 || p.IntervalMinutes() != 15 || p.DefaultDurationMinutes() != 60 {
		t.Fatalf("unexpected scalars: base=%d step=%d duration=%d", p.BaseScore(), p.IntervalMinutes(), p.DefaultDurationMinutes())
	}
}

func TestNewAppliesOverrides(t *testing.T) {
	p, err := New(map[string]any{
		"work_hours.start":       "08:30",
		"penalties.weekend":      60,
		"bonuses.monday_morning": -12,
		"base_score":             0,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.WorkHours().Start != 510 {
		t.Fatalf("expected 08:30 -> 510, got %d", p.WorkHours().Start)
	}
	if p.Penalty(Weekend) != -60 {
		t.Fatalf("expected penalty normalised to -60, got %d", p.Penalty(Weekend))
	}
	if p.Bonus(MondayMorning) != 12 {
		t.Fatalf("expected bonus normalised to 12, got %d", p.Bonus(MondayMorning))
	}
	if p.BaseScore() != 0 {
		t.Fatalf("expected base score override, got %d", p.BaseScore())
	}
	if Default().Penalty(Weekend) != -40 {
		t.Fatalf("defaults must not change after override")
	}
}

func TestNewRejectsUnknownKeys(t *testing.T) {
	_, err := New(map[string]any{
		"penalties.rainy_day": 5,
		"penalties.weekend":   30,
		"colour":              "blue",
	})
	var unknown *UnknownPolicyKeyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownPolicyKeyError, got %v", err)
	}
	if !reflect.DeepEqual(unknown.Keys, []string{"colour", "penalties.rainy_day"}) {
		t.Fatalf("unexpected unknown keys: %v", unknown.Keys)
	}
	if !errors.Is(err, ErrUnknownPolicyKey) {
		t.Fatalf("expected errors.Is ErrUnknownPolicyKey")
	}
}

func TestNewRejectsInvalidValues(t *testing.T) {
	cases := []map[string]any{
		{"work_hours.start": "nine"},
		{"work_hours.start": 1100},
		{"lunch_window.end": "25:00"},
		{"penalties.weekend": 2.5},
		{"meeting_preferences.interval_minutes": 0},
	}
	for _, overrides := range cases {
		if _, err := New(overrides); !errors.Is(err, ErrInvalidPolicyValue) {
			t.Fatalf("New(%v) expected invalid value, got %v", overrides, err)
		}
	}
}

func TestAliasForAdditionalTimezone(t *testing.T) {
	p, err := New(map[string]any{"penalties.per_additional_timezone": 8})
	if err != nil {
		t.Fatalf("alias rejected: %v", err)
	}
	if p.Penalty(AdditionalTimezone) != -8 {
		t.Fatalf("expected -8, got %d", p.Penalty(AdditionalTimezone))
	}
}

func TestOverridesRoundTrip(t *testing.T) {
	base, err := New(map[string]any{"lunch_window.start": "11:30", "bonuses.virtual_meeting": 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	again, err := New(base.Overrides())
	if err != nil {
		t.Fatalf("New(Overrides()): %v", err)
	}
	if !reflect.DeepEqual(base, again) {
		t.Fatalf("policy changed after round trip")
	}
	if len(Keys()) != len(base.Overrides()) {
		t.Fatalf("Keys and Overrides disagree: %d vs %d", len(Keys()), len(base.Overrides()))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "org_settings.yaml")
	content := `
work_hours:
  start: "08:00"
  end: "16:00"
lunch_window:
  start: "11:30"
  end: "12:30"
penalties:
  weekend: 40
  per_additional_timezone: 10
bonuses:
  optimal_time_slot: 20
meeting_preferences:
  interval_minutes: 30
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	p, err := LoadFile(path, nil)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.WorkHours() != (Range{Start: 480, End: 960}) {
		t.Fatalf("unexpected work hours: %+v", p.WorkHours())
	}
	if p.Penalty(Weekend) != -40 || p.Penalty(AdditionalTimezone) != -10 {
		t.Fatalf("unexpected penalties")
	}
	if p.Bonus(OptimalTimeSlot) != 20 || p.IntervalMinutes() != 30 {
		t.Fatalf("unexpected bonus or interval")
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	p, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if !reflect.DeepEqual(p, Default()) {
		t.Fatalf("expected default policy")
	}
}

func TestLoadFileRejectsUnknownSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org.yaml")
	if err := os.WriteFile(path, []byte("holidays:\n  christmas: 100\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadFile(path, nil); !errors.Is(err, ErrUnknownPolicyKey) {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestSampleOrgSettingsMatchDefaults(t *testing.T) {
	p, err := LoadFile(filepath.Join("..", "..", "configs", "org_settings.yaml"), nil)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(p.Overrides(), Default().Overrides()) {
		t.Fatalf("sample org settings drifted from defaults:\n got %v\nwant %v", p.Overrides(), Default().Overrides())
	}
}
