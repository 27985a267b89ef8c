// Package policy holds the organisation's scoring configuration: work hours,
// the lunch window and the point deltas applied by the scorer.
package policy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Penalty keys.
const (
	OutsideWorkHours   = "outside_work_hours"
	Weekend            = "weekend"
	OverlapsLunch      = "overlaps_lunch"
	LateEvening        = "late_evening"
	EarlyMorning       = "early_morning"
	FridayAfternoon    = "friday_afternoon"
	AdditionalTimezone = "additional_timezone"
	NoMorningBuffer    = "no_morning_buffer"
	NoEveningBuffer    = "no_evening_buffer"
	InPersonEarly      = "in_person_early"
)

// Bonus keys.
const (
	OptimalTimeSlot = "optimal_time_slot"
	MondayMorning   = "monday_morning"
	VirtualMeeting  = "virtual_meeting"
	InPersonMidday  = "in_person_midday"
)

// Scalar keys.
const (
	KeyWorkHoursStart   = "work_hours.start"
	KeyWorkHoursEnd     = "work_hours.end"
	KeyLunchStart       = "lunch_window.start"
	KeyLunchEnd         = "lunch_window.end"
	KeyBaseScore        = "base_score"
	KeyIntervalMinutes  = "meeting_preferences.interval_minutes"
	KeyDefaultDuration  = "meeting_preferences.default_duration"
	penaltyPrefix       = "penalties."
	bonusPrefix         = "bonuses."
	minutesPerDay       = 24 * 60
	defaultBaseScore    = 100
	defaultIntervalMins = 15
	defaultDurationMins = 60
)

// aliases maps spellings used by older org settings files onto current keys.
var aliases = map[string]string{
	penaltyPrefix + "per_additional_timezone": penaltyPrefix + AdditionalTimezone,
}

var defaultPenalties = map[string]int{
	OutsideWorkHours:   -50,
	Weekend:            -40,
	OverlapsLunch:      -30,
	LateEvening:        -25,
	EarlyMorning:       -20,
	FridayAfternoon:    -15,
	AdditionalTimezone: -5,
	NoMorningBuffer:    0,
	NoEveningBuffer:    0,
	InPersonEarly:      0,
}

var defaultBonuses = map[string]int{
	OptimalTimeSlot: 15,
	MondayMorning:   10,
	VirtualMeeting:  5,
	InPersonMidday:  5,
}

// Range is a [Start, End) span of minutes after local midnight.
type Range struct {
	Start int
	End   int
}

// Contains reports whether minute lies in the range.
func (r Range) Contains(minute int) bool { return minute >= r.Start && minute < r.End }

// Overlaps reports whether [start, end) intersects the range.
func (r Range) Overlaps(start, end int) bool { return start < r.End && r.Start < end }

// Policy is an immutable scoring configuration. Construct it with Default,
// New or With; the zero value is not usable.
type Policy struct {
	workHours       Range
	lunch           Range
	penalties       map[string]int
	bonuses         map[string]int
	baseScore       int
	intervalMinutes int
	defaultDuration int
}

// Default returns the documented defaults.
func Default() *Policy {
	p := &Policy{
		workHours:       Range{Start: 9 * 60, End: 17 * 60},
		lunch:           Range{Start: 12 * 60, End: 13 * 60},
		penalties:       make(map[string]int, len(defaultPenalties)),
		bonuses:         make(map[string]int, len(defaultBonuses)),
		baseScore:       defaultBaseScore,
		intervalMinutes: defaultIntervalMins,
		defaultDuration: defaultDurationMins,
	}
	for k, v := range defaultPenalties {
		p.penalties[k] = v
	}
	for k, v := range defaultBonuses {
		p.bonuses[k] = v
	}
	return p
}

// New merges overrides over the defaults.
func New(overrides map[string]any) (*Policy, error) {
	return Default().With(overrides)
}

// With returns a new Policy with overrides applied key by key over p. Every
// unrecognised key is reported together in one *UnknownPolicyKeyError.
func (p *Policy) With(overrides map[string]any) (*Policy, error) {
	next := p.clone()
	if len(overrides) == 0 {
		return next, nil
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unknown []string
	for _, raw := range keys {
		key := canonicalKey(raw)
		value := overrides[raw]
		if !isKnown(key) {
			unknown = append(unknown, raw)
			continue
		}
		if err := next.set(key, value); err != nil {
			return nil, err
		}
	}
	if len(unknown) > 0 {
		return nil, &UnknownPolicyKeyError{Keys: unknown}
	}
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// WorkHours returns the working day span.
func (p *Policy) WorkHours() Range { return p.workHours }

// Lunch returns the lunch window.
func (p *Policy) Lunch() Range { return p.lunch }

// BaseScore is the score every slot starts from.
func (p *Policy) BaseScore() int { return p.baseScore }

// IntervalMinutes is the default generator step.
func (p *Policy) IntervalMinutes() int { return p.intervalMinutes }

// DefaultDurationMinutes is used by callers that omit a duration.
func (p *Policy) DefaultDurationMinutes() int { return p.defaultDuration }

// Penalty returns the (non-positive) delta for a penalty key.
func (p *Policy) Penalty(key string) int { return p.penalties[key] }

// Bonus returns the (non-negative) delta for a bonus key.
func (p *Policy) Bonus(key string) int { return p.bonuses[key] }

// Overrides flattens the policy into dotted keys, the same shape New accepts.
func (p *Policy) Overrides() map[string]any {
	out := map[string]any{
		KeyWorkHoursStart:  p.workHours.Start,
		KeyWorkHoursEnd:    p.workHours.End,
		KeyLunchStart:      p.lunch.Start,
		KeyLunchEnd:        p.lunch.End,
		KeyBaseScore:       p.baseScore,
		KeyIntervalMinutes: p.intervalMinutes,
		KeyDefaultDuration: p.defaultDuration,
	}
	for k, v := range p.penalties {
		out[penaltyPrefix+k] = v
	}
	for k, v := range p.bonuses {
		out[bonusPrefix+k] = v
	}
	return out
}

// Keys lists every recognised override key in sorted order.
func Keys() []string {
	keys := []string{KeyWorkHoursStart, KeyWorkHoursEnd, KeyLunchStart, KeyLunchEnd, KeyBaseScore, KeyIntervalMinutes, KeyDefaultDuration}
	for k := range defaultPenalties {
		keys = append(keys, penaltyPrefix+k)
	}
	for k := range defaultBonuses {
		keys = append(keys, bonusPrefix+k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Policy) clone() *Policy {
	out := *p
	out.penalties = make(map[string]int, len(p.penalties))
	for k, v := range p.penalties {
		out.penalties[k] = v
	}
	out.bonuses = make(map[string]int, len(p.bonuses))
	for k, v := range p.bonuses {
		out.bonuses[k] = v
	}
	return &out
}

func canonicalKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

func isKnown(key string) bool {
	switch key {
	case KeyWorkHoursStart, KeyWorkHoursEnd, KeyLunchStart, KeyLunchEnd, KeyBaseScore, KeyIntervalMinutes, KeyDefaultDuration:
		return true
	}
	if name, ok := strings.CutPrefix(key, penaltyPrefix); ok {
		_, known := defaultPenalties[name]
		return known
	}
	if name, ok := strings.CutPrefix(key, bonusPrefix); ok {
		_, known := defaultBonuses[name]
		return known
	}
	return false
}

func (p *Policy) set(key string, value any) error {
	switch key {
	case KeyWorkHoursStart, KeyWorkHoursEnd, KeyLunchStart, KeyLunchEnd:
		minute, err := minuteOfDay(value)
		if err != nil {
			return &InvalidPolicyValueError{Key: key, Value: value, Reason: err.Error()}
		}
		switch key {
		case KeyWorkHoursStart:
			p.workHours.Start = minute
		case KeyWorkHoursEnd:
			p.workHours.End = minute
		case KeyLunchStart:
			p.lunch.Start = minute
		case KeyLunchEnd:
			p.lunch.End = minute
		}
		return nil
	}

	n, err := integer(value)
	if err != nil {
		return &InvalidPolicyValueError{Key: key, Value: value, Reason: err.Error()}
	}
	switch key {
	case KeyBaseScore:
		p.baseScore = n
	case KeyIntervalMinutes:
		p.intervalMinutes = n
	case KeyDefaultDuration:
		p.defaultDuration = n
	default:
		if name, ok := strings.CutPrefix(key, penaltyPrefix); ok {
			p.penalties[name] = -abs(n)
		} else if name, ok := strings.CutPrefix(key, bonusPrefix); ok {
			p.bonuses[name] = abs(n)
		}
	}
	return nil
}

func (p *Policy) validate() error {
	if p.workHours.Start >= p.workHours.End {
		return &InvalidPolicyValueError{Key: KeyWorkHoursEnd, Value: p.workHours.End, Reason: "work hours must end after they start"}
	}
	if p.lunch.Start >= p.lunch.End {
		return &InvalidPolicyValueError{Key: KeyLunchEnd, Value: p.lunch.End, Reason: "lunch window must end after it starts"}
	}
	if p.intervalMinutes <= 0 {
		return &InvalidPolicyValueError{Key: KeyIntervalMinutes, Value: p.intervalMinutes, Reason: "must be greater than zero"}
	}
	if p.defaultDuration <= 0 {
		return &InvalidPolicyValueError{Key: KeyDefaultDuration, Value: p.defaultDuration, Reason: "must be greater than zero"}
	}
	return nil
}

// minuteOfDay accepts an integer minute count or an "HH:MM" clock string.
func minuteOfDay(value any) (int, error) {
	if s, ok := value.(string); ok && strings.Contains(s, ":") {
		hh, mm, _ := strings.Cut(strings.TrimSpace(s), ":")
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || h < 0 || h > 24 || m < 0 || m > 59 {
			return 0, fmt.Errorf("expected HH:MM, got %q", s)
		}
		value = h*60 + m
	}
	n, err := integer(value)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > minutesPerDay {
		return 0, fmt.Errorf("minute of day %d out of range", n)
	}
	return n, nil
}

func integer(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
