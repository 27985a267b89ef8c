package engine

import (
	"fmt"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
)

const (
	noon          = 12 * 60
	noAdjustments = models.ReasonBonus + "No policy adjustments"
)

var (
	optimalMorning   = policy.Range{Start: 10 * 60, End: 11 * 60}
	optimalAfternoon = policy.Range{Start: 14 * 60, End: 15 * 60}
	middayWindow     = policy.Range{Start: 11 * 60, End: 14 * 60}
	inPersonEarliest = 9 * 60
)

// Outcome is what a rule contributes to one slot.
type Outcome struct {
	Delta int
	Label string
}

// RuleFunc evaluates one condition against a slot. ok is false when the
// condition does not hold.
type RuleFunc func(slot models.TimeInterval, sc *ScoreContext, pol *policy.Policy) (out Outcome, ok bool)

// Rule is a named scoring condition.
type Rule struct {
	Name string
	Eval RuleFunc
}

// ScoreContext carries the per-call inputs shared by every slot.
type ScoreContext struct {
	Request      models.MeetingRequest
	Participants []models.Participant
	Location     *time.Location
	// Timezones is the number of distinct participant home zones.
	Timezones int
}

// NewScoreContext builds the context for one optimization call.
func NewScoreContext(participants []models.Participant, req models.MeetingRequest) *ScoreContext {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	// A participant without a zone lives in the reference zone.
	zones := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		zone := p.Timezone
		if zone == "" {
			zone = loc.String()
		}
		zones[zone] = struct{}{}
	}
	return &ScoreContext{
		Request:      req,
		Participants: participants,
		Location:     loc,
		Timezones:    len(zones),
	}
}

// clock is a slot expressed on the reference-zone wall clock.
type clock struct {
	start    int
	end      int
	weekday  time.Weekday
	location models.LocationType
}

func (sc *ScoreContext) clock(slot models.TimeInterval) clock {
	local := slot.Start().In(sc.Location)
	start := local.Hour()*60 + local.Minute()
	return clock{
		start:    start,
		end:      start + slot.DurationMinutes(),
		weekday:  local.Weekday(),
		location: sc.Request.LocationType,
	}
}

func penaltyWhen(key, label string, cond func(c clock, sc *ScoreContext, pol *policy.Policy) bool) RuleFunc {
	return func(slot models.TimeInterval, sc *ScoreContext, pol *policy.Policy) (Outcome, bool) {
		if !cond(sc.clock(slot), sc, pol) {
			return Outcome{}, false
		}
		return Outcome{Delta: pol.Penalty(key), Label: label}, true
	}
}

func bonusWhen(key, label string, cond func(c clock, sc *ScoreContext, pol *policy.Policy) bool) RuleFunc {
	return func(slot models.TimeInterval, sc *ScoreContext, pol *policy.Policy) (Outcome, bool) {
		if !cond(sc.clock(slot), sc, pol) {
			return Outcome{}, false
		}
		return Outcome{Delta: pol.Bonus(key), Label: label}, true
	}
}

func isOptimal(c clock) bool {
	return optimalMorning.Contains(c.start) || optimalAfternoon.Contains(c.start)
}

// DefaultRules returns the scoring rules in reason order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: policy.OutsideWorkHours, Eval: penaltyWhen(policy.OutsideWorkHours, "Outside work hours", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			wh := pol.WorkHours()
			return c.start < wh.Start || c.end > wh.End
		})},
		{Name: policy.Weekend, Eval: penaltyWhen(policy.Weekend, "Weekend", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.weekday == time.Saturday || c.weekday == time.Sunday
		})},
		{Name: policy.OverlapsLunch, Eval: penaltyWhen(policy.OverlapsLunch, "Overlaps lunch", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			return pol.Lunch().Overlaps(c.start, c.end)
		})},
		{Name: policy.OptimalTimeSlot, Eval: bonusWhen(policy.OptimalTimeSlot, "Optimal time slot", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return isOptimal(c)
		})},
		{Name: policy.EarlyMorning, Eval: penaltyWhen(policy.EarlyMorning, "Early morning", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			return c.start < pol.WorkHours().Start+60 && !isOptimal(c)
		})},
		{Name: policy.LateEvening, Eval: penaltyWhen(policy.LateEvening, "Late in the day", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			return c.start >= pol.WorkHours().End-60
		})},
		{Name: policy.MondayMorning, Eval: bonusWhen(policy.MondayMorning, "Monday morning", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.weekday == time.Monday && c.start < noon
		})},
		{Name: policy.FridayAfternoon, Eval: penaltyWhen(policy.FridayAfternoon, "Friday afternoon", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.weekday == time.Friday && c.start >= noon
		})},
		{Name: policy.VirtualMeeting, Eval: bonusWhen(policy.VirtualMeeting, "Virtual meeting", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.location == models.LocationVirtual
		})},
		{Name: policy.InPersonMidday, Eval: bonusWhen(policy.InPersonMidday, "In-person around midday", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.location == models.LocationInPerson && middayWindow.Overlaps(c.start, c.end)
		})},
		{Name: policy.InPersonEarly, Eval: penaltyWhen(policy.InPersonEarly, "Too early for in-person", func(c clock, _ *ScoreContext, _ *policy.Policy) bool {
			return c.location == models.LocationInPerson && c.start < inPersonEarliest
		})},
		{Name: policy.NoMorningBuffer, Eval: penaltyWhen(policy.NoMorningBuffer, "Starts right at start of day", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			return c.start == pol.WorkHours().Start
		})},
		{Name: policy.NoEveningBuffer, Eval: penaltyWhen(policy.NoEveningBuffer, "Ends right at end of day", func(c clock, _ *ScoreContext, pol *policy.Policy) bool {
			return c.end == pol.WorkHours().End
		})},
		{Name: policy.AdditionalTimezone, Eval: additionalTimezones},
	}
}

func additionalTimezones(_ models.TimeInterval, sc *ScoreContext, pol *policy.Policy) (Outcome, bool) {
	extra := sc.Timezones - 1
	if extra <= 0 {
		return Outcome{}, false
	}
	label := "1 additional timezone"
	if extra > 1 {
		label = fmt.Sprintf("%d additional timezones", extra)
	}
	return Outcome{Delta: pol.Penalty(policy.AdditionalTimezone) * extra, Label: label}, true
}

// Scorer folds a rule list over each candidate slot.
type Scorer struct {
	rules []Rule
}

// NewScorer builds a scorer. With no rules it uses DefaultRules.
func NewScorer(rules ...Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scorer{rules: rules}
}

// Score computes base score plus every non-zero rule delta, followed by
// advisory reasons that do not affect the number.
func (s *Scorer) Score(slot models.TimeInterval, sc *ScoreContext, pol *policy.Policy) models.CandidateSlot {
	total := pol.BaseScore()
	reasons := make([]string, 0, 4)
	for _, rule := range s.rules {
		out, ok := rule.Eval(slot, sc, pol)
		if !ok || out.Delta == 0 {
			continue
		}
		total += out.Delta
		reasons = append(reasons, formatReason(out))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, noAdjustments)
	}
	reasons = append(reasons, advisories(slot, sc)...)

	return models.CandidateSlot{
		Start:   slot.Start().In(sc.Location),
		End:     slot.End().In(sc.Location),
		Score:   float64(total),
		Reasons: reasons,
	}
}

func formatReason(out Outcome) string {
	prefix := models.ReasonBonus
	if out.Delta < 0 {
		prefix = models.ReasonPenalty
	}
	return fmt.Sprintf("%s%s (%+d)", prefix, out.Label, out.Delta)
}

// advisories reports participant preferences the slot misses. They are
// informational and never change the score.
func advisories(slot models.TimeInterval, sc *ScoreContext) []string {
	var out []string
	for _, p := range sc.Participants {
		pref := p.Preferences.PreferredTimeOfDay
		if pref != "" && pref != models.TimeOfDayNone {
			local := slot.Start().In(p.HomeLocation(sc.Location))
			if bucket := models.BucketOf(local.Hour()*60 + local.Minute()); bucket != pref {
				out = append(out, fmt.Sprintf("%s%s prefers %s meetings (slot is %s)", models.ReasonAdvisory, p.DisplayName(), pref, bucket))
			}
		}
		if p.Preferences.AvoidBackToBack && tooClose(slot, p.Busy, p.Preferences.MinBreakMinutes) {
			out = append(out, fmt.Sprintf("%s%s wants at least %d min between meetings", models.ReasonAdvisory, p.DisplayName(), p.Preferences.MinBreakMinutes))
		}
	}
	return out
}

func tooClose(slot models.TimeInterval, busy []models.TimeInterval, minBreak int) bool {
	gap := time.Duration(minBreak) * time.Minute
	for _, iv := range busy {
		if iv.IsZero() {
			continue
		}
		before := slot.Start().Sub(iv.End())
		after := iv.Start().Sub(slot.End())
		if (before >= 0 && before <= gap) || (after >= 0 && after <= gap) {
			return true
		}
	}
	return false
}
