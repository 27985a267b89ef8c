package engine

import (
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
)

// Options tune an Optimizer. Zero values pick the defaults.
type Options struct {
	// TopK is the default result size (5 when zero).
	TopK int
	// Step is the generator step. Zero defers to the policy interval.
	Step time.Duration
	// AlignToStep rounds each gap start up to a step boundary.
	AlignToStep bool
	// RequireParticipants turns an empty participant list into an error
	// instead of treating the whole window as free.
	RequireParticipants bool
}

// Result is the ranked output plus counters for observability.
type Result struct {
	Slots      []models.CandidateSlot
	Gaps       int
	Candidates int
}

// Optimizer runs aggregation, generation, scoring and ranking. It holds no
// per-call state and may be shared between goroutines.
type Optimizer struct {
	logger *slog.Logger
	opts   Options
	scorer *Scorer
}

// NewOptimizer constructs an optimizer with the default rule set.
func NewOptimizer(logger *slog.Logger, opts Options) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{logger: logger, opts: opts, scorer: NewScorer()}
}

// WithScorer replaces the scorer, for callers with custom rules.
func (o *Optimizer) WithScorer(s *Scorer) *Optimizer {
	clone := *o
	clone.scorer = s
	return &clone
}

// Optimize returns the best topK slots for the meeting. topK of zero uses
// the configured default. A window too small for the meeting yields an empty
// slice and no error.
func (o *Optimizer) Optimize(window models.TimeInterval, participants []models.Participant, req models.MeetingRequest, pol *policy.Policy, topK int) ([]models.CandidateSlot, error) {
	res, err := o.Run(window, participants, req, pol, topK)
	if err != nil {
		return nil, err
	}
	return res.Slots, nil
}

// Run is Optimize with intermediate counts.
func (o *Optimizer) Run(window models.TimeInterval, participants []models.Participant, req models.MeetingRequest, pol *policy.Policy, topK int) (Result, error) {
	if err := o.validate(window, participants, req, topK); err != nil {
		return Result{}, err
	}
	if pol == nil {
		pol = policy.Default()
	}
	if topK == 0 {
		topK = o.opts.TopK
	}
	step := o.opts.Step
	if step <= 0 {
		step = time.Duration(pol.IntervalMinutes()) * time.Minute
	}

	blocks := MergeBusy(participants, window)
	gaps := FreeGaps(blocks, window)
	positions := GenerateSlots(gaps, req.Duration(), step, o.opts.AlignToStep, req.Location)

	sc := NewScoreContext(participants, req)
	scored := make([]models.CandidateSlot, 0, len(positions))
	for _, pos := range positions {
		scored = append(scored, o.scorer.Score(pos, sc, pol))
	}
	if req.TimePreference != "" {
		scored = FilterByTimePreference(scored, req.TimePreference, req.Location)
	}
	ranked := Rank(scored, window, topK)

	o.logger.Debug("optimization complete",
		slog.Int("participants", len(participants)),
		slog.Int("busy_blocks", len(blocks)),
		slog.Int("gaps", len(gaps)),
		slog.Int("candidates", len(positions)),
		slog.Int("returned", len(ranked)),
	)

	return Result{Slots: ranked, Gaps: len(gaps), Candidates: len(positions)}, nil
}

func (o *Optimizer) validate(window models.TimeInterval, participants []models.Participant, req models.MeetingRequest, topK int) error {
	if window.IsZero() {
		return &models.InvalidRequestError{Field: "window", Reason: "search window is required"}
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if topK < 0 {
		return &models.InvalidRequestError{Field: "top_k", Reason: "must not be negative"}
	}
	if o.opts.Step < 0 {
		return &models.InvalidRequestError{Field: "step", Reason: "must not be negative"}
	}
	if len(participants) == 0 && o.opts.RequireParticipants {
		return &models.EmptyAvailabilityError{}
	}
	for _, p := range participants {
		if p.Preferences.MinBreakMinutes < 0 {
			return &models.InvalidRequestError{Field: "min_break_minutes", Reason: "must not be negative for " + p.DisplayName()}
		}
	}
	return nil
}
