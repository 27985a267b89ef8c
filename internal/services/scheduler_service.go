package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/mirador-scheduler/internal/api"
	"github.com/miradorstack/mirador-scheduler/internal/cache"
	"github.com/miradorstack/mirador-scheduler/internal/config"
	"github.com/miradorstack/mirador-scheduler/internal/engine"
	"github.com/miradorstack/mirador-scheduler/internal/events"
	"github.com/miradorstack/mirador-scheduler/internal/metrics"
	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
	"github.com/miradorstack/mirador-scheduler/internal/report"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

const (
	resultKeyPrefix    = "scheduler:result:"
	publishedKeyPrefix = "scheduler:published:"
)

// SchedulerService validates requests, runs the optimizer and fans results
// out to the cache and event stream.
type SchedulerService struct {
	logger    *slog.Logger
	optimizer *engine.Optimizer
	base      *policy.Policy
	cfg       config.OptimizerConfig
	cache     cache.Provider
	resultTTL time.Duration
	publisher events.Publisher
	latencies *utils.LatencyTracker
	now       func() time.Time
	newRunID  func() string
}

// Option customises a SchedulerService.
type Option func(*SchedulerService)

// WithCache stores results in provider for ttl.
func WithCache(provider cache.Provider, ttl time.Duration) Option {
	return func(s *SchedulerService) {
		if provider != nil {
			s.cache = provider
			s.resultTTL = ttl
		}
	}
}

// WithPublisher emits a SlotsProposed event after each fresh run.
func WithPublisher(p events.Publisher) Option {
	return func(s *SchedulerService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SchedulerService) { s.now = now }
}

// NewSchedulerService constructs the service facade. A nil base policy
// means the built-in defaults.
func NewSchedulerService(logger *slog.Logger, optimizer *engine.Optimizer, base *policy.Policy, cfg config.OptimizerConfig, opts ...Option) *SchedulerService {
	if logger == nil {
		logger = slog.Default()
	}
	if base == nil {
		base = policy.Default()
	}
	if optimizer == nil {
		optimizer = engine.NewOptimizer(logger, engine.Options{TopK: cfg.TopK})
	}
	s := &SchedulerService{
		logger:    logger,
		optimizer: optimizer,
		base:      base,
		cfg:       cfg,
		cache:     cache.NoopProvider{},
		publisher: events.NoopPublisher{},
		latencies: utils.NewLatencyTracker(1024),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PolicyDefaults returns the base policy as dotted keys.
func (s *SchedulerService) PolicyDefaults() map[string]any {
	return s.base.Overrides()
}

// Optimize ranks meeting slots for the request. Validation failures wrap
// the models sentinels so transports can map them to client errors.
func (s *SchedulerService) Optimize(ctx context.Context, req api.OptimizeRequest) (api.OptimizeResponse, error) {
	const op = "services.Optimize"
	started := time.Now()

	in, pol, err := s.prepare(req)
	if err != nil {
		metrics.ObserveOptimization(time.Since(started), metrics.OutcomeInvalid)
		return api.OptimizeResponse{}, utils.NewAppError(op, "invalid request", err)
	}

	key, err := resultKey(in, pol)
	if err != nil {
		return api.OptimizeResponse{}, utils.NewAppError(op, "build cache key", err)
	}
	if doc, ok := s.lookup(ctx, key); ok {
		return api.OptimizeResponse{Document: doc, Cached: true}, nil
	}

	res, err := s.optimizer.Run(in.Window, in.Participants, in.Request, pol, in.TopK)
	elapsed := time.Since(started)
	if err != nil {
		if api.IsClientError(err) {
			metrics.ObserveOptimization(elapsed, metrics.OutcomeInvalid)
			return api.OptimizeResponse{}, utils.NewAppError(op, "invalid request", err)
		}
		metrics.ObserveOptimization(elapsed, metrics.OutcomeError)
		s.logger.Error("optimization failed", slog.Any("error", err))
		return api.OptimizeResponse{}, utils.NewAppError(op, "optimization failed", err)
	}

	outcome := metrics.OutcomeSuccess
	if len(res.Slots) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveOptimization(elapsed, outcome)
	metrics.ObserveCandidates(res.Candidates)
	s.latencies.Observe(elapsed)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("optimization latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	runID := s.newRunID()
	summary := report.Summary{
		RunID:           runID,
		WindowStart:     in.Window.Start(),
		WindowEnd:       in.Window.End(),
		DurationMinutes: in.Request.DurationMinutes,
		LocationType:    in.Request.LocationType,
		Urgency:         in.Request.Urgency,
		Timezone:        in.Timezone,
		Attendees:       len(in.Participants),
	}
	doc := report.NewDocument(summary, res.Slots, in.Request.Location)

	s.store(ctx, key, doc)
	s.publish(ctx, key, in, doc, res.Slots)

	s.logger.Debug("optimize served",
		slog.String("run_id", runID),
		slog.Int("participants", len(in.Participants)),
		slog.Int("busy_events", in.Stats.Busy),
		slog.Int("skipped_events", in.Stats.Skipped),
		slog.Int("slots", len(res.Slots)),
		slog.Duration("elapsed", elapsed),
	)
	return api.OptimizeResponse{Document: doc}, nil
}

func (s *SchedulerService) prepare(req api.OptimizeRequest) (api.Optimization, *policy.Policy, error) {
	in, err := api.FromOptimizeRequest(req, s.cfg.DefaultTimezone)
	if err != nil {
		return api.Optimization{}, nil, err
	}
	if s.cfg.MaxWindow > 0 && in.Window.Duration() > s.cfg.MaxWindow {
		return api.Optimization{}, nil, &models.InvalidRequestError{
			Field:  "window",
			Reason: fmt.Sprintf("must not exceed %s", s.cfg.MaxWindow),
		}
	}
	pol := s.base
	if len(in.Overrides) > 0 {
		pol, err = s.base.With(in.Overrides)
		if err != nil {
			return api.Optimization{}, nil, err
		}
	}
	if in.Request.DurationMinutes == 0 {
		in.Request.DurationMinutes = pol.DefaultDurationMinutes()
	}
	if in.TopK == 0 {
		in.TopK = s.cfg.TopK
	}
	return in, pol, nil
}

func (s *SchedulerService) lookup(ctx context.Context, key string) (report.Document, bool) {
	if s.resultTTL <= 0 {
		return report.Document{}, false
	}
	raw, err := s.cache.Get(ctx, resultKeyPrefix+key)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.ObserveCacheLookup(metrics.CacheMiss)
		return report.Document{}, false
	case err != nil:
		metrics.ObserveCacheLookup(metrics.CacheError)
		s.logger.Warn("result cache lookup failed", slog.Any("error", err))
		return report.Document{}, false
	}
	var doc report.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		metrics.ObserveCacheLookup(metrics.CacheError)
		s.logger.Warn("discarding corrupt cache entry", slog.Any("error", err))
		return report.Document{}, false
	}
	metrics.ObserveCacheLookup(metrics.CacheHit)
	return doc, true
}

func (s *SchedulerService) store(ctx context.Context, key string, doc report.Document) {
	if s.resultTTL <= 0 {
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn("encode cache entry", slog.Any("error", err))
		return
	}
	if err := s.cache.Set(ctx, resultKeyPrefix+key, raw, s.resultTTL); err != nil {
		s.logger.Warn("result cache store failed", slog.Any("error", err))
	}
}

// publish is best effort. Identical requests inside the result TTL publish once.
func (s *SchedulerService) publish(ctx context.Context, key string, in api.Optimization, doc report.Document, slots []models.CandidateSlot) {
	if s.resultTTL > 0 {
		first, err := s.cache.SetNX(ctx, publishedKeyPrefix+key, []byte(doc.RunID), s.resultTTL)
		if err != nil {
			s.logger.Warn("publish dedupe failed", slog.Any("error", err))
		} else if !first {
			return
		}
	}

	ids := make([]string, 0, len(in.Participants))
	for _, p := range in.Participants {
		ids = append(ids, p.ID)
	}
	evt := events.SlotsProposed{
		RunID:           doc.RunID,
		GeneratedAt:     s.now().UTC(),
		WindowStart:     in.Window.Start(),
		WindowEnd:       in.Window.End(),
		DurationMinutes: in.Request.DurationMinutes,
		LocationType:    in.Request.LocationType,
		Urgency:         in.Request.Urgency,
		Timezone:        in.Timezone,
		ParticipantIDs:  ids,
		Slots:           slots,
	}
	if err := s.publisher.PublishSlotsProposed(ctx, evt); err != nil {
		s.logger.Warn("publish slots proposed failed", slog.String("run_id", doc.RunID), slog.Any("error", err))
	}
}

type cacheKeyInput struct {
	Window     [2]time.Time         `json:"window"`
	People     []string             `json:"people"`
	Busy       [][][2]time.Time     `json:"busy"`
	Prefs      []models.Preferences `json:"prefs"`
	Duration   int                  `json:"duration"`
	Location   models.LocationType  `json:"location"`
	Urgency    models.Urgency       `json:"urgency"`
	Timezone   string               `json:"timezone"`
	Preference string               `json:"preference"`
	TopK       int                  `json:"top_k"`
	Policy     map[string]any       `json:"policy"`
}

// resultKey hashes the canonical JSON of every input that affects ranking.
func resultKey(in api.Optimization, pol *policy.Policy) (string, error) {
	k := cacheKeyInput{
		Window:     [2]time.Time{in.Window.Start().UTC(), in.Window.End().UTC()},
		Duration:   in.Request.DurationMinutes,
		Location:   in.Request.LocationType,
		Urgency:    in.Request.Urgency,
		Timezone:   in.Timezone,
		Preference: in.Request.TimePreference,
		TopK:       in.TopK,
		Policy:     pol.Overrides(),
	}
	for _, p := range in.Participants {
		k.People = append(k.People, p.ID+"|"+p.DisplayName()+"|"+p.TimezoneKey())
		k.Prefs = append(k.Prefs, p.Preferences)
		busy := make([][2]time.Time, 0, len(p.Busy))
		for _, iv := range p.Busy {
			busy = append(busy, [2]time.Time{iv.Start().UTC(), iv.End().UTC()})
		}
		k.Busy = append(k.Busy, busy)
	}
	raw, err := json.Marshal(k)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
