package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/miradorstack/mirador-scheduler/internal/calendar"
	"github.com/miradorstack/mirador-scheduler/internal/engine"
	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/policy"
	"github.com/miradorstack/mirador-scheduler/internal/report"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "meeting-optimizer",
		Usage:  "Find the best meeting times for a group of attendees.",
		Flags:  flags(),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("meeting-optimizer failed", "error", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Required: true, Usage: "Window start (ISO-8601, e.g. 2024-03-15T09:00:00)"},
		&cli.StringFlag{Name: "end", Required: true, Usage: "Window end (ISO-8601)"},
		&cli.IntFlag{Name: "duration", Value: 60, Usage: "Meeting duration in minutes"},
		&cli.StringFlag{Name: "location", Value: "virtual", Usage: "virtual, in-person or hybrid"},
		&cli.StringFlag{Name: "urgency", Value: "normal", Usage: "low, normal, high or urgent"},
		&cli.StringFlag{Name: "calendars", Value: "calendars/calendars.json", Usage: "JSON calendars file; empty to skip"},
		&cli.StringSliceFlag{Name: "ics", Usage: "Attendee ICS calendar as name=path (repeatable)"},
		&cli.StringFlag{Name: "org-settings", Value: "configs/org_settings.yaml", EnvVars: []string{"MIRADOR_SCHEDULER_POLICY_PATH"}, Usage: "Org settings YAML"},
		&cli.StringFlag{Name: "timezone", Value: "America/New_York", Usage: "Reference timezone for work hours and naive timestamps"},
		&cli.IntFlag{Name: "top", Value: engine.DefaultTopK, Usage: "Number of slots to return"},
		&cli.IntFlag{Name: "step", Usage: "Candidate step in minutes (defaults to the org interval)"},
		&cli.BoolFlag{Name: "align", Usage: "Align candidate starts to step boundaries"},
		&cli.StringFlag{Name: "time-preference", Usage: "Narrow results to a time of day (morning, lunch, afternoon, ...)"},
		&cli.BoolFlag{Name: "json-output", Usage: "Print results as JSON"},
		&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
	}
}

func run(c *cli.Context) error {
	logger := utils.NewLoggerTo(os.Stderr, c.String("log-level"), false)

	loc, err := utils.LoadLocation(c.String("timezone"))
	if err != nil {
		return err
	}
	start, err := utils.ParseTimestamp(c.String("start"), loc)
	if err != nil {
		return fmt.Errorf("parse --start: %w (use YYYY-MM-DDTHH:MM:SS or YYYY-MM-DDTHH:MM:SS-05:00)", err)
	}
	end, err := utils.ParseTimestamp(c.String("end"), loc)
	if err != nil {
		return fmt.Errorf("parse --end: %w (use YYYY-MM-DDTHH:MM:SS or YYYY-MM-DDTHH:MM:SS-05:00)", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end time must be after start time")
	}
	window := models.MustInterval(start, end)

	duration := c.Int("duration")
	if duration <= 0 {
		return fmt.Errorf("--duration must be greater than zero")
	}
	if window.DurationMinutes() < duration {
		return fmt.Errorf("time window (%d min) is shorter than meeting duration (%d min)", window.DurationMinutes(), duration)
	}

	locationType, err := models.ParseLocationType(c.String("location"))
	if err != nil {
		return err
	}
	urgency, err := models.ParseUrgency(c.String("urgency"))
	if err != nil {
		return err
	}

	participants, err := loadParticipants(c, window, loc, logger)
	if err != nil {
		return err
	}

	pol, err := policy.LoadFile(c.String("org-settings"), logger)
	if err != nil {
		return err
	}

	optimizer := engine.NewOptimizer(logger, engine.Options{
		TopK:        c.Int("top"),
		Step:        time.Duration(c.Int("step")) * time.Minute,
		AlignToStep: c.Bool("align"),
	})
	req := models.MeetingRequest{
		DurationMinutes: duration,
		Urgency:         urgency,
		LocationType:    locationType,
		Location:        loc,
		TimePreference:  c.String("time-preference"),
	}

	logger.Info("optimizing",
		slog.Int("duration_minutes", duration),
		slog.String("location", string(locationType)),
		slog.Int("attendees", len(participants)),
	)
	slots, err := optimizer.Optimize(window, participants, req, pol, c.Int("top"))
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	doc := report.NewDocument(report.Summary{
		WindowStart:     window.Start(),
		WindowEnd:       window.End(),
		DurationMinutes: duration,
		LocationType:    locationType,
		Urgency:         urgency,
		Timezone:        c.String("timezone"),
		Attendees:       len(participants),
	}, slots, loc)

	if c.Bool("json-output") {
		return report.WriteJSON(os.Stdout, doc)
	}
	return report.WriteText(os.Stdout, doc)
}

func loadParticipants(c *cli.Context, window models.TimeInterval, loc *time.Location, logger *slog.Logger) ([]models.Participant, error) {
	var participants []models.Participant

	if path := c.String("calendars"); path != "" {
		loaded, stats, err := calendar.LoadJSONFile(path, loc)
		switch {
		case err == nil:
			participants = append(participants, loaded...)
			logger.Info("loaded calendars",
				slog.String("path", path),
				slog.Int("people", len(loaded)),
				slog.Int("busy", stats.Busy),
				slog.Int("ignored", stats.Ignored),
				slog.Int("skipped", stats.Skipped),
			)
			for _, p := range loaded {
				logger.Debug("attendee", slog.String("name", p.DisplayName()), slog.String("email", p.Email), slog.Int("events", len(p.Busy)))
			}
		case os.IsNotExist(err) && !c.IsSet("calendars") && len(c.StringSlice("ics")) > 0:
			logger.Debug("default calendars file absent", slog.String("path", path))
		default:
			return nil, fmt.Errorf("load calendars: %w", err)
		}
	}

	for _, arg := range c.StringSlice("ics") {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("--ics expects name=path, got %q", arg)
		}
		p, stats, err := calendar.LoadICSFile(path, models.Participant{ID: name, Name: name}, window, loc)
		if err != nil {
			return nil, fmt.Errorf("load ics %s: %w", path, err)
		}
		logger.Info("loaded ics calendar", slog.String("name", name), slog.Int("busy", stats.Busy), slog.Int("ignored", stats.Ignored))
		participants = append(participants, p)
	}

	if len(participants) == 0 {
		return nil, fmt.Errorf("no calendar data loaded")
	}
	return participants, nil
}
