package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/miradorstack/mirador-scheduler/internal/calendar"
	"github.com/miradorstack/mirador-scheduler/internal/config"
	"github.com/miradorstack/mirador-scheduler/internal/models"
	"github.com/miradorstack/mirador-scheduler/internal/report"
	"github.com/miradorstack/mirador-scheduler/internal/utils"
)

type stubScheduler struct {
	got  OptimizeRequest
	resp OptimizeResponse
	err  error
}

func (s *stubScheduler) Optimize(_ context.Context, req OptimizeRequest) (OptimizeResponse, error) {
	s.got = req
	return s.resp, s.err
}

func (s *stubScheduler) PolicyDefaults() map[string]any {
	return map[string]any{"base_score": 100}
}

func sampleResponse() OptimizeResponse {
	start := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	return OptimizeResponse{Document: report.Document{
		Summary: report.Summary{RunID: "run-1", DurationMinutes: 60, LocationType: models.LocationVirtual, Attendees: 2},
		Slots: []report.Slot{{
			Start:   start,
			End:     start.Add(time.Hour),
			Score:   115,
			Reasons: []string{"[+] Optimal time slot (+15)"},
		}},
	}}
}

func TestHTTPOptimize(t *testing.T) {
	stub := &stubScheduler{resp: sampleResponse()}
	handler := NewHTTPHandler(stub, HTTPOptions{AllowedOrigins: []string{"http://localhost:5173"}})

	body := `{"window_start":"2024-03-15T09:00:00","window_end":"2024-03-15T17:00:00","duration_minutes":60,
		"participants":[{"id":"a","events":[{"start":"2024-03-15T10:00:00Z","end":"2024-03-15T11:00:00Z"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.got.DurationMinutes != 60 || len(stub.got.Participants) != 1 {
		t.Fatalf("request not decoded: %+v", stub.got)
	}
	var resp OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID != "run-1" || len(resp.Slots) != 1 || resp.Slots[0].Score != 115 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"invalid": {
			err:  utils.NewAppError("services.Optimize", "invalid request", &models.InvalidRequestError{Field: "window", Reason: "required"}),
			code: http.StatusBadRequest,
		},
		"interval": {
			err:  &models.InvalidIntervalError{},
			code: http.StatusBadRequest,
		},
		"internal": {
			err:  errors.New("boom"),
			code: http.StatusInternalServerError,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewHTTPHandler(&stubScheduler{err: tc.err}, HTTPOptions{})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("expected error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestHTTPRejectsMalformedJSON(t *testing.T) {
	handler := NewHTTPHandler(&stubScheduler{}, HTTPOptions{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(`{"window_start":`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHTTPPolicyDefaultsAndHealth(t *testing.T) {
	var access bytes.Buffer
	handler := NewHTTPHandler(&stubScheduler{}, HTTPOptions{AccessLog: &access})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/policy/defaults", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"base_score":100`) {
		t.Fatalf("unexpected policy response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	if !strings.Contains(access.String(), "/healthz") {
		t.Fatalf("expected access log line, got %q", access.String())
	}
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	handler := NewHTTPHandler(&stubScheduler{}, HTTPOptions{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/optimize", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func startBufconn(t *testing.T, svc Scheduler) *grpc.ClientConn {
	t.Helper()
	conn, _ := serveBufconn(t, svc, config.ServerConfig{GracefulTimeout: time.Second}, nil)
	return conn
}

func serveBufconn(t *testing.T, svc Scheduler, cfg config.ServerConfig, logger *slog.Logger) (*grpc.ClientConn, *Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServerWithListener(lis, cfg, NewSchedulerServer(svc), logger)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, srv
}

func TestGRPCOptimizeRoundTrip(t *testing.T) {
	stub := &stubScheduler{resp: sampleResponse()}
	client := NewSchedulerClient(startBufconn(t, stub))

	req := OptimizeRequest{
		WindowStart:     "2024-03-15T09:00:00",
		WindowEnd:       "2024-03-15T17:00:00",
		DurationMinutes: 45,
		Policy:          map[string]any{"base_score": 90},
		Participants: []calendar.ParticipantDoc{{
			ID:     "a",
			Events: []calendar.EventDoc{{Start: calendar.TimeValue{DateTime: "2024-03-15T10:00:00Z"}, End: calendar.TimeValue{DateTime: "2024-03-15T11:00:00Z"}}},
		}},
	}
	resp, err := client.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if stub.got.DurationMinutes != 45 || stub.got.Participants[0].Events[0].Start.DateTime != "2024-03-15T10:00:00Z" {
		t.Fatalf("request not carried over the wire: %+v", stub.got)
	}
	if v, ok := stub.got.Policy["base_score"].(float64); !ok || v != 90 {
		t.Fatalf("policy override lost: %#v", stub.got.Policy)
	}
	if resp.RunID != "run-1" || len(resp.Slots) != 1 || resp.Slots[0].Reasons[0] != "[+] Optimal time slot (+15)" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	settings, err := client.PolicyDefaults(context.Background())
	if err != nil {
		t.Fatalf("PolicyDefaults: %v", err)
	}
	if settings["base_score"] != float64(100) {
		t.Fatalf("unexpected settings %v", settings)
	}
}

func TestGRPCMapsClientErrors(t *testing.T) {
	stub := &stubScheduler{err: &models.EmptyAvailabilityError{}}
	client := NewSchedulerClient(startBufconn(t, stub))

	_, err := client.Optimize(context.Background(), OptimizeRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGRPCHealth(t *testing.T) {
	conn := startBufconn(t, &stubScheduler{})
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: SchedulerServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected status %s", resp.GetStatus())
	}
}

func TestGRPCLogsFailedCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	conn, _ := serveBufconn(t, &stubScheduler{err: errors.New("boom")}, config.ServerConfig{GracefulTimeout: time.Second}, logger)

	if _, err := NewSchedulerClient(conn).Optimize(context.Background(), OptimizeRequest{}); status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "/mirador.scheduler.v1.Scheduler/Optimize") || !strings.Contains(line, "code=Internal") {
		t.Fatalf("unexpected log output %q", line)
	}
}

func TestServerReflectionToggle(t *testing.T) {
	hasReflection := func(srv *Server) bool {
		for name := range srv.grpcServer.GetServiceInfo() {
			if strings.HasPrefix(name, "grpc.reflection.") {
				return true
			}
		}
		return false
	}
	for _, enabled := range []bool{true, false} {
		srv := NewServerWithListener(bufconn.Listen(1024), config.ServerConfig{Reflection: enabled}, NewSchedulerServer(&stubScheduler{}), nil)
		if got := hasReflection(srv); got != enabled {
			t.Fatalf("reflection=%v registered=%v", enabled, got)
		}
		if _, ok := srv.grpcServer.GetServiceInfo()[SchedulerServiceName]; !ok {
			t.Fatalf("scheduler service not registered")
		}
	}
}

func TestFromOptimizeRequest(t *testing.T) {
	req := OptimizeRequest{
		WindowStart:  "2024-03-15T09:00:00",
		WindowEnd:    "2024-03-15T17:00:00",
		LocationType: "in-person",
		Urgency:      "high",
		Participants: []calendar.ParticipantDoc{{ID: "a", Timezone: "America/Los_Angeles"}},
	}
	in, err := FromOptimizeRequest(req, "America/New_York")
	if err != nil {
		t.Fatalf("FromOptimizeRequest: %v", err)
	}
	if in.Timezone != "America/New_York" || in.Request.LocationType != models.LocationInPerson || in.Request.Urgency != models.UrgencyHigh {
		t.Fatalf("unexpected mapping: %+v", in)
	}
	// 09:00 EDT is 13:00 UTC.
	if got := in.Window.Start().UTC(); !got.Equal(time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start %s", got)
	}

	in, err = FromOptimizeRequest(req, "")
	if err != nil {
		t.Fatalf("FromOptimizeRequest: %v", err)
	}
	if in.Timezone != "America/Los_Angeles" {
		t.Fatalf("expected participant zone fallback, got %s", in.Timezone)
	}

	req.WindowStart = ""
	if _, err := FromOptimizeRequest(req, ""); !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for missing window, got %v", err)
	}
}
