package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"tg_store_bot/internal/store"
)

type fakeMongoChecker struct {
	err   error
	calls int
}

func (f *fakeMongoChecker) Ping(context.Context) error {
	f.calls++
	return f.err
}

type fakeStatsSource struct {
	stats store.Stats
	err   error
}

func (f *fakeStatsSource) Snapshot(context.Context, time.Time) (store.Stats, error) {
	return f.stats, f.err
}

func newTestServer(t *testing.T, checker MongoChecker, stats StatsSource, webhook http.HandlerFunc) *Server {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	return NewServer(8080, checker, stats, webhook, logger.WithField("test", t.Name()))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func TestHealthOK(t *testing.T) {
	checker := &fakeMongoChecker{}
	srv := newTestServer(t, checker, nil, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeBody[healthResponse](t, rec)
	if body.Status != "ok" || body.Mongo != "" {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if checker.calls != 1 {
		t.Fatalf("expected one mongo ping, got %d", checker.calls)
	}
}

func TestHealthDegradedOnMongoFailure(t *testing.T) {
	srv := newTestServer(t, &fakeMongoChecker{err: errors.New("primary unreachable")}, nil, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Degraded is still 200: the process is alive, the dependency is not.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeBody[healthResponse](t, rec)
	if body.Status != "degraded" || body.Mongo != "error" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestHealthDegradedWithoutChecker(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	body := decodeBody[healthResponse](t, rec)
	if body.Status != "degraded" {
		t.Fatalf("expected degraded without a checker, got %+v", body)
	}
}

func TestStatusReportsCounters(t *testing.T) {
	stats := &fakeStatsSource{stats: store.Stats{
		Users:        12,
		Stock:        3,
		Transactions: 40,
		Uptime:       90 * time.Minute,
	}}
	srv := newTestServer(t, &fakeMongoChecker{}, stats, nil)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	body := decodeBody[statusResponse](t, rec)
	if body.Users != 12 || body.Stock != 3 || body.Transactions != 40 {
		t.Fatalf("unexpected status body: %+v", body)
	}
	if body.UptimeSeconds != 5400 {
		t.Fatalf("expected 5400 uptime seconds, got %d", body.UptimeSeconds)
	}
	if body.Uptime != "1h30m0s" {
		t.Fatalf("expected formatted uptime, got %q", body.Uptime)
	}
}

func TestStatusUnavailable(t *testing.T) {
	srv := newTestServer(t, &fakeMongoChecker{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a stats source, got %d", rec.Code)
	}

	srv = newTestServer(t, &fakeMongoChecker{}, &fakeStatsSource{err: errors.New("read failed")}, nil)
	rec = httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on snapshot failure, got %d", rec.Code)
	}
}

func TestMuxRoutesWebhook(t *testing.T) {
	var webhookHits int
	webhook := func(w http.ResponseWriter, _ *http.Request) {
		webhookHits++
		w.WriteHeader(http.StatusOK)
	}
	srv := newTestServer(t, &fakeMongoChecker{}, &fakeStatsSource{}, webhook)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))

	if webhookHits != 1 {
		t.Fatalf("expected the webhook handler to be mounted, got %d hits", webhookHits)
	}

	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /healthz to be mounted, got %d", rec.Code)
	}
}

func TestShutdownWithoutServer(t *testing.T) {
	var srv *Server

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected shutdown of an uninitialized server to be a no-op, got %v", err)
	}
}
