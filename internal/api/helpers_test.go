// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/ingest"
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/models"
	ws "github.com/tomtom215/credguard/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

const allowedOrigin = "https://soc.example.com"

type fakeDetector struct {
	mu     sync.Mutex
	calls  int
	key    string
	window detection.Window
	result *detection.Result
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, tenantKey string, w detection.Window) (*detection.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.key = tenantKey
	f.window = w
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &detection.Result{TenantKey: tenantKey, WindowStart: w.Start, WindowEnd: w.End, Users: []detection.UserResult{}}, nil
}

type fakeIngester struct {
	mu       sync.Mutex
	attempts []ingest.Attempt
	err      error
}

func (f *fakeIngester) Record(ctx context.Context, a ingest.Attempt) (*detection.LoginEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.attempts = append(f.attempts, a)
	return &detection.LoginEvent{
		ID:                int64(len(f.attempts)),
		TenantKey:         a.TenantKey,
		UserID:            a.UserID,
		IP:                a.IP,
		DeviceFingerprint: a.DeviceFingerprint,
		Success:           a.Success,
		Timestamp:         baseTime,
	}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeMonitor struct{ status detection.MonitorStatus }

func (f fakeMonitor) Status() detection.MonitorStatus { return f.status }

type testEnv struct {
	handler  *Handler
	server   http.Handler
	detector *fakeDetector
	ingester *fakeIngester
	hub      *ws.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		Detection: config.DetectionConfig{DefaultWindow: 24 * time.Hour},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{allowedOrigin},
			RateLimitDisabled: true,
		},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, store Pinger) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	env := &testEnv{
		detector: &fakeDetector{},
		ingester: &fakeIngester{},
		hub:      ws.NewHub(ws.DefaultConfig()),
	}
	env.handler = NewHandler(Dependencies{
		Config:   cfg,
		Detector: env.detector,
		Ingester: env.ingester,
		Store:    store,
		Monitor:  fakeMonitor{status: detection.MonitorStatus{Running: true, LastCycle: baseTime, Checkpoint: baseTime.Add(-time.Minute)}},
		Hub:      env.hub,
		Version:  "test",
	})
	env.handler.now = func() time.Time { return baseTime }
	env.server = NewRouter(env.handler, NewChiMiddlewareFromSecurity(cfg.Security)).Setup()
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}
