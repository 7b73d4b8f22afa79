// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/models"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", m.config.CORSMaxAge)
	}
	if m.config.RateLimitRequests != 100 || m.config.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 100/1m", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestNewChiMiddlewareFromSecurity(t *testing.T) {
	tests := []struct {
		name        string
		sec         config.SecurityConfig
		wantReqs    int
		wantWindow  time.Duration
		wantOrigins int
	}{
		{"zero values keep defaults", config.SecurityConfig{}, 100, time.Minute, 0},
		{
			"explicit values",
			config.SecurityConfig{CORSOrigins: []string{"https://a.example", "https://b.example"}, RateLimitReqs: 20, RateLimitWindow: 30 * time.Second},
			20, 30 * time.Second, 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewChiMiddlewareFromSecurity(tt.sec)
			if m.config.RateLimitRequests != tt.wantReqs {
				t.Errorf("RateLimitRequests = %d, want %d", m.config.RateLimitRequests, tt.wantReqs)
			}
			if m.config.RateLimitWindow != tt.wantWindow {
				t.Errorf("RateLimitWindow = %v, want %v", m.config.RateLimitWindow, tt.wantWindow)
			}
			if len(m.config.CORSAllowedOrigins) != tt.wantOrigins {
				t.Errorf("CORSAllowedOrigins = %v", m.config.CORSAllowedOrigins)
			}
		})
	}
}

func TestRateLimit_Exceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 2
	cfg.Security.RateLimitWindow = time.Minute
	env := newTestEnv(t, cfg, fakePinger{})

	for i := 0; i < 2; i++ {
		if rec := env.do(http.MethodPost, "/detect-cred-stuff", `{"key":"t"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := env.do(http.MethodPost, "/detect-cred-stuff", `{"key":"t"}`)
	assertErrorCode(t, rec, http.StatusTooManyRequests, models.ErrCodeRateLimited)
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, nil, fakePinger{})

	tests := []struct {
		name      string
		origin    string
		wantAllow bool
	}{
		{"allowed origin", allowedOrigin, true},
		{"foreign origin", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/detect-cred-stuff", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			env.server.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllow && got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.wantAllow && got != "" {
				t.Errorf("foreign origin allowed: %q", got)
			}
		})
	}
}

func TestAPISecurityHeaders_HSTS(t *testing.T) {
	handler := APISecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS behind a TLS-terminating proxy")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, nil, fakePinger{})
	rec := env.do(http.MethodGet, "/", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on every response")
	}
}
