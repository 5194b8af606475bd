package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status int
		body   string
	}{
		{"no database", nil, http.StatusOK, `{"status": "ok"}`},
		{"database up", fakePinger{}, http.StatusOK, `{"status": "ok"}`},
		{"database down", fakePinger{errors.New("refused")}, http.StatusServiceUnavailable, `{"status": "degraded", "database": "unreachable"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthController(tt.db)
			req := httptest.NewRequest("GET", "/", nil)
			rr := httptest.NewRecorder()

			hc.HealthCheck(rr, req)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
			if rr.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rr.Body.String())
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
			}
		})
	}
}
