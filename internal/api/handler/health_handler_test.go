package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthrisk/risk-api/internal/infrastructure/health"
)

type staticCheck struct {
	name   string
	tags   []string
	status health.Status
	err    error
}

func (s staticCheck) Name() string   { return s.name }
func (s staticCheck) Tags() []string { return s.tags }
func (s staticCheck) Check(context.Context) health.Result {
	return health.Result{Status: s.status, Err: s.err}
}

func TestHealthHandler_Report(t *testing.T) {
	reg := health.NewRegistry(time.Second,
		staticCheck{name: "database", tags: []string{health.TagReady, health.TagDB}, status: health.Healthy},
		staticCheck{name: "ml_model", tags: []string{health.TagReady, health.TagML}, status: health.Unhealthy, err: errors.New("model artifact not found")},
	)
	h := NewHealthHandler(reg)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := h.Report(health.TagDB)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Report("")(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var rep struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rep.Status != "Unhealthy" || len(rep.Checks) != 2 || rep.Checks[1].Error != "model artifact not found" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}
