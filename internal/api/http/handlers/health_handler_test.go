package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func newHealthApp(deps map[string]Pinger) *fiber.App {
	h := NewHealthHandler("sla-guard", "test", deps)
	app := fiber.New()
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	return app
}

func TestReadyWhenDependenciesHealthy(t *testing.T) {
	app := newHealthApp(map[string]Pinger{
		"postgres": &fakePinger{},
		"redis":    &fakePinger{},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ready" || body.Dependencies["postgres"] != "ok" || body.Dependencies["redis"] != "ok" {
		t.Fatalf("body = %+v", body)
	}
}

func TestReadyFailsWhenDependencyDown(t *testing.T) {
	app := newHealthApp(map[string]Pinger{
		"postgres": &fakePinger{err: fmt.Errorf("connection refused")},
		"redis":    &fakePinger{},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "DEPENDENCY_UNAVAILABLE" {
		t.Fatalf("code = %s", body.Error.Code)
	}
	if body.Error.Details["postgres"] != "connection refused" || body.Error.Details["redis"] != "ok" {
		t.Fatalf("details = %+v", body.Error.Details)
	}
}

func TestReadyTreatsNilDependencyAsDisabled(t *testing.T) {
	app := newHealthApp(map[string]Pinger{
		"postgres": &fakePinger{},
		"redis":    nil,
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, disabled dependency must not fail readiness", resp.StatusCode)
	}

	var body struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Dependencies["redis"] != "disabled" {
		t.Fatalf("dependencies = %+v", body.Dependencies)
	}
}
