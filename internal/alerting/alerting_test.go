package alerting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func sampleAlert() RefreshAlert {
	return RefreshAlert{
		JobName:      "project-refresh",
		TotalCount:   3,
		SuccessCount: 1,
		FailedCount:  2,
		Duration:     1500 * time.Millisecond,
		Failures: []Failure{
			{Item: "project-a", Error: "upstream request failed"},
			{Item: "project-b", Error: "no production data"},
		},
		Timestamp: time.Now(),
	}
}

func TestSendGenericAlert(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	a := New(Config{WebhookURL: srv.URL}, zerolog.Nop())
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	if got["alert_type"] != "refresh_failure" {
		t.Errorf("alert_type: %v", got["alert_type"])
	}
	if got["failed_count"] != float64(2) {
		t.Errorf("failed_count: %v", got["failed_count"])
	}
}

func TestSlackPayloadShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	a := New(Config{WebhookURL: srv.URL, Kind: "slack"}, zerolog.Nop())
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	if _, ok := got["blocks"]; !ok {
		t.Error("slack payload should carry blocks")
	}
}

func TestKindAutoDetect(t *testing.T) {
	if k := (Config{WebhookURL: "https://hooks.slack.com/services/x"}).kind(); k != "slack" {
		t.Errorf("slack detect: %q", k)
	}
	if k := (Config{WebhookURL: "https://discord.com/api/webhooks/x"}).kind(); k != "discord" {
		t.Errorf("discord detect: %q", k)
	}
	if k := (Config{WebhookURL: "https://example.com/hook"}).kind(); k != "generic" {
		t.Errorf("generic detect: %q", k)
	}
}

func TestBelowThresholdSkips(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := New(Config{WebhookURL: srv.URL, MinFailures: 5}, zerolog.Nop())
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("SendRefreshAlert: %v", err)
	}
	if called {
		t.Error("alert below threshold must not be posted")
	}
}

func TestDisabledWithoutURL(t *testing.T) {
	a := New(Config{}, zerolog.Nop())
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("disabled alerter should be a no-op, got %v", err)
	}
}

func TestWebhookErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(Config{WebhookURL: srv.URL}, zerolog.Nop())
	if err := a.SendRefreshAlert(context.Background(), sampleAlert()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
