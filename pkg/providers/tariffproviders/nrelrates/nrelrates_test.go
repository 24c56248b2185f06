package nrelrates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleResponse = `{
	"outputs": {
		"utility_name": "Public Service Co of Colorado",
		"residential": 0.1262,
		"commercial": 0.1037,
		"industrial": 0.0842
	},
	"errors": []
}`

func TestRates(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	rates, err := p.Rates(context.Background(), 39.7392, -104.9903)
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}

	if rates.Utility != "Public Service Co of Colorado" {
		t.Errorf("unexpected utility %q", rates.Utility)
	}
	if rates.ResidentialRate != 0.1262 {
		t.Errorf("expected residential 0.1262, got %v", rates.ResidentialRate)
	}
	if rates.CommercialRate != 0.1037 {
		t.Errorf("expected commercial 0.1037, got %v", rates.CommercialRate)
	}
	if gotQuery["api_key"] != "test-key" {
		t.Errorf("api_key not forwarded: %v", gotQuery)
	}
}

func TestRatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outputs": {}, "errors": ["no utility found"]}`))
	}))
	defer srv.Close()

	p := New(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := p.Rates(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for upstream error payload")
	}
}

func TestRatesMissingAPIKey(t *testing.T) {
	p := New(Config{})
	if _, err := p.Rates(context.Background(), 39, -104); err == nil {
		t.Fatal("expected error without API key")
	}
}
