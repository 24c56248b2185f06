package ratepdf

import (
	"context"
	"math"
	"testing"
)

const sampleSchedule = `
GREEN VALLEY POWER COOPERATIVE
RATE SCHEDULE RS

Residential Service Rate: $0.1124 per kWh
Customer Charge: $25.00

COMMERCIAL RATE SCHEDULE GS
Commercial Service Rate: $0.1034 per kWh

INDUSTRIAL RATE SCHEDULE IS
Industrial Service Rate: $0.0891 per kWh
`

func TestParseTextFullSchedule(t *testing.T) {
	p := New(Config{Utility: "Green Valley Power"})
	rates, err := p.ParseText(sampleSchedule)
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}

	if rates.Utility != "Green Valley Power" {
		t.Errorf("unexpected utility %q", rates.Utility)
	}
	if rates.ResidentialRate != 0.1124 {
		t.Errorf("expected residential 0.1124, got %v", rates.ResidentialRate)
	}
	if rates.CommercialRate != 0.1034 {
		t.Errorf("expected commercial 0.1034, got %v", rates.CommercialRate)
	}
	if rates.IndustrialRate != 0.0891 {
		t.Errorf("expected industrial 0.0891, got %v", rates.IndustrialRate)
	}
}

func TestParseTextResidentialOnly(t *testing.T) {
	p := New(Config{Utility: "Test Utility"})
	rates, err := p.ParseText("Residential Rate: $0.12 per kWh")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}

	if rates.ResidentialRate != 0.12 {
		t.Errorf("expected residential 0.12, got %v", rates.ResidentialRate)
	}
	// missing classes fall back to conventional discounts
	if math.Abs(rates.CommercialRate-0.12*0.9) > 1e-9 {
		t.Errorf("expected commercial fallback 0.108, got %v", rates.CommercialRate)
	}
	if math.Abs(rates.IndustrialRate-0.12*0.8) > 1e-9 {
		t.Errorf("expected industrial fallback 0.096, got %v", rates.IndustrialRate)
	}
}

func TestParseTextNoResidentialRate(t *testing.T) {
	p := New(Config{})
	if _, err := p.ParseText("nothing useful here"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestRatesWithoutPath(t *testing.T) {
	p := New(Config{})
	if _, err := p.Rates(context.Background(), 36.1, -86.7); err == nil {
		t.Fatal("expected error when no PDF path is configured")
	}
}

func TestProviderIdentity(t *testing.T) {
	p := New(Config{})
	if p.Key() != "rate_pdf" {
		t.Errorf("unexpected key %q", p.Key())
	}
}
