package nasapower

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
)

const sampleClimatology = `{
	"properties": {
		"parameter": {
			"ALLSKY_SFC_SW_DWN": {
				"JAN": 3.0, "FEB": 3.8, "MAR": 4.9, "APR": 5.8,
				"MAY": 6.3, "JUN": 6.8, "JUL": 6.6, "AUG": 6.1,
				"SEP": 5.4, "OCT": 4.3, "NOV": 3.2, "DEC": 2.8,
				"ANN": 4.9
			},
			"T2M": {"JAN": 1.2, "ANN": 10.5}
		}
	}
}`

func newTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestEstimatePotentialModel(t *testing.T) {
	srv := newTestServer(t, sampleClimatology)
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	spec := solarproviders.NewSystemSpec(39.7392, -104.9903)
	spec.CapacityKW = 10
	spec.ModuleType = solarproviders.ModuleStandard
	spec.ArrayType = solarproviders.ArrayFixedRoofMount
	spec.LossesPercent = 14

	est, err := p.Estimate(context.Background(), spec)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if est.Source != "nasa" {
		t.Errorf("expected source nasa, got %q", est.Source)
	}
	if len(est.MonthlyProductionKWh) != 12 {
		t.Fatalf("expected 12 months, got %d", len(est.MonthlyProductionKWh))
	}

	// January: 3.0 kWh/m²/day × 31 days × (10 kW × 5.5 m²/kW) × 0.15 × 0.86
	wantJan := math.Round(3.0*31*55*0.15*0.86*100) / 100
	jan := est.MonthlyProductionKWh[0]
	if jan.Month != "January" || jan.MonthNum != 1 {
		t.Fatalf("months out of order: %+v", jan)
	}
	if math.Abs(jan.ProductionKWh-wantJan) > 0.01 {
		t.Errorf("january production: expected %v, got %v", wantJan, jan.ProductionKWh)
	}

	var sum float64
	for _, m := range est.MonthlyProductionKWh {
		sum += m.ProductionKWh
	}
	if math.Abs(est.AnnualProductionKWh-sum) > 0.1 {
		t.Errorf("annual %v does not match monthly sum %v", est.AnnualProductionKWh, sum)
	}
	if math.Abs(est.ProductionPerKW-est.AnnualProductionKWh/10) > 1e-9 {
		t.Errorf("production per kW mismatch: %v", est.ProductionPerKW)
	}
}

func TestEstimateTrackingArrayBoost(t *testing.T) {
	srv := newTestServer(t, sampleClimatology)
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})

	fixed := solarproviders.NewSystemSpec(39, -104)
	tracking := fixed
	tracking.ArrayType = solarproviders.ArrayTwoAxisTracking

	fixedEst, err := p.Estimate(context.Background(), fixed)
	if err != nil {
		t.Fatalf("fixed estimate: %v", err)
	}
	trackingEst, err := p.Estimate(context.Background(), tracking)
	if err != nil {
		t.Fatalf("tracking estimate: %v", err)
	}

	ratio := trackingEst.AnnualProductionKWh / fixedEst.AnnualProductionKWh
	if math.Abs(ratio-1.3) > 0.01 {
		t.Errorf("two-axis tracking should produce ~1.3x, got %v", ratio)
	}
}

func TestEstimateNoIrradianceData(t *testing.T) {
	srv := newTestServer(t, `{"properties": {"parameter": {}}}`)
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	if _, err := p.Estimate(context.Background(), solarproviders.NewSystemSpec(39, -104)); err == nil {
		t.Fatal("expected error for missing irradiance data")
	}
}

func TestEstimateSkipsAnnualBucket(t *testing.T) {
	srv := newTestServer(t, sampleClimatology)
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	est, err := p.Estimate(context.Background(), solarproviders.NewSystemSpec(39, -104))
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for _, m := range est.MonthlyProductionKWh {
		if m.MonthNum < 1 || m.MonthNum > 12 {
			t.Errorf("ANN bucket leaked into monthly data: %+v", m)
		}
	}
}
