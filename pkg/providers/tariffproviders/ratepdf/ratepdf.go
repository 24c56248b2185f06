// Package ratepdf parses tariffs out of a locally stored utility rate
// schedule PDF. It is the offline fallback when the rates API is
// unreachable: operators drop the utility's published schedule next to
// the binary and analyses keep working.
package ratepdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/mfreitag/solarledger/pkg/providers"
	"github.com/mfreitag/solarledger/pkg/providers/shared"
	"github.com/mfreitag/solarledger/pkg/providers/tariffproviders"
)

type Provider struct {
	pdfPath string
	utility string
}

// Config points the provider at a rate schedule PDF. Utility names the
// issuer for the response; the PDF itself often omits it from the
// extractable text.
type Config struct {
	PDFPath string
	Utility string
}

func New(cfg Config) *Provider {
	return &Provider{pdfPath: cfg.PDFPath, utility: cfg.Utility}
}

func (p *Provider) Key() string                  { return "rate_pdf" }
func (p *Provider) Name() string                 { return "Local Rate Schedule PDF" }
func (p *Provider) Type() providers.ProviderType { return providers.ProviderTypeTariff }

// Rates parses the configured PDF. The location arguments are ignored:
// a schedule PDF covers one utility territory.
func (p *Provider) Rates(ctx context.Context, lat, lon float64) (*tariffproviders.Rates, error) {
	if p.pdfPath == "" {
		return nil, fmt.Errorf("ratepdf: %w: no PDF path configured", providers.ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.ParsePDF(p.pdfPath)
}

// ParsePDF extracts the plain text of a rate schedule PDF and parses it.
func (p *Provider) ParsePDF(path string) (*tariffproviders.Rates, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return p.ParseText(buf.String())
}

var (
	residentialRe = regexp.MustCompile(`(?i)Residential(?:\s+Service)?(?:\s+Rate)?[^\n]*?\$?\s*(\d+\.\d+|\.\d+)\s*(?:per kWh|/kWh)`)
	commercialRe  = regexp.MustCompile(`(?i)Commercial(?:\s+Service)?(?:\s+Rate)?[^\n]*?\$?\s*(\d+\.\d+|\.\d+)\s*(?:per kWh|/kWh)`)
	industrialRe  = regexp.MustCompile(`(?i)Industrial(?:\s+Service)?(?:\s+Rate)?[^\n]*?\$?\s*(\d+\.\d+|\.\d+)\s*(?:per kWh|/kWh)`)
)

// ParseText parses rates from extracted text (useful for testing). The
// residential rate is mandatory; commercial and industrial default to
// the conventional discounts off residential when the schedule omits
// them.
func (p *Provider) ParseText(text string) (*tariffproviders.Rates, error) {
	residential := shared.ParseFirstFloat(residentialRe, text)
	if residential <= 0 {
		return nil, fmt.Errorf("ratepdf: %w: no residential rate found", providers.ErrParseFailed)
	}

	commercial := shared.ParseFirstFloat(commercialRe, text)
	if commercial <= 0 {
		commercial = residential * 0.9
	}
	industrial := shared.ParseFirstFloat(industrialRe, text)
	if industrial <= 0 {
		industrial = residential * 0.8
	}

	return &tariffproviders.Rates{
		Utility:         p.utility,
		ResidentialRate: residential,
		CommercialRate:  commercial,
		IndustrialRate:  industrial,
		Source:          "Local rate schedule PDF",
		FetchedAt:       time.Now().UTC(),
	}, nil
}
