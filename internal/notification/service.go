// Package notification delivers analysis report emails. Delivery goes
// through SendGrid or plain SMTP depending on the stored email config.
package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/storage"
)

var ErrNotConfigured = errors.New("email not configured or disabled")

type Service struct {
	storage storage.Storage
}

func NewService(s storage.Storage) *Service {
	return &Service{storage: s}
}

func (s *Service) GetConfig(ctx context.Context) (*storage.EmailConfig, error) {
	return s.storage.GetEmailConfig(ctx)
}

func (s *Service) SaveConfig(ctx context.Context, cfg storage.EmailConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	return s.storage.SaveEmailConfig(ctx, cfg)
}

func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return ErrNotConfigured
	}
	return send(cfg, to, subject, body)
}

// TestConfig sends a test email through the provided config without
// persisting it.
func (s *Service) TestConfig(ctx context.Context, cfg storage.EmailConfig, to string) error {
	return send(&cfg, to, "Test Email", "This is a test email from solarledger.")
}

// SendAnalysisReport mails a summary of a project's latest projection.
func (s *Service) SendAnalysisReport(ctx context.Context, to, projectName string, res *finance.Result) error {
	subject := fmt.Sprintf("Solar analysis report: %s", projectName)
	return s.SendEmail(ctx, to, subject, reportBody(projectName, res))
}

func reportBody(projectName string, res *finance.Result) string {
	m := res.Metrics
	return fmt.Sprintf(`<h2>%s</h2>
<p>%.1f kW system, %.0f kWh first-year production at $%.3f/kWh.</p>
<table>
<tr><td>Net system cost</td><td>$%.2f</td></tr>
<tr><td>Payback period</td><td>%.1f years</td></tr>
<tr><td>NPV</td><td>$%.2f</td></tr>
<tr><td>IRR</td><td>%.1f%%</td></tr>
<tr><td>Lifetime savings</td><td>$%.2f</td></tr>
</table>`,
		projectName,
		res.SystemDetails.CapacityKW,
		res.SystemDetails.AnnualProductionKWhInitial,
		res.SystemDetails.ElectricityRateInitial,
		res.Costs.NetSystemCost,
		m.PaybackPeriodYears,
		m.NPV,
		m.IRRPercent,
		m.TotalLifetimeSavings)
}

func send(cfg *storage.EmailConfig, to, subject, body string) error {
	switch cfg.Provider {
	case "smtp":
		return sendSMTP(cfg, to, subject, body)
	case "sendgrid":
		return sendSendgrid(cfg, to, subject, body)
	default:
		return fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func sendSMTP(cfg *storage.EmailConfig, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body))

	switch cfg.Encryption {
	case "ssl":
		// implicit TLS
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			return err
		}
		defer c.Quit()
		return transmit(c, cfg, to, msg)

	case "tls":
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return err
		}
		defer c.Quit()

		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return err
			}
		}
		return transmit(c, cfg, to, msg)

	default:
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		return smtp.SendMail(addr, auth, cfg.FromAddress, []string{to}, msg)
	}
}

func transmit(c *smtp.Client, cfg *storage.EmailConfig, to string, msg []byte) error {
	if cfg.Username != "" && cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(cfg.FromAddress); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func sendSendgrid(cfg *storage.EmailConfig, to, subject, body string) error {
	from := mail.NewEmail(cfg.FromName, cfg.FromAddress)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, body, body)
	client := sendgrid.NewSendClient(cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
