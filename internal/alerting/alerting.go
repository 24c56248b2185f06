// Package alerting posts worker failure summaries to a webhook. The
// payload format adapts to the receiver: Slack blocks, Discord embeds,
// or a flat JSON document for anything else.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	// WebhookURL is the endpoint; empty disables alerting.
	WebhookURL string
	// Kind selects the payload format: "slack", "discord" or
	// "generic". Empty auto-detects from the URL.
	Kind string
	// MinFailures is the threshold below which no alert is sent.
	MinFailures int
	Timeout     time.Duration
}

func (c Config) kind() string {
	if c.Kind != "" {
		return c.Kind
	}
	if strings.Contains(c.WebhookURL, "slack.com") {
		return "slack"
	}
	if strings.Contains(c.WebhookURL, "discord.com") {
		return "discord"
	}
	return "generic"
}

// Alerter sends refresh-failure alerts to the configured webhook.
type Alerter struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Alerter {
	if cfg.MinFailures <= 0 {
		cfg.MinFailures = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "alerting").Logger(),
	}
}

// RefreshAlert summarizes one worker refresh run.
type RefreshAlert struct {
	JobName      string
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Duration     time.Duration
	Failures     []Failure
	Timestamp    time.Time
}

// Failure is one failed refresh item: a project or tariff location.
type Failure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// SendRefreshAlert posts the alert when failures reach the threshold.
func (a *Alerter) SendRefreshAlert(ctx context.Context, alert RefreshAlert) error {
	if a.cfg.WebhookURL == "" {
		return nil
	}
	if alert.FailedCount < a.cfg.MinFailures {
		a.log.Debug().Int("failures", alert.FailedCount).Int("threshold", a.cfg.MinFailures).
			Msg("failures below alert threshold")
		return nil
	}

	var payload []byte
	var err error
	switch a.cfg.kind() {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	a.log.Info().Str("job", alert.JobName).Int("failed", alert.FailedCount).Msg("alert sent")
	return nil
}

func buildSlackPayload(alert RefreshAlert) ([]byte, error) {
	var failedList strings.Builder
	for _, f := range alert.Failures {
		failedList.WriteString(fmt.Sprintf("• *%s*: %s\n", f.Item, f.Error))
	}

	emoji := ":warning:"
	if alert.FailedCount == alert.TotalCount {
		emoji = ":x:"
	}

	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s Refresh Alert: %s", emoji, alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Status:*\n%d/%d failed", alert.FailedCount, alert.TotalCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Success:*\n%d", alert.SuccessCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Failed Items:*\n%s", failedList.String()),
				},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert RefreshAlert) ([]byte, error) {
	var failedList strings.Builder
	for _, f := range alert.Failures {
		failedList.WriteString(fmt.Sprintf("• **%s**: %s\n", f.Item, f.Error))
	}

	color := 16776960 // yellow
	if alert.FailedCount == alert.TotalCount {
		color = 16711680 // red
	}

	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       fmt.Sprintf("Refresh Alert: %s", alert.JobName),
				"description": fmt.Sprintf("%d/%d items failed", alert.FailedCount, alert.TotalCount),
				"color":       color,
				"fields": []map[string]any{
					{"name": "Success", "value": fmt.Sprintf("%d", alert.SuccessCount), "inline": true},
					{"name": "Failed", "value": fmt.Sprintf("%d", alert.FailedCount), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
					{"name": "Failed Items", "value": failedList.String(), "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert RefreshAlert) ([]byte, error) {
	payload := map[string]any{
		"alert_type":    "refresh_failure",
		"job_name":      alert.JobName,
		"total_count":   alert.TotalCount,
		"success_count": alert.SuccessCount,
		"failed_count":  alert.FailedCount,
		"duration_ms":   alert.Duration.Milliseconds(),
		"timestamp":     alert.Timestamp.Format(time.RFC3339),
		"failures":      alert.Failures,
	}
	return json.Marshal(payload)
}
