package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/notification"
	"github.com/mfreitag/solarledger/internal/storage"
)

type emailConfigRequest struct {
	Config storage.EmailConfig `json:"config"`
	// When set, send a test mail through the submitted config instead
	// of persisting it.
	TestRecipient string `json:"test_recipient,omitempty"`
}

// /api/v1/email-config: GET returns the stored config with secrets
// blanked, POST saves a new one or runs a delivery test.
func (s *Server) handleEmailConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.notifier.GetConfig(r.Context())
		if err != nil {
			writeError(w, "/api/v1/email-config", err)
			return
		}
		if cfg == nil {
			writeJSON(w, http.StatusOK, storage.EmailConfig{})
			return
		}
		redacted := *cfg
		redacted.Password = ""
		redacted.APIKey = ""
		writeJSON(w, http.StatusOK, redacted)

	case http.MethodPost:
		var req emailConfigRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, "/api/v1/email-config", fmt.Errorf("%w: %v", finance.ErrInvalidInput, err))
			return
		}
		if req.Config.Provider != "smtp" && req.Config.Provider != "sendgrid" {
			writeError(w, "/api/v1/email-config",
				fmt.Errorf("%w: provider must be smtp or sendgrid", finance.ErrInvalidInput))
			return
		}

		if req.TestRecipient != "" {
			if err := s.notifier.TestConfig(r.Context(), req.Config, req.TestRecipient); err != nil {
				if errors.Is(err, notification.ErrNotConfigured) {
					writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
					return
				}
				writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "test email sent"})
			return
		}

		if err := s.notifier.SaveConfig(r.Context(), req.Config); err != nil {
			writeError(w, "/api/v1/email-config", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})

	default:
		methodNotAllowed(w)
	}
}
