package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxdesk-backend/internal/logger"
)

type SendGridConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// SendGrid delivers mail through the v3 mail/send API. It does not retry.
type SendGrid struct {
	cfg  SendGridConfig
	http *http.Client
	log  *logger.Logger
}

func NewSendGrid(cfg SendGridConfig, log *logger.Logger) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid: api key required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("sendgrid: from email required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SendGrid{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log.With("client", "SendGrid")}, nil
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.ToEmail) == "" {
		return fmt.Errorf("sendgrid: recipient required")
	}
	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: m.ToEmail, Name: m.ToName}}}},
		From:             address{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
		Subject:          m.Subject,
	}
	if m.Text != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: m.Text})
	}
	if m.HTML != "" {
		payload.Content = append(payload.Content, content{Type: "text/html", Value: m.HTML})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	s.log.Debug("mail sent", "status", resp.StatusCode, "message_id", resp.Header.Get("X-Message-Id"))
	return nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, e.Body)
}
