// Package whatsapp is the outbound send capability. The rest of the system
// only sees the Sender interface; the HTTP client behind it talks to the
// WhatsApp Business Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rmaulana/rh-tracker-api/internal/config"
	"github.com/rmaulana/rh-tracker-api/pkg/circuitbreaker"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

// SendResult reports the outcome of one send attempt.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

type Sender interface {
	Send(ctx context.Context, phoneNumber, message string) (*SendResult, error)
}

type client struct {
	httpClient *http.Client
	apiURL     string
	token      string
	simulate   bool
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logger.Logger
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     cfg.APIURL,
		token:      cfg.AccessToken,
		simulate:   cfg.Simulate,
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:             "whatsapp",
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		}),
		logger: log,
	}
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send delivers one text message. A non-nil error means the capability
// itself failed (network, breaker open); a SendResult with Success=false
// carries the API-level refusal. Callers treat both as a failed send.
func (c *client) Send(ctx context.Context, phoneNumber, message string) (*SendResult, error) {
	if c.simulate {
		c.logger.Info("simulated whatsapp send", "to", phoneNumber)
		return &SendResult{
			Success:   true,
			MessageID: fmt.Sprintf("sim_%d", time.Now().UnixNano()),
		}, nil
	}

	var result *SendResult
	err := c.breaker.Execute(func() error {
		var execErr error
		result, execErr = c.doSend(ctx, phoneNumber, message)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *client) doSend(ctx context.Context, phoneNumber, message string) (*SendResult, error) {
	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               phoneNumber,
		Type:             "text",
		Text:             textBody{Body: message},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			reason = parsed.Error.Message
		}
		return &SendResult{Success: false, Error: reason}, nil
	}

	res := &SendResult{Success: true}
	if len(parsed.Messages) > 0 {
		res.MessageID = parsed.Messages[0].ID
	}
	return res, nil
}
