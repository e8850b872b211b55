package function

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"
	"github.com/fezola/global-pay-connect-sub002/internal/core/ports"
	"github.com/fezola/global-pay-connect-sub002/pkg/apperror"
	"github.com/fezola/global-pay-connect-sub002/pkg/logger"

	"github.com/rs/zerolog"
)

const (
	createPayoutPath = "/create-payout"
	setupTwoFAPath   = "/setup-2fa"

	// maxResponseBytes caps how much of a function response is read.
	maxResponseBytes = 1 << 20
)

// Client calls the platform's edge functions with the caller's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var (
	_ ports.PayoutFunction    = (*Client)(nil)
	_ ports.TwoFactorFunction = (*Client)(nil)
)

// NewClient creates a function client. A zero timeout means no client timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Component(log, "functions"),
	}
}

// errorBody is the failure shape shared by the functions. Some report
// "error", some "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// CreatePayout invokes the payout creation function. A non-2xx answer is
// returned as a write error carrying the function's own message.
func (c *Client) CreatePayout(ctx context.Context, bearer string, req domain.CreatePayoutRequest) (*domain.CreatePayoutResult, error) {
	status, body, err := c.invoke(ctx, createPayoutPath, bearer, req)
	if err != nil {
		return nil, apperror.ErrWrite("", err)
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, apperror.ErrUnauthenticated()
	case status < 200 || status >= 300:
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		c.log.Warn().Int("status", status).Str("error", eb.text()).Msg("create-payout rejected")
		return nil, apperror.ErrWrite(eb.text(), fmt.Errorf("create-payout returned %d", status))
	}

	var result domain.CreatePayoutResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperror.ErrWrite("", fmt.Errorf("decoding create-payout response: %w", err))
	}
	return &result, nil
}

// Setup invokes the 2FA setup function. Its 400 answers are validation
// errors with the function's message.
func (c *Client) Setup(ctx context.Context, bearer string) (*ports.TwoFactorSetup, error) {
	status, body, err := c.invoke(ctx, setupTwoFAPath, bearer, nil)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, apperror.ErrUnauthenticated()
	case status == http.StatusBadRequest:
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		msg := eb.text()
		if msg == "" {
			msg = "2FA setup rejected"
		}
		return nil, apperror.Validation(msg)
	case status < 200 || status >= 300:
		return nil, apperror.InternalError(fmt.Errorf("setup-2fa returned %d", status))
	}

	var setup ports.TwoFactorSetup
	if err := json.Unmarshal(body, &setup); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decoding setup-2fa response: %w", err))
	}
	return &setup, nil
}

// invoke POSTs payload (nil for no body) and returns the status and raw body.
func (c *Client) invoke(ctx context.Context, path, bearer string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("function call failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("function call")
	return resp.StatusCode, body, nil
}
