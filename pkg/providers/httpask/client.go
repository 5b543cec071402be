package httpask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
)

// SessionHeader carries the session ID on every request.
const SessionHeader = "X-Session-ID"

type Config struct {
	BaseURL   string `mapstructure:"base_url"`
	SessionID string `mapstructure:"-"`
	// Timeout bounds one round trip. Zero means no client-side limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client performs POST {base}/ask round trips. It never retries.
type Client struct {
	cfg        Config
	HTTPClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(slog.Default(), "httpask"),
	}
}

func (c *Client) Name() string { return "http_ask" }

func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Message: "backend base URL not configured"}
	}
	body, err := json.Marshal(backend.Request{Query: query})
	if err != nil {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Err: errorsx.Wrap(err, errorsx.ReasonBackendTransport)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.SessionID != "" {
		req.Header.Set(SessionHeader, c.cfg.SessionID)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Warn("backend_request_failed", slog.String("session_id", c.cfg.SessionID), slog.Any("error", err))
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Message: transportMessage(err), Err: errorsx.Wrap(err, errorsx.ReasonBackendTransport)}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend_response",
		slog.String("session_id", c.cfg.SessionID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &errorsx.NetworkError{
			Kind:       errorsx.NetworkStatus,
			StatusCode: resp.StatusCode,
			Err:        errorsx.Errorf(errorsx.ReasonBackendStatus, "backend status %d", resp.StatusCode),
		}
	}

	var out backend.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Message: "invalid backend response", Err: errorsx.Wrap(err, errorsx.ReasonBackendDecode)}
	}
	return out.Answer, nil
}

// transportMessage keeps the user-facing text short; the full chain stays in
// the wrapped error.
func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		var ue interface{ Timeout() bool }
		if errors.As(err, &ue) && ue.Timeout() {
			return "request timed out"
		}
		return "failed to reach backend"
	}
}

var _ backend.Asker = (*Client)(nil)
