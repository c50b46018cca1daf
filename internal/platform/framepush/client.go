// Package framepush delivers Mini App notifications to the per-user endpoint
// the host client registered through the webhook.
package framepush

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/ctxutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/envutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

// Host client limits on the visible fields.
const (
	MaxTitleRunes = 32
	MaxBodyRunes  = 128
)

var ErrMalformedResponse = errors.New("framepush: malformed response body")

type Client interface {
	Send(ctx context.Context, sub domain.Subscription, msg domain.Message) (*SendResult, error)
}

type Config struct {
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{Timeout: envutil.Seconds("NOTIFY_TIMEOUT_SECONDS", 10*time.Second)}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		log:        log.With("client", "FramePushClient"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
}

type SendResult struct {
	NotificationID    string
	StatusCode        int
	SuccessfulTokens  []string
	InvalidTokens     []string
	RateLimitedTokens []string
}

func (r *SendResult) RateLimited() bool {
	return r != nil && len(r.RateLimitedTokens) > 0
}

type sendRequest struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

type sendResponse struct {
	Result *struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "framepush: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("framepush http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Send makes exactly one POST. A 200 with a well-formed body returns a result
// (check RateLimited); anything else is an error carrying the diagnostic.
func (c *client) Send(ctx context.Context, sub domain.Subscription, msg domain.Message) (*SendResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("framepush client unavailable")
	}
	if !sub.Valid() {
		return nil, fmt.Errorf("framepush: subscription url and token required")
	}

	payload := sendRequest{
		NotificationID: uuid.NewString(),
		Title:          Truncate(msg.Title, MaxTitleRunes),
		Body:           Truncate(msg.Body, MaxBodyRunes),
		TargetURL:      msg.TargetURL,
		Tokens:         []string{sub.Token},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, sub.URL, &buf)
	if err != nil {
		return nil, fmt.Errorf("framepush: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sub.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("framepush: post: %w", err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("framepush: read body: %w", readErr)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var sr sendResponse
	if err := json.Unmarshal(raw, &sr); err != nil || sr.Result == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.TrimSpace(string(raw)))
	}

	out := &SendResult{
		NotificationID:    payload.NotificationID,
		StatusCode:        resp.StatusCode,
		SuccessfulTokens:  sr.Result.SuccessfulTokens,
		InvalidTokens:     sr.Result.InvalidTokens,
		RateLimitedTokens: sr.Result.RateLimitedTokens,
	}
	if len(out.InvalidTokens) > 0 {
		c.log.Debug("push endpoint reported invalid token", "notification_id", out.NotificationID)
	}
	return out, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
