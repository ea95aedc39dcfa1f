// Package classifier calls the external email classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/model"
)

const (
	// classifyPath is appended to the configured base URL.
	classifyPath = "/api/v1/classify"
	// DefaultTimeout bounds one classification call, including rate limiter wait.
	DefaultTimeout = 10 * time.Second
	// maxResponseBytes caps the decoded response body.
	maxResponseBytes = 1 << 20

	dialTimeout           = 5 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	responseHeaderTimeout = 10 * time.Second
)

// Config configures the classifier client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS and Burst throttle outbound calls. RPS <= 0 disables throttling.
	RPS   float64
	Burst int
}

// Client classifies emails over HTTP.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewHTTPClient creates an HTTP client with bounded connection timeouts.
// It does not follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// New creates a Client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, recorder metrics.Recorder, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("classifier base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		endpoint: base + classifyPath,
		timeout:  cfg.Timeout,
		http:     httpClient,
		limiter:  limiter,
		metrics:  recorder,
		logger:   logger.With("component", "classifier"),
	}, nil
}

type classifyRequest struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

type classifyResponse struct {
	Priority       string                `json:"priority"`
	Category       string                `json:"category"`
	Labels         []string              `json:"labels"`
	SuggestedTasks []model.SuggestedTask `json:"suggestedTasks"`
	// Older classifier builds use snake_case.
	SuggestedTasksSnake []model.SuggestedTask `json:"suggested_tasks"`
}

// Classify sends one email to the classifier. It makes a single attempt.
// Every failure is reported as apperr.ClassificationUnavailable.
func (c *Client) Classify(ctx context.Context, email model.NewEmail) (*model.Classification, error) {
	start := time.Now()
	result, err := c.classify(ctx, email)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		c.logger.Warn("classification_failed",
			"tenant_id", email.TenantID,
			"outcome", outcome,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		c.metrics.ObserveClassifierCall(outcome, time.Since(start))
		return nil, apperr.Wrap(apperr.ClassificationUnavailable, err)
	}

	c.metrics.ObserveClassifierCall(outcome, time.Since(start))
	return result, nil
}

func (c *Client) classify(ctx context.Context, email model.NewEmail) (*model.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for classifier slot: %w", err)
	}

	payload, err := json.Marshal(classifyRequest{
		Subject:   email.Subject,
		Body:      email.Body,
		Sender:    email.Sender,
		Recipient: email.Recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mailtriage-classifier-client/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Priority == "" || out.Category == "" {
		return nil, errors.New("classifier response missing priority or category")
	}

	tasks := out.SuggestedTasks
	if len(tasks) == 0 {
		tasks = out.SuggestedTasksSnake
	}

	return &model.Classification{
		Priority:       out.Priority,
		Category:       out.Category,
		Labels:         out.Labels,
		SuggestedTasks: tasks,
	}, nil
}
