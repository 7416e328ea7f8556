// Package rest is the HTTP transport shared by all stores. It speaks the
// Event Tracker JSON envelope, attaches bearer tokens per call, and tags
// every request with an X-Request-ID for log correlation.
package rest

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope is the decoded response body. Endpoints disagree on where the
// payload lives (data, created, followers, ...), so all variants are
// declared here and callers pick the one their endpoint uses.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Token   string          `json:"token,omitempty"`

	// Organizer registration returns the new profile under "created".
	Created json.RawMessage `json:"created,omitempty"`

	// Follower endpoints return counts and lists at the top level.
	TotalFollowers     int             `json:"total_followers,omitempty"`
	Followers          json.RawMessage `json:"followers,omitempty"`
	Followed           int             `json:"followed,omitempty"`
	FollowedOrganizers json.RawMessage `json:"followed_organizers,omitempty"`
}

// DecodeData unmarshals the "data" payload into v.
func (e *Envelope) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return errors.New("response has no data payload")
	}
	return json.Unmarshal(e.Data, v)
}

// APIError is a failed request: transport succeeded but the server said no,
// either with a non-2xx status or a success:false envelope.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Message returns the server-reported message from err when it carries one,
// and fallback otherwise. Mirrors the original client's
// `err.response?.data?.message || fallback` convention.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Fallback returns err unchanged when it already carries a server-reported
// message, and wraps it with the action's fallback text otherwise.
func Fallback(err error, fallback string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return err
	}
	return fmt.Errorf("%s: %w", fallback, err)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client issues JSON and multipart requests against the platform API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a Client. A nil logger disables request logging.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Option adjusts a single request.
type Option func(*requestOptions)

type requestOptions struct {
	token string
}

// WithToken sends the bearer token in the Authorization header.
func WithToken(token string) Option {
	return func(o *requestOptions) { o.token = token }
}

// Get issues a GET and decodes the envelope.
func (c *Client) Get(ctx context.Context, path string, opts ...Option) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, "", nil, opts)
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}, opts ...Option) (*Envelope, error) {
	buf, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", buf, opts)
}

// PutJSON issues a PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, body interface{}, opts ...Option) (*Envelope, error) {
	buf, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, "application/json", buf, opts)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, "", nil, opts)
}

// PostForm issues a POST with a multipart form body.
func (c *Client) PostForm(ctx context.Context, path string, form *Form, opts ...Option) (*Envelope, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, contentType, body, opts)
}

// PutForm issues a PUT with a multipart form body.
func (c *Client) PutForm(ctx context.Context, path string, form *Form, opts ...Option) (*Envelope, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, contentType, body, opts)
}

func encodeJSON(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return buf, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, opts []Option) (*Envelope, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	c.logger.Info("request",
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", latency),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	var env Envelope
	decodeErr := json.NewDecoder(res.Body).Decode(&env)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: env.Message, RequestID: requestID}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return nil, &APIError{StatusCode: res.StatusCode, Message: env.Message, RequestID: requestID}
	}
	return &env, nil
}
