// Package client talks to the phone's signed HTTP API.
//
// Every request body is a signed envelope built with the shared secret, and
// every response envelope is checked against the same secret before it is
// handed back to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
	"github.com/Schera-ole/phonemetrics/internal/sign"
)

const (
	PathQueryConfig  = "/config/query"
	PathQueryBattery = "/battery/query"

	contentType = "application/json; charset=utf-8"

	// DefaultTimeout bounds a whole request/response exchange.
	DefaultTimeout = 10 * time.Second
)

// Client performs signed exchanges with one phone.
type Client struct {
	baseURL    string
	signer     *sign.Signer
	clock      sign.Clock
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithClock replaces the clock used to timestamp request envelopes.
func WithClock(c sign.Clock) Option {
	return func(cl *Client) {
		cl.clock = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a client for baseURL signing with secret.
// Trailing slashes of baseURL are ignored.
func New(baseURL, secret string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signer:     sign.NewSigner(secret),
		clock:      sign.SystemClock{},
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the endpoint URL for path. Leading slashes of path are ignored.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// BuildEnvelope stamps data with the current time and its signature.
func (c *Client) BuildEnvelope(data map[string]any) models.Envelope {
	if data == nil {
		data = map[string]any{}
	}
	ts := c.clock.Now()
	envelope := models.Envelope{
		Data:      data,
		Timestamp: ts,
		Sign:      c.signer.Sign(ts),
	}
	c.logger.Debugw("built envelope", "timestamp", ts, "sign", envelope.Sign)
	return envelope
}

// Invoke posts a signed envelope with data to path and returns the decoded
// response. With verify set, the response must carry a timestamp and a sign
// matching it, otherwise an error matching ErrUnverifiableResponse is returned.
func (c *Client) Invoke(ctx context.Context, path string, data map[string]any, verify bool) (map[string]any, error) {
	body, err := c.exchange(ctx, path, data, verify)
	if err != nil {
		return nil, err
	}
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return resp, nil
}

// QueryConfig fetches the phone configuration.
func (c *Client) QueryConfig(ctx context.Context) (*models.ConfigResponse, error) {
	return query[models.DeviceConfig](ctx, c, PathQueryConfig)
}

// QueryBattery fetches the phone battery status.
func (c *Client) QueryBattery(ctx context.Context) (*models.BatteryResponse, error) {
	return query[models.Battery](ctx, c, PathQueryBattery)
}

func query[T any](ctx context.Context, c *Client, path string) (*models.Response[T], error) {
	body, err := c.exchange(ctx, path, nil, true)
	if err != nil {
		return nil, err
	}
	var resp models.Response[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding %s response: %w", path, err)
	}
	return &resp, nil
}

// exchange sends the request and returns the raw response body, verified
// when asked to.
func (c *Client) exchange(ctx context.Context, path string, data map[string]any, verify bool) ([]byte, error) {
	url := c.URL(path)
	payload, err := json.Marshal(c.BuildEnvelope(data))
	if err != nil {
		return nil, fmt.Errorf("error creating json: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %w", url, err)
	}
	request.Header.Set("Content-Type", contentType)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error sending request for %s: %w", url, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		c.logger.Warnw("unexpected status", "url", url, "status", response.StatusCode)
	}

	if verify {
		if err := c.verify(body); err != nil {
			c.logger.Debugw("response verification failed", "url", url)
			return nil, internalerrors.NewVerificationError(err)
		}
	}
	return body, nil
}

// signedFields is the part of a response envelope that verification needs.
type signedFields struct {
	Timestamp *int64  `json:"timestamp"`
	Sign      *string `json:"sign"`
}

func (c *Client) verify(body []byte) error {
	var fields signedFields
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	if fields.Timestamp == nil {
		return fmt.Errorf("timestamp: %w", internalerrors.ErrMissingField)
	}
	if fields.Sign == nil {
		return fmt.Errorf("sign: %w", internalerrors.ErrMissingField)
	}
	ts := *fields.Timestamp
	if !c.signer.Verify(ts, *fields.Sign) {
		return fmt.Errorf("sign mismatch for timestamp %d", ts)
	}
	return nil
}
