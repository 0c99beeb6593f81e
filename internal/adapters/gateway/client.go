// Package gateway implements the session backend contract over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/metrics"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// Client is a REST SessionGateway bound to one bearer credential.
type Client struct {
	http           *resty.Client
	token          string
	logger         zerolog.Logger
	onUnauthorized func()
}

// Ensure Client implements ports.SessionGateway.
var _ ports.SessionGateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUnauthorizedHandler registers a hook run after any 401 response.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for the API at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		token:  token,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "gateway").Logger()
	return c
}

// Factory returns a ports.GatewayFactory for baseURL.
func Factory(baseURL string, opts ...Option) ports.GatewayFactory {
	return func(id domain.Identity) (ports.SessionGateway, error) {
		if baseURL == "" {
			return nil, fmt.Errorf("%w: server url is not configured", domain.ErrValidation)
		}
		return New(baseURL, id.Token, opts...), nil
	}
}

type request struct {
	op     string
	method string
	path   string
	body   any
	query  map[string]string
	id     string
}

// do performs req and returns the body of a 2xx response. Every failure is a
// *domain.GatewayError.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
	if c.token != "" {
		r.SetAuthToken(c.token)
	}
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}

	start := time.Now()
	resp, err := r.Execute(req.method, req.path)
	elapsed := time.Since(start)

	if err != nil {
		gerr := domain.NewGatewayError(req.op, domain.ErrNetwork, 0, err.Error())
		c.record(req, gerr, elapsed)
		return nil, gerr
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		c.record(req, nil, elapsed)
		return resp.Body(), nil
	}

	gerr := domain.NewGatewayError(req.op, kindForStatus(status), status, errorMessage(resp.Body()))
	c.record(req, gerr, elapsed)
	if status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return nil, gerr
}

func (c *Client) record(req request, err error, elapsed time.Duration) {
	outcome := domain.Category(err)
	metrics.ObserveGateway(req.op, outcome, elapsed)

	ev := c.logger.Debug()
	if err != nil {
		ev = c.logger.Warn().Err(err)
	}
	ev.Str("op", req.op).
		Str("session_id", req.id).
		Dur("elapsed", elapsed).
		Str("outcome", outcome).
		Msg("gateway request")
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	}
	return domain.ErrServer
}

// errorMessage extracts {"error":{"message"}}, {"error":"..."} or {"message"}.
func errorMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(payload.Error, &flat) == nil && flat != "" {
			return flat
		}
	}
	return payload.Message
}

// malformed reports a 2xx response that can't be interpreted.
func (c *Client) malformed(op, reason string) error {
	err := domain.NewGatewayError(op, domain.ErrServer, 0, "malformed response: "+reason)
	c.logger.Warn().Str("op", op).Str("reason", reason).Msg("malformed gateway response")
	return err
}

func decode(body []byte, v any) error {
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, v)
}

func sessionPath(id, action string) string {
	return "/sessions/" + url.PathEscape(id) + "/" + action
}

func pageQuery(page, limit int) map[string]string {
	return map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
}
