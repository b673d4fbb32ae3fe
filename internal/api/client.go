// Package api реализует отказоустойчивый конвейер запросов к REST API витрины:
// выбор хоста, ограниченные повторы, переключение на резервные адреса и
// единообразное представление ошибок.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Requester определяет контракт конвейера запросов.
type Requester interface {
	Do(ctx context.Context, req Request) (Envelope, error)
}

var _ Requester = (*Client)(nil)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultUserAgent   = "storefront/0.1"
)

// Request описывает один логический запрос к API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Token  string
}

// Client выполняет запросы по списку базовых адресов с повторами и переключением.
type Client struct {
	hosts       []string
	http        *http.Client
	logger      *zap.Logger
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger задаёт логгер.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout задаёт таймаут одной попытки.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBackoff задаёт базовую задержку между повторами.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithMaxAttempts задаёт число попыток на один хост.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// NewClient создаёт клиент для упорядоченного списка базовых адресов.
func NewClient(hosts []string, opts ...Option) *Client {
	c := &Client{
		hosts:       append([]string(nil), hosts...),
		http:        cleanhttp.DefaultPooledClient(),
		logger:      zap.NewNop(),
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Hosts возвращает копию списка базовых адресов.
func (c *Client) Hosts() []string {
	return append([]string(nil), c.hosts...)
}

// Do выполняет запрос. Ошибка, если она есть, всегда имеет тип *Error.
func (c *Client) Do(ctx context.Context, req Request) (Envelope, error) {
	if c == nil {
		return Envelope{}, &Error{Kind: KindConfiguration, Message: "API client is not configured"}
	}
	if len(c.hosts) == 0 {
		return Envelope{}, &Error{Kind: KindConfiguration, Message: "No API base URL configured"}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return Envelope{}, &Error{Kind: KindMalformed, Message: fmt.Sprintf("Invalid request body: %v", err)}
		}
		body = encoded
	}

	last := &Error{Kind: KindNetwork, Message: "Request failed"}

	for _, base := range c.hosts {
		if !IsValidHTTPURL(base) {
			last = &Error{Kind: KindConfiguration, Message: fmt.Sprintf("Invalid API base URL (%s)", base), URL: base}
			c.logger.Warn("skipping invalid api base url", zap.String("base", base))
			continue
		}

		target := buildURL(base, req)
		attempts := 0
		next := decisionDone

		var env Envelope
		err := retry.Do(ctx, linearBackoff(c.backoff, c.maxAttempts), func(ctx context.Context) error {
			attempts++
			result, failure, d := c.attempt(ctx, method, target, body, req.Token)
			if failure == nil {
				env = result
				return nil
			}
			last, next = failure, d

			c.logger.Debug("request attempt failed",
				zap.String("method", method),
				zap.String("url", target),
				zap.Int("attempt", attempts),
				zap.Int("status", failure.Status),
				zap.String("error", failure.Message),
				zap.Stringer("next", d),
			)

			if d == decisionRetry {
				return retry.RetryableError(failure)
			}
			return failure
		})
		if err == nil {
			if attempts > 1 {
				c.logger.Debug("request succeeded after retries",
					zap.String("url", target), zap.Int("attempts", attempts))
			}
			return env, nil
		}

		if ctx.Err() != nil {
			if attempts == 0 {
				last = networkError(ctx, ctx.Err(), target)
			}
			return Envelope{}, last
		}
		if next == decisionFail {
			c.logger.Warn("request failed", zap.String("url", target), zap.Error(last))
			return Envelope{}, last
		}
		c.logger.Debug("moving to next host", zap.String("base", base), zap.Stringer("reason", next))
	}

	c.logger.Warn("all api hosts failed", zap.Strings("hosts", c.hosts), zap.Error(last))
	return Envelope{}, last
}

func (c *Client) attempt(ctx context.Context, method, target string, body []byte, token string) (Envelope, *Error, decision) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return Envelope{}, &Error{Kind: KindConfiguration, Message: fmt.Sprintf("create request: %v", err), URL: target}, decisionFailover
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Envelope{}, networkError(attemptCtx, err, target), decide(ReasonNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, networkError(attemptCtx, err, target), decide(ReasonNetwork)
	}

	var env Envelope
	if len(text) > 0 {
		payload, err := decodeBody(text)
		if err != nil {
			return Envelope{}, &Error{
				Kind:    KindMalformed,
				Message: fmt.Sprintf("Invalid response (%s)", target),
				Status:  resp.StatusCode,
				URL:     target,
			}, decide(ReasonMalformedBody)
		}
		env.Payload = payload
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success && env.Payload != nil && !env.explicitFailure() {
		return env, nil, decisionDone
	}

	msg := env.message()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "Request failed"
	}

	return Envelope{}, &Error{
		Kind:    KindProtocol,
		Message: msg,
		Status:  resp.StatusCode,
		URL:     target,
	}, decide(ClassifyStatus(resp.StatusCode, msg))
}

func networkError(attemptCtx context.Context, err error, target string) *Error {
	msg := err.Error()

	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		msg = "Request timed out"
	case errors.As(err, &urlErr) && urlErr.Timeout():
		msg = "Request timed out"
	case errors.Is(err, context.Canceled):
		msg = "Request canceled"
	case errors.As(err, &urlErr):
		msg = urlErr.Err.Error()
	}

	return &Error{Kind: KindNetwork, Message: msg, URL: target}
}

func buildURL(base string, req Request) string {
	target := JoinPath(base, req.Path)
	if len(req.Query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + req.Query.Encode()
}
