package transport

// Shared HTTP transport for every remote API the tracker talks to.
// Requests are rate limited, pass through a circuit breaker and are retried on
// 429/5xx. Any failure comes back as a *RemoteError matching ErrRemoteUnavailable,
// which callers collapse into "no data".

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wallet-tracker/internal/infra/log"
	"wallet-tracker/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrRemoteUnavailable = errors.New("remote API unavailable")

// RemoteError carries the API name and the underlying cause.
type RemoteError struct {
	API      string
	Endpoint string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.API, e.Endpoint, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteUnavailable }

type Options struct {
	Name            string
	BaseURL         string
	Timeout         time.Duration // 0 keeps the http.Client default (none)
	RateLimit       float64       // requests per second, 0 disables limiting
	Burst           int
	Retry           retry.Options
	Headers         map[string]string
	MaxResponseSize int64
	HTTPClient      *http.Client
}

type Client struct {
	name            string
	baseURL         string
	headers         map[string]string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	retry           retry.Options
	maxResponseSize int64
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	maxSize := opts.MaxResponseSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}

	name := opts.Name
	if name == "" {
		name = "api"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("api", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		name:            name,
		baseURL:         opts.BaseURL,
		headers:         opts.Headers,
		httpClient:      httpClient,
		rateLimiter:     limiter,
		circuitBreaker:  breaker,
		retry:           opts.Retry,
		maxResponseSize: maxSize,
	}
}

func (c *Client) Name() string { return c.name }

// Do sends one logical request (retries included) and returns the raw body of a 2xx response.
// body, when non-nil, is encoded as JSON. endpoint is appended to the base URL.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string) ([]byte, error) {
	requestID := log.GenerateRequestID()
	startTime := time.Now()

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	var respBody []byte
	err := retry.Do(ctx, c.retry, func() error {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait failed: %w", err)
			}
		}
		out, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.send(ctx, requestID, method, endpoint, payload, headers, startTime)
		})
		if err != nil {
			return err
		}
		respBody = out.([]byte)
		return nil
	})
	if err != nil {
		log.LogError(fmt.Sprintf("%s request failed", c.name),
			zap.String("request_id", requestID),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, &RemoteError{API: c.name, Endpoint: endpoint, Err: err}
	}

	return respBody, nil
}

// DoJSON is Do followed by decoding the response into out.
func (c *Client) DoJSON(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string, out interface{}) error {
	data, err := c.Do(ctx, method, endpoint, body, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.LogJSON(data, c.name+" undecodable response")
		return &RemoteError{API: c.name, Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, requestID, method, endpoint string, payload []byte, headers map[string]string, startTime time.Time) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.LogRequest(requestID, method, endpoint, zap.String("api", c.name), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))

	if resp.StatusCode != http.StatusOK {
		return nil, retry.NewHTTPError(resp, respBody)
	}
	return respBody, nil
}
