package external

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/mtlprog/wizard/internal/ratelimit"
)

const (
	defaultRetryMaxWaitTime = 10 * time.Second
	defaultRequestTimeout   = 30 * time.Second
)

// NewHTTPClient creates a resty client for a quote provider.
// Network errors, 5xx and 408 responses are retried up to retries times with backoff starting at wait.
// 429 is not retried here; the caller reports it as a rate limit.
func NewHTTPClient(baseURL string, retries int, wait time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultRequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusRequestTimeout
}

func retryHook(r *resty.Response, err error) {
	if r == nil || r.Request == nil {
		return
	}
	if err != nil {
		slog.Debug("retrying quote request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying quote request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

// slotError marks an attempt that was never sent because the rate limit wait failed.
type slotError struct {
	err error
}

func (e *slotError) Error() string { return "waiting for rate limit: " + e.err.Error() }

func (e *slotError) Unwrap() error { return e.err }

// gate makes every attempt sent through client wait for a slot of source first.
// Request middlewares run once per attempt, so resty retries are spaced like fresh calls.
func gate(client *resty.Client, limiter *ratelimit.Limiter, source ratelimit.Source) *resty.Client {
	return client.AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
		if err := limiter.Wait(r.Context(), source); err != nil {
			return &slotError{err: err}
		}
		return nil
	})
}

// requestError converts a failed resty call into a ProviderError.
func requestError(provider string, err error) *ProviderError {
	var se *slotError
	if errors.As(err, &se) {
		return waitError(provider, se.err)
	}
	return networkError(provider, err)
}
