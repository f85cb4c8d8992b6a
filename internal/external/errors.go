package external

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failed quote fetch.
type ErrorKind string

const (
	KindConfigMissing   ErrorKind = "config_missing"
	KindHTTP            ErrorKind = "http"
	KindNetwork         ErrorKind = "network"
	KindRateLimited     ErrorKind = "rate_limited"
	KindMalformed       ErrorKind = "malformed"
	KindUnknownSymbol   ErrorKind = "unknown_symbol"
	KindUnsupportedType ErrorKind = "unsupported_type"
	KindInternal        ErrorKind = "internal"
)

// ProviderError is returned by every adapter. Message is safe to show to the user.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of a ProviderError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

func configMissingError(provider, msg string) *ProviderError {
	return &ProviderError{Kind: KindConfigMissing, Provider: provider, Message: msg}
}

func httpError(provider string, status int) *ProviderError {
	return &ProviderError{
		Kind:       KindHTTP,
		Provider:   provider,
		StatusCode: status,
		Message:    fmt.Sprintf("%s API error: %d", provider, status),
	}
}

func networkError(provider string, cause error) *ProviderError {
	return &ProviderError{
		Kind:     KindNetwork,
		Provider: provider,
		Message:  fmt.Sprintf("%s request failed: %v", provider, cause),
		Cause:    cause,
	}
}

func noPriceError(provider, ticker string) *ProviderError {
	return &ProviderError{
		Kind:     KindMalformed,
		Provider: provider,
		Message:  fmt.Sprintf("No price data available for %s", ticker),
	}
}

func waitError(provider string, cause error) *ProviderError {
	return &ProviderError{
		Kind:     KindNetwork,
		Provider: provider,
		Message:  fmt.Sprintf("%s request canceled while waiting for rate limit: %v", provider, cause),
		Cause:    cause,
	}
}
