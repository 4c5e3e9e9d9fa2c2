// Package resilience classifies workflow failures and provides retry helpers.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ProviderUnavailableError marks a collection provider failure. Branches
// swallow it and degrade to an empty result.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return e.Provider + " unavailable: " + e.Err.Error()
}

func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}

// NewProviderUnavailable wraps an error as a provider outage.
func NewProviderUnavailable(provider string, err error) *ProviderUnavailableError {
	return &ProviderUnavailableError{Provider: provider, Err: err}
}

// IsProviderUnavailable reports whether the error chain contains a
// ProviderUnavailableError.
func IsProviderUnavailable(err error) bool {
	var pe *ProviderUnavailableError
	return errors.As(err, &pe)
}

// StoreUnavailableError marks a persistence failure. It aborts the run.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable: " + e.Err.Error()
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailable wraps an error as a store outage.
func NewStoreUnavailable(err error) *StoreUnavailableError {
	return &StoreUnavailableError{Err: err}
}

// IsStoreUnavailable reports whether the error chain contains a
// StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var se *StoreUnavailableError
	return errors.As(err, &se)
}

// IsTransient returns true if the error (or any error in its chain) matches
// common transient error patterns (network timeouts, connection resets, DNS
// failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
