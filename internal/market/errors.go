package market

import "fmt"

// ProviderError represents a single provider's failure to produce data
type ProviderError struct {
	Kind     string // "network", "bad_status", "bad_payload", "missing_key", "rate_limited"
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error from %s: %s (%v)", e.Kind, e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error from %s: %s", e.Kind, e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func NewNetworkError(provider, message string, cause error) *ProviderError {
	return &ProviderError{Kind: "network", Provider: provider, Message: message, Cause: cause}
}

func NewBadStatusError(provider string, status int, body string) *ProviderError {
	return &ProviderError{Kind: "bad_status", Provider: provider, Message: fmt.Sprintf("HTTP %d: %s", status, body)}
}

func NewBadPayloadError(provider, message string, cause error) *ProviderError {
	return &ProviderError{Kind: "bad_payload", Provider: provider, Message: message, Cause: cause}
}

func NewMissingKeyError(provider string) *ProviderError {
	return &ProviderError{Kind: "missing_key", Provider: provider, Message: "API key not configured"}
}

func NewRateLimitedError(provider, message string) *ProviderError {
	return &ProviderError{Kind: "rate_limited", Provider: provider, Message: message}
}
