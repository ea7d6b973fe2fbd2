package embedding

import (
	"errors"
	"fmt"
)

// Sentinel errors for embedding operations. Check with errors.Is.
var (
	// ErrEmptyInput indicates empty or whitespace-only text was submitted
	// for embedding. Input errors are never sent to a provider and never
	// retried.
	ErrEmptyInput = errors.New("empty text submitted for embedding")

	// ErrNoProviders indicates the service was constructed without any
	// backing provider.
	ErrNoProviders = errors.New("no embedding providers configured")
)

// ProviderError reports a failed call to one embedding backend. The service
// surfaces the last ProviderError only after every configured provider has
// been tried in fallback order.
//
// Timeout distinguishes a deadline overrun from a provider-side failure:
// timeouts are never retried in-process, but they do still fall through to
// the next provider in the chain.
type ProviderError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("embedding provider %s: timeout: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
