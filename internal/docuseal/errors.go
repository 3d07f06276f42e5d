package docuseal

import "fmt"

// Each failing client call returns a typed error naming the step, so callers
// (and users) can tell token issuance apart from detail fetch and dispatch.
// None of these are retried automatically: the service's idempotency for
// writes is unknown.

// TokenIssuanceError reports a failed builder token request.
type TokenIssuanceError struct {
	Cause error
}

func (e *TokenIssuanceError) Error() string {
	return fmt.Sprintf("builder token issuance failed: %v", e.Cause)
}

func (e *TokenIssuanceError) Unwrap() error { return e.Cause }

// TemplateFetchError reports a failed template detail fetch.
type TemplateFetchError struct {
	ExternalID string
	Cause      error
}

func (e *TemplateFetchError) Error() string {
	return fmt.Sprintf("template detail fetch failed for %s: %v", e.ExternalID, e.Cause)
}

func (e *TemplateFetchError) Unwrap() error { return e.Cause }

// DispatchError reports a failed signature request dispatch. The request may
// or may not have reached the signing service; callers must not blind-retry.
type DispatchError struct {
	ExternalID string
	Cause      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("signature request dispatch failed for template %s: %v", e.ExternalID, e.Cause)
}

func (e *DispatchError) Unwrap() error { return e.Cause }
