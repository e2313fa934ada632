package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "rate limited", err: RateLimitedError("429 from provider", nil), retryable: true},
		{name: "timeout", err: TimeoutError("request timed out", nil), retryable: true},
		{name: "model unavailable", err: ModelUnavailableError("upstream 503", nil), retryable: true},
		{name: "malformed response", err: MalformedResponseError("no JSON found", nil), retryable: false},
		{name: "invalid document", err: InvalidDocumentError("not a PDF", nil), retryable: false},
		{name: "wrapped retryable", err: fmt.Errorf("page 3: %w", TimeoutError("slow", nil)), retryable: true},
		{name: "plain error", err: errors.New("boom"), retryable: false},
		{name: "nil", err: nil, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ValidationError("bad question", nil))
	typ, ok := TypeOf(wrapped)
	if !ok || typ != ErrorTypeValidation {
		t.Errorf("TypeOf(wrapped) = %v, %v", typ, ok)
	}

	if _, ok := TypeOf(errors.New("plain")); ok {
		t.Error("plain error should have no domain type")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := IOError("write export", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}
