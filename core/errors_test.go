package core

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestFlowErrorMapper_SentinelMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
		status   int
	}{
		{"consumer not found", ErrConsumerNotFound, goerrors.CategoryNotFound, FlowErrorUnknownConsumer, http.StatusNotFound},
		{"duplicate consumer", ErrDuplicateConsumer, goerrors.CategoryConflict, FlowErrorDuplicateConsumer, http.StatusConflict},
		{"token not found", ErrTokenNotFound, goerrors.CategoryNotFound, FlowErrorTokenNotFound, http.StatusNotFound},
		{"token expired", ErrTokenExpired, goerrors.CategoryAuth, FlowErrorTokenExpired, http.StatusUnauthorized},
		{"code mismatch", ErrVerificationCodeMismatch, goerrors.CategoryAuth, FlowErrorCodeMismatch, http.StatusUnauthorized},
		{"bad credentials", ErrBadCredentials, goerrors.CategoryAuth, FlowErrorBadCredentials, http.StatusUnauthorized},
		{"wrong state", ErrWrongTokenState, goerrors.CategoryConflict, FlowErrorWrongState, http.StatusConflict},
		{"invalid transition", ErrInvalidTokenStateTransition, goerrors.CategoryConflict, FlowErrorWrongState, http.StatusConflict},
		{"version conflict", ErrTokenVersionConflict, goerrors.CategoryConflict, FlowErrorWrongState, http.StatusConflict},
		{"store unavailable", ErrStoreUnavailable, goerrors.CategoryExternal, FlowErrorStoreUnavailable, http.StatusServiceUnavailable},
		{"deadline exceeded", context.DeadlineExceeded, goerrors.CategoryExternal, FlowErrorStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := flowErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestFlowErrorMapper_WrappedSentinelStillMatches(t *testing.T) {
	err := fmt.Errorf("exchange %q: %w", "tok-1", ErrVerificationCodeMismatch)

	mapped := flowErrorMapper(err)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != FlowErrorCodeMismatch {
		t.Fatalf("expected %q, got %q", FlowErrorCodeMismatch, mapped.TextCode)
	}
}

func TestFlowErrorMapper_KeepsExistingEnvelope(t *testing.T) {
	original := goerrors.New("consumer key is required", goerrors.CategoryBadInput).
		WithTextCode(FlowErrorBadInput)

	mapped := flowErrorMapper(original)
	if mapped.TextCode != FlowErrorBadInput {
		t.Fatalf("expected original text code preserved, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, mapped.Code)
	}
}

func TestFlowErrorMapper_FillsMissingEnvelopeFields(t *testing.T) {
	bare := goerrors.New("downstream refused", goerrors.CategoryExternal)

	mapped := flowErrorMapper(bare)
	if mapped.TextCode != FlowErrorStoreUnavailable {
		t.Fatalf("expected default external text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d code, got %d", http.StatusServiceUnavailable, mapped.Code)
	}
}

func TestFlowErrorMapper_ValidationMessageFallback(t *testing.T) {
	mapped := flowErrorMapper(fmt.Errorf("core: token value is required"))
	if mapped.TextCode != FlowErrorBadInput {
		t.Fatalf("expected bad input mapping, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, mapped.Code)
	}
}

func TestFlowErrorMapper_NilStaysNil(t *testing.T) {
	if mapped := flowErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil, got %v", mapped)
	}
}

func TestVerificationCodeEqual(t *testing.T) {
	if !verificationCodeEqual("abc123", "abc123") {
		t.Fatalf("expected equal codes to match")
	}
	if verificationCodeEqual("abc123", "abc124") {
		t.Fatalf("expected different codes to mismatch")
	}
	if verificationCodeEqual("", "") {
		t.Fatalf("empty codes must never match")
	}
	if verificationCodeEqual("abc123", "") {
		t.Fatalf("missing supplied code must mismatch")
	}
}
