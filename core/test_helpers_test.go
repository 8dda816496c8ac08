package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type testVerifier struct {
	users map[string]string
	refs  map[string]string
}

func newTestVerifier() *testVerifier {
	return &testVerifier{
		users: map[string]string{"owner@example.com": "hunter2"},
		refs:  map[string]string{"owner@example.com": "user42"},
	}
}

func (v *testVerifier) Verify(_ context.Context, creds Credentials) (string, error) {
	secret, ok := v.users[creds.Identifier]
	if !ok || secret != creds.Secret {
		return "", fmt.Errorf("%w: %s", ErrBadCredentials, creds.Identifier)
	}
	return v.refs[creds.Identifier], nil
}

type testFixture struct {
	service   *Service
	tokens    *MemoryTokenStore
	consumers *MemoryConsumerStore
	verifier  *testVerifier
}

func newTestFixture(t *testing.T, options ...Option) testFixture {
	t.Helper()

	tokens := NewMemoryTokenStore()
	consumers := NewMemoryConsumerStore()
	verifier := newTestVerifier()

	base := []Option{
		WithTokenStore(tokens),
		WithConsumerStore(consumers),
		WithCredentialVerifier(verifier),
	}
	service, err := NewService(Config{}, append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return testFixture{
		service:   service,
		tokens:    tokens,
		consumers: consumers,
		verifier:  verifier,
	}
}

// seedRequestToken plants a request token in a given state directly in the
// store, bypassing the manager, so tests can start mid-flow.
func (f testFixture) seedRequestToken(t *testing.T, value string, state TokenState, expiresAt time.Time) Token {
	t.Helper()

	now := time.Now().UTC()
	token := Token{
		Value:       value,
		Secret:      "seed-secret",
		Kind:        TokenKindRequest,
		ConsumerKey: "app1",
		State:       state,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if state == TokenStateAuthorizedPending || state == TokenStateVerified {
		token.UserRef = "user42"
	}
	if state == TokenStateVerified {
		token.VerificationCode = "seed-code"
	}
	created, err := f.tokens.Create(context.Background(), token)
	if err != nil {
		t.Fatalf("seed token %q: %v", value, err)
	}
	return created
}
