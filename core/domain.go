package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTokenStateTransition = errors.New("core: invalid token state transition")
	ErrWrongTokenState             = errors.New("core: operation not valid for token state")
	ErrTokenExpired                = errors.New("core: token expired")
	ErrVerificationCodeMismatch    = errors.New("core: verification code mismatch")
	ErrBadCredentials              = errors.New("core: bad resource owner credentials")
)

type TokenKind string

const (
	TokenKindRequest TokenKind = "request"
	TokenKindAccess  TokenKind = "access"
)

type TokenState string

const (
	TokenStateUnauthorized      TokenState = "unauthorized"
	TokenStateAuthorizedPending TokenState = "authorized_pending_verification"
	TokenStateVerified          TokenState = "verified"
	TokenStateExchanged         TokenState = "exchanged"
	TokenStateInvalidated       TokenState = "invalidated"
)

// Terminal reports whether no further lifecycle progress is possible from
// the state. Invalidated tokens still accept an idempotent re-invalidation.
func (s TokenState) Terminal() bool {
	return s == TokenStateExchanged || s == TokenStateInvalidated
}

// Token is one step of delegation: a request token pre-authorization, or an
// access token after a successful exchange. Version is the optimistic
// concurrency stamp enforced by every TokenStore implementation.
type Token struct {
	Value            string
	Secret           string
	Kind             TokenKind
	ConsumerKey      string
	UserRef          string
	State            TokenState
	VerificationCode string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpiresAt        time.Time
}

func (t *Token) TransitionTo(state TokenState, now time.Time) error {
	if t == nil {
		return nil
	}
	if !tokenTransitionAllowed(t.State, state) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTokenStateTransition, t.State, state)
	}
	t.State = state
	t.UpdatedAt = now
	return nil
}

// Expired checks the validity window lazily; a zero ExpiresAt never expires.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

func tokenTransitionAllowed(current, next TokenState) bool {
	allowed := map[TokenState]map[TokenState]struct{}{
		TokenStateUnauthorized: {
			TokenStateAuthorizedPending: {},
			TokenStateInvalidated:       {},
		},
		TokenStateAuthorizedPending: {
			TokenStateVerified:    {},
			TokenStateInvalidated: {},
		},
		TokenStateVerified: {
			// verified -> verified rotates the live verification code.
			TokenStateVerified:    {},
			TokenStateExchanged:   {},
			TokenStateInvalidated: {},
		},
		TokenStateExchanged: {},
		TokenStateInvalidated: {
			TokenStateInvalidated: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

// Consumer is a registered application. Immutable after registration except
// for revocation.
type Consumer struct {
	Key         string
	Secret      string
	Name        string
	CallbackURL string
	Metadata    map[string]any
	Revoked     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Consumer) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("core: consumer key is required")
	}
	return nil
}
