package core

import (
	"errors"
	"testing"
	"time"
)

func TestTokenTransitionTo_FollowsLifecycleEdges(t *testing.T) {
	now := time.Now().UTC()
	token := Token{Kind: TokenKindRequest, State: TokenStateUnauthorized}

	if err := token.TransitionTo(TokenStateAuthorizedPending, now); err != nil {
		t.Fatalf("expected unauthorized->authorized_pending to work: %v", err)
	}
	if err := token.TransitionTo(TokenStateVerified, now); err != nil {
		t.Fatalf("expected authorized_pending->verified to work: %v", err)
	}
	if err := token.TransitionTo(TokenStateVerified, now); err != nil {
		t.Fatalf("expected verified->verified (code rotation) to work: %v", err)
	}
	if err := token.TransitionTo(TokenStateExchanged, now); err != nil {
		t.Fatalf("expected verified->exchanged to work: %v", err)
	}

	err := token.TransitionTo(TokenStateVerified, now)
	if !errors.Is(err, ErrInvalidTokenStateTransition) {
		t.Fatalf("expected invalid transition error from exchanged, got: %v", err)
	}
	if token.State != TokenStateExchanged {
		t.Fatalf("failed transition must not mutate state, got %q", token.State)
	}
}

func TestTokenTransitionTo_SkippingAStateFails(t *testing.T) {
	now := time.Now().UTC()
	token := Token{Kind: TokenKindRequest, State: TokenStateUnauthorized}

	err := token.TransitionTo(TokenStateVerified, now)
	if !errors.Is(err, ErrInvalidTokenStateTransition) {
		t.Fatalf("expected invalid transition error, got: %v", err)
	}
	err = token.TransitionTo(TokenStateExchanged, now)
	if !errors.Is(err, ErrInvalidTokenStateTransition) {
		t.Fatalf("expected invalid transition error, got: %v", err)
	}
}

func TestTokenTransitionTo_InvalidatedIsAbsorbing(t *testing.T) {
	now := time.Now().UTC()

	for _, state := range []TokenState{
		TokenStateUnauthorized,
		TokenStateAuthorizedPending,
		TokenStateVerified,
	} {
		token := Token{State: state}
		if err := token.TransitionTo(TokenStateInvalidated, now); err != nil {
			t.Fatalf("expected %s->invalidated to work: %v", state, err)
		}
		if err := token.TransitionTo(TokenStateInvalidated, now); err != nil {
			t.Fatalf("expected idempotent re-invalidation: %v", err)
		}
		err := token.TransitionTo(TokenStateVerified, now)
		if !errors.Is(err, ErrInvalidTokenStateTransition) {
			t.Fatalf("expected invalidated to reject %s, got: %v", TokenStateVerified, err)
		}
	}

	exchanged := Token{State: TokenStateExchanged}
	err := exchanged.TransitionTo(TokenStateInvalidated, now)
	if !errors.Is(err, ErrInvalidTokenStateTransition) {
		t.Fatalf("expected exchanged to be terminal, got: %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now().UTC()

	token := Token{ExpiresAt: now.Add(-time.Minute)}
	if !token.Expired(now) {
		t.Fatalf("expected token past its window to be expired")
	}

	token = Token{ExpiresAt: now.Add(time.Minute)}
	if token.Expired(now) {
		t.Fatalf("expected token inside its window to be live")
	}

	token = Token{}
	if token.Expired(now) {
		t.Fatalf("expected token without a window to never expire")
	}
}

func TestTokenStateTerminal(t *testing.T) {
	if !TokenStateExchanged.Terminal() || !TokenStateInvalidated.Terminal() {
		t.Fatalf("exchanged and invalidated must be terminal")
	}
	if TokenStateUnauthorized.Terminal() || TokenStateAuthorizedPending.Terminal() || TokenStateVerified.Terminal() {
		t.Fatalf("live states must not be terminal")
	}
}
