package flow

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/identity"
	goerrors "github.com/goliatone/go-errors"
)

type flowFixture struct {
	controller *Controller
	tokens     *core.MemoryTokenStore
}

func newFlowFixture(t *testing.T) flowFixture {
	t.Helper()

	tokens := core.NewMemoryTokenStore()
	verifier := identity.NewDirectory(identity.DirectoryConfig{
		Accounts: []identity.Account{
			{Identifier: "owner@example.com", Secret: "hunter2", UserRef: "user42"},
		},
	})
	service, err := core.NewService(core.Config{},
		core.WithTokenStore(tokens),
		core.WithConsumerStore(core.NewMemoryConsumerStore()),
		core.WithCredentialVerifier(verifier),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	controller, err := NewController(service)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return flowFixture{controller: controller, tokens: tokens}
}

func (f flowFixture) register(t *testing.T, key string) core.Consumer {
	t.Helper()
	result, err := f.controller.Dispatch(context.Background(), Request{
		Op:          OpRegisterConsumer,
		ConsumerKey: key,
	})
	if err != nil {
		t.Fatalf("register consumer %q: %v", key, err)
	}
	return result.Consumer
}

func (f flowFixture) requestToken(t *testing.T, consumerKey string) core.Token {
	t.Helper()
	result, err := f.controller.Dispatch(context.Background(), Request{
		Op:          OpIssueRequestToken,
		ConsumerKey: consumerKey,
	})
	if err != nil {
		t.Fatalf("issue request token: %v", err)
	}
	return result.Token
}

func TestDispatch_FullSurfaceFlow(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)

	registered, err := fixture.controller.Dispatch(ctx, Request{
		Op:           OpRegisterConsumer,
		ConsumerKey:  "app1",
		ConsumerName: "App One",
		CallbackURL:  "https://app.example.com/callback",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", registered.StatusCode)
	}
	if registered.Consumer.Secret == "" {
		t.Fatalf("expected issued consumer secret")
	}

	request := fixture.requestToken(t, "app1")
	if request.State != core.TokenStateUnauthorized {
		t.Fatalf("expected unauthorized request token, got %s", request.State)
	}

	authorized, err := fixture.controller.Dispatch(ctx, Request{
		Op:         OpAuthorize,
		TokenValue: request.Value,
		Credentials: core.Credentials{
			Identifier: "owner@example.com",
			Secret:     "hunter2",
		},
	})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if authorized.VerificationCode == "" || authorized.UserRef != "user42" {
		t.Fatalf("expected verification code for user42, got %+v", authorized)
	}

	exchanged, err := fixture.controller.Dispatch(ctx, Request{
		Op:               OpExchangeAccessToken,
		TokenValue:       request.Value,
		VerificationCode: authorized.VerificationCode,
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if exchanged.Token.Kind != core.TokenKindAccess || exchanged.Token.UserRef != "user42" {
		t.Fatalf("unexpected access token: %+v", exchanged.Token)
	}

	invalidated, err := fixture.controller.Dispatch(ctx, Request{
		Op:         OpInvalidateAccessToken,
		TokenValue: exchanged.Token.Value,
	})
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if invalidated.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", invalidated.StatusCode)
	}

	stored, err := fixture.tokens.Get(ctx, exchanged.Token.Value)
	if err != nil {
		t.Fatalf("get access token: %v", err)
	}
	if stored.State != core.TokenStateInvalidated {
		t.Fatalf("expected invalidated access token, got %s", stored.State)
	}
}

func TestDispatch_AuthorizeWithSessionSkipsCredentialCheck(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)
	fixture.register(t, "app1")
	request := fixture.requestToken(t, "app1")

	result, err := fixture.controller.Dispatch(ctx, Request{
		Op:         OpAuthorize,
		TokenValue: request.Value,
		Session:    "session-user",
	})
	if err != nil {
		t.Fatalf("authorize with session: %v", err)
	}
	if result.UserRef != "session-user" {
		t.Fatalf("expected session user ref, got %q", result.UserRef)
	}
	if result.VerificationCode == "" {
		t.Fatalf("expected verification code")
	}
}

func TestDispatch_AuthorizeWithBadCredentials(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)
	fixture.register(t, "app1")
	request := fixture.requestToken(t, "app1")

	_, err := fixture.controller.Dispatch(ctx, Request{
		Op:         OpAuthorize,
		TokenValue: request.Value,
		Credentials: core.Credentials{
			Identifier: "owner@example.com",
			Secret:     "wrong",
		},
	})
	if err == nil {
		t.Fatalf("expected credential failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.FlowErrorBadCredentials {
		t.Fatalf("expected %q, got %q", core.FlowErrorBadCredentials, rich.TextCode)
	}

	stored, getErr := fixture.tokens.Get(ctx, request.Value)
	if getErr != nil {
		t.Fatalf("get request token: %v", getErr)
	}
	if stored.State != core.TokenStateUnauthorized {
		t.Fatalf("failed authorization must leave the token untouched, got %s", stored.State)
	}
}

func TestDispatch_Authenticate(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)

	result, err := fixture.controller.Dispatch(ctx, Request{
		Op: OpAuthenticate,
		Credentials: core.Credentials{
			Identifier: "owner@example.com",
			Secret:     "hunter2",
		},
	})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.UserRef != "user42" {
		t.Fatalf("expected user42, got %q", result.UserRef)
	}
}

func TestDispatch_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)

	cases := []struct {
		name string
		req  Request
	}{
		{"unknown op", Request{Op: "teleport"}},
		{"register without key", Request{Op: OpRegisterConsumer}},
		{"request token without key", Request{Op: OpIssueRequestToken}},
		{"authorize without token", Request{Op: OpAuthorize, Session: "user42"}},
		{"exchange without token", Request{Op: OpExchangeAccessToken, VerificationCode: "code"}},
		{"exchange without code", Request{Op: OpExchangeAccessToken, TokenValue: "tok"}},
		{"invalidate without token", Request{Op: OpInvalidateAccessToken}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fixture.controller.Dispatch(ctx, tc.req)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.TextCode != core.FlowErrorBadInput {
				t.Fatalf("expected %q, got %q", core.FlowErrorBadInput, rich.TextCode)
			}
			if rich.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rich.Code)
			}
		})
	}
}

func TestDispatch_OpNormalization(t *testing.T) {
	ctx := context.Background()
	fixture := newFlowFixture(t)
	fixture.register(t, "app1")

	result, err := fixture.controller.Dispatch(ctx, Request{
		Op:          Op("  Request_Token "),
		ConsumerKey: "app1",
	})
	if err != nil {
		t.Fatalf("dispatch with unnormalized op: %v", err)
	}
	if result.Op != OpIssueRequestToken {
		t.Fatalf("expected normalized op, got %q", result.Op)
	}
}

func TestNewController_RequiresLifecycle(t *testing.T) {
	if _, err := NewController(nil); err == nil {
		t.Fatalf("expected configuration error")
	}
}
