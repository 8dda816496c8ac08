package flow

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-authflow/core"
)

// Op names one external authorization surface.
type Op string

const (
	OpRegisterConsumer      Op = "register_consumer"
	OpIssueRequestToken     Op = "request_token"
	OpAuthorize             Op = "authorize"
	OpAuthenticate          Op = "authenticate"
	OpExchangeAccessToken   Op = "access_token"
	OpInvalidateAccessToken Op = "invalidate"
)

// Lifecycle is the slice of the token service the controller dispatches to.
type Lifecycle interface {
	RegisterConsumer(ctx context.Context, in core.RegisterConsumerInput) (core.Consumer, error)
	IssueRequestToken(ctx context.Context, consumerKey string) (core.Token, error)
	BindUser(ctx context.Context, tokenValue string, userRef string) error
	GenerateVerificationCode(ctx context.Context, tokenValue string) (string, error)
	AuthenticateResourceOwner(ctx context.Context, creds core.Credentials) (string, error)
	ExchangeForAccessToken(ctx context.Context, requestTokenValue string, verificationCode string) (core.Token, error)
	Invalidate(ctx context.Context, tokenValue string) error
}

// Request carries the fields an external surface supplies. Which fields are
// required depends on the Op; Dispatch validates per operation.
type Request struct {
	Op               Op
	ConsumerKey      string
	ConsumerName     string
	CallbackURL      string
	TokenValue       string
	VerificationCode string
	Credentials      core.Credentials
	// Session is a user reference established by an earlier authentication,
	// e.g. a logged-in browser session hitting the authorize surface.
	Session string
}

// Result is the surface-agnostic outcome of a dispatched operation.
type Result struct {
	Op               Op
	StatusCode       int
	Consumer         core.Consumer
	Token            core.Token
	VerificationCode string
	UserRef          string
	Metadata         map[string]any
}

type Controller struct {
	lifecycle Lifecycle
}

func NewController(lifecycle Lifecycle) (*Controller, error) {
	if lifecycle == nil {
		return nil, flowInternal("flow: lifecycle is not configured", nil)
	}
	return &Controller{lifecycle: lifecycle}, nil
}

// Dispatch routes one request to the lifecycle operation its Op names.
func (c *Controller) Dispatch(ctx context.Context, req Request) (Result, error) {
	if c == nil || c.lifecycle == nil {
		return Result{}, flowInternal("flow: controller is not configured", nil)
	}

	op := Op(strings.TrimSpace(strings.ToLower(string(req.Op))))
	switch op {
	case OpRegisterConsumer:
		return c.registerConsumer(ctx, req)
	case OpIssueRequestToken:
		return c.issueRequestToken(ctx, req)
	case OpAuthorize:
		return c.authorize(ctx, req)
	case OpAuthenticate:
		return c.authenticate(ctx, req)
	case OpExchangeAccessToken:
		return c.exchangeAccessToken(ctx, req)
	case OpInvalidateAccessToken:
		return c.invalidateAccessToken(ctx, req)
	default:
		return Result{}, flowBadInput(
			fmt.Sprintf("flow: unsupported operation %q", req.Op),
			map[string]any{"op": string(req.Op)},
		)
	}
}

func (c *Controller) registerConsumer(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.ConsumerKey) == "" {
		return Result{}, flowBadInput("flow: consumer key is required", opMetadata(OpRegisterConsumer))
	}
	consumer, err := c.lifecycle.RegisterConsumer(ctx, core.RegisterConsumerInput{
		Key:         req.ConsumerKey,
		Name:        req.ConsumerName,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Op:         OpRegisterConsumer,
		StatusCode: http.StatusCreated,
		Consumer:   consumer,
		Metadata:   opMetadata(OpRegisterConsumer),
	}, nil
}

func (c *Controller) issueRequestToken(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.ConsumerKey) == "" {
		return Result{}, flowBadInput("flow: consumer key is required", opMetadata(OpIssueRequestToken))
	}
	token, err := c.lifecycle.IssueRequestToken(ctx, req.ConsumerKey)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Op:         OpIssueRequestToken,
		StatusCode: http.StatusOK,
		Token:      token,
		Metadata:   opMetadata(OpIssueRequestToken),
	}, nil
}

// authorize binds a resource owner to a request token and issues the
// verification code. The user reference comes from an existing session when
// one is present, otherwise the supplied credentials are verified first.
func (c *Controller) authorize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.TokenValue) == "" {
		return Result{}, flowBadInput("flow: token value is required", opMetadata(OpAuthorize))
	}

	userRef := strings.TrimSpace(req.Session)
	if userRef == "" {
		verified, err := c.lifecycle.AuthenticateResourceOwner(ctx, req.Credentials)
		if err != nil {
			return Result{}, err
		}
		userRef = verified
	}

	if err := c.lifecycle.BindUser(ctx, req.TokenValue, userRef); err != nil {
		return Result{}, err
	}
	code, err := c.lifecycle.GenerateVerificationCode(ctx, req.TokenValue)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Op:               OpAuthorize,
		StatusCode:       http.StatusOK,
		VerificationCode: code,
		UserRef:          userRef,
		Metadata:         opMetadata(OpAuthorize),
	}, nil
}

func (c *Controller) authenticate(ctx context.Context, req Request) (Result, error) {
	userRef, err := c.lifecycle.AuthenticateResourceOwner(ctx, req.Credentials)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Op:         OpAuthenticate,
		StatusCode: http.StatusOK,
		UserRef:    userRef,
		Metadata:   opMetadata(OpAuthenticate),
	}, nil
}

func (c *Controller) exchangeAccessToken(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.TokenValue) == "" {
		return Result{}, flowBadInput("flow: token value is required", opMetadata(OpExchangeAccessToken))
	}
	if strings.TrimSpace(req.VerificationCode) == "" {
		return Result{}, flowBadInput("flow: verification code is required", opMetadata(OpExchangeAccessToken))
	}
	access, err := c.lifecycle.ExchangeForAccessToken(ctx, req.TokenValue, req.VerificationCode)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Op:         OpExchangeAccessToken,
		StatusCode: http.StatusOK,
		Token:      access,
		Metadata:   opMetadata(OpExchangeAccessToken),
	}, nil
}

func (c *Controller) invalidateAccessToken(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.TokenValue) == "" {
		return Result{}, flowBadInput("flow: token value is required", opMetadata(OpInvalidateAccessToken))
	}
	if err := c.lifecycle.Invalidate(ctx, req.TokenValue); err != nil {
		return Result{}, err
	}
	return Result{
		Op:         OpInvalidateAccessToken,
		StatusCode: http.StatusNoContent,
		Metadata:   opMetadata(OpInvalidateAccessToken),
	}, nil
}

func opMetadata(op Op) map[string]any {
	return map[string]any{"op": string(op)}
}

var _ Lifecycle = (*core.Service)(nil)
