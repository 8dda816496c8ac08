package command

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-authflow/core"
	gocmd "github.com/goliatone/go-command"
)

// MutatingService is the slice of the lifecycle service the command layer
// needs for state-changing operations.
type MutatingService interface {
	RegisterConsumer(ctx context.Context, in core.RegisterConsumerInput) (core.Consumer, error)
	RevokeConsumer(ctx context.Context, consumerKey string, reason string) error
	IssueRequestToken(ctx context.Context, consumerKey string) (core.Token, error)
	BindUser(ctx context.Context, tokenValue string, userRef string) error
	GenerateVerificationCode(ctx context.Context, tokenValue string) (string, error)
	AuthenticateResourceOwner(ctx context.Context, creds core.Credentials) (string, error)
	ExchangeForAccessToken(ctx context.Context, requestTokenValue string, verificationCode string) (core.Token, error)
	Invalidate(ctx context.Context, tokenValue string) error
	ReapExpiredTokens(ctx context.Context, before time.Time) (int, error)
}

type RegisterConsumerCommand struct {
	service MutatingService
}

func NewRegisterConsumerCommand(service MutatingService) *RegisterConsumerCommand {
	return &RegisterConsumerCommand{service: service}
}

func (c *RegisterConsumerCommand) Execute(ctx context.Context, msg RegisterConsumerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: register consumer service is required")
	}
	out, err := c.service.RegisterConsumer(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RevokeConsumerCommand struct {
	service MutatingService
}

func NewRevokeConsumerCommand(service MutatingService) *RevokeConsumerCommand {
	return &RevokeConsumerCommand{service: service}
}

func (c *RevokeConsumerCommand) Execute(ctx context.Context, msg RevokeConsumerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke consumer service is required")
	}
	return c.service.RevokeConsumer(ctx, msg.ConsumerKey, msg.Reason)
}

type IssueRequestTokenCommand struct {
	service MutatingService
}

func NewIssueRequestTokenCommand(service MutatingService) *IssueRequestTokenCommand {
	return &IssueRequestTokenCommand{service: service}
}

func (c *IssueRequestTokenCommand) Execute(ctx context.Context, msg IssueRequestTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: issue request token service is required")
	}
	out, err := c.service.IssueRequestToken(ctx, msg.ConsumerKey)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// AuthorizeResult is what an authorize command stores for its caller: the
// resource owner that was bound and the verification code to hand back.
type AuthorizeResult struct {
	TokenValue       string
	UserRef          string
	VerificationCode string
}

type AuthorizeTokenCommand struct {
	service MutatingService
}

func NewAuthorizeTokenCommand(service MutatingService) *AuthorizeTokenCommand {
	return &AuthorizeTokenCommand{service: service}
}

func (c *AuthorizeTokenCommand) Execute(ctx context.Context, msg AuthorizeTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorize token service is required")
	}

	userRef := strings.TrimSpace(msg.UserRef)
	if userRef == "" {
		verified, err := c.service.AuthenticateResourceOwner(ctx, msg.Credentials)
		if err != nil {
			return err
		}
		userRef = verified
	}
	if err := c.service.BindUser(ctx, msg.TokenValue, userRef); err != nil {
		return err
	}
	code, err := c.service.GenerateVerificationCode(ctx, msg.TokenValue)
	if err != nil {
		return err
	}
	storeResult(ctx, AuthorizeResult{
		TokenValue:       msg.TokenValue,
		UserRef:          userRef,
		VerificationCode: code,
	})
	return nil
}

type ExchangeTokenCommand struct {
	service MutatingService
}

func NewExchangeTokenCommand(service MutatingService) *ExchangeTokenCommand {
	return &ExchangeTokenCommand{service: service}
}

func (c *ExchangeTokenCommand) Execute(ctx context.Context, msg ExchangeTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: exchange token service is required")
	}
	out, err := c.service.ExchangeForAccessToken(ctx, msg.TokenValue, msg.VerificationCode)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type InvalidateTokenCommand struct {
	service MutatingService
}

func NewInvalidateTokenCommand(service MutatingService) *InvalidateTokenCommand {
	return &InvalidateTokenCommand{service: service}
}

func (c *InvalidateTokenCommand) Execute(ctx context.Context, msg InvalidateTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: invalidate token service is required")
	}
	return c.service.Invalidate(ctx, msg.TokenValue)
}

type ReapExpiredTokensCommand struct {
	service MutatingService
}

func NewReapExpiredTokensCommand(service MutatingService) *ReapExpiredTokensCommand {
	return &ReapExpiredTokensCommand{service: service}
}

func (c *ReapExpiredTokensCommand) Execute(ctx context.Context, msg ReapExpiredTokensMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reap expired tokens service is required")
	}
	removed, err := c.service.ReapExpiredTokens(ctx, msg.Before)
	if err != nil {
		return err
	}
	storeResult(ctx, removed)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
