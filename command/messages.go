package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authflow/core"
)

const (
	TypeRegisterConsumer = "authflow.command.consumer.register"
	TypeRevokeConsumer   = "authflow.command.consumer.revoke"
	TypeIssueRequest     = "authflow.command.token.issue_request"
	TypeAuthorize        = "authflow.command.token.authorize"
	TypeExchange         = "authflow.command.token.exchange"
	TypeInvalidate       = "authflow.command.token.invalidate"
	TypeReapExpired      = "authflow.command.token.reap_expired"
)

type RegisterConsumerMessage struct {
	Input core.RegisterConsumerInput
}

func (RegisterConsumerMessage) Type() string { return TypeRegisterConsumer }

func (m RegisterConsumerMessage) Validate() error {
	if strings.TrimSpace(m.Input.Key) == "" {
		return fmt.Errorf("command: consumer key is required")
	}
	return nil
}

type RevokeConsumerMessage struct {
	ConsumerKey string
	Reason      string
}

func (RevokeConsumerMessage) Type() string { return TypeRevokeConsumer }

func (m RevokeConsumerMessage) Validate() error {
	if strings.TrimSpace(m.ConsumerKey) == "" {
		return fmt.Errorf("command: consumer key is required")
	}
	return nil
}

type IssueRequestTokenMessage struct {
	ConsumerKey string
}

func (IssueRequestTokenMessage) Type() string { return TypeIssueRequest }

func (m IssueRequestTokenMessage) Validate() error {
	if strings.TrimSpace(m.ConsumerKey) == "" {
		return fmt.Errorf("command: consumer key is required")
	}
	return nil
}

// AuthorizeTokenMessage binds a resource owner to a request token and issues
// the verification code in one step. Exactly one of UserRef or Credentials
// must identify the resource owner.
type AuthorizeTokenMessage struct {
	TokenValue  string
	UserRef     string
	Credentials core.Credentials
}

func (AuthorizeTokenMessage) Type() string { return TypeAuthorize }

func (m AuthorizeTokenMessage) Validate() error {
	if strings.TrimSpace(m.TokenValue) == "" {
		return fmt.Errorf("command: token value is required")
	}
	if strings.TrimSpace(m.UserRef) == "" && strings.TrimSpace(m.Credentials.Identifier) == "" {
		return fmt.Errorf("command: user ref or credentials are required")
	}
	return nil
}

type ExchangeTokenMessage struct {
	TokenValue       string
	VerificationCode string
}

func (ExchangeTokenMessage) Type() string { return TypeExchange }

func (m ExchangeTokenMessage) Validate() error {
	if strings.TrimSpace(m.TokenValue) == "" {
		return fmt.Errorf("command: token value is required")
	}
	if strings.TrimSpace(m.VerificationCode) == "" {
		return fmt.Errorf("command: verification code is required")
	}
	return nil
}

type InvalidateTokenMessage struct {
	TokenValue string
}

func (InvalidateTokenMessage) Type() string { return TypeInvalidate }

func (m InvalidateTokenMessage) Validate() error {
	if strings.TrimSpace(m.TokenValue) == "" {
		return fmt.Errorf("command: token value is required")
	}
	return nil
}

type ReapExpiredTokensMessage struct {
	Before time.Time
}

func (ReapExpiredTokensMessage) Type() string { return TypeReapExpired }

func (ReapExpiredTokensMessage) Validate() error { return nil }
