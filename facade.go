package authflow

import (
	"fmt"

	authflowcommand "github.com/goliatone/go-authflow/command"
	authflowquery "github.com/goliatone/go-authflow/query"
)

// CommandQueryService is what a service must provide for the facade to wire
// every command and query handler against it. core.Service satisfies it.
type CommandQueryService interface {
	authflowcommand.MutatingService
	authflowquery.TokenReader
	authflowquery.ConsumerReader
}

type Commands struct {
	RegisterConsumer  *authflowcommand.RegisterConsumerCommand
	RevokeConsumer    *authflowcommand.RevokeConsumerCommand
	IssueRequestToken *authflowcommand.IssueRequestTokenCommand
	AuthorizeToken    *authflowcommand.AuthorizeTokenCommand
	ExchangeToken     *authflowcommand.ExchangeTokenCommand
	InvalidateToken   *authflowcommand.InvalidateTokenCommand
	ReapExpiredTokens *authflowcommand.ReapExpiredTokensCommand
}

type Queries struct {
	GetToken    *authflowquery.GetTokenQuery
	GetConsumer *authflowquery.GetConsumerQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("authflow: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		RegisterConsumer:  authflowcommand.NewRegisterConsumerCommand(service),
		RevokeConsumer:    authflowcommand.NewRevokeConsumerCommand(service),
		IssueRequestToken: authflowcommand.NewIssueRequestTokenCommand(service),
		AuthorizeToken:    authflowcommand.NewAuthorizeTokenCommand(service),
		ExchangeToken:     authflowcommand.NewExchangeTokenCommand(service),
		InvalidateToken:   authflowcommand.NewInvalidateTokenCommand(service),
		ReapExpiredTokens: authflowcommand.NewReapExpiredTokensCommand(service),
	}
	facade.queries = Queries{
		GetToken:    authflowquery.NewGetTokenQuery(service),
		GetConsumer: authflowquery.NewGetConsumerQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
