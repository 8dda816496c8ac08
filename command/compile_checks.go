package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterConsumerMessage]  = (*RegisterConsumerCommand)(nil)
	_ gocmd.Commander[RevokeConsumerMessage]    = (*RevokeConsumerCommand)(nil)
	_ gocmd.Commander[IssueRequestTokenMessage] = (*IssueRequestTokenCommand)(nil)
	_ gocmd.Commander[AuthorizeTokenMessage]    = (*AuthorizeTokenCommand)(nil)
	_ gocmd.Commander[ExchangeTokenMessage]     = (*ExchangeTokenCommand)(nil)
	_ gocmd.Commander[InvalidateTokenMessage]   = (*InvalidateTokenCommand)(nil)
	_ gocmd.Commander[ReapExpiredTokensMessage] = (*ReapExpiredTokensCommand)(nil)
)
