package query

import (
	"github.com/goliatone/go-authflow/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetTokenMessage, core.Token]       = (*GetTokenQuery)(nil)
	_ gocmd.Querier[GetConsumerMessage, core.Consumer] = (*GetConsumerQuery)(nil)
)
