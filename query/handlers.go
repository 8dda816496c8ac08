package query

import (
	"context"

	"github.com/goliatone/go-authflow/core"
)

type TokenReader interface {
	GetToken(ctx context.Context, tokenValue string) (core.Token, error)
}

type ConsumerReader interface {
	GetConsumer(ctx context.Context, consumerKey string) (core.Consumer, error)
}

type GetTokenQuery struct {
	reader TokenReader
}

func NewGetTokenQuery(reader TokenReader) *GetTokenQuery {
	return &GetTokenQuery{reader: reader}
}

func (q *GetTokenQuery) Query(ctx context.Context, msg GetTokenMessage) (core.Token, error) {
	if q == nil || q.reader == nil {
		return core.Token{}, queryDependencyError("query: token reader is required")
	}
	return q.reader.GetToken(ctx, msg.TokenValue)
}

type GetConsumerQuery struct {
	reader ConsumerReader
}

func NewGetConsumerQuery(reader ConsumerReader) *GetConsumerQuery {
	return &GetConsumerQuery{reader: reader}
}

func (q *GetConsumerQuery) Query(ctx context.Context, msg GetConsumerMessage) (core.Consumer, error) {
	if q == nil || q.reader == nil {
		return core.Consumer{}, queryDependencyError("query: consumer reader is required")
	}
	return q.reader.GetConsumer(ctx, msg.ConsumerKey)
}
