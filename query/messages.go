package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetToken    = "authflow.query.token.get"
	TypeGetConsumer = "authflow.query.consumer.get"
)

type GetTokenMessage struct {
	TokenValue string
}

func (GetTokenMessage) Type() string { return TypeGetToken }

func (m GetTokenMessage) Validate() error {
	if strings.TrimSpace(m.TokenValue) == "" {
		return fmt.Errorf("query: token value is required")
	}
	return nil
}

type GetConsumerMessage struct {
	ConsumerKey string
}

func (GetConsumerMessage) Type() string { return TypeGetConsumer }

func (m GetConsumerMessage) Validate() error {
	if strings.TrimSpace(m.ConsumerKey) == "" {
		return fmt.Errorf("query: consumer key is required")
	}
	return nil
}
