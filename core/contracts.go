package core

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Store sentinels. Implementations return these (possibly wrapped) so the
// manager can map them onto the flow error taxonomy without knowing the
// backing store.
var (
	ErrTokenNotFound        = errors.New("core: token not found")
	ErrConsumerNotFound     = errors.New("core: consumer not found")
	ErrDuplicateTokenValue  = errors.New("core: duplicate token value")
	ErrDuplicateConsumer    = errors.New("core: duplicate consumer")
	ErrTokenVersionConflict = errors.New("core: token version conflict")
	ErrStoreUnavailable     = errors.New("core: token store unavailable")
)

type RegisterConsumerInput struct {
	Key         string
	Name        string
	CallbackURL string
	Metadata    map[string]any
}

// Credentials carries a resource owner's submitted login. The secret never
// leaves the CredentialVerifier.
type Credentials struct {
	Identifier string
	Secret     string
}

// TokenStore is keyed durability for token records. Uniqueness of Value is
// the store's invariant: Create fails on collision, Update only succeeds
// when the caller holds the current Version.
type TokenStore interface {
	Create(ctx context.Context, token Token) (Token, error)
	Get(ctx context.Context, value string) (Token, error)
	FindByVerificationCode(ctx context.Context, code string) (Token, error)
	Update(ctx context.Context, token Token) (Token, error)
	Exchange(ctx context.Context, request Token, access Token) (Token, Token, error)
	Delete(ctx context.Context, value string) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

type ConsumerStore interface {
	Create(ctx context.Context, consumer Consumer) (Consumer, error)
	Get(ctx context.Context, key string) (Consumer, error)
	Revoke(ctx context.Context, key string, reason string) error
}

// CredentialVerifier is the external collaborator that validates a resource
// owner's credentials and returns the opaque authenticated user reference.
type CredentialVerifier interface {
	Verify(ctx context.Context, creds Credentials) (string, error)
}

type StoreProvider interface {
	TokenStore() TokenStore
	ConsumerStore() ConsumerStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
