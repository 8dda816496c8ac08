package authflow

import "github.com/goliatone/go-authflow/core"

type Config = core.Config

type TokenConfig = core.TokenConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Token = core.Token
type TokenKind = core.TokenKind
type TokenState = core.TokenState
type Consumer = core.Consumer

type RegisterConsumerInput = core.RegisterConsumerInput
type Credentials = core.Credentials

type TokenStore = core.TokenStore
type ConsumerStore = core.ConsumerStore
type CredentialVerifier = core.CredentialVerifier

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithPersistenceClient  = core.WithPersistenceClient
	WithRepositoryFactory  = core.WithRepositoryFactory
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithTokenStore         = core.WithTokenStore
	WithConsumerStore      = core.WithConsumerStore
	WithCredentialVerifier = core.WithCredentialVerifier
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
