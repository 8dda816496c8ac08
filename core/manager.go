package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// casRetries bounds how often a state-changing operation re-reads after a
// version conflict before surfacing the conflict to the caller.
const casRetries = 1

// Service is the token lifecycle manager: a stateless orchestrator over a
// TokenStore and ConsumerStore that enforces the legal sequence of
// delegation steps from anonymous request token to user-bound access token.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	tokenStore        TokenStore
	consumerStore     ConsumerStore
	verifier          CredentialVerifier
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	TokenStore        TokenStore
	ConsumerStore     ConsumerStore
	Verifier          CredentialVerifier
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("authflow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("authflow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder()
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.tokenStore == nil || builder.consumerStore == nil) && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.tokenStore == nil {
					builder.tokenStore = storeProvider.TokenStore()
				}
				if builder.consumerStore == nil {
					builder.consumerStore = storeProvider.ConsumerStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.tokenStore == nil {
				builder.tokenStore = storeProvider.TokenStore()
			}
			if builder.consumerStore == nil {
				builder.consumerStore = storeProvider.ConsumerStore()
			}
		}
	}
	if builder.tokenStore == nil {
		builder.tokenStore = NewMemoryTokenStore()
	}
	if builder.consumerStore == nil {
		builder.consumerStore = NewMemoryConsumerStore()
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		tokenStore:        builder.tokenStore,
		consumerStore:     builder.consumerStore,
		verifier:          builder.verifier,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		TokenStore:        s.tokenStore,
		ConsumerStore:     s.consumerStore,
		Verifier:          s.verifier,
	}
}

// RegisterConsumer durably records a new consumer application and issues its
// shared secret. Registration is first-come: an existing key fails.
func (s *Service) RegisterConsumer(ctx context.Context, in RegisterConsumerInput) (consumer Consumer, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"consumer_key": in.Key,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "register_consumer", err, fields)
	}()

	key := strings.TrimSpace(in.Key)
	if key == "" {
		err = s.mapError(fmt.Errorf("core: consumer key is required"))
		return Consumer{}, err
	}

	secret, genErr := generateConsumerSecret()
	if genErr != nil {
		err = s.mapError(genErr)
		return Consumer{}, err
	}

	now := time.Now().UTC()
	created, createErr := s.consumerStore.Create(ctx, Consumer{
		Key:         key,
		Secret:      secret,
		Name:        strings.TrimSpace(in.Name),
		CallbackURL: strings.TrimSpace(in.CallbackURL),
		Metadata:    copyAnyMap(in.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if createErr != nil {
		err = s.mapError(createErr)
		return Consumer{}, err
	}
	return created, nil
}

// RevokeConsumer marks a consumer key as revoked. Existing tokens stay in
// the store but no new request tokens can be issued for the key.
func (s *Service) RevokeConsumer(ctx context.Context, consumerKey string, reason string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"consumer_key": consumerKey,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "revoke_consumer", err, fields)
	}()

	key := strings.TrimSpace(consumerKey)
	if key == "" {
		err = s.mapError(fmt.Errorf("core: consumer key is required"))
		return err
	}
	if revokeErr := s.consumerStore.Revoke(ctx, key, strings.TrimSpace(reason)); revokeErr != nil {
		err = s.mapError(revokeErr)
		return err
	}
	return nil
}

// ReapExpiredTokens removes tokens whose expiry precedes the given cutoff and
// reports how many were deleted. The background Reaper calls this on a
// schedule; it is exposed for one-shot maintenance runs too.
func (s *Service) ReapExpiredTokens(ctx context.Context, before time.Time) (removed int, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "reap_expired_tokens", err, nil)
	}()

	if before.IsZero() {
		before = time.Now().UTC()
	}
	removed, reapErr := s.tokenStore.DeleteExpired(ctx, before)
	if reapErr != nil {
		err = s.mapError(reapErr)
		return 0, err
	}
	return removed, nil
}

// IssueRequestToken opens a delegation flow for a known, non-revoked
// consumer. The returned token is anonymous: no resource owner is bound yet.
func (s *Service) IssueRequestToken(ctx context.Context, consumerKey string) (token Token, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"consumer_key": consumerKey,
		"token_kind":   string(TokenKindRequest),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "issue_request_token", err, fields)
	}()

	key := strings.TrimSpace(consumerKey)
	if key == "" {
		err = s.mapError(fmt.Errorf("core: consumer key is required"))
		return Token{}, err
	}

	consumer, getErr := s.consumerStore.Get(ctx, key)
	if getErr != nil {
		err = s.mapError(getErr)
		return Token{}, err
	}
	if consumer.Revoked {
		err = s.mapError(fmt.Errorf("%w: %s", ErrConsumerNotFound, key))
		return Token{}, err
	}

	value, genErr := generateTokenValue()
	if genErr != nil {
		err = s.mapError(genErr)
		return Token{}, err
	}
	secret, genErr := generateTokenSecret()
	if genErr != nil {
		err = s.mapError(genErr)
		return Token{}, err
	}

	now := time.Now().UTC()
	created, createErr := s.tokenStore.Create(ctx, Token{
		Value:       value,
		Secret:      secret,
		Kind:        TokenKindRequest,
		ConsumerKey: consumer.Key,
		State:       TokenStateUnauthorized,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.config.Tokens.RequestTTL),
	})
	if createErr != nil {
		err = s.mapError(createErr)
		return Token{}, err
	}
	return created, nil
}

// BindUser ties an authenticated resource owner to an unauthorized request
// token. Verification has not been generated yet at this point.
func (s *Service) BindUser(ctx context.Context, tokenValue string, userRef string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_ref": userRef,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "bind_user", err, fields)
	}()

	ref := strings.TrimSpace(userRef)
	if ref == "" {
		err = s.mapError(fmt.Errorf("core: user ref is required"))
		return err
	}

	_, err = s.updateTokenCAS(ctx, tokenValue, func(token *Token) error {
		if token.Expired(time.Now().UTC()) {
			return ErrTokenExpired
		}
		if token.Kind != TokenKindRequest {
			return fmt.Errorf("%w: %s token cannot be authorized", ErrWrongTokenState, token.Kind)
		}
		if token.State != TokenStateUnauthorized {
			return fmt.Errorf("%w: %s", ErrWrongTokenState, token.State)
		}
		token.UserRef = ref
		return token.TransitionTo(TokenStateAuthorizedPending, time.Now().UTC())
	})
	if err != nil {
		err = s.mapError(err)
	}
	return err
}

// GenerateVerificationCode issues the single live verification code for an
// authorized request token. Repeating the call on a verified token rotates
// the code; the previous one then fails exchange.
func (s *Service) GenerateVerificationCode(ctx context.Context, tokenValue string) (code string, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "generate_verification_code", err, nil)
	}()

	fresh, genErr := generateVerificationCode()
	if genErr != nil {
		err = s.mapError(genErr)
		return "", err
	}

	_, err = s.updateTokenCAS(ctx, tokenValue, func(token *Token) error {
		if token.Expired(time.Now().UTC()) {
			return ErrTokenExpired
		}
		if token.Kind != TokenKindRequest {
			return fmt.Errorf("%w: %s token has no verification step", ErrWrongTokenState, token.Kind)
		}
		if token.State != TokenStateAuthorizedPending && token.State != TokenStateVerified {
			return fmt.Errorf("%w: %s", ErrWrongTokenState, token.State)
		}
		token.VerificationCode = fresh
		return token.TransitionTo(TokenStateVerified, time.Now().UTC())
	})
	if err != nil {
		err = s.mapError(err)
		return "", err
	}
	return fresh, nil
}

// AuthenticateResourceOwner delegates to the configured CredentialVerifier.
// It never touches token state; callers follow a success with BindUser and
// GenerateVerificationCode.
func (s *Service) AuthenticateResourceOwner(ctx context.Context, creds Credentials) (userRef string, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "authenticate_resource_owner", err, nil)
	}()

	if s == nil || s.verifier == nil {
		err = s.mapError(fmt.Errorf("core: credential verifier is not configured"))
		return "", err
	}
	ref, verifyErr := s.verifier.Verify(ctx, creds)
	if verifyErr != nil {
		err = s.mapError(verifyErr)
		return "", err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		err = s.mapError(fmt.Errorf("%w: verifier returned empty user ref", ErrBadCredentials))
		return "", err
	}
	return ref, nil
}

// ExchangeForAccessToken consumes a verified request token's code and trades
// it for a fresh access token bound to the same consumer and resource owner.
// Exchange is single-use: the request token lands in its terminal exchanged
// state and a retry, concurrent or not, observes a wrong-state failure.
func (s *Service) ExchangeForAccessToken(ctx context.Context, requestTokenValue string, verificationCode string) (access Token, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"token_kind": string(TokenKindAccess),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "exchange_access_token", err, fields)
	}()

	value := strings.TrimSpace(requestTokenValue)
	if value == "" {
		err = s.mapError(fmt.Errorf("core: request token value is required"))
		return Token{}, err
	}

	request, getErr := s.tokenStore.Get(ctx, value)
	if getErr != nil {
		err = s.mapError(getErr)
		return Token{}, err
	}

	for attempt := 0; ; attempt++ {
		if validateErr := validateExchange(request, verificationCode); validateErr != nil {
			err = s.mapError(validateErr)
			return Token{}, err
		}

		accessValue, genErr := generateTokenValue()
		if genErr != nil {
			err = s.mapError(genErr)
			return Token{}, err
		}
		accessSecret, genErr := generateTokenSecret()
		if genErr != nil {
			err = s.mapError(genErr)
			return Token{}, err
		}

		now := time.Now().UTC()
		candidate := request
		candidate.VerificationCode = ""
		if transitionErr := candidate.TransitionTo(TokenStateExchanged, now); transitionErr != nil {
			err = s.mapError(transitionErr)
			return Token{}, err
		}

		_, created, exchangeErr := s.tokenStore.Exchange(ctx, candidate, Token{
			Value:       accessValue,
			Secret:      accessSecret,
			Kind:        TokenKindAccess,
			ConsumerKey: request.ConsumerKey,
			UserRef:     request.UserRef,
			State:       TokenStateVerified,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(s.config.Tokens.AccessTTL),
		})
		if exchangeErr == nil {
			return created, nil
		}
		if !errors.Is(exchangeErr, ErrTokenVersionConflict) || attempt >= casRetries {
			err = s.mapError(exchangeErr)
			return Token{}, err
		}
		request, getErr = s.tokenStore.Get(ctx, value)
		if getErr != nil {
			err = s.mapError(getErr)
			return Token{}, err
		}
	}
}

// Invalidate soft-revokes a token of either kind. Re-invalidation is
// idempotent; every other operation on the token afterwards fails with a
// wrong-state error. Exchanged request tokens are terminal and stay so.
func (s *Service) Invalidate(ctx context.Context, tokenValue string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "invalidate", err, nil)
	}()

	_, err = s.updateTokenCAS(ctx, tokenValue, func(token *Token) error {
		if token.State == TokenStateInvalidated {
			return errNoWrite
		}
		return token.TransitionTo(TokenStateInvalidated, time.Now().UTC())
	})
	if errors.Is(err, errNoWrite) {
		return nil
	}
	if err != nil {
		err = s.mapError(err)
	}
	return err
}

// GetToken loads a token by its opaque value without touching its state.
// Protected-resource layers use this to inspect presented access tokens.
func (s *Service) GetToken(ctx context.Context, tokenValue string) (token Token, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "get_token", err, nil)
	}()

	value := strings.TrimSpace(tokenValue)
	if value == "" {
		err = s.mapError(fmt.Errorf("core: token value is required"))
		return Token{}, err
	}
	found, getErr := s.tokenStore.Get(ctx, value)
	if getErr != nil {
		err = s.mapError(getErr)
		return Token{}, err
	}
	return found, nil
}

// GetConsumer loads a consumer record by key, revoked or not.
func (s *Service) GetConsumer(ctx context.Context, consumerKey string) (consumer Consumer, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"consumer_key": consumerKey,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_consumer", err, fields)
	}()

	key := strings.TrimSpace(consumerKey)
	if key == "" {
		err = s.mapError(fmt.Errorf("core: consumer key is required"))
		return Consumer{}, err
	}
	found, getErr := s.consumerStore.Get(ctx, key)
	if getErr != nil {
		err = s.mapError(getErr)
		return Consumer{}, err
	}
	return found, nil
}

// errNoWrite signals that a CAS mutation decided the stored record already
// satisfies the operation, so no write should happen.
var errNoWrite = errors.New("core: no write required")

// updateTokenCAS performs one atomic read-modify-write against the token
// store. On a version conflict it re-reads once and re-runs the mutation, so
// a concurrent loser fails on the state check instead of a raw conflict.
func (s *Service) updateTokenCAS(ctx context.Context, tokenValue string, mutate func(*Token) error) (Token, error) {
	if s == nil || s.tokenStore == nil {
		return Token{}, fmt.Errorf("core: token store is not configured")
	}
	value := strings.TrimSpace(tokenValue)
	if value == "" {
		return Token{}, fmt.Errorf("core: token value is required")
	}

	token, err := s.tokenStore.Get(ctx, value)
	if err != nil {
		return Token{}, err
	}
	for attempt := 0; ; attempt++ {
		candidate := token
		if mutateErr := mutate(&candidate); mutateErr != nil {
			return Token{}, mutateErr
		}
		updated, updateErr := s.tokenStore.Update(ctx, candidate)
		if updateErr == nil {
			return updated, nil
		}
		if !errors.Is(updateErr, ErrTokenVersionConflict) || attempt >= casRetries {
			return Token{}, updateErr
		}
		token, err = s.tokenStore.Get(ctx, value)
		if err != nil {
			return Token{}, err
		}
	}
}

// validateExchange gates the trade. Expiry outranks state: a dead token
// reports expired even when its state would also be wrong.
func validateExchange(request Token, verificationCode string) error {
	if request.Expired(time.Now().UTC()) {
		return ErrTokenExpired
	}
	if request.Kind != TokenKindRequest {
		return fmt.Errorf("%w: only request tokens can be exchanged", ErrWrongTokenState)
	}
	if request.State != TokenStateVerified {
		return fmt.Errorf("%w: %s", ErrWrongTokenState, request.State)
	}
	if !verificationCodeEqual(request.VerificationCode, strings.TrimSpace(verificationCode)) {
		return ErrVerificationCodeMismatch
	}
	return nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
