package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryTokenStore is a process-local TokenStore for tests and embedded
// deployments. It enforces the same value uniqueness and per-token version
// discipline the SQL store does.
type MemoryTokenStore struct {
	mu      sync.Mutex
	byValue map[string]Token
	byCode  map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		byValue: map[string]Token{},
		byCode:  map[string]string{},
	}
}

func (s *MemoryTokenStore) Create(_ context.Context, token Token) (Token, error) {
	if s == nil {
		return Token{}, fmt.Errorf("core: memory token store is not configured")
	}
	value := strings.TrimSpace(token.Value)
	if value == "" {
		return Token{}, fmt.Errorf("core: token value is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byValue[value]; exists {
		return Token{}, fmt.Errorf("%w: %s", ErrDuplicateTokenValue, value)
	}

	token.Value = value
	token.Version = 1
	now := time.Now().UTC()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = now
	}
	s.byValue[value] = token
	if token.VerificationCode != "" {
		s.byCode[token.VerificationCode] = value
	}
	return token, nil
}

func (s *MemoryTokenStore) Get(_ context.Context, value string) (Token, error) {
	if s == nil {
		return Token{}, fmt.Errorf("core: memory token store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Token{}, fmt.Errorf("core: token value is required")
	}

	s.mu.Lock()
	token, ok := s.byValue[value]
	s.mu.Unlock()
	if !ok {
		return Token{}, fmt.Errorf("%w: %s", ErrTokenNotFound, value)
	}
	return token, nil
}

func (s *MemoryTokenStore) FindByVerificationCode(_ context.Context, code string) (Token, error) {
	if s == nil {
		return Token{}, fmt.Errorf("core: memory token store is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Token{}, fmt.Errorf("core: verification code is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.byCode[code]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	token, ok := s.byValue[value]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return token, nil
}

func (s *MemoryTokenStore) Update(_ context.Context, token Token) (Token, error) {
	if s == nil {
		return Token{}, fmt.Errorf("core: memory token store is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(token)
}

// Exchange finalizes the request token and persists the new access token as
// one unit: either both writes land or neither does.
func (s *MemoryTokenStore) Exchange(_ context.Context, request Token, access Token) (Token, Token, error) {
	if s == nil {
		return Token{}, Token{}, fmt.Errorf("core: memory token store is not configured")
	}
	accessValue := strings.TrimSpace(access.Value)
	if accessValue == "" {
		return Token{}, Token{}, fmt.Errorf("core: access token value is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byValue[accessValue]; exists {
		return Token{}, Token{}, fmt.Errorf("%w: %s", ErrDuplicateTokenValue, accessValue)
	}

	updatedRequest, err := s.updateLocked(request)
	if err != nil {
		return Token{}, Token{}, err
	}

	access.Value = accessValue
	access.Version = 1
	now := time.Now().UTC()
	if access.CreatedAt.IsZero() {
		access.CreatedAt = now
	}
	if access.UpdatedAt.IsZero() {
		access.UpdatedAt = now
	}
	s.byValue[accessValue] = access
	return updatedRequest, access, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, value string) error {
	if s == nil {
		return fmt.Errorf("core: memory token store is not configured")
	}
	value = strings.TrimSpace(value)

	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byValue[value]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, value)
	}
	if token.VerificationCode != "" {
		delete(s.byCode, token.VerificationCode)
	}
	delete(s.byValue, value)
	return nil
}

func (s *MemoryTokenStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: memory token store is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for value, token := range s.byValue {
		if token.ExpiresAt.IsZero() || !token.ExpiresAt.Before(before) {
			continue
		}
		if token.VerificationCode != "" {
			delete(s.byCode, token.VerificationCode)
		}
		delete(s.byValue, value)
		removed++
	}
	return removed, nil
}

func (s *MemoryTokenStore) updateLocked(token Token) (Token, error) {
	value := strings.TrimSpace(token.Value)
	current, ok := s.byValue[value]
	if !ok {
		return Token{}, fmt.Errorf("%w: %s", ErrTokenNotFound, value)
	}
	if current.Version != token.Version {
		return Token{}, fmt.Errorf("%w: %s", ErrTokenVersionConflict, value)
	}

	if current.VerificationCode != "" && current.VerificationCode != token.VerificationCode {
		delete(s.byCode, current.VerificationCode)
	}
	token.Value = value
	token.Version = current.Version + 1
	token.UpdatedAt = time.Now().UTC()
	s.byValue[value] = token
	if token.VerificationCode != "" {
		s.byCode[token.VerificationCode] = value
	}
	return token, nil
}

// MemoryConsumerStore is a process-local ConsumerStore.
type MemoryConsumerStore struct {
	mu    sync.Mutex
	byKey map[string]Consumer
}

func NewMemoryConsumerStore() *MemoryConsumerStore {
	return &MemoryConsumerStore{byKey: map[string]Consumer{}}
}

func (s *MemoryConsumerStore) Create(_ context.Context, consumer Consumer) (Consumer, error) {
	if s == nil {
		return Consumer{}, fmt.Errorf("core: memory consumer store is not configured")
	}
	if err := consumer.Validate(); err != nil {
		return Consumer{}, err
	}
	key := strings.TrimSpace(consumer.Key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[key]; exists {
		return Consumer{}, fmt.Errorf("%w: %s", ErrDuplicateConsumer, key)
	}

	consumer.Key = key
	now := time.Now().UTC()
	if consumer.CreatedAt.IsZero() {
		consumer.CreatedAt = now
	}
	if consumer.UpdatedAt.IsZero() {
		consumer.UpdatedAt = now
	}
	consumer.Metadata = copyAnyMap(consumer.Metadata)
	s.byKey[key] = consumer
	return consumer, nil
}

func (s *MemoryConsumerStore) Get(_ context.Context, key string) (Consumer, error) {
	if s == nil {
		return Consumer{}, fmt.Errorf("core: memory consumer store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Consumer{}, fmt.Errorf("core: consumer key is required")
	}

	s.mu.Lock()
	consumer, ok := s.byKey[key]
	s.mu.Unlock()
	if !ok {
		return Consumer{}, fmt.Errorf("%w: %s", ErrConsumerNotFound, key)
	}
	consumer.Metadata = copyAnyMap(consumer.Metadata)
	return consumer, nil
}

func (s *MemoryConsumerStore) Revoke(_ context.Context, key string, reason string) error {
	if s == nil {
		return fmt.Errorf("core: memory consumer store is not configured")
	}
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	consumer, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrConsumerNotFound, key)
	}
	consumer.Revoked = true
	consumer.UpdatedAt = time.Now().UTC()
	if reason = strings.TrimSpace(reason); reason != "" {
		if consumer.Metadata == nil {
			consumer.Metadata = map[string]any{}
		}
		consumer.Metadata["revocation_reason"] = reason
	}
	s.byKey[key] = consumer
	return nil
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
