package sqlstore

import (
	"time"

	"github.com/goliatone/go-authflow/core"
	"github.com/google/uuid"
)

func newTokenRecord(token core.Token, now time.Time) *tokenRecord {
	createdAt := token.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := token.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return &tokenRecord{
		ID:               uuid.NewString(),
		Value:            token.Value,
		Secret:           token.Secret,
		Kind:             string(token.Kind),
		ConsumerKey:      token.ConsumerKey,
		UserRef:          token.UserRef,
		State:            string(token.State),
		VerificationCode: token.VerificationCode,
		Version:          1,
		ExpiresAt:        optionalTime(token.ExpiresAt),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

func (r *tokenRecord) toDomain() core.Token {
	if r == nil {
		return core.Token{}
	}
	token := core.Token{
		Value:            r.Value,
		Secret:           r.Secret,
		Kind:             core.TokenKind(r.Kind),
		ConsumerKey:      r.ConsumerKey,
		UserRef:          r.UserRef,
		State:            core.TokenState(r.State),
		VerificationCode: r.VerificationCode,
		Version:          int(r.Version),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.ExpiresAt != nil {
		token.ExpiresAt = r.ExpiresAt.UTC()
	}
	return token
}

func newConsumerRecord(consumer core.Consumer, now time.Time) *consumerRecord {
	createdAt := consumer.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := consumer.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	metadata := consumer.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &consumerRecord{
		ID:          uuid.NewString(),
		Key:         consumer.Key,
		Secret:      consumer.Secret,
		Name:        consumer.Name,
		CallbackURL: consumer.CallbackURL,
		Metadata:    metadata,
		Revoked:     consumer.Revoked,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func (r *consumerRecord) toDomain() core.Consumer {
	if r == nil {
		return core.Consumer{}
	}
	metadata := r.Metadata
	if r.RevocationReason != "" {
		metadata = copyAnyMap(metadata)
		metadata["revocation_reason"] = r.RevocationReason
	}
	return core.Consumer{
		Key:         r.Key,
		Secret:      r.Secret,
		Name:        r.Name,
		CallbackURL: r.CallbackURL,
		Metadata:    metadata,
		Revoked:     r.Revoked,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
