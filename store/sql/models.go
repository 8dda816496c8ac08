package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:authflow_tokens,alias:at"`

	ID               string     `bun:"id,pk"`
	Value            string     `bun:"value,notnull"`
	Secret           string     `bun:"secret,notnull"`
	Kind             string     `bun:"kind,notnull"`
	ConsumerKey      string     `bun:"consumer_key,notnull"`
	UserRef          string     `bun:"user_ref"`
	State            string     `bun:"state,notnull"`
	VerificationCode string     `bun:"verification_code"`
	Version          int64      `bun:"version,notnull"`
	ExpiresAt        *time.Time `bun:"expires_at,nullzero"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type consumerRecord struct {
	bun.BaseModel `bun:"table:authflow_consumers,alias:ac"`

	ID               string         `bun:"id,pk"`
	Key              string         `bun:"key,notnull"`
	Secret           string         `bun:"secret,notnull"`
	Name             string         `bun:"name"`
	CallbackURL      string         `bun:"callback_url"`
	Metadata         map[string]any `bun:"metadata,type:jsonb,notnull"`
	Revoked          bool           `bun:"revoked,notnull"`
	RevocationReason string         `bun:"revocation_reason"`
	CreatedAt        time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
