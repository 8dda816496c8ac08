package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authflow/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConsumerStore struct {
	db   *bun.DB
	repo repository.Repository[*consumerRecord]
}

func (s *ConsumerStore) Create(ctx context.Context, consumer core.Consumer) (core.Consumer, error) {
	if s == nil || s.repo == nil {
		return core.Consumer{}, fmt.Errorf("sqlstore: consumer store is not configured")
	}
	consumer.Key = strings.TrimSpace(consumer.Key)
	if consumer.Key == "" {
		return core.Consumer{}, fmt.Errorf("sqlstore: consumer key is required")
	}

	record := newConsumerRecord(consumer, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Consumer{}, fmt.Errorf("%w: %s", core.ErrDuplicateConsumer, consumer.Key)
		}
		return core.Consumer{}, err
	}
	return created.toDomain(), nil
}

func (s *ConsumerStore) Get(ctx context.Context, key string) (core.Consumer, error) {
	record, err := s.getRecordByKey(ctx, key)
	if err != nil {
		return core.Consumer{}, err
	}
	return record.toDomain(), nil
}

func (s *ConsumerStore) Revoke(ctx context.Context, key string, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: consumer store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: consumer key is required")
	}

	result, err := s.db.NewUpdate().
		Model((*consumerRecord)(nil)).
		Set("revoked = ?", true).
		Set("revocation_reason = ?", strings.TrimSpace(reason)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrConsumerNotFound, key)
	}
	return nil
}

func (s *ConsumerStore) getRecordByKey(ctx context.Context, key string) (*consumerRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: consumer store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("sqlstore: consumer key is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrConsumerNotFound, key)
	}
	return records[0], nil
}
