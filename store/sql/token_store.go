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

// TokenStore persists lifecycle tokens with optimistic concurrency. Every
// write carries the version the caller read; a stale version surfaces
// core.ErrTokenVersionConflict instead of silently overwriting.
type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
}

func (s *TokenStore) Create(ctx context.Context, token core.Token) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	token.Value = strings.TrimSpace(token.Value)
	if token.Value == "" {
		return core.Token{}, fmt.Errorf("sqlstore: token value is required")
	}

	record := newTokenRecord(token, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Token{}, fmt.Errorf("%w: %s", core.ErrDuplicateTokenValue, token.Value)
		}
		return core.Token{}, err
	}
	return created.toDomain(), nil
}

func (s *TokenStore) Get(ctx context.Context, value string) (core.Token, error) {
	record, err := s.getRecordByValue(ctx, value)
	if err != nil {
		return core.Token{}, err
	}
	return record.toDomain(), nil
}

func (s *TokenStore) FindByVerificationCode(ctx context.Context, code string) (core.Token, error) {
	if s == nil || s.repo == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return core.Token{}, fmt.Errorf("%w: empty verification code", core.ErrTokenNotFound)
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("verification_code", "=", code),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Token{}, err
	}
	if len(records) == 0 {
		return core.Token{}, fmt.Errorf("%w: no token for verification code", core.ErrTokenNotFound)
	}
	return records[0].toDomain(), nil
}

func (s *TokenStore) Update(ctx context.Context, token core.Token) (core.Token, error) {
	if s == nil || s.db == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	return s.updateCAS(ctx, s.db, token)
}

// Exchange atomically retires the request token and inserts the access token.
// Both writes share one transaction so a concurrent exchange either wins
// completely or observes the version conflict and leaves no access token.
func (s *TokenStore) Exchange(ctx context.Context, request core.Token, access core.Token) (core.Token, core.Token, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.Token{}, core.Token{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	access.Value = strings.TrimSpace(access.Value)
	if access.Value == "" {
		return core.Token{}, core.Token{}, fmt.Errorf("sqlstore: access token value is required")
	}

	var updatedRequest core.Token
	var createdAccess core.Token
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, updateErr := s.updateCAS(ctx, tx, request)
		if updateErr != nil {
			return updateErr
		}
		updatedRequest = updated

		record := newTokenRecord(access, time.Now().UTC())
		inserted, createErr := s.repo.CreateTx(ctx, tx, record)
		if createErr != nil {
			if isUniqueViolation(createErr) {
				return fmt.Errorf("%w: %s", core.ErrDuplicateTokenValue, access.Value)
			}
			return createErr
		}
		createdAccess = inserted.toDomain()
		return nil
	})
	if err != nil {
		return core.Token{}, core.Token{}, err
	}
	return updatedRequest, createdAccess, nil
}

func (s *TokenStore) Delete(ctx context.Context, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("sqlstore: token value is required")
	}
	result, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("value = ?", value).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrTokenNotFound, value)
	}
	return nil
}

func (s *TokenStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: token store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// updateCAS performs the guarded write: the update only lands when the stored
// version still matches the one the caller read.
func (s *TokenStore) updateCAS(ctx context.Context, idb bun.IDB, token core.Token) (core.Token, error) {
	value := strings.TrimSpace(token.Value)
	if value == "" {
		return core.Token{}, fmt.Errorf("sqlstore: token value is required")
	}
	now := time.Now().UTC()

	result, err := idb.NewUpdate().
		Model((*tokenRecord)(nil)).
		Set("user_ref = ?", token.UserRef).
		Set("state = ?", string(token.State)).
		Set("verification_code = ?", token.VerificationCode).
		Set("version = version + 1").
		Set("updated_at = ?", now).
		Where("value = ?", value).
		Where("version = ?", token.Version).
		Exec(ctx)
	if err != nil {
		return core.Token{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.Token{}, err
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version. The check must run
		// on the same handle: inside Exchange's transaction a query through
		// the pool would wait on the connection the transaction holds.
		exists, existsErr := idb.NewSelect().
			Model((*tokenRecord)(nil)).
			Where("value = ?", value).
			Exists(ctx)
		if existsErr != nil {
			return core.Token{}, existsErr
		}
		if !exists {
			return core.Token{}, fmt.Errorf("%w: %s", core.ErrTokenNotFound, value)
		}
		return core.Token{}, fmt.Errorf("%w: %s", core.ErrTokenVersionConflict, value)
	}

	updated := token
	updated.Version = token.Version + 1
	updated.UpdatedAt = now
	return updated, nil
}

func (s *TokenStore) getRecordByValue(ctx context.Context, value string) (*tokenRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: token store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("sqlstore: token value is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("value", "=", value),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrTokenNotFound, value)
	}
	return records[0], nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
