package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telepilot/internal/model"
)

const idBatchSize = 500

// latestLastActive keeps the newer of the stored and incoming last_active. Valid in SQLite and Postgres.
var latestLastActive = gorm.Expr("CASE WHEN excluded.last_active > users.last_active THEN excluded.last_active ELSE users.last_active END")

// UserRepository persists the user directory.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or, when the Telegram id is already known, moves last_active forward.
// An older last_active never overwrites a newer one, so touches may land out of order.
// With refreshProfile the stored first name and username are overwritten too.
// created_at is only ever written by the insert branch.
func (r *UserRepository) Upsert(ctx context.Context, user *model.User, refreshProfile bool) error {
	user.CreatedAt = user.CreatedAt.UTC()
	user.LastActive = user.LastActive.UTC()
	if user.CreatedAt.IsZero() || user.CreatedAt.After(user.LastActive) {
		user.CreatedAt = user.LastActive
	}

	updates := clause.Set{{Column: clause.Column{Name: "last_active"}, Value: latestLastActive}}
	if refreshProfile {
		updates = append(updates, clause.AssignmentColumns([]string{"first_name", "username"})...)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: updates,
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ListTelegramIDs returns every known Telegram id, reading the table in batches.
func (r *UserRepository) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	var (
		ids   []int64
		batch []model.User
	)
	err := r.db.WithContext(ctx).Select("id", "telegram_id").
		FindInBatches(&batch, idBatchSize, func(tx *gorm.DB, _ int) error {
			for _, u := range batch {
				ids = append(ids, u.TelegramID)
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountCreatedSince counts users first seen at or after since.
func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.countSince(ctx, "created_at", since)
}

// CountActiveSince counts users seen at or after since.
func (r *UserRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	return r.countSince(ctx, "last_active", since)
}

func (r *UserRepository) countSince(ctx context.Context, column string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where(clause.Gte{Column: clause.Column{Name: column}, Value: since.UTC()}).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count users by %s: %w", column, err)
	}
	return n, nil
}
