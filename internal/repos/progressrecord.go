package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/types"
)

type ProgressRecordRepo interface {
	GetByUserAndTarget(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID) (*types.ProgressRecord, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProgressRecord, error)
	// InsertIfAbsent is the find-or-create half of lazy creation: the insert
	// is ON CONFLICT DO NOTHING on (user_id, target_id) and the return value
	// reports whether this call created the row.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) (bool, error)
	// AddProgressClamped adds amount to progress with a single UPDATE, capped
	// at required. Completed rows are untouched.
	AddProgressClamped(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, amount, required int) error
	// CompleteIfCrossed flips completed exactly once when progress has
	// reached required; the report tells the caller whether this was the
	// crossing call.
	CompleteIfCrossed(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, required int, now time.Time) (bool, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{db: db, log: baseLog.With("repo", "ProgressRecordRepo")}
}

func (r *progressRecordRepo) GetByUserAndTarget(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID) (*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || targetID == uuid.Nil {
		return nil, nil
	}
	var row types.ProgressRecord
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *progressRecordRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProgressRecord
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRecordRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return false, nil
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *progressRecordRepo) AddProgressClamped(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, amount, required int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// CASE instead of LEAST so the statement runs on both postgres and the
	// sqlite test driver.
	return transaction.WithContext(ctx).
		Model(&types.ProgressRecord{}).
		Where("user_id = ? AND target_id = ? AND completed = ?", userID, targetID, false).
		Updates(map[string]interface{}{
			"progress":   gorm.Expr("CASE WHEN progress + ? >= ? THEN ? ELSE progress + ? END", amount, required, required, amount),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *progressRecordRepo) CompleteIfCrossed(ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, required int, now time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ProgressRecord{}).
		Where("user_id = ? AND target_id = ? AND progress >= ? AND completed = ?", userID, targetID, required, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
