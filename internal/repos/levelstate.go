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

type LevelStateRepo interface {
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LevelState, error)
	// EnsureExists lazily creates the accumulator at level 1 / 0 xp. Safe to
	// race: insert is ON CONFLICT DO NOTHING on user_id.
	EnsureExists(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	// AddXP is a single atomic `xp = xp + ?` update.
	AddXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error
	// RaiseLevelTo bumps level only upward; reports whether the row changed.
	RaiseLevelTo(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level int) (bool, error)
}

type levelStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLevelStateRepo(db *gorm.DB, baseLog *logger.Logger) LevelStateRepo {
	return &levelStateRepo{db: db, log: baseLog.With("repo", "LevelStateRepo")}
}

func (r *levelStateRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LevelState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.LevelState
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
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

func (r *levelStateRepo) EnsureExists(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row := &types.LevelState{
		ID:        uuid.New(),
		UserID:    userID,
		Level:     1,
		XP:        0,
		UpdatedAt: now,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *levelStateRepo) AddXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.LevelState{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"xp":         gorm.Expr("xp + ?", amount),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *levelStateRepo) RaiseLevelTo(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.LevelState{}).
		Where("user_id = ? AND level < ?", userID, level).
		Updates(map[string]interface{}{
			"level":      level,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
