package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// GameDefRepo serves the static quest/module/achievement definitions. Upserts
// exist for the startup seeding path only; definitions never change at
// runtime.
type GameDefRepo interface {
	GetQuest(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestDef, error)
	GetModule(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModuleDef, error)
	GetAchievement(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AchievementDef, error)
	ListQuests(ctx context.Context, tx *gorm.DB) ([]*types.QuestDef, error)
	ListModules(ctx context.Context, tx *gorm.DB) ([]*types.ModuleDef, error)
	ListAchievements(ctx context.Context, tx *gorm.DB) ([]*types.AchievementDef, error)
	UpsertQuest(ctx context.Context, tx *gorm.DB, row *types.QuestDef) error
	UpsertModule(ctx context.Context, tx *gorm.DB, row *types.ModuleDef) error
	UpsertAchievement(ctx context.Context, tx *gorm.DB, row *types.AchievementDef) error
}

type gameDefRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameDefRepo(db *gorm.DB, baseLog *logger.Logger) GameDefRepo {
	return &gameDefRepo{db: db, log: baseLog.With("repo", "GameDefRepo")}
}

func (r *gameDefRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *gameDefRepo) GetQuest(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QuestDef, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.QuestDef
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameDefRepo) GetModule(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ModuleDef, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ModuleDef
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameDefRepo) GetAchievement(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AchievementDef, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.AchievementDef
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameDefRepo) ListQuests(ctx context.Context, tx *gorm.DB) ([]*types.QuestDef, error) {
	var results []*types.QuestDef
	if err := r.tx(tx).WithContext(ctx).Order("slug").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameDefRepo) ListModules(ctx context.Context, tx *gorm.DB) ([]*types.ModuleDef, error) {
	var results []*types.ModuleDef
	if err := r.tx(tx).WithContext(ctx).Order("slug").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameDefRepo) ListAchievements(ctx context.Context, tx *gorm.DB) ([]*types.AchievementDef, error) {
	var results []*types.AchievementDef
	if err := r.tx(tx).WithContext(ctx).Order("slug").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameDefRepo) UpsertQuest(ctx context.Context, tx *gorm.DB, row *types.QuestDef) error {
	if row == nil {
		return nil
	}
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "xp_reward", "updated_at"}),
		}).
		Create(row).Error
}

func (r *gameDefRepo) UpsertModule(ctx context.Context, tx *gorm.DB, row *types.ModuleDef) error {
	if row == nil {
		return nil
	}
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "xp_reward", "updated_at"}),
		}).
		Create(row).Error
}

func (r *gameDefRepo) UpsertAchievement(ctx context.Context, tx *gorm.DB, row *types.AchievementDef) error {
	if row == nil {
		return nil
	}
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "required_progress", "updated_at"}),
		}).
		Create(row).Error
}
