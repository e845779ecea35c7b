package gamedefs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// Seed upserts the catalog into the definition tables. Idempotent: reruns
// update titles/rewards in place keyed by slug.
func Seed(ctx context.Context, tx *gorm.DB, repo repos.GameDefRepo, cfg Config) error {
	now := time.Now().UTC()
	for _, q := range cfg.Quests {
		row := &types.QuestDef{
			ID:        SpecID(q.ID),
			Slug:      q.Slug,
			Title:     q.Title,
			XPReward:  q.XPReward,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.UpsertQuest(ctx, tx, row); err != nil {
			return err
		}
	}
	for _, m := range cfg.Modules {
		row := &types.ModuleDef{
			ID:        SpecID(m.ID),
			Slug:      m.Slug,
			Title:     m.Title,
			XPReward:  m.XPReward,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.UpsertModule(ctx, tx, row); err != nil {
			return err
		}
	}
	for _, a := range cfg.Achievements {
		row := &types.AchievementDef{
			ID:               SpecID(a.ID),
			Slug:             a.Slug,
			Title:            a.Title,
			RequiredProgress: a.RequiredProgress,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := repo.UpsertAchievement(ctx, tx, row); err != nil {
			return err
		}
	}
	return nil
}
