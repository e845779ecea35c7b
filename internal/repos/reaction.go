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

// LikeCount pairs a content id with its positive-reaction tally plus the
// created_at used as the trending tie-break.
type LikeCount struct {
	ContentID uuid.UUID `gorm:"column:content_id"`
	Likes     int64     `gorm:"column:likes"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

type ReactionRepo interface {
	GetByContentAndUser(ctx context.Context, tx *gorm.DB, contentID, userID uuid.UUID) (*types.Reaction, error)
	// InsertIfAbsent creates the vote row for (content_id, user_id) unless one
	// exists; reports whether this call created it. Racing duplicate inserts
	// resolve at the unique index, so exactly one caller observes true.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.Reaction) (bool, error)
	// FlipVote overwrites is_like in a single UPDATE guarded on the value
	// actually differing; reports whether the vote changed. The guard makes
	// the transition observation atomic with the write.
	FlipVote(ctx context.Context, tx *gorm.DB, contentID, userID uuid.UUID, isLike bool, now time.Time) (bool, error)
	// TopLiked aggregates likes grouped by content, ordered by count then
	// content recency. Used by the SQL trending path.
	TopLiked(ctx context.Context, tx *gorm.DB, limit int) ([]LikeCount, error)
	CountForContent(ctx context.Context, tx *gorm.DB, contentID uuid.UUID, isLike bool) (int64, error)
}

type reactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReactionRepo(db *gorm.DB, baseLog *logger.Logger) ReactionRepo {
	return &reactionRepo{db: db, log: baseLog.With("repo", "ReactionRepo")}
}

func (r *reactionRepo) GetByContentAndUser(ctx context.Context, tx *gorm.DB, contentID, userID uuid.UUID) (*types.Reaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if contentID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.Reaction
	err := transaction.WithContext(ctx).
		Where("content_id = ? AND user_id = ?", contentID, userID).
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

func (r *reactionRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.Reaction) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return false, nil
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reactionRepo) FlipVote(ctx context.Context, tx *gorm.DB, contentID, userID uuid.UUID, isLike bool, now time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if contentID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Reaction{}).
		Where("content_id = ? AND user_id = ? AND is_like <> ?", contentID, userID, isLike).
		Updates(map[string]interface{}{
			"is_like":    isLike,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reactionRepo) TopLiked(ctx context.Context, tx *gorm.DB, limit int) ([]LikeCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []LikeCount
	if limit <= 0 {
		return results, nil
	}
	err := transaction.WithContext(ctx).
		Table("reaction").
		Select("reaction.content_id AS content_id, COUNT(*) AS likes, content_item.created_at AS created_at").
		Joins("JOIN content_item ON content_item.id = reaction.content_id").
		Where("reaction.is_like = ?", true).
		Group("reaction.content_id, content_item.created_at").
		Order("likes DESC, content_item.created_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reactionRepo) CountForContent(ctx context.Context, tx *gorm.DB, contentID uuid.UUID, isLike bool) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if contentID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.Reaction{}).
		Where("content_id = ? AND is_like = ?", contentID, isLike).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
