package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/types"
)

type ConnectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Connection) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Connection, error)
	GetByPair(ctx context.Context, tx *gorm.DB, requesterID, recipientID uuid.UUID) (*types.Connection, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status *types.ConnectionStatus) ([]*types.Connection, error)
	// TransitionFromPending applies status atomically; returns false when the
	// row was no longer pending (lost race or already resolved).
	TransitionFromPending(ctx context.Context, tx *gorm.DB, id uuid.UUID, to types.ConnectionStatus) (bool, error)
}

type connectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConnectionRepo(db *gorm.DB, baseLog *logger.Logger) ConnectionRepo {
	return &connectionRepo{db: db, log: baseLog.With("repo", "ConnectionRepo")}
}

func (r *connectionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Connection) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *connectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Connection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Connection
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
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

func (r *connectionRepo) GetByPair(ctx context.Context, tx *gorm.DB, requesterID, recipientID uuid.UUID) (*types.Connection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if requesterID == uuid.Nil || recipientID == uuid.Nil {
		return nil, nil
	}
	var row types.Connection
	err := transaction.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
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

func (r *connectionRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status *types.ConnectionStatus) ([]*types.Connection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Connection
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("requester_id = ? OR recipient_id = ?", userID, userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *connectionRepo) TransitionFromPending(ctx context.Context, tx *gorm.DB, id uuid.UUID, to types.ConnectionStatus) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Connection{}).
		Where("id = ? AND status = ?", id, types.ConnectionPending).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
