package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// UserService is the sync surface for the external identity provider: it
// mirrors the user rows the engine references by id. Credentials and sessions
// never pass through here.
type UserService interface {
	SyncUser(ctx context.Context, userID uuid.UUID, handle string) (*types.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type userService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, repo repos.UserRepo) UserService {
	return &userService{
		db:   db,
		log:  baseLog.With("service", "UserService"),
		repo: repo,
	}
}

// SyncUser is idempotent on the id: re-syncing an existing user returns the
// stored row untouched.
func (s *userService) SyncUser(ctx context.Context, userID uuid.UUID, handle string) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apierr.NewValidation("missing_handle", fmt.Errorf("handle is required"))
	}

	existing, err := s.repo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	row := &types.User{ID: userID, Handle: handle}
	if err := s.repo.Create(ctx, nil, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.NewConflict("handle_taken", err)
		}
		return nil, err
	}
	s.log.Debug("user synced", "user_id", userID)
	return row, nil
}

func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	row, err := s.repo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NewNotFound("user_not_found", fmt.Errorf("user %s not found", userID))
	}
	return row, nil
}
