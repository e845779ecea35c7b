package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

type ConnectionService interface {
	RequestConnection(ctx context.Context, requesterID, recipientID uuid.UUID) (*types.Connection, error)
	RespondToConnection(ctx context.Context, connectionID, responderID uuid.UUID, decision types.ConnectionStatus) (*types.Connection, error)
	ListConnections(ctx context.Context, userID uuid.UUID, status *types.ConnectionStatus) ([]*types.Connection, error)
}

type connectionService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.ConnectionRepo
	dispatch events.Dispatcher
}

func NewConnectionService(db *gorm.DB, baseLog *logger.Logger, repo repos.ConnectionRepo, dispatch events.Dispatcher) ConnectionService {
	return &connectionService{
		db:       db,
		log:      baseLog.With("service", "ConnectionService"),
		repo:     repo,
		dispatch: dispatch,
	}
}

func (s *connectionService) RequestConnection(ctx context.Context, requesterID, recipientID uuid.UUID) (*types.Connection, error) {
	if requesterID == uuid.Nil || recipientID == uuid.Nil {
		return nil, apierr.NewValidation("missing_party", fmt.Errorf("requester and recipient are required"))
	}
	if requesterID == recipientID {
		return nil, apierr.NewValidation("self_connection", fmt.Errorf("cannot request a connection with yourself"))
	}

	// Rejected pairs stay blocked: any existing row for the ordered pair,
	// whatever its status, conflicts.
	existing, err := s.repo.GetByPair(ctx, nil, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.NewConflict("connection_exists", fmt.Errorf("connection already exists with status %s", existing.Status))
	}

	now := time.Now().UTC()
	row := &types.Connection{
		ID:          uuid.New(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      types.ConnectionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, nil, row); err != nil {
		// The unique (requester_id, recipient_id) index is the backstop for
		// two racing first requests.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.NewConflict("connection_exists", err)
		}
		return nil, err
	}

	s.dispatch.Emit(ctx, events.NewConnectionRequested(requesterID, recipientID, row.ID))
	s.log.Debug("connection requested", "requester_id", requesterID, "recipient_id", recipientID)
	return row, nil
}

func (s *connectionService) RespondToConnection(ctx context.Context, connectionID, responderID uuid.UUID, decision types.ConnectionStatus) (*types.Connection, error) {
	if decision != types.ConnectionAccepted && decision != types.ConnectionRejected {
		return nil, apierr.NewValidation("bad_decision", fmt.Errorf("decision must be accepted or rejected"))
	}

	row, err := s.repo.GetByID(ctx, nil, connectionID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NewNotFound("connection_not_found", fmt.Errorf("connection %s not found", connectionID))
	}
	if row.RecipientID != responderID {
		return nil, apierr.NewForbidden("not_recipient", fmt.Errorf("only the recipient may respond"))
	}
	if row.Status != types.ConnectionPending {
		return nil, apierr.NewConflict("already_resolved", fmt.Errorf("connection already %s", row.Status))
	}

	ok, err := s.repo.TransitionFromPending(ctx, nil, row.ID, decision)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another responder call won the compare-and-swap.
		return nil, apierr.NewConflict("already_resolved", fmt.Errorf("connection already resolved"))
	}
	row.Status = decision
	row.UpdatedAt = time.Now().UTC()

	if decision == types.ConnectionAccepted {
		s.dispatch.Emit(ctx, events.NewConnectionAccepted(responderID, row.RequesterID, row.ID))
	}
	s.log.Debug("connection resolved", "connection_id", row.ID, "status", decision)
	return row, nil
}

func (s *connectionService) ListConnections(ctx context.Context, userID uuid.UUID, status *types.ConnectionStatus) ([]*types.Connection, error) {
	if userID == uuid.Nil {
		return nil, apierr.NewValidation("missing_user", fmt.Errorf("user id is required"))
	}
	if status != nil && !status.Valid() {
		return nil, apierr.NewValidation("bad_status", fmt.Errorf("unknown status filter %q", *status))
	}
	return s.repo.ListForUser(ctx, nil, userID, status)
}
