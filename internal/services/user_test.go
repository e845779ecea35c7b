package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/repos"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	return NewUserService(db, log, repos.NewUserRepo(db, log))
}

func TestSyncUserIsIdempotentOnID(t *testing.T) {
	svc := newUserService(t)
	userID := uuid.New()

	first, err := svc.SyncUser(context.Background(), userID, "ada")
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.ID != userID || first.Handle != "ada" {
		t.Fatalf("first sync row: %+v", first)
	}

	// Re-sync keeps the stored row even when the handle differs.
	again, err := svc.SyncUser(context.Background(), userID, "ada-renamed")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if again.Handle != "ada" {
		t.Fatalf("re-sync handle: want=ada got=%s", again.Handle)
	}
}

func TestSyncUserRejectsTakenHandle(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.SyncUser(context.Background(), uuid.New(), "ada"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	_, err := svc.SyncUser(context.Background(), uuid.New(), "ada")
	if !apierr.IsConflict(err) {
		t.Fatalf("duplicate handle: want conflict, got %v", err)
	}
}

func TestSyncUserValidatesInput(t *testing.T) {
	svc := newUserService(t)

	if _, err := svc.SyncUser(context.Background(), uuid.Nil, "ada"); !apierr.IsValidation(err) {
		t.Fatalf("nil id: want validation, got %v", err)
	}
	if _, err := svc.SyncUser(context.Background(), uuid.New(), "  "); !apierr.IsValidation(err) {
		t.Fatalf("blank handle: want validation, got %v", err)
	}
}

func TestGetUserUnknownID(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.GetUser(context.Background(), uuid.New())
	if !apierr.IsNotFound(err) {
		t.Fatalf("unknown user: want not found, got %v", err)
	}
}
