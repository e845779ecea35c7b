package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/events"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

func newConnectionService(t *testing.T) (ConnectionService, *fakeDispatcher, func() []events.Event) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	dispatch := &fakeDispatcher{}
	svc := NewConnectionService(db, log, repos.NewConnectionRepo(db, log), dispatch)
	return svc, dispatch, dispatch.all
}

func TestRequestConnectionRejectsSelf(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	userID := uuid.New()

	_, err := svc.RequestConnection(context.Background(), userID, userID)
	if !apierr.IsValidation(err) {
		t.Fatalf("self connection: want validation error, got %v", err)
	}
}

func TestRequestConnectionDuplicatePairConflicts(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	if _, err := svc.RequestConnection(context.Background(), requester, recipient); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := svc.RequestConnection(context.Background(), requester, recipient)
	if !apierr.IsConflict(err) {
		t.Fatalf("duplicate request: want conflict, got %v", err)
	}
}

func TestRequestConnectionAfterRejectionStaysBlocked(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	row, err := svc.RequestConnection(context.Background(), requester, recipient)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RespondToConnection(context.Background(), row.ID, recipient, types.ConnectionRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A rejected pair is terminal; re-requesting does not reopen it.
	_, err = svc.RequestConnection(context.Background(), requester, recipient)
	if !apierr.IsConflict(err) {
		t.Fatalf("re-request after rejection: want conflict, got %v", err)
	}
}

func TestRespondToConnectionOnlyRecipientMayDecide(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	row, err := svc.RequestConnection(context.Background(), requester, recipient)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err = svc.RespondToConnection(context.Background(), row.ID, requester, types.ConnectionAccepted)
	if !apierr.IsForbidden(err) {
		t.Fatalf("requester responding: want forbidden, got %v", err)
	}
	_, err = svc.RespondToConnection(context.Background(), row.ID, uuid.New(), types.ConnectionAccepted)
	if !apierr.IsForbidden(err) {
		t.Fatalf("stranger responding: want forbidden, got %v", err)
	}
}

func TestRespondToConnectionResolvedIsTerminal(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	row, err := svc.RequestConnection(context.Background(), requester, recipient)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resolved, err := svc.RespondToConnection(context.Background(), row.ID, recipient, types.ConnectionAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if resolved.Status != types.ConnectionAccepted {
		t.Fatalf("status: want=%s got=%s", types.ConnectionAccepted, resolved.Status)
	}

	_, err = svc.RespondToConnection(context.Background(), row.ID, recipient, types.ConnectionRejected)
	if !apierr.IsConflict(err) {
		t.Fatalf("second respond: want conflict, got %v", err)
	}
}

func TestRespondToConnectionUnknownDecision(t *testing.T) {
	svc, _, _ := newConnectionService(t)

	_, err := svc.RespondToConnection(context.Background(), uuid.New(), uuid.New(), types.ConnectionPending)
	if !apierr.IsValidation(err) {
		t.Fatalf("pending decision: want validation, got %v", err)
	}
}

func TestConnectionEventsAddressTheRightParty(t *testing.T) {
	svc, _, all := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	row, err := svc.RequestConnection(context.Background(), requester, recipient)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RespondToConnection(context.Background(), row.ID, recipient, types.ConnectionAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got := all()
	if len(got) != 2 {
		t.Fatalf("event count: want=2 got=%d", len(got))
	}
	req, ok := got[0].(events.ConnectionRequested)
	if !ok {
		t.Fatalf("first event: want ConnectionRequested, got %T", got[0])
	}
	if req.Recipient() != recipient || req.Actor() != requester {
		t.Fatalf("request event addressing: actor=%s recipient=%s", req.Actor(), req.Recipient())
	}
	acc, ok := got[1].(events.ConnectionAccepted)
	if !ok {
		t.Fatalf("second event: want ConnectionAccepted, got %T", got[1])
	}
	// Acceptance notifies the original requester.
	if acc.Recipient() != requester || acc.Actor() != recipient {
		t.Fatalf("accept event addressing: actor=%s recipient=%s", acc.Actor(), acc.Recipient())
	}
}

func TestRespondToConnectionRejectEmitsNoEvent(t *testing.T) {
	svc, dispatch, _ := newConnectionService(t)
	requester := uuid.New()
	recipient := uuid.New()

	row, err := svc.RequestConnection(context.Background(), requester, recipient)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	before := dispatch.count()
	if _, err := svc.RespondToConnection(context.Background(), row.ID, recipient, types.ConnectionRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dispatch.count() != before {
		t.Fatalf("rejection emitted an event: want=%d got=%d", before, dispatch.count())
	}
}

func TestListConnectionsFiltersByStatus(t *testing.T) {
	svc, _, _ := newConnectionService(t)
	userID := uuid.New()
	other1 := uuid.New()
	other2 := uuid.New()

	first, err := svc.RequestConnection(context.Background(), userID, other1)
	if err != nil {
		t.Fatalf("request 1: %v", err)
	}
	if _, err := svc.RequestConnection(context.Background(), other2, userID); err != nil {
		t.Fatalf("request 2: %v", err)
	}
	if _, err := svc.RespondToConnection(context.Background(), first.ID, other1, types.ConnectionAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	all, err := svc.ListConnections(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list all: want=2 got=%d", len(all))
	}

	pending := types.ConnectionPending
	got, err := svc.ListConnections(context.Background(), userID, &pending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(got) != 1 || got[0].RequesterID != other2 {
		t.Fatalf("list pending: want the inbound request, got %+v", got)
	}

	bogus := types.ConnectionStatus("sideways")
	if _, err := svc.ListConnections(context.Background(), userID, &bogus); !apierr.IsValidation(err) {
		t.Fatalf("bogus status filter: want validation, got %v", err)
	}
}
