package calls

import (
	"context"
	"testing"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"

	"github.com/google/uuid"
)

func TestService_MarkHandledAndReopen(t *testing.T) {
	repo := NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(repo, audit.NewService(auditRepo))
	ctx := context.Background()

	id := uuid.NewString()
	_ = repo.Create(ctx, Call{ID: id, TenantID: "t1", Status: CallStatusMissed, CreatedAt: time.Now()})

	c, err := svc.MarkCallbackHandled(ctx, "t1", id, audit.Actor{UserID: "u1", Role: "staff"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !c.CallbackHandled || c.CallbackHandledBy != "u1" || c.CallbackHandledAt == nil {
		t.Fatalf("unexpected call %+v", c)
	}

	c, err = svc.Reopen(ctx, "t1", id, audit.Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.CallbackHandled || c.CallbackHandledAt != nil {
		t.Fatalf("expected reopened call, got %+v", c)
	}

	evs := auditRepo.Events()
	if len(evs) != 2 || evs[0].Type != audit.EventTypeCallbackHandled || evs[1].Type != audit.EventTypeCallbackReopened {
		t.Fatalf("unexpected audit trail %+v", evs)
	}
}

func TestService_OtherTenantCannotTouchCall(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	id := uuid.NewString()
	_ = repo.Create(ctx, Call{ID: id, TenantID: "t1", CreatedAt: time.Now()})

	if _, err := svc.MarkCallbackHandled(ctx, "t2", id, audit.Actor{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := svc.MarkCallbackHandled(ctx, "t1", "not-a-uuid", audit.Actor{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMemoryRepo_SetIVRResponseOnce(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Call{ID: "c1", TenantID: "t1"})

	ok, _ := repo.SetIVRResponse(ctx, "c1", IVRCallback, "1", time.Now())
	if !ok {
		t.Fatalf("first gather must apply")
	}
	ok, _ = repo.SetIVRResponse(ctx, "c1", IVRComplaint, "2", time.Now())
	if ok {
		t.Fatalf("second gather must not apply")
	}
	c, _ := repo.FindByID(ctx, "c1")
	if c.Outcome() != IVRCallback || c.Digit != "1" {
		t.Fatalf("first outcome must stick, got %+v", c)
	}
}
