package tenant

import (
	"context"
	"testing"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"
)

func TestSettings_ReplaceBusinessHours(t *testing.T) {
	repo := NewMemoryRepo(Tenant{ID: "t1"})
	audits := audit.NewMemoryRepo()
	s := NewSettings(repo, audit.NewService(audits), nil)
	ctx := context.Background()
	actor := audit.Actor{UserID: "u1", Role: "owner"}

	bad := week("17:00", "09:00")
	if _, err := s.ReplaceBusinessHours(ctx, "t1", bad, actor); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}

	w := week("09:00", "17:00")
	w[0] = BusinessHours{Weekday: time.Sunday, IsOpen: false, OpenTime: "10:00", CloseTime: "09:00"}
	got, err := s.ReplaceBusinessHours(ctx, "t1", w, actor)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 7 || got[0].IsOpen || got[0].OpenTime != "" {
		t.Fatalf("expected closed sunday with cleared times, got %+v", got[0])
	}
	if ev := audits.Events(); len(ev) != 1 || ev[0].Type != audit.EventTypeBusinessHours {
		t.Fatalf("expected one audit event, got %+v", ev)
	}
}

func TestSettings_UpdateGreetingTriggersAudio(t *testing.T) {
	repo := NewMemoryRepo(Tenant{ID: "t1", IVRAudioURL: "https://cdn/old.mp3"})
	var submitted string
	s := NewSettings(repo, nil, func(ctx context.Context, tenantID, text string) { submitted = tenantID + ":" + text })

	if err := s.UpdateGreeting(context.Background(), "t1", "  Thanks for calling Acme  ", audit.Actor{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if submitted != "t1:Thanks for calling Acme" {
		t.Fatalf("unexpected submission %q", submitted)
	}
	got, _ := repo.FindByID(context.Background(), "t1")
	if got.IVRGreetingText != "Thanks for calling Acme" || got.IVRAudioURL != "" {
		t.Fatalf("expected new text and cleared audio, got %+v", got)
	}

	if err := s.UpdateGreeting(context.Background(), "missing", "hi", audit.Actor{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
