package calls

import (
	"context"
	"errors"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"

	"github.com/google/uuid"
)

// Service covers the staff-facing call operations.
type Service struct {
	repo  Repository
	audit *audit.Service
	clock func() time.Time
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, clock: time.Now}
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Call, error) {
	if f.TenantID == "" {
		return nil, apperr.New(apperr.KindValidation, "tenant required")
	}
	return s.repo.List(ctx, f)
}

// MarkCallbackHandled flags a call as followed up by staff.
func (s *Service) MarkCallbackHandled(ctx context.Context, tenantID, callID string, actor audit.Actor) (Call, error) {
	return s.setHandled(ctx, tenantID, callID, true, actor)
}

// Reopen clears the handled flag.
func (s *Service) Reopen(ctx context.Context, tenantID, callID string, actor audit.Actor) (Call, error) {
	return s.setHandled(ctx, tenantID, callID, false, actor)
}

func (s *Service) setHandled(ctx context.Context, tenantID, callID string, handled bool, actor audit.Actor) (Call, error) {
	if _, err := uuid.Parse(callID); err != nil {
		return Call{}, apperr.New(apperr.KindNotFound, "call not found")
	}
	c, err := s.repo.SetCallbackHandled(ctx, tenantID, callID, handled, actor.UserID, s.clock().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Call{}, apperr.New(apperr.KindNotFound, "call not found")
		}
		return Call{}, err
	}

	typ, msg := audit.EventTypeCallbackHandled, "callback marked handled"
	if !handled {
		typ, msg = audit.EventTypeCallbackReopened, "callback reopened"
	}
	s.audit.Record(ctx, tenantID, actor, typ, audit.Event{CallID: callID}, msg, nil)
	return c, nil
}
