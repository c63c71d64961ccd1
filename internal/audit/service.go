package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"missedcall/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// It has no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Audit is internal-only and best-effort: Record never fails the caller.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.TenantID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// Record appends a staff mutation event and logs instead of failing.
// A nil Service is a no-op so callers need not guard optional wiring.
func (s *Service) Record(ctx context.Context, tenantID string, actor Actor, typ EventType, target Event, message string, metadata map[string]any) {
	if s == nil {
		return
	}
	e := target
	e.TenantID = tenantID
	e.Type = typ
	e.ActorUserID = actor.UserID
	e.ActorRole = actor.Role
	e.IPAddress = actor.IP
	e.Message = message
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = string(b)
		}
	}
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", string(typ), "err", err)
	}
}
