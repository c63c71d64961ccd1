package tenant

import (
	"context"
	"errors"
	"strings"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"
)

const maxGreetingLength = 500

// GreetingAudio starts audio generation for a new greeting without waiting for it.
type GreetingAudio func(ctx context.Context, tenantID, text string)

// Settings covers the staff-facing tenant configuration.
type Settings struct {
	repo  Repository
	audit *audit.Service
	audio GreetingAudio
}

func NewSettings(repo Repository, auditSvc *audit.Service, audio GreetingAudio) *Settings {
	return &Settings{repo: repo, audit: auditSvc, audio: audio}
}

func (s *Settings) BusinessHours(ctx context.Context, tenantID string) ([]BusinessHours, error) {
	return s.repo.ListBusinessHours(ctx, tenantID)
}

// ReplaceBusinessHours upserts all seven weekday rows at once.
func (s *Settings) ReplaceBusinessHours(ctx context.Context, tenantID string, week []BusinessHours, actor audit.Actor) ([]BusinessHours, error) {
	for i := range week {
		week[i].TenantID = tenantID
		if !week[i].IsOpen {
			week[i].OpenTime, week[i].CloseTime = "", ""
		}
	}
	if err := ValidateWeek(week); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	if err := s.repo.UpsertBusinessHours(ctx, tenantID, week); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, tenantID, actor, audit.EventTypeBusinessHours, audit.Event{}, "business hours updated", nil)
	return s.repo.ListBusinessHours(ctx, tenantID)
}

// UpdateGreeting stores the IVR greeting text and kicks off audio generation.
// The call returns before the audio exists; until then the text is spoken.
func (s *Settings) UpdateGreeting(ctx context.Context, tenantID, text string, actor audit.Actor) error {
	text = strings.TrimSpace(text)
	if len(text) > maxGreetingLength {
		return apperr.New(apperr.KindValidation, "greeting is too long")
	}
	if err := s.repo.UpdateIVRGreeting(ctx, tenantID, text); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "business not found")
		}
		return err
	}
	s.audit.Record(ctx, tenantID, actor, audit.EventTypeIVRGreeting, audit.Event{}, "ivr greeting updated", map[string]any{"length": len(text)})
	if text != "" && s.audio != nil {
		s.audio(ctx, tenantID, text)
	}
	return nil
}
