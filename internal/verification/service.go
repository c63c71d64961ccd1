// Package verification issues and checks one-time codes that gate public writes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/messaging"
	"missedcall/internal/tenant"
	"missedcall/pkg/logger"
	"missedcall/pkg/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultTTL         = 10 * time.Minute
	DefaultRateLimit   = 3
	DefaultRateWindow  = 10 * time.Minute
	codeDigits         = 6
	unverifiedMessage  = "phone verification code is invalid or expired"
	rateLimitedMessage = "too many verification requests, try again later"
)

// Messenger is the outbound dispatcher contract.
type Messenger interface {
	Send(ctx context.Context, req messaging.SendRequest) messaging.Result
}

type Service struct {
	Repo      Repository
	Limiter   RateLimiter
	Messenger Messenger

	TTL      time.Duration
	Requests *prometheus.CounterVec
	Now      func() time.Time
	// Codes generates a fresh code; defaults to a crypto/rand 6-digit code.
	Codes func() (string, error)
}

// Issued describes a code that was sent.
type Issued struct {
	ID        string    `json:"-"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

func (s *Service) count(result string) {
	if s.Requests != nil {
		s.Requests.WithLabelValues(result).Inc()
	}
}

// Request rate-limits, stores and sends a new code for phone.
func (s *Service) Request(ctx context.Context, t tenant.Tenant, phone string) (Issued, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		s.count("invalid")
		return Issued{}, apperr.New(apperr.KindValidation, "phone must be a valid phone number")
	}
	now := s.now()

	if s.Limiter != nil {
		d, err := s.Limiter.Allow(ctx, t.ID+":"+phone, now)
		if err != nil {
			return Issued{}, fmt.Errorf("verification: rate limit: %w", err)
		}
		if !d.Allowed {
			s.count("rate_limited")
			logger.From(ctx).Info("verification rate limited", "tenant_id", t.ID, "retry_at", d.RetryAt)
			return Issued{}, apperr.RateLimited(rateLimitedMessage, d.RetryAt.Sub(now))
		}
	}

	code, err := s.newCode()
	if err != nil {
		return Issued{}, fmt.Errorf("verification: generate code: %w", err)
	}
	v := Verification{
		ID:        uuid.NewString(),
		TenantID:  t.ID,
		Phone:     phone,
		Code:      code,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.Repo.Insert(ctx, v); err != nil {
		return Issued{}, err
	}

	body, err := messaging.Render(messaging.TypeOTP, messaging.TemplateData{
		BusinessName: t.Name,
		Code:         code,
		TTLMinutes:   int(s.ttl() / time.Minute),
	})
	if err != nil {
		return Issued{}, err
	}
	res := s.Messenger.Send(ctx, messaging.SendRequest{
		TenantID: t.ID,
		To:       phone,
		Body:     body,
		Type:     messaging.TypeOTP,
	})
	if !res.Success {
		s.count("gateway_failure")
		return Issued{}, apperr.New(apperr.KindGatewayFailure, "could not send verification code")
	}

	s.count("sent")
	return Issued{ID: v.ID, Phone: phone, ExpiresAt: v.ExpiresAt}, nil
}

// Check returns the newest valid, unconsumed code matching (tenant, phone, code).
func (s *Service) Check(ctx context.Context, tenantID, phone, code string) (Verification, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return Verification{}, apperr.New(apperr.KindValidation, "phone must be a valid phone number")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Verification{}, apperr.New(apperr.KindUnverifiedPhone, unverifiedMessage)
	}
	v, err := s.Repo.LatestValid(ctx, tenantID, phone, code, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Verification{}, apperr.New(apperr.KindUnverifiedPhone, unverifiedMessage)
		}
		return Verification{}, err
	}
	return v, nil
}

// Consume marks v used. Losing a race to another consumer reads as an unverified phone.
func (s *Service) Consume(ctx context.Context, id string) error {
	if err := s.Repo.Consume(ctx, id, s.now()); err != nil {
		if errors.Is(err, ErrAlreadyConsumed) {
			return apperr.New(apperr.KindUnverifiedPhone, unverifiedMessage)
		}
		return err
	}
	return nil
}

// ConsumeHook returns a function that consumes id when run, for use inside the booking transaction.
func (s *Service) ConsumeHook(id string) func(ctx context.Context) error {
	return func(ctx context.Context) error { return s.Consume(ctx, id) }
}

func (s *Service) newCode() (string, error) {
	if s.Codes != nil {
		return s.Codes()
	}
	return RandomCode()
}

// RandomCode returns a uniformly random zero-padded 6-digit code.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
