package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"missedcall/internal/gatewaycreds"
	"missedcall/internal/tenant"
	"missedcall/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// OutboundSMS is a single message handed to the gateway.
type OutboundSMS struct {
	To             string
	From           string
	Body           string
	StatusCallback string
}

// Gateway submits a message and returns the gateway's message id.
type Gateway interface {
	SendSMS(ctx context.Context, creds gatewaycreds.Credentials, msg OutboundSMS) (string, error)
}

// GatewayError carries the provider's error code for the log row.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code == "" {
		return "gateway: " + e.Message
	}
	return "gateway: " + e.Code + ": " + e.Message
}

// TenantDirectory resolves tenant-owned credentials and sender numbers.
type TenantDirectory interface {
	FindByID(ctx context.Context, id string) (tenant.Tenant, error)
}

// CredentialSource yields the platform sender credentials.
type CredentialSource interface {
	Get(ctx context.Context) (gatewaycreds.Credentials, error)
}

type Deps struct {
	Gateway  Gateway
	Tenants  TenantDirectory
	Platform CredentialSource
	Logs     Repository

	// StatusCallbackURL is handed to the gateway for delivery callbacks; optional.
	StatusCallbackURL string

	SentTotal      *prometheus.CounterVec
	CallbacksTotal *prometheus.CounterVec

	Now func() time.Time
}

// Dispatcher sends templated messages and keeps the SmsLog in step with the gateway.
type Dispatcher struct {
	d Deps
}

func NewDispatcher(d Deps) *Dispatcher {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Dispatcher{d: d}
}

// Send submits req and records the attempt. It never returns an error:
// a gateway or lookup failure becomes Result{Success: false} plus a FAILED row.
func (s *Dispatcher) Send(ctx context.Context, req SendRequest) Result {
	log := logger.From(ctx).With("tenant_id", req.TenantID, "sms_type", string(req.Type))

	row := SmsLog{
		ID:       uuid.NewString(),
		TenantID: req.TenantID,
		Type:     req.Type,
		To:       strings.TrimSpace(req.To),
		Body:     req.Body,
		SentAt:   s.d.Now().UTC(),
	}
	if req.CallID != "" {
		id := req.CallID
		row.CallID = &id
	}

	msgID, err := s.submit(ctx, req, &row)
	if err != nil {
		row.Status = StatusFailed
		row.ErrorMessage = err.Error()
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			row.ErrorCode = gwErr.Code
		}
		log.Warn("sms send failed", "err", err, "error_code", row.ErrorCode)
	} else {
		row.Status = StatusQueued
		row.MessageID = msgID
		log.Info("sms queued", "message_id", msgID)
	}

	if perr := s.d.Logs.Insert(ctx, row); perr != nil {
		log.Error("sms log insert failed", "err", perr, "message_id", row.MessageID)
		row.ID = ""
	}
	if s.d.SentTotal != nil {
		s.d.SentTotal.WithLabelValues(string(req.Type), string(row.Status)).Inc()
	}

	if err != nil {
		return Result{Success: false, LogID: row.ID, Error: err.Error()}
	}
	return Result{Success: true, MessageID: msgID, LogID: row.ID}
}

func (s *Dispatcher) submit(ctx context.Context, req SendRequest, row *SmsLog) (string, error) {
	if row.To == "" {
		return "", errors.New("destination number required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return "", errors.New("message body required")
	}
	if s.d.Gateway == nil {
		return "", errors.New("sms gateway not configured")
	}

	creds, from, err := s.credentialsFor(ctx, req)
	if err != nil {
		return "", err
	}
	row.From = from

	return s.d.Gateway.SendSMS(ctx, creds, OutboundSMS{
		To:             row.To,
		From:           from,
		Body:           req.Body,
		StatusCallback: s.d.StatusCallbackURL,
	})
}

// credentialsFor picks the tenant's own account when configured, else the platform sender.
func (s *Dispatcher) credentialsFor(ctx context.Context, req SendRequest) (gatewaycreds.Credentials, string, error) {
	if s.d.Tenants != nil && req.TenantID != "" {
		t, err := s.d.Tenants.FindByID(ctx, req.TenantID)
		if err != nil && !errors.Is(err, tenant.ErrNotFound) {
			return gatewaycreds.Credentials{}, "", fmt.Errorf("load tenant: %w", err)
		}
		if err == nil && t.HasOwnGatewayCredentials() {
			from := firstNonEmpty(req.From, t.PhoneNumber)
			if from == "" {
				return gatewaycreds.Credentials{}, "", errors.New("tenant has no sending number")
			}
			return gatewaycreds.Credentials{AccountSID: t.TwilioAccountSID, AuthToken: t.TwilioAuthToken, FromNumber: from}, from, nil
		}
	}
	if s.d.Platform == nil {
		return gatewaycreds.Credentials{}, "", gatewaycreds.ErrNotConfigured
	}
	creds, err := s.d.Platform.Get(ctx)
	if err != nil {
		return gatewaycreds.Credentials{}, "", err
	}
	return creds, firstNonEmpty(req.From, creds.FromNumber), nil
}

// ReconcileStatus applies a delivery-status callback to every log row carrying messageID.
// Unrecognized statuses and unmatched ids are no-ops.
func (s *Dispatcher) ReconcileStatus(ctx context.Context, messageID, gatewayStatus, errorCode string) (int64, error) {
	log := logger.From(ctx).With("message_id", messageID, "gateway_status", gatewayStatus)

	status := ParseGatewayStatus(gatewayStatus)
	if status == StatusUnrecognized {
		log.Warn("unrecognized sms delivery status")
		s.countCallback("UNRECOGNIZED")
		return 0, nil
	}
	if strings.TrimSpace(messageID) == "" {
		return 0, nil
	}

	var deliveredAt *time.Time
	if status == StatusDelivered {
		now := s.d.Now().UTC()
		deliveredAt = &now
	}
	n, err := s.d.Logs.UpdateStatusByMessageID(ctx, messageID, status, errorCode, deliveredAt)
	if err != nil {
		return 0, fmt.Errorf("messaging: reconcile: %w", err)
	}
	s.countCallback(string(status))
	if n == 0 {
		log.Debug("sms status callback matched no log row")
	}
	return n, nil
}

func (s *Dispatcher) countCallback(status string) {
	if s.d.CallbacksTotal != nil {
		s.d.CallbacksTotal.WithLabelValues(status).Inc()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
