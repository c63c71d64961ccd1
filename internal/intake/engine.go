// Package intake is the missed-call state machine: it records the call, offers
// the voice menu and turns the caller's digit into an outbound text message.
package intake

import (
	"context"
	"errors"
	"time"

	"missedcall/internal/calls"
	"missedcall/internal/messaging"
	"missedcall/internal/tenant"
	"missedcall/pkg/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultGatherTimeout = 8 * time.Second

// InboundCall is a voice gateway event for a call that reached a tenant number.
type InboundCall struct {
	To             string
	From           string
	ProviderCallID string
}

// TenantResolver finds the active tenant owning a dialed number.
type TenantResolver interface {
	ActiveByPhoneNumber(ctx context.Context, number string) (tenant.Tenant, error)
}

// TenantDirectory loads a tenant by id for the gather step.
type TenantDirectory interface {
	FindByID(ctx context.Context, id string) (tenant.Tenant, error)
}

// Messenger is the outbound dispatcher contract.
type Messenger interface {
	Send(ctx context.Context, req messaging.SendRequest) messaging.Result
}

type Engine struct {
	Resolver  TenantResolver
	Tenants   TenantDirectory
	Calls     calls.Repository
	Messenger Messenger
	Links     Links

	GatherTimeout time.Duration
	Outcomes      *prometheus.CounterVec
	Now           func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) count(s State) {
	if e.Outcomes != nil {
		e.Outcomes.WithLabelValues(string(s)).Inc()
	}
}

// Inbound handles RECEIVED. It never fails: anything that prevents the menu
// from being offered yields the apology response.
func (e *Engine) Inbound(ctx context.Context, in InboundCall) Response {
	log := logger.From(ctx).With("provider_call_id", in.ProviderCallID)

	t, err := e.Resolver.ActiveByPhoneNumber(ctx, in.To)
	if err != nil {
		log.Info("inbound call for unknown destination", "to", in.To, "err", err)
		e.count(StateError)
		return Apology()
	}

	c := calls.Call{
		ID:             uuid.NewString(),
		TenantID:       t.ID,
		ProviderCallID: in.ProviderCallID,
		From:           in.From,
		To:             in.To,
		Status:         calls.CallStatusMissed,
		CreatedAt:      e.now(),
	}
	if err := e.Calls.Create(ctx, c); err != nil {
		log.Error("call create failed", "tenant_id", t.ID, "err", err)
		e.count(StateError)
		return Apology()
	}

	timeout := e.GatherTimeout
	if timeout <= 0 {
		timeout = DefaultGatherTimeout
	}
	resp := Response{
		State:          StateMenuPlayed,
		TenantID:       t.ID,
		CallID:         c.ID,
		Action:         ActionMenu,
		GatherTimeout:  timeout,
		NoInputMessage: msgNoInput,
	}
	if t.IVRAudioURL != "" {
		resp.GreetingAudioURL = t.IVRAudioURL
	} else if t.IVRGreetingText != "" {
		resp.GreetingText = t.IVRGreetingText
	} else {
		resp.GreetingText = defaultGreeting(t.Name)
	}

	log.Info("missed call recorded", "tenant_id", t.ID, "call_id", c.ID)
	e.count(StateMenuPlayed)
	return resp
}

// Gather handles MENU_PLAYED -> terminal for callID with the collected digits.
//
// The transition applies at most once per call. A repeated callback gets the
// response for the outcome already recorded and sends nothing.
func (e *Engine) Gather(ctx context.Context, callID, digits string) Response {
	log := logger.From(ctx).With("call_id", callID)

	if _, err := uuid.Parse(callID); err != nil {
		log.Info("gather with malformed call id")
		e.count(StateError)
		return Apology()
	}
	c, err := e.Calls.FindByID(ctx, callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			log.Info("gather for unknown call")
		} else {
			log.Error("gather call lookup failed", "err", err)
		}
		e.count(StateError)
		return Apology()
	}
	log = log.With("tenant_id", c.TenantID)

	next := onDigits(digits)
	outcome, persist := outcomeOf(next)
	if !persist {
		// no digit: outcome stays unset and reads as NO_RESPONSE
		e.count(next)
		return terminal(next, c.TenantID, c.ID)
	}

	applied, err := e.Calls.SetIVRResponse(ctx, c.ID, outcome, digits, e.now())
	if err != nil {
		log.Error("ivr response update failed", "err", err)
		e.count(StateError)
		return Apology()
	}
	if !applied {
		prior := next
		if fresh, err := e.Calls.FindByID(ctx, c.ID); err == nil {
			prior = stateOf(fresh.Outcome())
		}
		log.Info("duplicate gather ignored", "digits", digits, "state", string(prior))
		return terminal(prior, c.TenantID, c.ID)
	}

	e.count(next)
	e.notify(ctx, c, next)
	return terminal(next, c.TenantID, c.ID)
}

// notify sends the link for next. The call row is already committed; a failed
// send is recorded by the dispatcher and does not change the caller's response.
func (e *Engine) notify(ctx context.Context, c calls.Call, next State) {
	var typ messaging.MessageType
	switch next {
	case StateCallbackRequested:
		typ = messaging.TypeBookingLink
	case StateComplaintRequested:
		typ = messaging.TypeComplaintLink
	default:
		return
	}
	if e.Messenger == nil {
		return
	}

	log := logger.From(ctx).With("call_id", c.ID, "tenant_id", c.TenantID)
	t, err := e.Tenants.FindByID(ctx, c.TenantID)
	if err != nil {
		log.Error("tenant lookup for link message failed", "err", err)
		return
	}

	data := messaging.TemplateData{BusinessName: t.Name}
	if typ == messaging.TypeBookingLink {
		data.Link = e.Links.BookingURL(t.Slug)
	} else {
		data.Link = e.Links.ComplaintURL(t.Slug, c.ID)
	}
	body, err := messaging.Render(typ, data)
	if err != nil {
		log.Error("render link message failed", "err", err)
		return
	}
	req := messaging.SendRequest{TenantID: t.ID, To: c.From, Body: body, Type: typ, CallID: c.ID}

	if res := e.Messenger.Send(ctx, req); !res.Success {
		log.Warn("link message not sent", "type", string(typ), "err", res.Error)
	}
}
