package telephony

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"missedcall/internal/intake"
	"missedcall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// IntakeEngine is the state machine behind the voice webhooks.
type IntakeEngine interface {
	Inbound(ctx context.Context, in intake.InboundCall) intake.Response
	Gather(ctx context.Context, callID, digits string) intake.Response
}

// StatusReconciler applies SMS delivery callbacks.
type StatusReconciler interface {
	ReconcileStatus(ctx context.Context, messageID, gatewayStatus, errorCode string) (int64, error)
}

// TwilioWebhookHandler converts Twilio webhooks to intake calls and writes TwiML.
//
// No business logic here. Voice handlers always answer 200 with TwiML so the
// caller hears a message instead of a dead line, whatever fails underneath.
type TwilioWebhookHandler struct {
	Intake   IntakeEngine
	Statuses StatusReconciler

	// PublicBaseURL makes the gather action absolute; empty keeps it relative.
	PublicBaseURL string
	GatherPath    string
}

func (h TwilioWebhookHandler) gatherAction(callID string) string {
	path := h.GatherPath
	if path == "" {
		path = "/webhooks/twilio/gather"
	}
	return strings.TrimRight(h.PublicBaseURL, "/") + path + "?callId=" + url.QueryEscape(callID)
}

func (h TwilioWebhookHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)
	defer h.recoverWithApology(c)

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil {
		log.Warn("twilio voice webhook parse failed", "err", err)
		h.writeTwiML(c, intake.Apology())
		return
	}
	res := h.Intake.Inbound(c.Request.Context(), form.ToInboundCall())
	h.writeTwiML(c, res)
}

func (h TwilioWebhookHandler) HandleGather(c *gin.Context) {
	log := logger.FromGin(c)
	defer h.recoverWithApology(c)

	form, err := ParseTwilioGather(c.Request)
	if err != nil {
		log.Warn("twilio gather webhook parse failed", "err", err)
		h.writeTwiML(c, intake.Apology())
		return
	}
	res := h.Intake.Gather(c.Request.Context(), form.CallID, form.Digits)
	h.writeTwiML(c, res)
}

func (h TwilioWebhookHandler) HandleMessageStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioMessageStatus(c.Request)
	if err != nil {
		log.Warn("twilio status webhook parse failed", "err", err)
		c.Status(http.StatusNoContent)
		return
	}
	if _, err := h.Statuses.ReconcileStatus(c.Request.Context(), form.MessageSid, form.MessageStatus, form.ErrorCode); err != nil {
		log.Error("sms status reconcile failed", "message_id", form.MessageSid, "err", err)
	}
	c.Status(http.StatusNoContent)
}

func (h TwilioWebhookHandler) writeTwiML(c *gin.Context, res intake.Response) {
	twiml, err := RenderTwiML(res, h.gatherAction(res.CallID))
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err, "state", string(res.State))
		twiml = apologyTwiML
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h TwilioWebhookHandler) recoverWithApology(c *gin.Context) {
	if p := recover(); p != nil {
		logger.FromGin(c).Error("voice webhook panic", "panic", p)
		c.Header("Content-Type", "application/xml")
		c.String(http.StatusOK, apologyTwiML)
	}
}
