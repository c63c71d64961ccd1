package main

import (
	"context"
	"net/http"

	"missedcall/internal/audit"
	"missedcall/internal/auth"
	"missedcall/internal/httpapi"
	"missedcall/internal/rbac"
	"missedcall/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	voicePath     = "/webhooks/twilio/voice"
	gatherPath    = "/webhooks/twilio/gather"
	smsStatusPath = "/webhooks/twilio/sms-status"
)

type routeDeps struct {
	Auth   *auth.Manager
	Public httpapi.Public
	Staff  httpapi.Staff
	Twilio telephony.TwilioWebhookHandler

	TwilioSignatures bool
	TwilioTokens     telephony.AuthTokenSource
	PublicBaseURL    string

	Registry *prometheus.Registry
	Ready    func(ctx context.Context) error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := d.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	// Provider webhooks (public, signed).
	hooks := r.Group("")
	if d.TwilioSignatures {
		hooks.Use(telephony.RequireTwilioSignature(d.PublicBaseURL, d.TwilioTokens))
	}
	hooks.POST(voicePath, d.Twilio.HandleInboundCall)
	hooks.POST(gatherPath, d.Twilio.HandleGather)
	hooks.POST(smsStatusPath, d.Twilio.HandleMessageStatus)

	// Customer-facing booking pages.
	pub := r.Group("/public/:slug")
	{
		pub.GET("/availability", d.Public.GetAvailability)
		pub.GET("/services", d.Public.Services)
		pub.POST("/verify-phone", d.Public.VerifyPhone)
		pub.POST("/book", d.Public.Book)
	}

	// Staff API
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.Auth), rbac.RequireTenant(), rbac.RequireAnyRole(rbac.StaffRoles...), clientIP())
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			tid, _ := auth.TenantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "tenant_id": tid, "role": role})
		})

		v1.GET("/calls", d.Staff.ListCalls)
		v1.GET("/calls/summary", d.Staff.CallsSummary)
		v1.POST("/calls/:id/callback-handled", d.Staff.MarkCallbackHandled)
		v1.POST("/calls/:id/reopen", d.Staff.ReopenCallback)

		v1.GET("/reports/bookings", d.Staff.BookingsSummary)
		v1.GET("/reports/conversion", d.Staff.Conversion)

		v1.GET("/appointments", d.Staff.ListAppointments)
		v1.POST("/appointments", d.Staff.CreateAppointment)
		v1.PATCH("/appointments/:id/status", d.Staff.UpdateAppointmentStatus)
		v1.PATCH("/appointments/:id/notes", d.Staff.UpdateAppointmentNotes)
		v1.GET("/availability", d.Staff.GetAvailability)

		settings := v1.Group("/settings")
		settings.Use(rbac.RequireAnyRole(rbac.RoleOwner))
		{
			settings.GET("/business-hours", d.Staff.BusinessHours)
			settings.PUT("/business-hours", d.Staff.ReplaceBusinessHours)
			settings.PUT("/ivr-greeting", d.Staff.UpdateGreeting)
		}

		admin := v1.Group("/admin")
		admin.Use(rbac.RequireSuperAdmin())
		{
			admin.PUT("/gateway-credentials", d.Staff.UpdateGatewayCredentials)
		}
	}
}

// clientIP carries the caller address to audit records written deeper in the stack.
func clientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
