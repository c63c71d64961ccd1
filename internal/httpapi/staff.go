package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"
	"missedcall/internal/auth"
	"missedcall/internal/availability"
	"missedcall/internal/booking"
	"missedcall/internal/calls"
	"missedcall/internal/gatewaycreds"
	"missedcall/internal/reporting"
	"missedcall/internal/tenant"
	"missedcall/internal/timegrid"
	"missedcall/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TenantDirectory loads the caller's tenant by id.
type TenantDirectory interface {
	FindByID(ctx context.Context, id string) (tenant.Tenant, error)
}

// CredentialUpdater replaces the platform gateway credentials.
type CredentialUpdater interface {
	Update(ctx context.Context, c gatewaycreds.Credentials) error
}

// Staff serves the authenticated /v1 API. The tenant always comes from the token.
type Staff struct {
	Tenants      TenantDirectory
	Settings     *tenant.Settings
	Calls        *calls.Service
	Booking      *booking.Service
	Availability *availability.Service
	Reporting    *reporting.Service
	Credentials  CredentialUpdater
	Audit        *audit.Service

	// Location is the scheduling time zone for date-range queries.
	Location *time.Location
	Now      func() time.Time
}

func (h Staff) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Staff) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}

func tenantID(c *gin.Context) string {
	id, _ := auth.TenantID(c.Request.Context())
	return id
}

func actor(c *gin.Context) audit.Actor {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	return audit.Actor{UserID: uid, Role: role, IP: c.ClientIP()}
}

// dateRange reads from/to (YYYY-MM-DD, to inclusive). The default is the last 30 days.
func (h Staff) dateRange(c *gin.Context) (reporting.TimeRange, error) {
	loc := h.location()
	y, m, d := h.now().In(loc).Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		t, err := time.ParseInLocation(timegrid.DateLayout, raw, loc)
		if err != nil {
			return reporting.TimeRange{}, apperr.New(apperr.KindValidation, "from must be YYYY-MM-DD")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.ParseInLocation(timegrid.DateLayout, raw, loc)
		if err != nil {
			return reporting.TimeRange{}, apperr.New(apperr.KindValidation, "to must be YYYY-MM-DD")
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return reporting.TimeRange{}, apperr.New(apperr.KindValidation, "from must not be after to")
	}
	return reporting.TimeRange{From: from.UTC(), To: to.UTC()}, nil
}

func reportError(err error) error {
	if errors.Is(err, reporting.ErrInvalidRequest) {
		return apperr.Wrap(apperr.KindValidation, "invalid report range", err)
	}
	return err
}

// --- Calls ---

func (h Staff) ListCalls(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	f := calls.ListFilter{TenantID: tenantID(c), Since: r.From, Until: r.To}
	if raw := c.Query("outcome"); raw != "" {
		f.Outcome = calls.IVROutcome(strings.ToUpper(raw))
	}
	if raw := c.Query("handled"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperr.New(apperr.KindValidation, "handled must be true or false"))
			return
		}
		f.Handled = &b
	}
	if raw := c.Query("limit"); raw != "" {
		f.Limit, _ = strconv.Atoi(raw)
	}
	list, err := h.Calls.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []calls.Call{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": list})
}

func (h Staff) CallsSummary(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	sum, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{TenantID: tenantID(c), Range: r})
	if err != nil {
		writeError(c, reportError(err))
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Staff) MarkCallbackHandled(c *gin.Context) {
	call, err := h.Calls.MarkCallbackHandled(c.Request.Context(), tenantID(c), c.Param("id"), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Staff) ReopenCallback(c *gin.Context) {
	call, err := h.Calls.Reopen(c.Request.Context(), tenantID(c), c.Param("id"), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// --- Reports ---

func (h Staff) BookingsSummary(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	sum, err := h.Reporting.BookingsSummary(c.Request.Context(), reporting.BookingsSummaryRequest{TenantID: tenantID(c), Range: r})
	if err != nil {
		writeError(c, reportError(err))
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Staff) Conversion(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	m, err := h.Reporting.ConversionMetrics(c.Request.Context(), tenantID(c), r)
	if err != nil {
		writeError(c, reportError(err))
		return
	}
	c.JSON(http.StatusOK, m)
}

// --- Appointments ---

func (h Staff) ListAppointments(c *gin.Context) {
	list, err := h.Booking.ListByDate(c.Request.Context(), tenantID(c), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

// CreateAppointment books on behalf of a customer. Same guard as the public
// flow, without phone verification.
func (h Staff) CreateAppointment(c *gin.Context) {
	var req appointmentFields
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tenants.FindByID(c.Request.Context(), tenantID(c))
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			err = apperr.New(apperr.KindNotFound, "business not found")
		}
		writeError(c, err)
		return
	}
	a, err := h.Booking.Create(c.Request.Context(), t, req.toBooking(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"appointment": a})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h Staff) UpdateAppointmentStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	to, ok := booking.ParseStatus(req.Status)
	if !ok {
		writeError(c, apperr.New(apperr.KindValidation, "unknown status "+req.Status))
		return
	}
	a, err := h.Booking.UpdateStatus(c.Request.Context(), tenantID(c), c.Param("id"), to, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": a})
}

type notesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

func (h Staff) UpdateAppointmentNotes(c *gin.Context) {
	var req notesRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.Booking.UpdateNotes(c.Request.Context(), tenantID(c), c.Param("id"), req.Notes, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": a})
}

// GetAvailability is the staff view of a day: occupancy plus the appointments
// that fall outside business hours.
func (h Staff) GetAvailability(c *gin.Context) {
	day, err := h.Availability.ForDate(c.Request.Context(), tenantID(c), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	if day.Conflicts == nil {
		day.Conflicts = []availability.Span{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":           c.Query("date"),
		"isOpen":         day.Open,
		"openTime":       day.OpenTime,
		"closeTime":      day.CloseTime,
		"slotInterval":   day.Interval,
		"slots":          day.Slots,
		"availableCount": day.AvailableCount,
		"bookedSlots":    day.Booked,
		"conflicts":      day.Conflicts,
	})
}

// --- Settings ---

func (h Staff) BusinessHours(c *gin.Context) {
	week, err := h.Settings.BusinessHours(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": week})
}

type hoursRow struct {
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time" binding:"omitempty,hhmm"`
	CloseTime string `json:"close_time" binding:"omitempty,hhmm"`
}

type hoursRequest struct {
	Days []hoursRow `json:"days" binding:"required,len=7,dive"`
}

func (h Staff) ReplaceBusinessHours(c *gin.Context) {
	var req hoursRequest
	if !bindJSON(c, &req) {
		return
	}
	week := make([]tenant.BusinessHours, 0, len(req.Days))
	for _, d := range req.Days {
		week = append(week, tenant.BusinessHours{
			Weekday:   time.Weekday(*d.Weekday),
			IsOpen:    d.IsOpen,
			OpenTime:  d.OpenTime,
			CloseTime: d.CloseTime,
		})
	}
	saved, err := h.Settings.ReplaceBusinessHours(c.Request.Context(), tenantID(c), week, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": saved})
}

type greetingRequest struct {
	Text string `json:"text" binding:"max=500"`
}

// UpdateGreeting stores the IVR greeting; audio is regenerated in the background.
func (h Staff) UpdateGreeting(c *gin.Context) {
	var req greetingRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Settings.UpdateGreeting(c.Request.Context(), tenantID(c), req.Text, actor(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ivr_greeting_text": strings.TrimSpace(req.Text)})
}

// --- Admin ---

type credentialsRequest struct {
	AccountSID string `json:"account_sid" binding:"required,startswith=AC,max=64"`
	AuthToken  string `json:"auth_token" binding:"required,max=128"`
	FromNumber string `json:"from_number" binding:"required,max=32"`
}

// UpdateGatewayCredentials replaces the platform sender. The credential cache
// is invalidated before the response is written.
func (h Staff) UpdateGatewayCredentials(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	from, err := utils.NormalizePhone(req.FromNumber)
	if err != nil {
		writeError(c, apperr.New(apperr.KindValidation, "from_number must be a valid phone number"))
		return
	}
	creds := gatewaycreds.Credentials{AccountSID: req.AccountSID, AuthToken: req.AuthToken, FromNumber: from}
	if err := h.Credentials.Update(c.Request.Context(), creds); err != nil {
		writeError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), tenantID(c), actor(c), audit.EventTypeGatewayCredentials, audit.Event{},
		"platform gateway credentials updated", map[string]any{"account_sid": req.AccountSID, "from_number": from})
	c.JSON(http.StatusOK, creds)
}
