package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"missedcall/internal/apperr"
	"missedcall/internal/availability"
	"missedcall/internal/booking"
	"missedcall/internal/catalog"
	"missedcall/internal/tenant"
	"missedcall/internal/verification"

	"github.com/gin-gonic/gin"
)

// TenantResolver finds the active tenant behind a public slug.
type TenantResolver interface {
	ActiveBySlug(ctx context.Context, slug string) (tenant.Tenant, error)
}

// Public serves the customer-facing booking pages under /public/:slug.
type Public struct {
	Tenants      TenantResolver
	Catalog      catalog.Repository
	Availability *availability.Service
	Verification *verification.Service
	Booking      *booking.Service
}

func (h Public) tenant(c *gin.Context) (tenant.Tenant, bool) {
	t, err := h.Tenants.ActiveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return tenant.Tenant{}, false
	}
	return t, true
}

type bookedSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type availabilityResponse struct {
	Date           string       `json:"date"`
	IsOpen         bool         `json:"isOpen"`
	OpenTime       string       `json:"openTime,omitempty"`
	CloseTime      string       `json:"closeTime,omitempty"`
	SlotInterval   int          `json:"slotInterval"`
	Slots          []string     `json:"slots"`
	AvailableCount int          `json:"availableCount"`
	BookedSlots    []bookedSlot `json:"bookedSlots"`

	// AvailableStartTimes is set when the query names a service.
	AvailableStartTimes []string `json:"availableStartTimes,omitempty"`
}

// GetAvailability answers GET /public/:slug/availability?date=YYYY-MM-DD.
// With serviceId (and optionally serviceOptionId, quantity) it also lists the
// start times where that service fits.
func (h Public) GetAvailability(c *gin.Context) {
	t, ok := h.tenant(c)
	if !ok {
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	day, err := h.Availability.ForDate(c.Request.Context(), t.ID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	res := availabilityResponse{
		Date:           date,
		IsOpen:         day.Open,
		OpenTime:       day.OpenTime,
		CloseTime:      day.CloseTime,
		SlotInterval:   day.Interval,
		Slots:          day.Slots,
		AvailableCount: day.AvailableCount,
		BookedSlots:    make([]bookedSlot, 0, len(day.Booked)),
	}
	for _, b := range day.Booked {
		res.BookedSlots = append(res.BookedSlots, bookedSlot{StartTime: b.StartTime, EndTime: b.EndTime})
	}

	if raw := c.Query("serviceId"); raw != "" {
		duration, err := h.requestedDuration(c, t.ID, raw)
		if err != nil {
			writeError(c, err)
			return
		}
		res.AvailableStartTimes = availability.BookableStarts(day, duration)
	}
	c.JSON(http.StatusOK, res)
}

func (h Public) requestedDuration(c *gin.Context, tenantID, rawServiceID string) (int, error) {
	serviceID, err := strconv.ParseInt(rawServiceID, 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "serviceId must be an integer")
	}
	quantity := 0
	if raw := c.Query("quantity"); raw != "" {
		if quantity, err = strconv.Atoi(raw); err != nil {
			return 0, apperr.New(apperr.KindValidation, "quantity must be an integer")
		}
	}
	svc, err := h.Catalog.FindActiveService(c.Request.Context(), tenantID, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return 0, apperr.New(apperr.KindNotFound, "service not found")
		}
		return 0, err
	}
	var opt *catalog.ServiceOption
	if raw := c.Query("serviceOptionId"); raw != "" {
		optionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, apperr.New(apperr.KindValidation, "serviceOptionId must be an integer")
		}
		o, ok := svc.ActiveOption(optionID)
		if !ok {
			return 0, apperr.New(apperr.KindNotFound, "service option not found")
		}
		opt = &o
	}
	return catalog.EffectiveDuration(svc, opt) * catalog.ClampQuantity(opt, quantity), nil
}

// Services answers GET /public/:slug/services with the active catalog.
func (h Public) Services(c *gin.Context) {
	t, ok := h.tenant(c)
	if !ok {
		return
	}
	list, err := h.Catalog.ListActiveServices(c.Request.Context(), t.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []catalog.Service{}
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}

type verifyPhoneRequest struct {
	Phone string `json:"phone" binding:"required,max=32"`
}

// VerifyPhone answers POST /public/:slug/verify-phone.
func (h Public) VerifyPhone(c *gin.Context) {
	t, ok := h.tenant(c)
	if !ok {
		return
	}
	var req verifyPhoneRequest
	if !bindJSON(c, &req) {
		return
	}
	issued, err := h.Verification.Request(c.Request.Context(), t, req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true, "expiresAt": issued.ExpiresAt})
}

// appointmentFields is the appointment shape shared by public and staff creation.
type appointmentFields struct {
	ServiceID            int64   `json:"serviceId" binding:"required,gt=0"`
	ServiceOptionID      *int64  `json:"serviceOptionId"`
	Quantity             int     `json:"quantity" binding:"min=0,max=100"`
	SelectedSubOptionIDs []int64 `json:"selectedSubOptionIds" binding:"max=50"`

	CustomerName  string `json:"customerName" binding:"required,max=200"`
	CustomerPhone string `json:"customerPhone" binding:"required,max=32"`
	CustomerEmail string `json:"customerEmail" binding:"omitempty,email,max=320"`

	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" binding:"required,hhmm"`
	Notes     string `json:"notes" binding:"max=2000"`
}

func (r appointmentFields) toBooking() booking.Request {
	return booking.Request{
		ServiceID:       r.ServiceID,
		ServiceOptionID: r.ServiceOptionID,
		Quantity:        r.Quantity,
		SubOptionIDs:    r.SelectedSubOptionIDs,
		Date:            r.Date,
		StartTime:       r.StartTime,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerEmail:   r.CustomerEmail,
		Notes:           r.Notes,
	}
}

type bookRequest struct {
	appointmentFields
	VerificationCode string `json:"verificationCode" binding:"required,len=6,numeric"`
}

// Book answers POST /public/:slug/book. The verification code is consumed in
// the same transaction that inserts the appointment.
func (h Public) Book(c *gin.Context) {
	t, ok := h.tenant(c)
	if !ok {
		return
	}
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	v, err := h.Verification.Check(ctx, t.ID, req.CustomerPhone, req.VerificationCode)
	if err != nil {
		writeError(c, err)
		return
	}
	a, err := h.Booking.Book(ctx, t, req.toBooking(), h.Verification.ConsumeHook(v.ID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": a})
}
