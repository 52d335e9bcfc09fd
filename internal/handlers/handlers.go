package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/booking"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/validation"
)

// AuditLog — журнал событий; nil, если журнал не подключён.
type AuditLog interface {
	ListByOwnerAndRange(ctx context.Context, ownerID string, from, to time.Time, limit, offset int) ([]model.Event, int64, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.Event, error)
}

type BookingHandler struct {
	reg      *booking.Registry
	defaults booking.SlotQuery
	audit    AuditLog
}

func NewBookingHandler(reg *booking.Registry, defaults booking.SlotQuery, audit AuditLog) *BookingHandler {
	return &BookingHandler{reg: reg, defaults: defaults, audit: audit}
}

// slotView — слот с подписью для интерфейса.
type slotView struct {
	calendar.TimeSlot
	Label string `json:"label"`
}

type confirmationView struct {
	booking.Confirmation
	SlotLabel    string `json:"slot_label"`
	DisplayPhone string `json:"display_phone"`
}

func statusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case booking.KindInvalidArgument:
		return http.StatusBadRequest
	case booking.KindSlotUnavailable, booking.KindReservedByOther, booking.KindBookingConflict, booking.KindAlreadyCancelled:
		return http.StatusConflict
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindUnauthorized:
		return http.StatusForbidden
	case booking.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		getLogger(c).Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": booking.KindInternal, "message": "internal error"})
		return
	}
	body := gin.H{"error": be.Kind, "message": be.Error()}
	if len(be.Fields) > 0 {
		body["fields"] = be.Fields
	}
	c.JSON(statusFor(be.Kind), body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": booking.KindInvalidArgument, "message": msg})
}

// ValidateContact — POST /contacts/validate.
func (h *BookingHandler) ValidateContact(c *gin.Context) {
	var info validation.ContactInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.reg.ValidateContact(info))
}

// ListSlots — GET /slots?days=&start=&end=&interval=.
func (h *BookingHandler) ListSlots(c *gin.Context) {
	var q booking.SlotQuery
	var err error
	if v := c.Query("days"); v != "" {
		if q.DaysAhead, err = strconv.Atoi(v); err != nil {
			badRequest(c, "days must be a number")
			return
		}
	}
	if v := c.Query("interval"); v != "" {
		if q.IntervalMinutes, err = strconv.Atoi(v); err != nil {
			badRequest(c, "interval must be a number")
			return
		}
	}
	if start, end := c.Query("start"), c.Query("end"); start != "" || end != "" {
		if q.Start, err = parseClock(start); err != nil {
			badRequest(c, "start must be HH:MM")
			return
		}
		if q.End, err = parseClock(end); err != nil {
			badRequest(c, "end must be HH:MM")
			return
		}
	}

	slots, err := h.reg.AvailableSlots(q.Or(h.defaults))
	if err != nil {
		respondError(c, err)
		return
	}
	today := h.reg.Calendar().Today()
	views := make([]slotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, slotView{TimeSlot: s, Label: calendar.FormatSlot(s, today, false)})
	}
	c.JSON(http.StatusOK, gin.H{"slots": views, "total": len(views)})
}

// parseClock принимает "14:30" и "2:30 PM".
func parseClock(s string) (calendar.TimeOfDay, error) {
	if t, err := calendar.ParseTimeOfDay(s); err == nil {
		return t, nil
	}
	return calendar.From12Hour(s)
}

// ReserveSlot — POST /reservations {"slot_id": "..."}.
func (h *BookingHandler) ReserveSlot(c *gin.Context) {
	var req struct {
		SlotID string `json:"slot_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	res, err := h.reg.ReserveSlot(c.Request.Context(), req.SlotID, ownerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ReleaseReservation — DELETE /reservations/:slotId.
func (h *BookingHandler) ReleaseReservation(c *gin.Context) {
	if err := h.reg.ReleaseReservation(c.Request.Context(), c.Param("slotId"), ownerOf(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateBooking — POST /bookings {"slot_id": "...", "contact": {...}}.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req struct {
		SlotID  string                 `json:"slot_id" binding:"required"`
		Contact validation.ContactInfo `json:"contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	conf, err := h.reg.CreateBooking(c.Request.Context(), req.Contact, req.SlotID, ownerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmationView{
		Confirmation: conf,
		SlotLabel:    calendar.FormatSlot(conf.Slot, h.reg.Calendar().Today(), true),
		DisplayPhone: validation.FormatPhone(conf.Contact.Phone),
	})
}

// CancelBooking — DELETE /bookings/:id.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	if err := h.reg.CancelBooking(c.Request.Context(), id, ownerOf(c)); err != nil {
		respondError(c, err)
		return
	}
	b, err := h.reg.GetBooking(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBooking — GET /bookings/:id, только для владельца брони.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.reg.GetOwnedBooking(c.Param("id"), ownerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetByConfirmation — GET /confirmations/:code.
func (h *BookingHandler) GetByConfirmation(c *gin.Context) {
	b, err := h.reg.GetOwnedBookingByConfirmation(c.Param("code"), ownerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return page, size
}

// sameOwner — владелец из пути должен совпадать с вызывающим.
func sameOwner(c *gin.Context) bool {
	if c.Param("ownerId") != ownerOf(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": booking.KindUnauthorized, "message": "cannot read another owner's data"})
		return false
	}
	return true
}

// OwnerBookings — GET /owners/:ownerId/bookings?page=&page_size=.
func (h *BookingHandler) OwnerBookings(c *gin.Context) {
	if !sameOwner(c) {
		return
	}
	page, size := pageParams(c)
	c.JSON(http.StatusOK, calendar.Paginate(h.reg.GetBookingsForOwner(ownerOf(c)), page, size))
}

// OwnerEvents — GET /owners/:ownerId/events?from=&to=&page=&page_size=.
// from/to в RFC 3339, по умолчанию последние 30 дней.
func (h *BookingHandler) OwnerEvents(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit_disabled", "message": "audit log is not configured"})
		return
	}
	if !sameOwner(c) {
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			badRequest(c, "from must be RFC 3339")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			badRequest(c, "to must be RFC 3339")
			return
		}
	}
	if !to.After(from) {
		badRequest(c, "to must be after from")
		return
	}

	page, size := pageParams(c)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = calendar.DefaultPageSize
	}
	size = min(size, calendar.MaxPageSize)
	if page-1 > math.MaxInt32/size {
		badRequest(c, "page is out of range")
		return
	}
	rows, total, err := h.audit.ListByOwnerAndRange(c.Request.Context(), ownerOf(c), from, to, size, (page-1)*size)
	if err != nil {
		getLogger(c).Warn("list audit events failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": booking.KindStorageUnavailable, "message": "audit log unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": eventViews(rows), "page": page, "page_size": size, "total": total})
}

// BookingEvents — GET /bookings/:id/events, история брони для её владельца.
func (h *BookingHandler) BookingEvents(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit_disabled", "message": "audit log is not configured"})
		return
	}
	b, err := h.reg.GetOwnedBooking(c.Param("id"), ownerOf(c))
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.audit.ListByBooking(c.Request.Context(), b.ID)
	if err != nil {
		getLogger(c).Warn("list booking events failed", zap.String("booking_id", b.ID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": booking.KindStorageUnavailable, "message": "audit log unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": b.ID, "items": eventViews(rows), "total": len(rows)})
}

func eventViews(rows []model.Event) []gin.H {
	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, gin.H{
			"id":              row.ID.String(),
			"type":            row.EventType,
			"slot_id":         row.SlotID,
			"booking_id":      row.BookingID,
			"confirmation_id": row.ConfirmationID,
			"occurred_at":     row.OccurredAt,
		})
	}
	return items
}

// Stats — GET /stats.
func (h *BookingHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.reg.GetStats())
}
