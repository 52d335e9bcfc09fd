package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/booking"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/snapshot"
)

const testSlot = "2024-01-16_09:00"

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// MockAuditLog mocks the audit log repository
type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) ListByOwnerAndRange(ctx context.Context, ownerID string, from, to time.Time, limit, offset int) ([]model.Event, int64, error) {
	args := m.Called(ownerID, from, to, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditLog) ListByBooking(ctx context.Context, bookingID string) ([]model.Event, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func newTestRouter(t *testing.T, audit AuditLog) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cal := calendar.New(fixedClock{now: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)})
	reg := booking.NewRegistry(cal, snapshot.NewMemoryStore())
	defaults := booking.SlotQuery{
		DaysAhead:       2,
		Start:           calendar.MustTimeOfDay("09:00"),
		End:             calendar.MustTimeOfDay("10:00"),
		IntervalMinutes: 30,
	}
	return NewRouter(NewBookingHandler(reg, defaults, audit), zap.NewNop())
}

func do(r http.Handler, method, path, owner string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func contact() map[string]any {
	return map[string]any{"name": "Jane Doe", "email": "jane@example.com", "phone": "5551234567"}
}

func TestHandlers_ReserveFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/reservations", "A", gin.H{"slot_id": testSlot})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/reservations", "B", gin.H{"slot_id": testSlot})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "reserved_by_other", decode(t, w)["error"])

	w = do(r, http.MethodDelete, "/reservations/"+testSlot, "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodDelete, "/reservations/"+testSlot, "A", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodPost, "/reservations", "B", gin.H{"slot_id": testSlot})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandlers_RequireOwner(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/reservations", "", gin.H{"slot_id": testSlot})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/bookings", "bad owner", gin.H{"slot_id": testSlot})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlers_BookingLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/bookings", "A", gin.H{"slot_id": testSlot, "contact": contact()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conf := decode(t, w)
	assert.Equal(t, "(555) 123-4567", conf["display_phone"])
	assert.Contains(t, conf["slot_label"], "Tomorrow, 9:00 AM")
	id := conf["booking_id"].(string)
	code := conf["confirmation_id"].(string)

	w = do(r, http.MethodGet, "/bookings/"+id, "A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode(t, w)["status"])

	w = do(r, http.MethodGet, "/confirmations/"+code, "A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["id"])

	// Чужие брони не читаются ни по id, ни по коду.
	w = do(r, http.MethodGet, "/bookings/"+id, "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(r, http.MethodGet, "/confirmations/"+code, "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(r, http.MethodGet, "/confirmations/"+code, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/bookings", "B", gin.H{"slot_id": testSlot, "contact": contact()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_unavailable", decode(t, w)["error"])

	w = do(r, http.MethodDelete, "/bookings/"+id, "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodDelete, "/bookings/"+id, "A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["status"])

	w = do(r, http.MethodDelete, "/bookings/"+id, "A", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_cancelled", decode(t, w)["error"])

	w = do(r, http.MethodGet, "/bookings/nope", "A", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_ValidationErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	bad := gin.H{"name": "J", "email": "bad", "phone": "1"}
	w := do(r, http.MethodPost, "/bookings", "A", gin.H{"slot_id": testSlot, "contact": bad})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Len(t, body["fields"], 3)

	w = do(r, http.MethodPost, "/contacts/validate", "", bad)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["valid"])

	w = do(r, http.MethodPost, "/bookings", "A", gin.H{"contact": contact()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_Slots(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/slots", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(4), body["total"])
	first := body["slots"].([]any)[0].(map[string]any)
	assert.Equal(t, "2024-01-15_09:00", first["id"])
	assert.Equal(t, "Today, 9:00 AM – 9:30 AM", first["label"])

	w = do(r, http.MethodGet, "/slots?days=1&start=09:00&end=12:00", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), decode(t, w)["total"])

	// Ширина слота задаётся сервером, а горизонт ограничен.
	for _, q := range []string{
		"days=1&start=09:00&end=12:00&interval=60",
		"days=100000000&interval=1",
		"days=1000",
		"start=09:00&end=23:45",
	} {
		w = do(r, http.MethodGet, "/slots?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "invalid_argument", decode(t, w)["error"], q)
	}

	w = do(r, http.MethodGet, "/slots?days=1&start=9:00%20AM&end=10:00%20AM", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total"])

	w = do(r, http.MethodGet, "/slots?days=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/slots?start=9am&end=10:00", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_OwnerBookingsAndStats(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, slot := range []string{testSlot, "2024-01-16_09:30", "2024-01-16_10:00"} {
		w := do(r, http.MethodPost, "/bookings", "A", gin.H{"slot_id": slot, "contact": contact()})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(r, http.MethodGet, "/owners/A/bookings?page=1&page_size=2", "A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(3), page["total"])
	assert.Len(t, page["items"], 2)
	assert.Equal(t, true, page["has_next"])

	w = do(r, http.MethodGet, "/owners/A/bookings", "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["booked_slots"])
}

func TestHandlers_OwnerEvents(t *testing.T) {
	audit := new(MockAuditLog)
	r := newTestRouter(t, audit)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.Event{{
		ID:         uuid.New(),
		EventType:  "booking.created",
		SlotID:     testSlot,
		OwnerID:    "A",
		BookingID:  "b-1",
		OccurredAt: from.Add(time.Hour),
	}}
	audit.On("ListByOwnerAndRange", "A", from, to, 5, 5).Return(rows, int64(6), nil)

	w := do(r, http.MethodGet, "/owners/A/events?from=2024-01-01T00:00:00Z&to=2024-02-01T00:00:00Z&page=2&page_size=5", "A", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(6), body["total"])
	assert.Len(t, body["items"], 1)
	audit.AssertExpectations(t)

	w = do(r, http.MethodGet, "/owners/A/events?from=yesterday", "A", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/owners/A/events?page=9223372036854775807&page_size=100", "A", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_OwnerEventsClampsPageSize(t *testing.T) {
	audit := new(MockAuditLog)
	audit.On("ListByOwnerAndRange", "A", mock.Anything, mock.Anything, calendar.MaxPageSize, 0).Return([]model.Event{}, int64(0), nil)
	r := newTestRouter(t, audit)

	w := do(r, http.MethodGet, "/owners/A/events?page_size=1000000", "A", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(calendar.MaxPageSize), decode(t, w)["page_size"])
	audit.AssertExpectations(t)
}

func TestHandlers_BookingEvents(t *testing.T) {
	audit := new(MockAuditLog)
	r := newTestRouter(t, audit)

	w := do(r, http.MethodPost, "/bookings", "A", gin.H{"slot_id": testSlot, "contact": contact()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["booking_id"].(string)

	rows := []model.Event{
		{ID: uuid.New(), EventType: "booking.created", SlotID: testSlot, OwnerID: "A", BookingID: id},
		{ID: uuid.New(), EventType: "booking.cancelled", SlotID: testSlot, OwnerID: "A", BookingID: id},
	}
	audit.On("ListByBooking", id).Return(rows, nil).Once()

	w = do(r, http.MethodGet, "/bookings/"+id+"/events", "A", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(2), body["total"])
	items := body["items"].([]any)
	assert.Equal(t, "booking.created", items[0].(map[string]any)["type"])

	w = do(r, http.MethodGet, "/bookings/"+id+"/events", "B", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(r, http.MethodGet, "/bookings/missing/events", "A", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	audit.On("ListByBooking", id).Return(nil, errors.New("db down")).Once()
	w = do(r, http.MethodGet, "/bookings/"+id+"/events", "A", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	audit.AssertExpectations(t)

	w = do(newTestRouter(t, nil), http.MethodGet, "/bookings/"+id+"/events", "A", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandlers_OwnerEventsFailures(t *testing.T) {
	w := do(newTestRouter(t, nil), http.MethodGet, "/owners/A/events", "A", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	audit := new(MockAuditLog)
	audit.On("ListByOwnerAndRange", "A", mock.Anything, mock.Anything, 10, 0).Return(nil, int64(0), errors.New("db down"))
	w = do(newTestRouter(t, audit), http.MethodGet, "/owners/A/events", "A", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
