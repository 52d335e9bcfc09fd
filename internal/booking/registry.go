package booking

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/snapshot"
	"github.com/Leganyst/booking-core/internal/validation"
)

const (
	DefaultReservationTTL = 5 * time.Minute
	DefaultSweepInterval  = time.Minute

	// MaxDaysAhead — горизонт выдачи свободных слотов.
	MaxDaysAhead = 366

	defaultPersistTimeout = 5 * time.Second
	defaultPublishTimeout = 5 * time.Second
	maxIDAttempts         = 8
)

// Registry — реестр броней. Оркеструет валидацию, календарь и удержания,
// хранит записи броней по id и по коду подтверждения.
//
// Блокировки: r.mu защищает таблицы броней, состояние слотов защищено
// мьютексом календаря. Порядок захвата всегда r.mu -> календарь.
type Registry struct {
	cal            *calendar.Calendar
	store          snapshot.Store
	pub            events.Publisher
	log            *zap.Logger
	ttl            time.Duration
	grid           calendar.Grid
	persistTimeout time.Duration
	publishTimeout time.Duration
	newBookingID   func() string
	newCode        func() string

	mu             sync.RWMutex
	seq            uint64
	bookings       map[string]*Booking
	byConfirmation map[string]string
	byOwner        map[string][]string

	persistMu        sync.Mutex
	snapshotFailures atomic.Uint64
}

type Option func(*Registry)

// WithReservationTTL — срок удержания слота; неположительные значения игнорируются.
func WithReservationTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithGrid задаёт рабочую сетку слотов; невалидная сетка игнорируется.
func WithGrid(g calendar.Grid) Option {
	return func(r *Registry) {
		if g.Validate() == nil {
			r.grid = g
		}
	}
}

// WithPublishTimeout ограничивает ожидание публикатора событий.
func WithPublishTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.publishTimeout = d
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.pub = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithIDGenerators подменяет генераторы id брони и кода подтверждения.
func WithIDGenerators(bookingID, confirmationID func() string) Option {
	return func(r *Registry) {
		if bookingID != nil {
			r.newBookingID = bookingID
		}
		if confirmationID != nil {
			r.newCode = confirmationID
		}
	}
}

func NewRegistry(cal *calendar.Calendar, store snapshot.Store, opts ...Option) *Registry {
	if store == nil {
		store = snapshot.Nop{}
	}
	r := &Registry{
		cal:            cal,
		store:          store,
		pub:            events.Discard{},
		log:            zap.NewNop(),
		ttl:            DefaultReservationTTL,
		grid:           calendar.DefaultGrid(),
		persistTimeout: defaultPersistTimeout,
		publishTimeout: defaultPublishTimeout,
		newBookingID:   uuid.NewString,
		newCode:        newConfirmationCode,
		bookings:       make(map[string]*Booking),
		byConfirmation: make(map[string]string),
		byOwner:        make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newConfirmationCode — короткий код для клиента, вида "BK-3F9A0C12D4".
func newConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(raw[:10])
}

func (r *Registry) Calendar() *calendar.Calendar { return r.cal }

func (r *Registry) ReservationTTL() time.Duration { return r.ttl }

func (r *Registry) Grid() calendar.Grid { return r.grid }

// ValidateContact — проверка контакта без побочных эффектов.
func (r *Registry) ValidateContact(info validation.ContactInfo) validation.Result {
	return validation.ValidateContact(info)
}

// slotFromID строит снимок слота по каноническому идентификатору слота сетки.
func (r *Registry) slotFromID(slotID string) (calendar.TimeSlot, error) {
	slot, err := r.grid.ParseSlot(slotID)
	if err != nil {
		return calendar.TimeSlot{}, &Error{Kind: KindInvalidArgument, Message: "invalid slot id " + strconv.Quote(slotID), Err: err}
	}
	return slot, nil
}

// started — слот уже начался (или прошёл) по часам календаря.
func (r *Registry) started(slot calendar.TimeSlot) bool {
	return !slot.Range(r.cal.Location()).Start.After(r.cal.Now())
}

// bookableSlot — slotFromID плюс запрет на начавшиеся слоты.
func (r *Registry) bookableSlot(slotID string) (calendar.TimeSlot, error) {
	slot, err := r.slotFromID(slotID)
	if err != nil {
		return calendar.TimeSlot{}, err
	}
	if r.started(slot) {
		return calendar.TimeSlot{}, newError(KindSlotUnavailable, "slot %s has already started", slotID)
	}
	return slot, nil
}

// CreateBooking проводит запрос через
// Validating -> Available-Check -> Ownership-Check -> Committing.
// Либо бронь создана целиком, либо состояние не изменилось.
func (r *Registry) CreateBooking(ctx context.Context, contact validation.ContactInfo, slotID, ownerID string) (Confirmation, error) {
	if ownerID == "" {
		return Confirmation{}, newError(KindInvalidArgument, "owner id is required")
	}
	if res := validation.ValidateContact(contact); !res.Valid {
		return Confirmation{}, &Error{Kind: KindValidationFailed, Message: "contact is invalid", Fields: res.Errors}
	}
	slot, err := r.bookableSlot(slotID)
	if err != nil {
		return Confirmation{}, err
	}

	// Проверка и фиксация под r.mu: снимок не увидит занятый слот без записи брони.
	r.mu.Lock()
	cur := r.cal.State(slotID)
	if cur.Status == calendar.StatusBooked {
		r.mu.Unlock()
		return Confirmation{}, newError(KindSlotUnavailable, "slot %s is already booked", slotID)
	}
	hold, held := r.cal.Ledger().Holder(slotID)
	if held && hold.OwnerID != ownerID {
		r.mu.Unlock()
		return Confirmation{}, newError(KindReservedByOther, "slot %s is held by another client", slotID)
	}

	if _, ok := r.cal.CompareAndSwap(slotID, cur, calendar.BookedBy(ownerID)); !ok {
		r.mu.Unlock()
		return Confirmation{}, newError(KindBookingConflict, "slot %s changed concurrently, retry", slotID)
	}

	b, err := r.insertLocked(contact, slot, ownerID)
	if err != nil {
		// Откатываем слот, чтобы не оставить бронь без записи.
		if _, ok := r.cal.CompareAndSwap(slotID, calendar.BookedBy(ownerID), calendar.Available()); !ok {
			r.log.Error("rollback of slot failed", zap.String("slot_id", slotID))
		}
		r.mu.Unlock()
		return Confirmation{}, err
	}
	conf := b.confirmation()
	ev := events.Event{
		Type:           events.BookingCreated,
		SlotID:         slotID,
		OwnerID:        ownerID,
		BookingID:      b.ID,
		ConfirmationID: b.ConfirmationID,
		OccurredAt:     b.CreatedAt,
	}
	r.mu.Unlock()

	r.log.Info("booking created",
		zap.String("booking_id", conf.BookingID),
		zap.String("confirmation_id", conf.ConfirmationID),
		zap.String("slot_id", slotID),
		zap.String("owner_id", ownerID),
		zap.Bool("consumed_hold", held),
	)
	r.publish(ctx, ev)
	r.persist(ctx)
	return conf, nil
}

func (r *Registry) insertLocked(contact validation.ContactInfo, slot calendar.TimeSlot, ownerID string) (*Booking, error) {
	id, ok := r.uniqueID(r.newBookingID, func(s string) bool { _, taken := r.bookings[s]; return taken })
	if !ok {
		return nil, newError(KindInternal, "could not allocate booking id")
	}
	code, ok := r.uniqueID(r.newCode, func(s string) bool { _, taken := r.byConfirmation[s]; return taken })
	if !ok {
		return nil, newError(KindInternal, "could not allocate confirmation id")
	}

	slot.Status = calendar.StatusBooked
	slot.OwnerID = ownerID
	r.seq++
	b := &Booking{
		ID:             id,
		ConfirmationID: code,
		Seq:            r.seq,
		OwnerID:        ownerID,
		Contact:        validation.Sanitize(contact),
		Slot:           slot,
		Status:         StatusConfirmed,
		CreatedAt:      r.cal.Now().UTC(),
	}
	r.indexLocked(b)
	return b, nil
}

func (r *Registry) indexLocked(b *Booking) {
	r.bookings[b.ID] = b
	r.byConfirmation[b.ConfirmationID] = b.ID
	r.byOwner[b.OwnerID] = append(r.byOwner[b.OwnerID], b.ID)
}

func (r *Registry) uniqueID(gen func() string, taken func(string) bool) (string, bool) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := gen(); id != "" && !taken(id) {
			return id, true
		}
	}
	return "", false
}

// ReserveSlot ставит (или продлевает для того же владельца) удержание на TTL.
func (r *Registry) ReserveSlot(ctx context.Context, slotID, ownerID string) (calendar.Reservation, error) {
	if ownerID == "" {
		return calendar.Reservation{}, newError(KindInvalidArgument, "owner id is required")
	}
	if _, err := r.bookableSlot(slotID); err != nil {
		return calendar.Reservation{}, err
	}

	st, ok := r.cal.Reserve(slotID, ownerID, r.ttl)
	if !ok {
		switch st.Status {
		case calendar.StatusBooked:
			return calendar.Reservation{}, newError(KindSlotUnavailable, "slot %s is already booked", slotID)
		case calendar.StatusReserved:
			return calendar.Reservation{}, newError(KindReservedByOther, "slot %s is held by another client", slotID)
		default:
			return calendar.Reservation{}, newError(KindInternal, "reservation of %s rejected", slotID)
		}
	}

	res := calendar.Reservation{SlotID: slotID, OwnerID: ownerID, ExpiresAt: st.ExpiresAt}
	r.log.Debug("slot reserved", zap.String("slot_id", slotID), zap.String("owner_id", ownerID), zap.Time("expires_at", res.ExpiresAt))
	r.publish(ctx, events.Event{Type: events.ReservationCreated, SlotID: slotID, OwnerID: ownerID, OccurredAt: r.cal.Now().UTC()})
	r.persist(ctx)
	return res, nil
}

// ReleaseReservation снимает действующее удержание ownerID; чужие не трогает.
func (r *Registry) ReleaseReservation(ctx context.Context, slotID, ownerID string) error {
	if _, err := r.slotFromID(slotID); err != nil {
		return err
	}
	holder, ok := r.cal.Release(slotID, ownerID)
	if !ok {
		if holder == "" {
			return newError(KindNotFound, "no active reservation on slot %s", slotID)
		}
		return newError(KindUnauthorized, "slot %s is held by another client", slotID)
	}

	r.log.Debug("reservation released", zap.String("slot_id", slotID), zap.String("owner_id", ownerID))
	r.publish(ctx, events.Event{Type: events.ReservationReleased, SlotID: slotID, OwnerID: ownerID, OccurredAt: r.cal.Now().UTC()})
	r.persist(ctx)
	return nil
}

// CancelBooking отменяет бронь владельца. Запись остаётся со статусом cancelled,
// повторная отмена возвращает ErrAlreadyCancelled.
func (r *Registry) CancelBooking(ctx context.Context, bookingID, ownerID string) error {
	r.mu.Lock()
	b, ok := r.bookings[bookingID]
	switch {
	case !ok:
		r.mu.Unlock()
		return newError(KindNotFound, "booking %s not found", bookingID)
	case b.OwnerID != ownerID:
		r.mu.Unlock()
		return newError(KindUnauthorized, "booking %s belongs to another client", bookingID)
	case b.Status == StatusCancelled:
		r.mu.Unlock()
		return newError(KindAlreadyCancelled, "booking %s is already cancelled", bookingID)
	}
	if !r.cal.Cancel(b.Slot.ID, ownerID) {
		r.mu.Unlock()
		r.log.Error("slot is not booked by booking owner", zap.String("booking_id", bookingID), zap.String("slot_id", b.Slot.ID))
		return newError(KindInternal, "slot %s is not booked by booking owner", b.Slot.ID)
	}
	now := r.cal.Now().UTC()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	ev := events.Event{
		Type:           events.BookingCancelled,
		SlotID:         b.Slot.ID,
		OwnerID:        ownerID,
		BookingID:      b.ID,
		ConfirmationID: b.ConfirmationID,
		OccurredAt:     now,
	}
	r.mu.Unlock()

	r.log.Info("booking cancelled", zap.String("booking_id", bookingID), zap.String("owner_id", ownerID))
	r.publish(ctx, ev)
	r.persist(ctx)
	return nil
}

func (r *Registry) GetBooking(id string) (Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, newError(KindNotFound, "booking %s not found", id)
	}
	return b.clone(), nil
}

// GetBookingByConfirmation ищет по коду без учёта регистра и пробелов по краям.
func (r *Registry) GetBookingByConfirmation(code string) (Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byConfirmation[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Booking{}, newError(KindNotFound, "confirmation %s not found", code)
	}
	return r.bookings[id].clone(), nil
}

// GetOwnedBooking — GetBooking, доступный только владельцу брони.
func (r *Registry) GetOwnedBooking(id, ownerID string) (Booking, error) {
	return ownedBy(ownerID)(r.GetBooking(id))
}

// GetOwnedBookingByConfirmation — GetBookingByConfirmation, доступный только владельцу.
func (r *Registry) GetOwnedBookingByConfirmation(code, ownerID string) (Booking, error) {
	return ownedBy(ownerID)(r.GetBookingByConfirmation(code))
}

func ownedBy(ownerID string) func(Booking, error) (Booking, error) {
	return func(b Booking, err error) (Booking, error) {
		if err != nil {
			return Booking{}, err
		}
		if ownerID == "" || b.OwnerID != ownerID {
			return Booking{}, newError(KindUnauthorized, "booking %s belongs to another client", b.ID)
		}
		return b, nil
	}
}

// GetBookingsForOwner — все брони владельца, новые первыми.
func (r *Registry) GetBookingsForOwner(ownerID string) []Booking {
	r.mu.RLock()
	ids := r.byOwner[ownerID]
	out := make([]Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.bookings[id].clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	st := Stats{Total: len(r.bookings)}
	for _, b := range r.bookings {
		switch b.Status {
		case StatusPending:
			st.Pending++
		case StatusConfirmed:
			st.Confirmed++
		case StatusCancelled:
			st.Cancelled++
		}
	}
	r.mu.RUnlock()

	st.ActiveReservations = r.cal.Ledger().Count()
	st.BookedSlots = r.cal.BookedCount()
	st.SnapshotFailures = r.snapshotFailures.Load()
	return st
}

// GenerateSlots — сетка слотов с живыми статусами.
func (r *Registry) GenerateSlots(startDate, endDate calendar.Date, startTime, endTime calendar.TimeOfDay, intervalMinutes int) []calendar.TimeSlot {
	return r.cal.Slots(startDate, endDate, startTime, endTime, intervalMinutes)
}

// GetAvailableSlots — свободные слоты на daysAhead дней начиная с сегодня,
// без уже начавшихся. Выдаются только слоты рабочей сетки: шаг должен
// совпадать с шагом сетки, а окно [startTime, endTime) лежать на ней.
func (r *Registry) GetAvailableSlots(daysAhead int, startTime, endTime calendar.TimeOfDay, intervalMinutes int) ([]calendar.TimeSlot, error) {
	switch {
	case daysAhead <= 0 || daysAhead > MaxDaysAhead:
		return nil, newError(KindInvalidArgument, "days ahead must be 1..%d", MaxDaysAhead)
	case intervalMinutes != r.grid.IntervalMinutes:
		return nil, newError(KindInvalidArgument, "interval must be %d minutes", r.grid.IntervalMinutes)
	case startTime >= endTime || !r.grid.OnGrid(startTime) || !r.grid.OnGrid(endTime):
		return nil, newError(KindInvalidArgument, "window %s-%s is outside the working grid %s-%s", startTime, endTime, r.grid.Start, r.grid.End)
	}

	today := r.cal.Today()
	slots := r.cal.Slots(today, today.AddDays(daysAhead-1), startTime, endTime, intervalMinutes)
	free := slots[:0]
	for _, s := range slots {
		if s.Status != calendar.StatusAvailable || r.started(s) {
			continue
		}
		free = append(free, s)
	}
	return free, nil
}

// publish ждёт публикатора не дольше publishTimeout, даже если тот
// не следит за контекстом.
func (r *Registry) publish(ctx context.Context, ev events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.publishTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.pub.Publish(ctx, ev) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		r.log.Warn("publish event failed", zap.String("event", string(ev.Type)), zap.String("slot_id", ev.SlotID), zap.Error(err))
	}
}
