package calendar

import (
	"sync"
	"time"
)

// Clock — источник текущего времени; в тестах подменяется.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SlotState — живое состояние слота. ExpiresAt имеет смысл только для reserved.
type SlotState struct {
	Status    Status
	OwnerID   string
	ExpiresAt time.Time
}

// Available — состояние свободного слота.
func Available() SlotState { return SlotState{Status: StatusAvailable} }

// ReservedBy — ожидаемое/новое состояние удержания.
func ReservedBy(ownerID string, expiresAt time.Time) SlotState {
	return SlotState{Status: StatusReserved, OwnerID: ownerID, ExpiresAt: expiresAt}
}

// BookedBy — ожидаемое/новое состояние брони.
func BookedBy(ownerID string) SlotState {
	return SlotState{Status: StatusBooked, OwnerID: ownerID}
}

// sameAs сравнивает статус и владельца; срок удержания не участвует,
// чтобы продление не ломало ожидания вызывающего.
func (s SlotState) sameAs(o SlotState) bool {
	return s.Status == o.Status && s.OwnerID == o.OwnerID
}

// BookResult — итог Book. PreviousHolder — владелец действующего удержания,
// которое было снято при бронировании (пусто, если удержания не было).
type BookResult struct {
	OK             bool
	PreviousHolder string
	State          SlotState
}

// State — сериализуемый снимок календаря.
type State struct {
	Booked       map[string]string `json:"booked"`
	Reservations []Reservation     `json:"reservations"`
}

// Calendar хранит по каждому slot id ровно одно из состояний
// available / reserved(owner, expiry) / booked(owner).
// Все операции чтения-записи выполняются под одним мьютексом.
type Calendar struct {
	mu     sync.RWMutex
	clock  Clock
	loc    *time.Location
	booked map[string]string
	holds  ledger
}

type Option func(*Calendar)

// WithLocation задаёт пояс, в котором считается "сегодня".
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func New(clock Clock, opts ...Option) *Calendar {
	if clock == nil {
		clock = SystemClock{}
	}
	c := &Calendar{
		clock:  clock,
		loc:    time.UTC,
		booked: make(map[string]string),
		holds:  newLedger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calendar) Now() time.Time { return c.clock.Now() }

func (c *Calendar) Location() *time.Location { return c.loc }

// Today — текущая календарная дата в поясе календаря.
func (c *Calendar) Today() Date { return DateOf(c.clock.Now(), c.loc) }

func (c *Calendar) Ledger() Ledger { return Ledger{c: c} }

// stateLocked — просроченное удержание считается отсутствующим,
// даже если sweep до него ещё не дошёл.
func (c *Calendar) stateLocked(slotID string, now time.Time) SlotState {
	if owner, ok := c.booked[slotID]; ok {
		return BookedBy(owner)
	}
	if r, ok := c.holds.live(slotID, now); ok {
		return ReservedBy(r.OwnerID, r.ExpiresAt)
	}
	return Available()
}

func (c *Calendar) State(slotID string) SlotState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked(slotID, c.clock.Now())
}

// IsAvailable — нет ни брони, ни действующего удержания.
func (c *Calendar) IsAvailable(slotID string) bool {
	return c.State(slotID).Status == StatusAvailable
}

// Reserve ставит или продлевает удержание до now+ttl. Не удаётся, если слот
// забронирован или его держит другой владелец.
func (c *Calendar) Reserve(slotID, ownerID string, ttl time.Duration) (SlotState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	cur := c.stateLocked(slotID, now)
	if ttl <= 0 || ownerID == "" {
		return cur, false
	}
	switch {
	case cur.Status == StatusBooked:
		return cur, false
	case cur.Status == StatusReserved && cur.OwnerID != ownerID:
		return cur, false
	}

	r := Reservation{SlotID: slotID, OwnerID: ownerID, ExpiresAt: now.Add(ttl)}
	c.holds.put(r)
	return ReservedBy(ownerID, r.ExpiresAt), true
}

// Book бронирует слот за ownerID, если он ещё не забронирован. Чужое удержание
// на этом уровне не мешает: решение принимает регистр, которому возвращается
// PreviousHolder.
func (c *Calendar) Book(slotID, ownerID string) BookResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.stateLocked(slotID, c.clock.Now())
	if cur.Status == StatusBooked || ownerID == "" {
		return BookResult{State: cur}
	}

	var prev string
	if cur.Status == StatusReserved {
		prev = cur.OwnerID
	}
	c.holds.drop(slotID)
	c.booked[slotID] = ownerID
	return BookResult{OK: true, PreviousHolder: prev, State: BookedBy(ownerID)}
}

// Cancel освобождает слот, только если он забронирован именно ownerID.
func (c *Calendar) Cancel(slotID, ownerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if owner, ok := c.booked[slotID]; !ok || owner != ownerID {
		return false
	}
	delete(c.booked, slotID)
	return true
}

// Release снимает удержание ownerID. Возвращает текущего держателя,
// если снять не удалось из-за чужого удержания.
func (c *Calendar) Release(slotID, ownerID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.holds.live(slotID, c.clock.Now())
	if !ok {
		return "", false
	}
	if r.OwnerID != ownerID {
		return r.OwnerID, false
	}
	c.holds.drop(slotID)
	return ownerID, true
}

// CompareAndSwap атомарно переводит слот из expected в next и возвращает
// новое состояние. Если текущее состояние отличается от expected (по статусу
// и владельцу), ничего не меняется и возвращается текущее.
func (c *Calendar) CompareAndSwap(slotID string, expected, next SlotState) (SlotState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	cur := c.stateLocked(slotID, now)
	if !cur.sameAs(expected) {
		return cur, false
	}

	switch next.Status {
	case StatusAvailable:
		delete(c.booked, slotID)
		c.holds.drop(slotID)
		return Available(), true
	case StatusReserved:
		if next.OwnerID == "" || !next.ExpiresAt.After(now) {
			return cur, false
		}
		delete(c.booked, slotID)
		c.holds.put(Reservation{SlotID: slotID, OwnerID: next.OwnerID, ExpiresAt: next.ExpiresAt})
		return ReservedBy(next.OwnerID, next.ExpiresAt), true
	case StatusBooked:
		if next.OwnerID == "" {
			return cur, false
		}
		c.holds.drop(slotID)
		c.booked[slotID] = next.OwnerID
		return BookedBy(next.OwnerID), true
	default:
		return cur, false
	}
}

// SweepExpired удаляет все удержания с ExpiresAt <= now и возвращает их.
func (c *Calendar) SweepExpired(now time.Time) []Reservation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holds.sweep(now)
}

// BookedCount — число забронированных слотов.
func (c *Calendar) BookedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.booked)
}

// Slots генерирует сетку и проставляет живые статусы.
func (c *Calendar) Slots(startDate, endDate Date, startTime, endTime TimeOfDay, intervalMinutes int) []TimeSlot {
	return c.Decorate(GenerateSlots(startDate, endDate, startTime, endTime, intervalMinutes))
}

// Decorate проставляет слотам текущие статус и владельца.
func (c *Calendar) Decorate(slots []TimeSlot) []TimeSlot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.Now()
	for i := range slots {
		st := c.stateLocked(slots[i].ID, now)
		slots[i].Status = st.Status
		slots[i].OwnerID = st.OwnerID
	}
	return slots
}

// Export снимает состояние. Просроченные удержания в снимок не попадают.
func (c *Calendar) Export() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	booked := make(map[string]string, len(c.booked))
	for id, owner := range c.booked {
		booked[id] = owner
	}
	return State{Booked: booked, Reservations: c.holds.liveList(c.clock.Now())}
}

// Import заменяет состояние календаря снимком. Удержание на забронированном
// слоте отбрасывается, чтобы слот не оказался одновременно в двух состояниях.
func (c *Calendar) Import(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.booked = make(map[string]string, len(st.Booked))
	for id, owner := range st.Booked {
		c.booked[id] = owner
	}
	c.holds = newLedger()
	now := c.clock.Now()
	for _, r := range st.Reservations {
		if _, booked := c.booked[r.SlotID]; booked || !r.Live(now) {
			continue
		}
		c.holds.put(r)
	}
}
