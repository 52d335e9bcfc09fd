package calendar

import (
	"sort"
	"time"
)

// Reservation — временное удержание слота владельцем до ExpiresAt.
type Reservation struct {
	SlotID    string    `json:"slot_id"`
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Live — удержание действует строго до ExpiresAt.
func (r Reservation) Live(now time.Time) bool { return r.ExpiresAt.After(now) }

// ledger хранит не больше одного удержания на слот.
// Все методы вызываются под мьютексом Calendar.
type ledger struct {
	holds map[string]Reservation
}

func newLedger() ledger {
	return ledger{holds: make(map[string]Reservation)}
}

func (l ledger) live(slotID string, now time.Time) (Reservation, bool) {
	r, ok := l.holds[slotID]
	if !ok || !r.Live(now) {
		return Reservation{}, false
	}
	return r, true
}

func (l ledger) put(r Reservation) { l.holds[r.SlotID] = r }

func (l ledger) drop(slotID string) { delete(l.holds, slotID) }

func (l ledger) sweep(now time.Time) []Reservation {
	var expired []Reservation
	for id, r := range l.holds {
		if !r.Live(now) {
			expired = append(expired, r)
			delete(l.holds, id)
		}
	}
	sortReservations(expired)
	return expired
}

func (l ledger) liveList(now time.Time) []Reservation {
	out := make([]Reservation, 0, len(l.holds))
	for _, r := range l.holds {
		if r.Live(now) {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

func sortReservations(rs []Reservation) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].SlotID < rs[j].SlotID })
}

// Ledger — read-only представление удержаний календаря. Нужен регистру,
// чтобы узнать, кто держит слот, не меняя состояние.
type Ledger struct {
	c *Calendar
}

// Holder возвращает действующее удержание слота, если оно есть.
func (l Ledger) Holder(slotID string) (Reservation, bool) {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()
	return l.c.holds.live(slotID, l.c.clock.Now())
}

// Count — число действующих удержаний (просроченные, но ещё не вычищенные, не считаются).
func (l Ledger) Count() int {
	return len(l.Reservations())
}

// Reservations — действующие удержания, отсортированные по SlotID.
func (l Ledger) Reservations() []Reservation {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()
	return l.c.holds.liveList(l.c.clock.Now())
}
