package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/calendar"
)

const snapshotVersion = 1

// state — формат снимка. Поле Version меняется при несовместимых правках.
type state struct {
	Version  int            `json:"version"`
	Seq      uint64         `json:"seq"`
	Bookings []Booking      `json:"bookings"`
	Calendar calendar.State `json:"calendar"`
	SavedAt  time.Time      `json:"saved_at"`
}

// Snapshot сериализует брони и календарь одним согласованным срезом.
func (r *Registry) Snapshot() ([]byte, error) {
	r.mu.RLock()
	st := state{
		Version:  snapshotVersion,
		Seq:      r.seq,
		Bookings: make([]Booking, 0, len(r.bookings)),
		Calendar: r.cal.Export(),
		SavedAt:  r.cal.Now().UTC(),
	}
	for _, b := range r.bookings {
		st.Bookings = append(st.Bookings, b.clone())
	}
	r.mu.RUnlock()

	// Порядок по Seq, чтобы одинаковое состояние давало одинаковый снимок.
	sortBySeq(st.Bookings)
	blob, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return blob, nil
}

// Restore загружает снимок из хранилища. Отсутствие снимка не ошибка:
// регистр стартует пустым.
func (r *Registry) Restore(ctx context.Context) error {
	blob, ok, err := r.store.Load(ctx)
	if err != nil {
		return &Error{Kind: KindStorageUnavailable, Message: "load snapshot", Err: err}
	}
	if !ok {
		r.log.Info("no snapshot found, starting empty")
		return nil
	}

	var st state
	if err := json.Unmarshal(blob, &st); err != nil {
		return &Error{Kind: KindStorageUnavailable, Message: "decode snapshot", Err: err}
	}
	if st.Version != snapshotVersion {
		return newError(KindStorageUnavailable, "unsupported snapshot version %d", st.Version)
	}

	r.mu.Lock()
	r.bookings = make(map[string]*Booking, len(st.Bookings))
	r.byConfirmation = make(map[string]string, len(st.Bookings))
	r.byOwner = make(map[string][]string)
	r.seq = st.Seq
	for i := range st.Bookings {
		b := st.Bookings[i]
		r.indexLocked(&b)
		if b.Seq > r.seq {
			r.seq = b.Seq
		}
	}
	r.cal.Import(st.Calendar)
	r.mu.Unlock()

	r.log.Info("snapshot restored",
		zap.Int("bookings", len(st.Bookings)),
		zap.Int("booked_slots", r.cal.BookedCount()),
		zap.Int("reservations", r.cal.Ledger().Count()),
		zap.Time("saved_at", st.SavedAt),
	)
	return nil
}

// persist сохраняет снимок после мутации. Ошибка хранилища не откатывает
// операцию: пишем предупреждение и увеличиваем счётчик сбоев.
func (r *Registry) persist(ctx context.Context) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	blob, err := r.Snapshot()
	if err != nil {
		r.snapshotFailures.Add(1)
		r.log.Error("build snapshot failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
	defer cancel()
	if err := r.store.Save(ctx, blob); err != nil {
		r.snapshotFailures.Add(1)
		r.log.Warn("save snapshot failed", zap.Int("bytes", len(blob)), zap.Error(err))
	}
}

func sortBySeq(bs []Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].Seq < bs[j].Seq })
}
