package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/validation"
)

// FlowState — шаг клиентского сценария бронирования.
type FlowState string

const (
	FlowContact      FlowState = "contact"
	FlowCalendar     FlowState = "calendar"
	FlowConfirmation FlowState = "confirmation"
	FlowCompleted    FlowState = "completed"
)

type FlowEvent string

const (
	EventContactSubmitted FlowEvent = "contact_submitted"
	EventSlotSelected     FlowEvent = "slot_selected"
	EventBookingConfirmed FlowEvent = "booking_confirmed"
	EventBack             FlowEvent = "back"
	EventReset            FlowEvent = "reset"
)

var ErrInvalidTransition = errors.New("invalid flow transition")

type flowKey struct {
	from  FlowState
	event FlowEvent
}

var flowTransitions = map[flowKey]FlowState{
	{FlowContact, EventContactSubmitted}:      FlowCalendar,
	{FlowCalendar, EventSlotSelected}:         FlowConfirmation,
	{FlowCalendar, EventBack}:                 FlowContact,
	{FlowConfirmation, EventBookingConfirmed}: FlowCompleted,
	{FlowConfirmation, EventBack}:             FlowCalendar,
	{FlowContact, EventReset}:                 FlowContact,
	{FlowCalendar, EventReset}:                FlowContact,
	{FlowConfirmation, EventReset}:            FlowContact,
	{FlowCompleted, EventReset}:               FlowContact,
}

// NextFlowState — чистая функция перехода; неизвестная пара отклоняется.
func NextFlowState(from FlowState, ev FlowEvent) (FlowState, error) {
	to, ok := flowTransitions[flowKey{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// Flow — сценарий одного клиента: текущий шаг и собранные данные.
// Back сохраняет введённое, Reset очищает всё.
type Flow struct {
	mu           sync.Mutex
	state        FlowState
	contact      validation.ContactInfo
	slotID       string
	confirmation *Confirmation
}

func NewFlow() *Flow {
	return &Flow{state: FlowContact}
}

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Contact() validation.ContactInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contact
}

func (f *Flow) SlotID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotID
}

// Confirmation — итог сценария; nil, пока бронь не подтверждена.
func (f *Flow) Confirmation() *Confirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmation == nil {
		return nil
	}
	c := *f.confirmation
	return &c
}

// Fire применяет событие без данных (back, reset).
func (f *Flow) Fire(ev FlowEvent) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fireLocked(ev)
}

func (f *Flow) fireLocked(ev FlowEvent) (FlowState, error) {
	next, err := NextFlowState(f.state, ev)
	if err != nil {
		return f.state, err
	}
	if ev == EventReset {
		f.contact = validation.ContactInfo{}
		f.slotID = ""
		f.confirmation = nil
	}
	f.state = next
	return next, nil
}

// SubmitContact принимает контакт только если он проходит валидацию.
func (f *Flow) SubmitContact(info validation.ContactInfo) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := NextFlowState(f.state, EventContactSubmitted); err != nil {
		return f.state, err
	}
	if res := validation.ValidateContact(info); !res.Valid {
		return f.state, &Error{Kind: KindValidationFailed, Message: "contact is invalid", Fields: res.Errors}
	}
	f.contact = info
	return f.fireLocked(EventContactSubmitted)
}

func (f *Flow) SelectSlot(slotID string) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := NextFlowState(f.state, EventSlotSelected); err != nil {
		return f.state, err
	}
	if _, _, err := calendar.ParseSlotID(slotID); err != nil {
		return f.state, &Error{Kind: KindInvalidArgument, Message: "malformed slot id", Err: err}
	}
	f.slotID = slotID
	return f.fireLocked(EventSlotSelected)
}

// Confirm создаёт бронь в регистре по собранным данным и завершает сценарий.
func (f *Flow) Confirm(ctx context.Context, r *Registry, ownerID string) (Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := NextFlowState(f.state, EventBookingConfirmed); err != nil {
		return Confirmation{}, err
	}
	conf, err := r.CreateBooking(ctx, f.contact, f.slotID, ownerID)
	if err != nil {
		return Confirmation{}, err
	}
	f.confirmation = &conf
	if _, err := f.fireLocked(EventBookingConfirmed); err != nil {
		return Confirmation{}, err
	}
	return conf, nil
}
