package service

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/booking"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/validation"
)

type BookingService struct {
	reg      *booking.Registry
	defaults booking.SlotQuery
	log      *zap.Logger
}

func NewBookingService(reg *booking.Registry, defaults booking.SlotQuery, log *zap.Logger) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{reg: reg, defaults: defaults, log: log}
}

var _ BookingServer = (*BookingService)(nil)

func ownerFrom(req *structpb.Struct) (string, error) {
	owner, err := validation.NormalizeOwnerID(stringField(req, "owner_id"))
	if err != nil {
		return "", status.Error(codes.InvalidArgument, "owner_id is required")
	}
	return owner, nil
}

func requireField(req *structpb.Struct, key string) (string, error) {
	v := stringField(req, key)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

// ValidateContact проверяет контакт без побочных эффектов.
func (s *BookingService) ValidateContact(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var info validation.ContactInfo
	if err := fromStruct(req, &info); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return toStruct(s.reg.ValidateContact(info))
}

func (s *BookingService) ListAvailableSlots(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q := booking.SlotQuery{
		DaysAhead:       intField(req, "days_ahead"),
		IntervalMinutes: intField(req, "interval_minutes"),
	}
	if start, end := stringField(req, "start_time"), stringField(req, "end_time"); start != "" || end != "" {
		var err error
		if q.Start, err = calendar.ParseTimeOfDay(start); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "start_time: %v", err)
		}
		if q.End, err = calendar.ParseTimeOfDay(end); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "end_time: %v", err)
		}
	}

	slots, err := s.reg.AvailableSlots(q.Or(s.defaults))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"slots": slots, "total": len(slots)})
}

func (s *BookingService) ReserveSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	slotID, err := requireField(req, "slot_id")
	if err != nil {
		return nil, err
	}

	res, err := s.reg.ReserveSlot(ctx, slotID, owner)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

func (s *BookingService) ReleaseReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	slotID, err := requireField(req, "slot_id")
	if err != nil {
		return nil, err
	}

	if err := s.reg.ReleaseReservation(ctx, slotID, owner); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"released": true, "slot_id": slotID})
}

func (s *BookingService) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	slotID, err := requireField(req, "slot_id")
	if err != nil {
		return nil, err
	}

	var body struct {
		Contact validation.ContactInfo `json:"contact"`
	}
	if err := fromStruct(req, &body); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	conf, err := s.reg.CreateBooking(ctx, body.Contact, slotID, owner)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(conf)
}

func (s *BookingService) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	id, err := requireField(req, "booking_id")
	if err != nil {
		return nil, err
	}

	if err := s.reg.CancelBooking(ctx, id, owner); err != nil {
		return nil, toStatus(err)
	}
	b, err := s.reg.GetBooking(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(b)
}

// GetBooking отдаёт бронь только её владельцу.
func (s *BookingService) GetBooking(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	id, err := requireField(req, "booking_id")
	if err != nil {
		return nil, err
	}
	b, err := s.reg.GetOwnedBooking(id, owner)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(b)
}

func (s *BookingService) GetBookingByConfirmation(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	code, err := requireField(req, "confirmation_id")
	if err != nil {
		return nil, err
	}
	b, err := s.reg.GetOwnedBookingByConfirmation(code, owner)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(b)
}

// ListOwnerBookings — брони владельца, новые первыми, с пагинацией.
func (s *BookingService) ListOwnerBookings(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := ownerFrom(req)
	if err != nil {
		return nil, err
	}
	all := s.reg.GetBookingsForOwner(owner)
	return toStruct(calendar.Paginate(all, intField(req, "page"), intField(req, "page_size")))
}

func (s *BookingService) GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.reg.GetStats())
}
