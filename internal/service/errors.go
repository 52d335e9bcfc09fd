package service

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/booking"
)

func codeFor(kind booking.Kind) codes.Code {
	switch kind {
	case booking.KindValidationFailed, booking.KindInvalidArgument:
		return codes.InvalidArgument
	case booking.KindSlotUnavailable:
		return codes.AlreadyExists
	case booking.KindReservedByOther, booking.KindAlreadyCancelled:
		return codes.FailedPrecondition
	case booking.KindBookingConflict:
		return codes.Aborted
	case booking.KindNotFound:
		return codes.NotFound
	case booking.KindUnauthorized:
		return codes.PermissionDenied
	case booking.KindStorageUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus переводит ошибку регистра в gRPC-статус. Для ошибок валидации
// нарушения по полям кладутся в details как Struct {"kind", "fields"}.
func toStatus(err error) error {
	var be *booking.Error
	if !errors.As(err, &be) {
		return status.Errorf(codes.Internal, "internal: %v", err)
	}

	st := status.New(codeFor(be.Kind), be.Error())
	if len(be.Fields) == 0 {
		return st.Err()
	}

	detail, derr := toStruct(map[string]any{"kind": be.Kind, "fields": be.Fields})
	if derr != nil {
		return st.Err()
	}
	withDetails, derr := st.WithDetails(detail)
	if derr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// FieldErrorsFromStatus достаёт нарушения валидации из details статуса.
func FieldErrorsFromStatus(err error) []map[string]any {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		for _, f := range s.GetFields()["fields"].GetListValue().GetValues() {
			out = append(out, f.GetStructValue().AsMap())
		}
	}
	return out
}
