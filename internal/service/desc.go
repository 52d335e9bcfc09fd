package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "booking.v1.BookingService"

// BookingServer — контракт gRPC-сервиса. Запросы и ответы передаются как
// google.protobuf.Struct, поэтому сгенерированный код не нужен.
type BookingServer interface {
	ValidateContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAvailableSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReserveSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ReleaseReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBookingByConfirmation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListOwnerBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(BookingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ValidateContact", BookingServer.ValidateContact),
		unary("ListAvailableSlots", BookingServer.ListAvailableSlots),
		unary("ReserveSlot", BookingServer.ReserveSlot),
		unary("ReleaseReservation", BookingServer.ReleaseReservation),
		unary("CreateBooking", BookingServer.CreateBooking),
		unary("CancelBooking", BookingServer.CancelBooking),
		unary("GetBooking", BookingServer.GetBooking),
		unary("GetBookingByConfirmation", BookingServer.GetBookingByConfirmation),
		unary("ListOwnerBookings", BookingServer.ListOwnerBookings),
		unary("GetStats", BookingServer.GetStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

func RegisterBookingServer(s grpc.ServiceRegistrar, srv BookingServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

// BookingClient — тонкий клиент для тех же методов.
type BookingClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingClient(cc grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{cc: cc}
}

// Call вызывает метод по короткому имени, например "ReserveSlot".
func (c *BookingClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
