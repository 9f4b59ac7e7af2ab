package ledger

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "spinvault.ledger.v1.LedgerService"

// Method names.
const (
	MethodPlay            = "Play"
	MethodMint            = "Mint"
	MethodTransfer        = "Transfer"
	MethodProposeSwap     = "ProposeSwap"
	MethodAcceptSwap      = "AcceptSwap"
	MethodCancelSwap      = "CancelSwap"
	MethodRejectSwap      = "RejectSwap"
	MethodGetCollectible  = "GetCollectible"
	MethodGetProvenance   = "GetProvenance"
	MethodListInventory   = "ListInventory"
	MethodGetAccount      = "GetAccount"
	MethodGetRules        = "GetRules"
	MethodGetGame         = "GetGame"
	MethodListPlayerGames = "ListPlayerGames"
	MethodGetSwap         = "GetSwap"
	MethodListSwaps       = "ListSwaps"
	MethodGetReservation  = "GetReservation"
	MethodWatchEvents     = "WatchEvents"
)

// FullMethod returns the "/service/method" path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// EventStream is the server side of WatchEvents.
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

// LedgerServer is the server API for the ledger service. Requests and
// responses are google.protobuf.Struct documents.
type LedgerServer interface {
	Play(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Mint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProposeSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcceptSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCollectible(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProvenance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInventory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlayerGames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSwap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSwaps(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, EventStream) error
}

type unaryCall func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

type watchEventsServer struct {
	grpc.ServerStream
}

func (s *watchEventsServer) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LedgerServer).WatchEvents(in, &watchEventsServer{stream})
}

// ServiceDesc describes the ledger service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPlay, LedgerServer.Play),
		unary(MethodMint, LedgerServer.Mint),
		unary(MethodTransfer, LedgerServer.Transfer),
		unary(MethodProposeSwap, LedgerServer.ProposeSwap),
		unary(MethodAcceptSwap, LedgerServer.AcceptSwap),
		unary(MethodCancelSwap, LedgerServer.CancelSwap),
		unary(MethodRejectSwap, LedgerServer.RejectSwap),
		unary(MethodGetCollectible, LedgerServer.GetCollectible),
		unary(MethodGetProvenance, LedgerServer.GetProvenance),
		unary(MethodListInventory, LedgerServer.ListInventory),
		unary(MethodGetAccount, LedgerServer.GetAccount),
		unary(MethodGetRules, LedgerServer.GetRules),
		unary(MethodGetGame, LedgerServer.GetGame),
		unary(MethodListPlayerGames, LedgerServer.ListPlayerGames),
		unary(MethodGetSwap, LedgerServer.GetSwap),
		unary(MethodListSwaps, LedgerServer.ListSwaps),
		unary(MethodGetReservation, LedgerServer.GetReservation),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatchEvents,
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
