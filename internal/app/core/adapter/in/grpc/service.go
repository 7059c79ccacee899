package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服務全名
const ServiceName = "ledger.v1.LedgerService"

// 方法名稱
const (
	MethodCreateAccount   = "CreateAccount"
	MethodGetAccount      = "GetAccount"
	MethodListAccounts    = "ListAccounts"
	MethodUpdateAccount   = "UpdateAccount"
	MethodDeleteAccount   = "DeleteAccount"
	MethodDeposit         = "Deposit"
	MethodWithdraw        = "Withdraw"
	MethodTransfer        = "Transfer"
	MethodPostTransaction = "PostTransaction"
	MethodGetBalance      = "GetBalance"
	MethodGetHistory      = "GetHistory"
)

// LedgerServiceServer 所有方法的請求與回應都是 google.protobuf.Struct
type LedgerServiceServer interface {
	CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// LedgerServiceDesc 服務描述，用 RegisterLedgerServiceServer 註冊
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodCreateAccount, LedgerServiceServer.CreateAccount),
		unaryHandler(MethodGetAccount, LedgerServiceServer.GetAccount),
		unaryHandler(MethodListAccounts, LedgerServiceServer.ListAccounts),
		unaryHandler(MethodUpdateAccount, LedgerServiceServer.UpdateAccount),
		unaryHandler(MethodDeleteAccount, LedgerServiceServer.DeleteAccount),
		unaryHandler(MethodDeposit, LedgerServiceServer.Deposit),
		unaryHandler(MethodWithdraw, LedgerServiceServer.Withdraw),
		unaryHandler(MethodTransfer, LedgerServiceServer.Transfer),
		unaryHandler(MethodPostTransaction, LedgerServiceServer.PostTransaction),
		unaryHandler(MethodGetBalance, LedgerServiceServer.GetBalance),
		unaryHandler(MethodGetHistory, LedgerServiceServer.GetHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// RegisterLedgerServiceServer 註冊服務到 grpc.Server
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// FullMethod 回傳 "/ledger.v1.LedgerService/<method>"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(method string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
