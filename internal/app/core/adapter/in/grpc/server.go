package grpc

import (
	"context"
	"io"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

type GrpcServer struct {
	core   *usecase.LedgerEngine
	logger *slog.Logger
}

var _ LedgerServiceServer = (*GrpcServer)(nil)

// NewGrpcServer 建立 gRPC adapter
//
// 參數:
//
//	core: 核心引擎
//	logger: 可為 nil
//
// 回傳:
//
//	*GrpcServer: gRPC adapter
func NewGrpcServer(core *usecase.LedgerEngine, logger *slog.Logger) *GrpcServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GrpcServer{
		core:   core,
		logger: logger,
	}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	initial, err := amountField(req, FieldInitialBalance)
	if err != nil {
		return nil, err
	}
	account, err := s.core.CreateAccount(ctx, domain.CreateAccount{
		Name:           stringField(req, FieldName),
		Email:          stringField(req, FieldEmail),
		InitialBalance: initial,
	})
	if err != nil {
		return nil, s.toStatus(ctx, MethodCreateAccount, err)
	}
	return newStruct(accountValue(account))
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	account, err := s.core.GetAccount(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, MethodGetAccount, err)
	}
	return newStruct(accountValue(account))
}

func (s *GrpcServer) ListAccounts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	accounts, err := s.core.ListAccounts(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, MethodListAccounts, err)
	}
	items := make([]any, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, accountValue(a))
	}
	return newStruct(map[string]any{FieldAccounts: items})
}

func (s *GrpcServer) UpdateAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	account, err := s.core.UpdateAccount(ctx, id, domain.UpdateAccount{
		Name:  optionalStringField(req, FieldName),
		Email: optionalStringField(req, FieldEmail),
	})
	if err != nil {
		return nil, s.toStatus(ctx, MethodUpdateAccount, err)
	}
	return newStruct(accountValue(account))
}

func (s *GrpcServer) DeleteAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	if err := s.core.DeleteAccount(ctx, id); err != nil {
		return nil, s.toStatus(ctx, MethodDeleteAccount, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GrpcServer) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	amount, err := amountField(req, FieldAmount)
	if err != nil {
		return nil, err
	}
	tx, err := s.core.Deposit(ctx, id, amount)
	if err != nil {
		return nil, s.toStatus(ctx, MethodDeposit, err)
	}
	return newStruct(transactionValue(tx))
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	amount, err := amountField(req, FieldAmount)
	if err != nil {
		return nil, err
	}
	tx, err := s.core.Withdraw(ctx, id, amount)
	if err != nil {
		return nil, s.toStatus(ctx, MethodWithdraw, err)
	}
	return newStruct(transactionValue(tx))
}

func (s *GrpcServer) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := postCommand(req)
	if err != nil {
		return nil, err
	}
	tx, err := s.core.Transfer(ctx, cmd.From, cmd.To, cmd.Amount)
	if err != nil {
		return nil, s.toStatus(ctx, MethodTransfer, err)
	}
	return newStruct(transactionValue(tx))
}

// PostTransaction 依 type 欄位分派，存款使用 to_account_id，提款使用 from_account_id
func (s *GrpcServer) PostTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	txType, err := domain.ParseTransactionType(stringField(req, FieldType))
	if err != nil {
		return nil, s.toStatus(ctx, MethodPostTransaction, err)
	}
	cmd, err := postCommand(req)
	if err != nil {
		return nil, err
	}
	cmd.Type = txType
	tx, err := s.core.Post(ctx, cmd)
	if err != nil {
		return nil, s.toStatus(ctx, MethodPostTransaction, err)
	}
	return newStruct(transactionValue(tx))
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	balance, err := s.core.BalanceOf(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, MethodGetBalance, err)
	}
	return newStruct(balanceValue(balance))
}

func (s *GrpcServer) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, FieldAccountID)
	if err != nil {
		return nil, err
	}
	history, err := s.core.HistoryOf(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, MethodGetHistory, err)
	}
	items := make([]any, 0, len(history))
	for _, tx := range history {
		items = append(items, transactionValue(tx))
	}
	return newStruct(map[string]any{
		FieldAccountID:    id.String(),
		FieldTransactions: items,
	})
}

func postCommand(req *structpb.Struct) (domain.PostTransaction, error) {
	from, err := idField(req, FieldFromAccountID)
	if err != nil {
		return domain.PostTransaction{}, err
	}
	to, err := idField(req, FieldToAccountID)
	if err != nil {
		return domain.PostTransaction{}, err
	}
	amount, err := amountField(req, FieldAmount)
	if err != nil {
		return domain.PostTransaction{}, err
	}
	return domain.PostTransaction{From: from, To: to, Amount: amount}, nil
}

// toStatus 將核心錯誤轉為 gRPC status
func (s *GrpcServer) toStatus(ctx context.Context, method string, err error) error {
	code := CodeOf(err)
	if code == codes.Internal {
		s.logger.ErrorContext(ctx, "grpc request failed", "method", method, "error", err)
	}
	return status.Error(code, err.Error())
}

// CodeOf 錯誤種類對應的 gRPC code
func CodeOf(err error) codes.Code {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInvalidArgument, domain.KindInvalidEmail:
		return codes.InvalidArgument
	case domain.KindDuplicateEmail:
		return codes.AlreadyExists
	case domain.KindInsufficientFunds:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
