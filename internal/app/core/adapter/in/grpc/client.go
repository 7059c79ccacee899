package grpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// Client LedgerService 的型別化客戶端
// 回傳的錯誤為 gRPC status，可用 status.Code 判斷
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient 建立客戶端，conn 通常來自 pkg/grpc.Pool
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, name, email string, initialBalance decimal.Decimal) (domain.Account, error) {
	out, err := c.invoke(ctx, MethodCreateAccount, map[string]any{
		FieldName:           name,
		FieldEmail:          email,
		FieldInitialBalance: initialBalance.String(),
	})
	if err != nil {
		return domain.Account{}, err
	}
	return parseAccount(out)
}

func (c *Client) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	out, err := c.invoke(ctx, MethodGetAccount, map[string]any{FieldAccountID: id.String()})
	if err != nil {
		return domain.Account{}, err
	}
	return parseAccount(out)
}

func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	out, err := c.invoke(ctx, MethodListAccounts, map[string]any{})
	if err != nil {
		return nil, err
	}
	items := structList(out, FieldAccounts)
	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		a, err := parseAccount(item)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// UpdateAccount 未設定的欄位不會送出，伺服器端保持原值
func (c *Client) UpdateAccount(ctx context.Context, id uuid.UUID, cmd domain.UpdateAccount) (domain.Account, error) {
	in := map[string]any{FieldAccountID: id.String()}
	if name, ok := cmd.Name.Get(); ok {
		in[FieldName] = name
	}
	if email, ok := cmd.Email.Get(); ok {
		in[FieldEmail] = email
	}
	out, err := c.invoke(ctx, MethodUpdateAccount, in)
	if err != nil {
		return domain.Account{}, err
	}
	return parseAccount(out)
}

func (c *Client) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := c.invoke(ctx, MethodDeleteAccount, map[string]any{FieldAccountID: id.String()})
	return err
}

func (c *Client) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	return c.transaction(ctx, MethodDeposit, map[string]any{
		FieldAccountID: id.String(),
		FieldAmount:    amount.String(),
	})
}

func (c *Client) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	return c.transaction(ctx, MethodWithdraw, map[string]any{
		FieldAccountID: id.String(),
		FieldAmount:    amount.String(),
	})
}

func (c *Client) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal) (domain.Transaction, error) {
	return c.transaction(ctx, MethodTransfer, map[string]any{
		FieldFromAccountID: from.String(),
		FieldToAccountID:   to.String(),
		FieldAmount:        amount.String(),
	})
}

func (c *Client) PostTransaction(ctx context.Context, cmd domain.PostTransaction) (domain.Transaction, error) {
	in := map[string]any{
		FieldType:   cmd.Type.String(),
		FieldAmount: cmd.Amount.String(),
	}
	if cmd.From != uuid.Nil {
		in[FieldFromAccountID] = cmd.From.String()
	}
	if cmd.To != uuid.Nil {
		in[FieldToAccountID] = cmd.To.String()
	}
	return c.transaction(ctx, MethodPostTransaction, in)
}

func (c *Client) GetBalance(ctx context.Context, id uuid.UUID) (domain.Balance, error) {
	out, err := c.invoke(ctx, MethodGetBalance, map[string]any{FieldAccountID: id.String()})
	if err != nil {
		return domain.Balance{}, err
	}
	return parseBalance(out)
}

func (c *Client) GetHistory(ctx context.Context, id uuid.UUID) ([]domain.Transaction, error) {
	out, err := c.invoke(ctx, MethodGetHistory, map[string]any{FieldAccountID: id.String()})
	if err != nil {
		return nil, err
	}
	items := structList(out, FieldTransactions)
	history := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		tx, err := parseTransaction(item)
		if err != nil {
			return nil, err
		}
		history = append(history, tx)
	}
	return history, nil
}

func (c *Client) transaction(ctx context.Context, method string, in map[string]any) (domain.Transaction, error) {
	out, err := c.invoke(ctx, method, in)
	if err != nil {
		return domain.Transaction{}, err
	}
	return parseTransaction(out)
}
