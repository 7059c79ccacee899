package grpc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// Struct 欄位名稱
const (
	FieldAccountID      = "account_id"
	FieldName           = "name"
	FieldEmail          = "email"
	FieldBalance        = "balance"
	FieldInitialBalance = "initial_balance"
	FieldCreatedAt      = "created_at"
	FieldAccounts       = "accounts"

	FieldTransactionID = "transaction_id"
	FieldFromAccountID = "from_account_id"
	FieldToAccountID   = "to_account_id"
	FieldAmount        = "amount"
	FieldTimestamp     = "timestamp"
	FieldType          = "type"
	FieldTransactions  = "transactions"
)

// ---- 請求解析 ----

// idField 讀取 id 欄位，缺少或空字串時回傳 uuid.Nil 交由核心判斷
func idField(in *structpb.Struct, key string) (uuid.UUID, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return uuid.Nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return uuid.Nil, nil
	case *structpb.Value_StringValue:
		if kind.StringValue == "" {
			return uuid.Nil, nil
		}
		id, err := uuid.Parse(kind.StringValue)
		if err != nil {
			return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
		}
		return id, nil
	default:
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s: must be a string", key)
	}
}

// amountField 讀取金額，接受字串 ("12.50") 或數字；缺少時為 0
func amountField(in *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: must be a decimal string", key)
	}
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// optionalStringField 欄位存在且為字串時才視為有設定
func optionalStringField(in *structpb.Struct, key string) domain.Optional[string] {
	v, ok := in.GetFields()[key]
	if !ok {
		return domain.None[string]()
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return domain.None[string]()
	}
	return domain.Some(s.StringValue)
}

// ---- 回應組裝 ----

func accountValue(a domain.Account) map[string]any {
	return map[string]any{
		FieldAccountID: a.ID.String(),
		FieldName:      a.Name,
		FieldEmail:     a.Email,
		FieldBalance:   a.Balance.String(),
		FieldCreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func nullableID(id uuid.NullUUID) any {
	if !id.Valid {
		return nil
	}
	return id.UUID.String()
}

func transactionValue(tx domain.Transaction) map[string]any {
	return map[string]any{
		FieldTransactionID: tx.ID.String(),
		FieldFromAccountID: nullableID(tx.From),
		FieldToAccountID:   nullableID(tx.To),
		FieldAmount:        tx.Amount.String(),
		FieldTimestamp:     tx.Timestamp.UTC().Format(time.RFC3339Nano),
		FieldType:          tx.Type.String(),
	}
}

func balanceValue(b domain.Balance) map[string]any {
	return map[string]any{
		FieldAccountID: b.AccountID.String(),
		FieldBalance:   b.Balance.String(),
	}
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// ---- 回應解析 (Client 使用) ----

func parseAccount(s *structpb.Struct) (domain.Account, error) {
	id, err := uuid.Parse(stringField(s, FieldAccountID))
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account_id: %w", err)
	}
	balance, err := decimal.NewFromString(stringField(s, FieldBalance))
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode balance: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stringField(s, FieldCreatedAt))
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode created_at: %w", err)
	}
	return domain.Account{
		ID:        id,
		Name:      stringField(s, FieldName),
		Email:     stringField(s, FieldEmail),
		Balance:   balance,
		CreatedAt: createdAt,
	}, nil
}

func parseNullableID(s *structpb.Struct, key string) (uuid.NullUUID, error) {
	raw := stringField(s, key)
	if raw == "" {
		return domain.NoID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.NoID, fmt.Errorf("decode %s: %w", key, err)
	}
	return domain.SomeID(id), nil
}

func parseTransaction(s *structpb.Struct) (domain.Transaction, error) {
	id, err := uuid.Parse(stringField(s, FieldTransactionID))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decode transaction_id: %w", err)
	}
	from, err := parseNullableID(s, FieldFromAccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	to, err := parseNullableID(s, FieldToAccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	amount, err := decimal.NewFromString(stringField(s, FieldAmount))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decode amount: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, stringField(s, FieldTimestamp))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("decode timestamp: %w", err)
	}
	txType, err := domain.ParseTransactionType(stringField(s, FieldType))
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: ts,
		Type:      txType,
	}, nil
}

func parseBalance(s *structpb.Struct) (domain.Balance, error) {
	id, err := uuid.Parse(stringField(s, FieldAccountID))
	if err != nil {
		return domain.Balance{}, fmt.Errorf("decode account_id: %w", err)
	}
	balance, err := decimal.NewFromString(stringField(s, FieldBalance))
	if err != nil {
		return domain.Balance{}, fmt.Errorf("decode balance: %w", err)
	}
	return domain.Balance{AccountID: id, Balance: balance}, nil
}

// structList 取出 list 欄位中的每個 Struct
func structList(s *structpb.Struct, key string) []*structpb.Struct {
	values := s.GetFields()[key].GetListValue().GetValues()
	out := make([]*structpb.Struct, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStructValue())
	}
	return out
}
