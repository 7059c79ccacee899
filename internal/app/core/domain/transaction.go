package domain

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType 交易類型
// 為了極致節省記憶體，使用 uint8
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdrawal TransactionType = 2
	// 轉帳
	TransactionTypeTransfer TransactionType = 3
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEPOSIT"
	case TransactionTypeWithdrawal:
		return "WITHDRAWAL"
	case TransactionTypeTransfer:
		return "TRANSFER"
	default:
		return fmt.Sprintf("TransactionType(%d)", uint8(t))
	}
}

// ParseTransactionType 由名稱 (不分大小寫) 解析交易類型
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEPOSIT":
		return TransactionTypeDeposit, nil
	case "WITHDRAWAL", "WITHDRAW":
		return TransactionTypeWithdrawal, nil
	case "TRANSFER":
		return TransactionTypeTransfer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
}

// Transaction 交易紀錄，建立後不可變更
type Transaction struct {
	// Sequence: 帳本分配的遞增插入序號，同一時間戳時用來決定先後
	Sequence uint64
	// ID: 交易 ID
	ID uuid.UUID
	// From, To: 帳戶 ID，存款沒有 From，提款沒有 To
	From uuid.NullUUID
	To   uuid.NullUUID
	// Amount: 金額，必為正數
	Amount decimal.Decimal
	// Timestamp: 交易時間
	Timestamp time.Time
	Type      TransactionType
}

// Validate 檢查 From/To 與交易類型是否相符
//
// 回傳:
//
//	error: 不符合時回傳 ErrInvalidArgument 類錯誤
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	switch t.Type {
	case TransactionTypeDeposit:
		if t.From.Valid || !t.To.Valid {
			return fmt.Errorf("%w: deposit requires only a destination account", ErrInvalidArgument)
		}
	case TransactionTypeWithdrawal:
		if !t.From.Valid || t.To.Valid {
			return fmt.Errorf("%w: withdrawal requires only a source account", ErrInvalidArgument)
		}
	case TransactionTypeTransfer:
		if !t.From.Valid || !t.To.Valid {
			return fmt.Errorf("%w: transfer requires both accounts", ErrInvalidArgument)
		}
		if t.From.UUID == t.To.UUID {
			return ErrSameAccount
		}
	default:
		return ErrUnknownTransactionType
	}
	return nil
}

// Touches 回傳此交易是否涉及指定帳戶
func (t *Transaction) Touches(accountID uuid.UUID) bool {
	return (t.From.Valid && t.From.UUID == accountID) || (t.To.Valid && t.To.UUID == accountID)
}

// LockIDs 回傳需要鎖定的帳號 ID，並確保順序以避免死鎖
func (t *Transaction) LockIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if t.From.Valid {
		ids = append(ids, t.From.UUID)
	}
	if t.To.Valid {
		ids = append(ids, t.To.UUID)
	}
	return CanonicalOrder(ids)
}

// CanonicalOrder 依位元組順序排序 ID (原地排序並回傳)
// 所有需要同時鎖多個帳戶的地方都必須依這個順序上鎖
func CanonicalOrder(ids []uuid.UUID) []uuid.UUID {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// SomeID 將 ID 包成存在的可選參考
func SomeID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

// NoID 不存在的可選參考
var NoID = uuid.NullUUID{}
