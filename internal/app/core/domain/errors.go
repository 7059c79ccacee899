package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// 錯誤種類的根 sentinel，邊界層 (gRPC / HTTP) 依此對應狀態碼
var (
	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidArgument 參數錯誤
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidEmail email 格式或網域不合法
	ErrInvalidEmail = errors.New("invalid email")

	// ErrDuplicateEmail email 已被其他帳戶使用
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInternal 非預期錯誤
	ErrInternal = errors.New("internal error")
)

// 具體的參數錯誤，皆包裝 ErrInvalidArgument
var (
	ErrAmountMustBePositive   = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrNegativeInitialBalance = fmt.Errorf("%w: initial balance must be non-negative", ErrInvalidArgument)
	ErrMissingAccountID       = fmt.Errorf("%w: account id is required", ErrInvalidArgument)
	ErrSameAccount            = fmt.Errorf("%w: source and destination accounts cannot be the same", ErrInvalidArgument)
	ErrEmptyName              = fmt.Errorf("%w: account name cannot be empty", ErrInvalidArgument)
	ErrEmptyEmail             = fmt.Errorf("%w: account email cannot be empty", ErrInvalidArgument)
	ErrUnknownTransactionType = fmt.Errorf("%w: unknown transaction type", ErrInvalidArgument)

	// ErrLedgerNotRunning 交易帳本未啟動或已關閉
	ErrLedgerNotRunning = fmt.Errorf("%w: transaction ledger is not running", ErrInternal)
)

// Kind 錯誤分類
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindInvalidEmail
	KindDuplicateEmail
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidEmail:
		return "InvalidEmail"
	case KindDuplicateEmail:
		return "DuplicateEmail"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	default:
		return "Internal"
	}
}

// KindOf 將任意錯誤歸類，無法辨識者一律視為 KindInternal
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidEmail):
		return KindInvalidEmail
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientFunds
	default:
		return KindInternal
	}
}

// AccountNotFound 回傳附上帳戶 ID 的 NotFound 錯誤
func AccountNotFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
}
