package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccount 建立帳戶指令
type CreateAccount struct {
	Name           string
	Email          string
	InitialBalance decimal.Decimal
}

// UpdateAccount 部分更新指令，未設定或空白的欄位維持原值
type UpdateAccount struct {
	Name  Optional[string]
	Email Optional[string]
}

// PostTransaction 依 Type 分派到存款/提款/轉帳
// 存款只看 To，提款只看 From
type PostTransaction struct {
	Type   TransactionType
	From   uuid.UUID
	To     uuid.UUID
	Amount decimal.Decimal
}
