package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// AccountCreationRequest POST /api/accounts
type AccountCreationRequest struct {
	AccountName    string           `json:"accountName" validate:"required"`
	AccountEmail   string           `json:"accountEmail" validate:"required"`
	InitialBalance *decimal.Decimal `json:"initialBalance" validate:"required"`
}

// AccountUpdateRequest PUT /api/accounts/:id，nil 欄位保持原值
type AccountUpdateRequest struct {
	AccountName  *string `json:"accountName"`
	AccountEmail *string `json:"accountEmail"`
}

// TransactionRequest 存款 / 提款
// 帳戶以 toAccountId 指定，accountId 為別名
type TransactionRequest struct {
	AccountID   string           `json:"accountId" validate:"omitempty,uuid"`
	ToAccountID string           `json:"toAccountId" validate:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
}

// TransferRequest POST /api/transactions/transfer
type TransferRequest struct {
	FromAccountID string           `json:"fromAccountId" validate:"omitempty,uuid"`
	ToAccountID   string           `json:"toAccountId" validate:"omitempty,uuid"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
}

type AccountResponse struct {
	AccountID      string          `json:"accountId"`
	AccountName    string          `json:"accountName"`
	AccountEmail   string          `json:"accountEmail"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type AccountBalanceResponse struct {
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	FromAccountID *string         `json:"fromAccountId"`
	ToAccountID   *string         `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          string          `json:"type"`
}

func toAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      a.ID.String(),
		AccountName:    a.Name,
		AccountEmail:   a.Email,
		AccountBalance: a.Balance,
		CreatedAt:      a.CreatedAt.UTC(),
	}
}

func toTransactionResponse(tx domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        tx.ID.String(),
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp.UTC(),
		Type:      tx.Type.String(),
	}
	if tx.From.Valid {
		from := tx.From.UUID.String()
		resp.FromAccountID = &from
	}
	if tx.To.Valid {
		to := tx.To.UUID.String()
		resp.ToAccountID = &to
	}
	return resp
}

func optional(s *string) domain.Optional[string] {
	if s == nil {
		return domain.None[string]()
	}
	return domain.Some(*s)
}
