package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account 帳戶
type Account struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// NewAccount 建立帳戶並產生 ID 與建立時間，不做任何驗證
func NewAccount(name, email string, balance decimal.Decimal, now time.Time) *Account {
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Balance:   balance,
		CreatedAt: now,
	}
}

// Deposit 存款
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw 提款
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: account %s has %s, requested %s", ErrInsufficientBalance, a.ID, a.Balance, amount)
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Adjust 套用 balance += delta，結果不得為負
func (a *Account) Adjust(delta decimal.Decimal) error {
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: account %s has %s, delta %s", ErrInsufficientBalance, a.ID, a.Balance, delta)
	}
	a.Balance = next
	return nil
}

// Balance 餘額查詢結果
type Balance struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
}
