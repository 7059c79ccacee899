package domain

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(10)

	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{"deposit", Transaction{To: SomeID(a), Amount: amount, Type: TransactionTypeDeposit}, false},
		{"deposit with source", Transaction{From: SomeID(b), To: SomeID(a), Amount: amount, Type: TransactionTypeDeposit}, true},
		{"withdrawal", Transaction{From: SomeID(a), Amount: amount, Type: TransactionTypeWithdrawal}, false},
		{"withdrawal with destination", Transaction{From: SomeID(a), To: SomeID(b), Amount: amount, Type: TransactionTypeWithdrawal}, true},
		{"transfer", Transaction{From: SomeID(a), To: SomeID(b), Amount: amount, Type: TransactionTypeTransfer}, false},
		{"transfer missing destination", Transaction{From: SomeID(a), Amount: amount, Type: TransactionTypeTransfer}, true},
		{"transfer to self", Transaction{From: SomeID(a), To: SomeID(a), Amount: amount, Type: TransactionTypeTransfer}, true},
		{"zero amount", Transaction{To: SomeID(a), Amount: decimal.Zero, Type: TransactionTypeDeposit}, true},
		{"unknown type", Transaction{To: SomeID(a), Amount: amount}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransaction_TouchesAndLockIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	tx := Transaction{From: SomeID(a), To: SomeID(b), Type: TransactionTypeTransfer}

	assert.True(t, tx.Touches(a))
	assert.True(t, tx.Touches(b))
	assert.False(t, tx.Touches(c))

	ids := tx.LockIDs()
	require.Len(t, ids, 2)
	assert.Negative(t, bytes.Compare(ids[0][:], ids[1][:]))

	deposit := Transaction{To: SomeID(c), Type: TransactionTypeDeposit}
	assert.Equal(t, []uuid.UUID{c}, deposit.LockIDs())
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{
		"DEPOSIT":    TransactionTypeDeposit,
		"withdrawal": TransactionTypeWithdrawal,
		"Withdraw":   TransactionTypeWithdrawal,
		" transfer ": TransactionTypeTransfer,
	} {
		got, err := ParseTransactionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseTransactionType("REFUND")
	assert.ErrorIs(t, err, ErrUnknownTransactionType)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	assert.Equal(t, "WITHDRAWAL", TransactionTypeWithdrawal.String())
}
