package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// countingLedger 紀錄 Record 呼叫次數的 MutexLedger
type countingLedger struct {
	*memory.MutexLedger
	mu    sync.Mutex
	calls int
}

func (c *countingLedger) Record(ctx context.Context, from, to uuid.NullUUID, amount decimal.Decimal, txType domain.TransactionType) (domain.Transaction, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.MutexLedger.Record(ctx, from, to, amount, txType)
}

// failingLedger Record 永遠失敗
type failingLedger struct {
	*memory.MutexLedger
}

func (failingLedger) Record(context.Context, uuid.NullUUID, uuid.NullUUID, decimal.Decimal, domain.TransactionType) (domain.Transaction, error) {
	return domain.Transaction{}, domain.ErrLedgerNotRunning
}

type recordedOp struct {
	op, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *fakeRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{op, outcome})
}

// EngineSuite 以兩種帳本實作跑同一組情境
type EngineSuite struct {
	suite.Suite
	mode   string
	store  *memory.AccountStore
	ledger usecase.TransactionLedger
	engine *usecase.LedgerEngine
	ctx    context.Context
	cancel context.CancelFunc
}

func TestEngineSuite_Mutex(t *testing.T) {
	suite.Run(t, &EngineSuite{mode: "mutex"})
}

func TestEngineSuite_LMAX(t *testing.T) {
	suite.Run(t, &EngineSuite{mode: "lmax"})
}

func (s *EngineSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.store = memory.NewAccountStore()
	switch s.mode {
	case "lmax":
		l := memory.NewLMAXLedger()
		l.Start(s.ctx)
		s.ledger = l
	default:
		s.ledger = memory.NewMutexLedger()
	}
	s.engine = usecase.NewLedgerEngine(s.store, s.ledger)
}

func (s *EngineSuite) TearDownTest() {
	s.cancel()
	if l, ok := s.ledger.(*memory.LMAXLedger); ok {
		<-l.Done()
	}
}

func (s *EngineSuite) create(name, email, balance string) domain.Account {
	a, err := s.engine.CreateAccount(context.Background(), domain.CreateAccount{
		Name:           name,
		Email:          email,
		InitialBalance: dec(balance),
	})
	s.Require().NoError(err)
	return a
}

func (s *EngineSuite) balance(id uuid.UUID) string {
	b, err := s.engine.BalanceOf(context.Background(), id)
	s.Require().NoError(err)
	return b.Balance.String()
}

func (s *EngineSuite) history(id uuid.UUID) []domain.Transaction {
	h, err := s.engine.HistoryOf(context.Background(), id)
	s.Require().NoError(err)
	return h
}

func (s *EngineSuite) TestTransferMovesFunds() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "1000.00")
	b := s.create("B", "b@gmail.com", "500.00")

	tx, err := s.engine.Transfer(ctx, a.ID, b.ID, dec("200.00"))
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeTransfer, tx.Type)
	s.Equal(domain.SomeID(a.ID), tx.From)
	s.Equal(domain.SomeID(b.ID), tx.To)
	s.True(tx.Amount.Equal(dec("200.00")))

	s.Equal("800", s.balance(a.ID))
	s.Equal("700", s.balance(b.ID))
	s.Len(s.history(a.ID), 1)
	s.Len(s.history(b.ID), 1)
}

func (s *EngineSuite) TestTransferInsufficientFunds() {
	a := s.create("A", "a@gmail.com", "1000.00")
	b := s.create("B", "b@gmail.com", "0")

	_, err := s.engine.Transfer(context.Background(), a.ID, b.ID, dec("2000.00"))
	s.ErrorIs(err, domain.ErrInsufficientBalance)
	s.Equal(domain.KindInsufficientFunds, domain.KindOf(err))

	s.Equal("1000", s.balance(a.ID))
	s.Equal("0", s.balance(b.ID))
	s.Empty(s.history(a.ID))
	s.Empty(s.history(b.ID))
}

func (s *EngineSuite) TestCreateUnsupportedDomain() {
	_, err := s.engine.CreateAccount(context.Background(), domain.CreateAccount{Name: "X", Email: "x@unknownmail.com"})
	s.Equal(domain.KindInvalidEmail, domain.KindOf(err))
	s.Contains(err.Error(), "email domain is not supported: unknownmail.com")
}

func (s *EngineSuite) TestCreateDuplicateEmail() {
	s.create("Dup", "Dup@Gmail.com", "0")
	s.create("Other", "other@gmail.com", "0")

	_, err := s.engine.CreateAccount(context.Background(), domain.CreateAccount{Name: "Third", Email: "dup@gmail.com"})
	s.Equal(domain.KindDuplicateEmail, domain.KindOf(err))
}

func (s *EngineSuite) TestDepositNegativeAmount() {
	a := s.create("A", "a@gmail.com", "10")

	_, err := s.engine.Deposit(context.Background(), a.ID, dec("-10.00"))
	s.Equal(domain.KindInvalidArgument, domain.KindOf(err))
	s.Equal("10", s.balance(a.ID))
	s.Empty(s.history(a.ID))
}

func (s *EngineSuite) TestWithdrawUnknownAccount() {
	_, err := s.engine.Withdraw(context.Background(), uuid.New(), dec("1"))
	s.Equal(domain.KindNotFound, domain.KindOf(err))
}

func (s *EngineSuite) TestDepositAndWithdrawRecords() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "0")

	deposit, err := s.engine.Deposit(ctx, a.ID, dec("50.25"))
	s.Require().NoError(err)
	s.False(deposit.From.Valid)
	s.Equal(domain.SomeID(a.ID), deposit.To)

	_, err = s.engine.Withdraw(ctx, a.ID, dec("60"))
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	withdrawal, err := s.engine.Withdraw(ctx, a.ID, dec("50.25"))
	s.Require().NoError(err)
	s.Equal(domain.SomeID(a.ID), withdrawal.From)
	s.False(withdrawal.To.Valid)

	s.Equal("0", s.balance(a.ID))
	history := s.history(a.ID)
	s.Require().Len(history, 2)
	s.Equal(withdrawal.ID, history[0].ID)
	s.Equal(deposit.ID, history[1].ID)
}

func (s *EngineSuite) TestArgumentValidation() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "10")

	_, err := s.engine.Deposit(ctx, uuid.Nil, dec("1"))
	s.ErrorIs(err, domain.ErrMissingAccountID)
	_, err = s.engine.Withdraw(ctx, a.ID, decimal.Zero)
	s.ErrorIs(err, domain.ErrAmountMustBePositive)
	_, err = s.engine.Transfer(ctx, a.ID, uuid.Nil, dec("1"))
	s.ErrorIs(err, domain.ErrMissingAccountID)
	_, err = s.engine.Transfer(ctx, a.ID, a.ID, dec("1"))
	s.ErrorIs(err, domain.ErrSameAccount)

	// 金額錯誤優先於帳戶不存在
	_, err = s.engine.Deposit(ctx, uuid.New(), dec("-1"))
	s.Equal(domain.KindInvalidArgument, domain.KindOf(err))
}

func (s *EngineSuite) TestTransferSourceCheckedFirst() {
	ctx := context.Background()
	b := s.create("B", "b@gmail.com", "10")
	missingFrom, missingTo := uuid.New(), uuid.New()

	_, err := s.engine.Transfer(ctx, missingFrom, missingTo, dec("1"))
	s.ErrorIs(err, domain.ErrAccountNotFound)
	s.Contains(err.Error(), missingFrom.String())

	_, err = s.engine.Transfer(ctx, missingFrom, b.ID, dec("1"))
	s.Contains(err.Error(), missingFrom.String())

	_, err = s.engine.Transfer(ctx, b.ID, missingTo, dec("1"))
	s.Contains(err.Error(), missingTo.String())
	s.Equal("10", s.balance(b.ID))
}

func (s *EngineSuite) TestPostDispatch() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "0")
	b := s.create("B", "b@gmail.com", "0")

	tx, err := s.engine.Post(ctx, domain.PostTransaction{Type: domain.TransactionTypeDeposit, To: a.ID, Amount: dec("5")})
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeDeposit, tx.Type)

	tx, err = s.engine.Post(ctx, domain.PostTransaction{Type: domain.TransactionTypeTransfer, From: a.ID, To: b.ID, Amount: dec("2")})
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeTransfer, tx.Type)

	tx, err = s.engine.Post(ctx, domain.PostTransaction{Type: domain.TransactionTypeWithdrawal, From: b.ID, Amount: dec("1")})
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeWithdrawal, tx.Type)

	_, err = s.engine.Post(ctx, domain.PostTransaction{Type: 0, From: a.ID, Amount: dec("1")})
	s.ErrorIs(err, domain.ErrUnknownTransactionType)

	s.Equal("3", s.balance(a.ID))
	s.Equal("1", s.balance(b.ID))
}

// 歷史查詢：存在的帳戶回傳紀錄，不存在才回傳 NotFound (不可反過來)
func (s *EngineSuite) TestHistoryExistenceCheck() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "0")

	history, err := s.engine.HistoryOf(ctx, a.ID)
	s.NoError(err)
	s.Empty(history)

	_, err = s.engine.HistoryOf(ctx, uuid.New())
	s.ErrorIs(err, domain.ErrAccountNotFound)

	// 帳戶刪除後不再能查詢歷史，但其他帳戶的紀錄不受影響
	b := s.create("B", "b@gmail.com", "10")
	_, err = s.engine.Transfer(ctx, b.ID, a.ID, dec("4"))
	s.Require().NoError(err)
	s.Require().NoError(s.engine.DeleteAccount(ctx, b.ID))

	_, err = s.engine.HistoryOf(ctx, b.ID)
	s.ErrorIs(err, domain.ErrAccountNotFound)
	historyA := s.history(a.ID)
	s.Require().Len(historyA, 1)
	s.Equal(domain.SomeID(b.ID), historyA[0].From)

	s.ErrorIs(s.engine.DeleteAccount(ctx, b.ID), domain.ErrAccountNotFound)
}

func (s *EngineSuite) TestReadsAreIdempotent() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "10")
	_, err := s.engine.Deposit(ctx, a.ID, dec("1"))
	s.Require().NoError(err)

	b1, err := s.engine.BalanceOf(ctx, a.ID)
	s.Require().NoError(err)
	b2, err := s.engine.BalanceOf(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(b1.AccountID, b2.AccountID)
	s.True(b1.Balance.Equal(b2.Balance))

	h1 := s.history(a.ID)
	h2 := s.history(a.ID)
	s.Equal(h1, h2)
}

func (s *EngineSuite) TestAccountCRUDPassThrough() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "1")

	got, err := s.engine.GetAccount(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a, got)

	updated, err := s.engine.UpdateAccount(ctx, a.ID, domain.UpdateAccount{Name: domain.Some("Ann")})
	s.Require().NoError(err)
	s.Equal("Ann", updated.Name)

	list, err := s.engine.ListAccounts(ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *EngineSuite) TestConcurrentTransfersConserveFunds() {
	ctx := context.Background()
	const n = 5
	accounts := make([]domain.Account, n)
	for i := range accounts {
		accounts[i] = s.create("acc", uuid.NewString()[:8]+"@gmail.com", "100")
	}

	var wg sync.WaitGroup
	for i := 0; i < 400; i++ {
		from := accounts[i%n].ID
		to := accounts[(i*3+1)%n].ID
		if from == to {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.engine.Transfer(ctx, from, to, dec("7"))
			if err != nil {
				s.ErrorIs(err, domain.ErrInsufficientBalance)
			}
		}()
	}
	wg.Wait()

	sum := decimal.Zero
	for _, a := range accounts {
		b, err := s.engine.BalanceOf(ctx, a.ID)
		s.Require().NoError(err)
		s.False(b.Balance.IsNegative())
		sum = sum.Add(b.Balance)
	}
	s.Equal("500", sum.String())
}

func (s *EngineSuite) TestOppositeTransfersDoNotDeadlock() {
	ctx := context.Background()
	a := s.create("A", "a@gmail.com", "1000")
	b := s.create("B", "b@gmail.com", "1000")

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 300; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = s.engine.Transfer(ctx, a.ID, b.ID, dec("1"))
			}()
			go func() {
				defer wg.Done()
				_, _ = s.engine.Transfer(ctx, b.ID, a.ID, dec("1"))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.FailNow("opposite transfers deadlocked")
	}
	s.Len(s.history(a.ID), 600)
	s.Equal("2000", dec(s.balance(a.ID)).Add(dec(s.balance(b.ID))).String())
}

func TestEngine_RecordFailureAbortsMutation(t *testing.T) {
	store := memory.NewAccountStore()
	engine := usecase.NewLedgerEngine(store, failingLedger{memory.NewMutexLedger()})
	ctx := context.Background()

	a, err := engine.CreateAccount(ctx, domain.CreateAccount{Name: "A", Email: "a@gmail.com", InitialBalance: dec("10")})
	require.NoError(t, err)
	b, err := engine.CreateAccount(ctx, domain.CreateAccount{Name: "B", Email: "b@gmail.com", InitialBalance: dec("10")})
	require.NoError(t, err)

	_, err = engine.Transfer(ctx, a.ID, b.ID, dec("5"))
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, err := engine.BalanceOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "10", got.Balance.String())
	}
}

func TestEngine_RejectedOperationsDoNotRecord(t *testing.T) {
	ledger := &countingLedger{MutexLedger: memory.NewMutexLedger()}
	engine := usecase.NewLedgerEngine(memory.NewAccountStore(), ledger)
	ctx := context.Background()

	a, err := engine.CreateAccount(ctx, domain.CreateAccount{Name: "A", Email: "a@gmail.com", InitialBalance: dec("1")})
	require.NoError(t, err)

	_, err = engine.Withdraw(ctx, a.ID, dec("2"))
	require.Error(t, err)
	_, err = engine.Transfer(ctx, a.ID, uuid.New(), dec("1"))
	require.Error(t, err)
	assert.Equal(t, 0, ledger.calls)

	_, err = engine.Withdraw(ctx, a.ID, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.calls)
}

func TestEngine_RecorderOutcomes(t *testing.T) {
	recorder := &fakeRecorder{}
	engine := usecase.NewLedgerEngine(memory.NewAccountStore(), memory.NewMutexLedger(), usecase.WithRecorder(recorder))
	ctx := context.Background()

	_, err := engine.Withdraw(ctx, uuid.New(), dec("1"))
	require.True(t, errors.Is(err, domain.ErrAccountNotFound))
	_, err = engine.CreateAccount(ctx, domain.CreateAccount{Name: "A", Email: "a@gmail.com"})
	require.NoError(t, err)

	assert.Equal(t, []recordedOp{
		{"withdraw", "NotFound"},
		{"create_account", usecase.OutcomeOK},
	}, recorder.ops)
}
