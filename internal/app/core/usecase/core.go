package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// OutcomeOK 成功操作的指標標籤
const OutcomeOK = "ok"

// LedgerEngine 是核心業務邏輯層
// 協調 AccountStore 與 TransactionLedger，所有餘額變動與交易紀錄在同一個臨界區內完成
type LedgerEngine struct {
	accounts AccountStore
	ledger   TransactionLedger
	logger   *slog.Logger
	recorder Recorder
}

// EngineOption 定義了 LedgerEngine 的配置選項函數
type EngineOption func(*LedgerEngine)

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *LedgerEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder 設定指標收集器
func WithRecorder(recorder Recorder) EngineOption {
	return func(e *LedgerEngine) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// NewLedgerEngine 建立 LedgerEngine
//
// 參數:
//
//	accounts: 帳戶儲存
//	ledger: 交易帳本
//	opts: 可選配置
//
// 回傳:
//
//	*LedgerEngine: LedgerEngine 實例
func NewLedgerEngine(accounts AccountStore, ledger TransactionLedger, opts ...EngineOption) *LedgerEngine {
	e := &LedgerEngine{
		accounts: accounts,
		ledger:   ledger,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateAccount 建立帳戶
func (e *LedgerEngine) CreateAccount(ctx context.Context, cmd domain.CreateAccount) (account domain.Account, err error) {
	defer e.observe(ctx, "create_account", time.Now(), &err)
	return e.accounts.Create(ctx, cmd)
}

// GetAccount 取得帳戶
func (e *LedgerEngine) GetAccount(ctx context.Context, id uuid.UUID) (account domain.Account, err error) {
	defer e.observe(ctx, "get_account", time.Now(), &err)
	return e.accounts.Get(ctx, id)
}

// ListAccounts 列出所有帳戶
func (e *LedgerEngine) ListAccounts(ctx context.Context) (accounts []domain.Account, err error) {
	defer e.observe(ctx, "list_accounts", time.Now(), &err)
	return e.accounts.List(ctx)
}

// UpdateAccount 部分更新帳戶
func (e *LedgerEngine) UpdateAccount(ctx context.Context, id uuid.UUID, cmd domain.UpdateAccount) (account domain.Account, err error) {
	defer e.observe(ctx, "update_account", time.Now(), &err)
	return e.accounts.Update(ctx, id, cmd)
}

// DeleteAccount 刪除帳戶，歷史交易保留
func (e *LedgerEngine) DeleteAccount(ctx context.Context, id uuid.UUID) (err error) {
	defer e.observe(ctx, "delete_account", time.Now(), &err)
	return e.accounts.Delete(ctx, id)
}

// Deposit 存款
//
// 參數:
//
//	ctx: 上下文
//	accountID: 存入帳戶
//	amount: 金額，必須大於 0
//
// 回傳:
//
//	domain.Transaction: DEPOSIT 交易紀錄
//	error: 參數錯誤 / 帳戶不存在
func (e *LedgerEngine) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (tx domain.Transaction, err error) {
	defer e.observe(ctx, "deposit", time.Now(), &err)
	if accountID == uuid.Nil {
		return domain.Transaction{}, domain.ErrMissingAccountID
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	_, err = e.accounts.Mutate(ctx, []uuid.UUID{accountID}, func(accounts []*domain.Account) error {
		if err := accounts[0].Deposit(amount); err != nil {
			return err
		}
		recorded, err := e.ledger.Record(ctx, domain.NoID, domain.SomeID(accountID), amount, domain.TransactionTypeDeposit)
		if err != nil {
			return err
		}
		tx = recorded
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Withdraw 提款
//
// 參數:
//
//	ctx: 上下文
//	accountID: 提款帳戶
//	amount: 金額，必須大於 0
//
// 回傳:
//
//	domain.Transaction: WITHDRAWAL 交易紀錄
//	error: 參數錯誤 / 帳戶不存在 / 餘額不足
func (e *LedgerEngine) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (tx domain.Transaction, err error) {
	defer e.observe(ctx, "withdraw", time.Now(), &err)
	if accountID == uuid.Nil {
		return domain.Transaction{}, domain.ErrMissingAccountID
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Transaction{}, err
	}

	_, err = e.accounts.Mutate(ctx, []uuid.UUID{accountID}, func(accounts []*domain.Account) error {
		if err := accounts[0].Withdraw(amount); err != nil {
			return err
		}
		recorded, err := e.ledger.Record(ctx, domain.SomeID(accountID), domain.NoID, amount, domain.TransactionTypeWithdrawal)
		if err != nil {
			return err
		}
		tx = recorded
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Transfer 轉帳，扣款與入帳一起生效
// 來源帳戶先檢查，來源不存在時不會查詢目的帳戶
//
// 參數:
//
//	ctx: 上下文
//	fromID: 來源帳戶
//	toID: 目的帳戶，不可與來源相同
//	amount: 金額，必須大於 0
//
// 回傳:
//
//	domain.Transaction: TRANSFER 交易紀錄
//	error: 參數錯誤 / 帳戶不存在 / 餘額不足
func (e *LedgerEngine) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (tx domain.Transaction, err error) {
	defer e.observe(ctx, "transfer", time.Now(), &err)
	if fromID == uuid.Nil || toID == uuid.Nil {
		return domain.Transaction{}, domain.ErrMissingAccountID
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Transaction{}, err
	}
	if fromID == toID {
		return domain.Transaction{}, domain.ErrSameAccount
	}

	_, err = e.accounts.Mutate(ctx, []uuid.UUID{fromID, toID}, func(accounts []*domain.Account) error {
		from, to := accounts[0], accounts[1]
		if err := from.Withdraw(amount); err != nil {
			return err
		}
		if err := to.Deposit(amount); err != nil {
			return err
		}
		recorded, err := e.ledger.Record(ctx, domain.SomeID(fromID), domain.SomeID(toID), amount, domain.TransactionTypeTransfer)
		if err != nil {
			return err
		}
		tx = recorded
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Post 依交易類型分派
func (e *LedgerEngine) Post(ctx context.Context, cmd domain.PostTransaction) (domain.Transaction, error) {
	switch cmd.Type {
	case domain.TransactionTypeDeposit:
		return e.Deposit(ctx, cmd.To, cmd.Amount)
	case domain.TransactionTypeWithdrawal:
		return e.Withdraw(ctx, cmd.From, cmd.Amount)
	case domain.TransactionTypeTransfer:
		return e.Transfer(ctx, cmd.From, cmd.To, cmd.Amount)
	default:
		return domain.Transaction{}, domain.ErrUnknownTransactionType
	}
}

// BalanceOf 取得帳戶餘額
func (e *LedgerEngine) BalanceOf(ctx context.Context, accountID uuid.UUID) (balance domain.Balance, err error) {
	defer e.observe(ctx, "balance", time.Now(), &err)
	account, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{AccountID: account.ID, Balance: account.Balance}, nil
}

// HistoryOf 回傳帳戶的交易紀錄，新的在前；帳戶不存在時回傳 NotFound
func (e *LedgerEngine) HistoryOf(ctx context.Context, accountID uuid.UUID) (history []domain.Transaction, err error) {
	defer e.observe(ctx, "history", time.Now(), &err)
	if !e.accounts.Exists(ctx, accountID) {
		return nil, domain.AccountNotFound(accountID)
	}
	return e.ledger.HistoryFor(ctx, accountID)
}

// observe 記錄指標與 log
func (e *LedgerEngine) observe(ctx context.Context, op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	if err := *errp; err != nil {
		kind := domain.KindOf(err)
		e.recorder.ObserveOperation(op, kind.String(), elapsed)
		level := slog.LevelInfo
		if kind == domain.KindInternal {
			level = slog.LevelError
		}
		e.logger.Log(ctx, level, "operation rejected", "op", op, "kind", kind.String(), "error", err)
		return
	}
	e.recorder.ObserveOperation(op, OutcomeOK, elapsed)
	e.logger.DebugContext(ctx, "operation completed", "op", op, "elapsed", elapsed)
}
