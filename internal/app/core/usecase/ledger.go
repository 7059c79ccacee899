package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// MutateFunc 在持有所有相關帳戶鎖的情況下執行，參數順序與傳入的 ids 相同
// 回傳 error 時所有修改都會被丟棄
type MutateFunc func(accounts []*domain.Account) error

// AccountStore 帳戶資料的擁有者
type AccountStore interface {
	// Create 驗證並建立帳戶
	Create(ctx context.Context, cmd domain.CreateAccount) (domain.Account, error)
	// Get 取得帳戶快照
	Get(ctx context.Context, id uuid.UUID) (domain.Account, error)
	// List 依建立順序回傳所有帳戶的一致快照
	List(ctx context.Context) ([]domain.Account, error)
	// Update 部分更新名稱/email
	Update(ctx context.Context, id uuid.UUID, cmd domain.UpdateAccount) (domain.Account, error)
	// Delete 永久刪除帳戶
	Delete(ctx context.Context, id uuid.UUID) error
	// Exists 帳戶是否存在
	Exists(ctx context.Context, id uuid.UUID) bool
	// AdjustBalance 套用 balance += delta
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (domain.Account, error)
	// Mutate 對多個帳戶做全有或全無的餘額修改
	Mutate(ctx context.Context, ids []uuid.UUID, fn MutateFunc) ([]domain.Account, error)
}

// TransactionLedger 只能追加的交易紀錄
type TransactionLedger interface {
	// Record 分配 ID/時間並追加一筆交易
	Record(ctx context.Context, from, to uuid.NullUUID, amount decimal.Decimal, txType domain.TransactionType) (domain.Transaction, error)
	// HistoryFor 回傳涉及指定帳戶的所有交易，新的在前
	HistoryFor(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
}

// Recorder 操作指標
type Recorder interface {
	ObserveOperation(op string, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
