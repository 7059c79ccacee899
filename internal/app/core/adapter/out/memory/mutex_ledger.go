package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

// MutexLedger 是一個使用 Mutex 實現的交易帳本
//
// 結構:
//
//	mu: RWMutex，追加用寫鎖，查詢用讀鎖
//	log: 交易紀錄
type MutexLedger struct {
	mu  sync.RWMutex
	log *transactionLog
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	opts: 可選配置 (WithClock)
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
func NewMutexLedger(opts ...LedgerOption) *MutexLedger {
	o := newLedgerOptions(opts)
	return &MutexLedger{
		log: newTransactionLog(o.now),
	}
}

// Record 追加一筆交易
//
// 參數:
//
//	ctx: 上下文
//	from, to: 來源/目的帳戶 (存款無來源，提款無目的)
//	amount: 金額
//	txType: 交易類型
//
// 回傳:
//
//	domain.Transaction: 已分配 ID/時間/序號的交易
//	error: 交易形狀不合法時回傳 Internal
func (m *MutexLedger) Record(ctx context.Context, from, to uuid.NullUUID, amount decimal.Decimal, txType domain.TransactionType) (domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.append(from, to, amount, txType)
}

// HistoryFor 取得帳戶的交易紀錄，新的在前
func (m *MutexLedger) HistoryFor(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	m.mu.RLock()
	out := m.log.history(accountID)
	m.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

// Len 交易筆數
func (m *MutexLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.log.len()
}

var _ usecase.TransactionLedger = (*MutexLedger)(nil)
