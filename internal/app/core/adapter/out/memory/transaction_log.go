package memory

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// ledgerOptions 兩種帳本共用的配置
type ledgerOptions struct {
	now       func() time.Time
	queueSize int
}

// LedgerOption 定義了交易帳本的配置選項函數
type LedgerOption func(*ledgerOptions)

// WithClock 設定交易時間來源
func WithClock(now func() time.Time) LedgerOption {
	return func(o *ledgerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithQueueSize 設定 LMAXLedger 輸送帶大小
func WithQueueSize(n int) LedgerOption {
	return func(o *ledgerOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

func newLedgerOptions(opts []LedgerOption) ledgerOptions {
	o := ledgerOptions{now: time.Now, queueSize: 1024}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// transactionLog 只能追加的交易紀錄，本身不做同步，由外層決定
type transactionLog struct {
	records []domain.Transaction
	// byAccount: 帳戶 ID 對應 records 的索引
	byAccount map[uuid.UUID][]int
	sequence  uint64
	last      time.Time
	now       func() time.Time
}

func newTransactionLog(now func() time.Time) *transactionLog {
	return &transactionLog{
		byAccount: make(map[uuid.UUID][]int),
		now:       now,
	}
}

// append 分配序號、ID 與時間後追加
// 時間戳不會早於前一筆，確保時間順序與插入順序一致
func (l *transactionLog) append(from, to uuid.NullUUID, amount decimal.Decimal, txType domain.TransactionType) (domain.Transaction, error) {
	tx := domain.Transaction{
		From:   from,
		To:     to,
		Amount: amount,
		Type:   txType,
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: rejected malformed transaction: %v", domain.ErrInternal, err)
	}

	ts := l.now()
	if ts.Before(l.last) {
		ts = l.last
	}
	l.last = ts
	l.sequence++

	tx.Sequence = l.sequence
	tx.ID = uuid.New()
	tx.Timestamp = ts

	idx := len(l.records)
	l.records = append(l.records, tx)
	if from.Valid {
		l.byAccount[from.UUID] = append(l.byAccount[from.UUID], idx)
	}
	if to.Valid {
		l.byAccount[to.UUID] = append(l.byAccount[to.UUID], idx)
	}
	return tx, nil
}

// history 回傳副本，不受之後的追加影響
func (l *transactionLog) history(accountID uuid.UUID) []domain.Transaction {
	idx := l.byAccount[accountID]
	out := make([]domain.Transaction, 0, len(idx))
	for _, i := range idx {
		out = append(out, l.records[i])
	}
	return out
}

func (l *transactionLog) len() int {
	return len(l.records)
}

// sortNewestFirst 依時間倒序，同時間時後插入的在前
func sortNewestFirst(txs []domain.Transaction) {
	slices.SortFunc(txs, func(a, b domain.Transaction) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.Sequence, a.Sequence)
	})
}
