package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

type requestKind uint8

const (
	requestRecord requestKind = iota
	requestHistory
	requestCount
)

// ledgerRequest 交易請求包裝channel，讓呼叫端可以等待結果
type ledgerRequest struct {
	kind      requestKind
	accountID uuid.UUID
	from, to  uuid.NullUUID
	amount    decimal.Decimal
	txType    domain.TransactionType
	Result    chan ledgerResult // 讓呼叫端等這個 channel
}

type ledgerResult struct {
	tx      domain.Transaction
	history []domain.Transaction
	count   int
	err     error
}

// LMAXLedger 單一 goroutine 擁有全部狀態的交易帳本
// 追加與查詢都經過輸送帶排隊，run loop 以外沒有人碰 log
type LMAXLedger struct {
	log *transactionLog
	// 輸送帶 負責接收請求
	requests chan *ledgerRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool

	started atomic.Bool
	running atomic.Bool
	// done: run loop 結束後關閉
	done chan struct{}
}

// NewLMAXLedger 建立一個新的 LMAXLedger 實例，需呼叫 Start 才會開始處理
//
// 參數:
//
//	opts: 可選配置 (WithClock, WithQueueSize)
//
// 回傳:
//
//	*LMAXLedger: LMAXLedger 實例
func NewLMAXLedger(opts ...LedgerOption) *LMAXLedger {
	o := newLedgerOptions(opts)
	return &LMAXLedger{
		log:      newTransactionLog(o.now),
		requests: make(chan *ledgerRequest, o.queueSize),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &ledgerRequest{
					Result: make(chan ledgerResult, 1),
				}
			},
		},
		done: make(chan struct{}),
	}
}

// Start 啟動核心引擎 (非同步)，ctx 取消後處理完剩下的請求並停止
// 只有第一次呼叫有效
func (l *LMAXLedger) Start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	l.running.Store(true)
	go l.run(ctx)
}

// Done 回傳 run loop 結束時關閉的 channel
func (l *LMAXLedger) Done() <-chan struct{} {
	return l.done
}

// Record 追加一筆交易
//
// 參數:
//
//	ctx: 上下文，只在排隊進輸送帶時有效；進入輸送帶後一定等到結果
//	from, to: 來源/目的帳戶
//	amount: 金額
//	txType: 交易類型
//
// 回傳:
//
//	domain.Transaction: 已分配 ID/時間/序號的交易
//	error: 帳本未啟動 / 已停止 / 交易形狀不合法
//
// Record(等待) -> Channel -> Run Loop -> log.append -> Result Channel -> Record(收到結果)
func (l *LMAXLedger) Record(ctx context.Context, from, to uuid.NullUUID, amount decimal.Decimal, txType domain.TransactionType) (domain.Transaction, error) {
	req := l.requestPool.Get().(*ledgerRequest)
	req.kind = requestRecord
	req.from, req.to, req.amount, req.txType = from, to, amount, txType

	res, err := l.submit(ctx, req)
	if err != nil {
		return domain.Transaction{}, err
	}
	return res.tx, res.err
}

// HistoryFor 取得帳戶的交易紀錄，新的在前
func (l *LMAXLedger) HistoryFor(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	req := l.requestPool.Get().(*ledgerRequest)
	req.kind = requestHistory
	req.accountID = accountID

	res, err := l.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		return nil, res.err
	}
	sortNewestFirst(res.history)
	return res.history, nil
}

// Len 交易筆數
func (l *LMAXLedger) Len() int {
	req := l.requestPool.Get().(*ledgerRequest)
	req.kind = requestCount

	res, err := l.submit(context.Background(), req)
	if err == nil {
		return res.count
	}
	if !l.started.Load() {
		return 0
	}
	// run loop 正在停止，等它結束後 log 不會再變動
	<-l.done
	return l.log.len()
}

// submit 放入輸送帶並等待結果
func (l *LMAXLedger) submit(ctx context.Context, req *ledgerRequest) (ledgerResult, error) {
	if !l.running.Load() {
		return ledgerResult{}, domain.ErrLedgerNotRunning
	}

	// 清空 Channel (雖然理論上應該是空的，但保險起見)
	select {
	case <-req.Result:
	default:
	}

	select {
	case l.requests <- req:
	case <-l.done:
		return ledgerResult{}, domain.ErrLedgerNotRunning
	case <-ctx.Done():
		l.requestPool.Put(req)
		return ledgerResult{}, ctx.Err()
	}

	// 已進入輸送帶，結果可能已經寫入帳本，不能因 ctx 取消而放棄
	select {
	case res := <-req.Result:
		l.requestPool.Put(req)
		return res, nil
	case <-l.done:
		select {
		case res := <-req.Result:
			l.requestPool.Put(req)
			return res, nil
		default:
			return ledgerResult{}, domain.ErrLedgerNotRunning
		}
	}
}

func (l *LMAXLedger) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.running.Store(false)
			l.drain()
			return
		case req := <-l.requests:
			l.process(req)
		}
	}
}

func (l *LMAXLedger) drain() {
	for {
		select {
		case req := <-l.requests:
			l.process(req)
		default:
			return
		}
	}
}

// process 處理單筆請求並回傳結果
func (l *LMAXLedger) process(req *ledgerRequest) {
	switch req.kind {
	case requestHistory:
		req.Result <- ledgerResult{history: l.log.history(req.accountID)}
	case requestCount:
		req.Result <- ledgerResult{count: l.log.len()}
	default:
		tx, err := l.log.append(req.from, req.to, req.amount, req.txType)
		req.Result <- ledgerResult{tx: tx, err: err}
	}
}

var _ usecase.TransactionLedger = (*LMAXLedger)(nil)
