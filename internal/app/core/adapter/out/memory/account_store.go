package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

// accountEntry 單一帳戶與它自己的鎖
type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
	// removed: 已刪除，持有舊指標的 Mutate 應回傳 NotFound
	removed bool
}

// AccountStore 以帳戶為單位上鎖的記憶體帳戶儲存
//
// 結構:
//
//	mu: 只保護 entries / order / emails 三個索引，不保護帳戶內容
//	entries: 帳戶 ID 對應帳戶
//	order: 建立順序
//	emails: 正規化 email 對應帳戶 ID
//
// 鎖順序: s.mu -> entry.mu；持有 entry.mu 時不可再取 s.mu
type AccountStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*accountEntry
	order   []uuid.UUID
	emails  map[string]uuid.UUID

	policy *domain.EmailPolicy
	now    func() time.Time
}

// StoreOption 定義了 AccountStore 的配置選項函數
type StoreOption func(*AccountStore)

// WithEmailPolicy 設定 email 白名單
func WithEmailPolicy(policy *domain.EmailPolicy) StoreOption {
	return func(s *AccountStore) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithStoreClock 設定建立時間來源
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *AccountStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAccountStore 建立空的 AccountStore
func NewAccountStore(opts ...StoreOption) *AccountStore {
	s := &AccountStore{
		entries: make(map[uuid.UUID]*accountEntry),
		emails:  make(map[string]uuid.UUID),
		policy:  domain.DefaultEmailPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create 驗證並建立帳戶
//
// 參數:
//
//	ctx: 上下文
//	cmd: 名稱、email、初始餘額
//
// 回傳:
//
//	domain.Account: 新帳戶快照
//	error: InvalidArgument / InvalidEmail / DuplicateEmail
func (s *AccountStore) Create(ctx context.Context, cmd domain.CreateAccount) (domain.Account, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return domain.Account{}, domain.ErrEmptyName
	}
	if strings.TrimSpace(cmd.Email) == "" {
		return domain.Account{}, domain.ErrEmptyEmail
	}
	if err := domain.ValidateInitialBalance(cmd.InitialBalance); err != nil {
		return domain.Account{}, err
	}
	if err := s.policy.Validate(cmd.Email); err != nil {
		return domain.Account{}, err
	}

	key := domain.NormalizeEmail(cmd.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[key]; taken {
		return domain.Account{}, duplicateEmail(cmd.Email)
	}

	account := domain.NewAccount(cmd.Name, cmd.Email, cmd.InitialBalance, s.now())
	s.entries[account.ID] = &accountEntry{account: *account}
	s.order = append(s.order, account.ID)
	s.emails[key] = account.ID
	return *account, nil
}

// Get 取得帳戶快照
func (s *AccountStore) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return domain.Account{}, domain.AccountNotFound(id)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.removed {
		return domain.Account{}, domain.AccountNotFound(id)
	}
	return entry.account, nil
}

// List 依建立順序回傳所有帳戶
// 會依固定順序鎖住全部帳戶，取得的是同一時間點的一致快照
func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Clone(s.order)
	unlock := s.lockEntries(domain.CanonicalOrder(slices.Clone(ids)))
	defer unlock()

	out := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id].account)
	}
	return out, nil
}

// Update 部分更新名稱與 email
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//	cmd: 未設定或空白的欄位維持原值
//
// 回傳:
//
//	domain.Account: 更新後快照
//	error: NotFound / InvalidEmail / DuplicateEmail
func (s *AccountStore) Update(ctx context.Context, id uuid.UUID, cmd domain.UpdateAccount) (domain.Account, error) {
	name, setName := cmd.Name.Get()
	setName = setName && strings.TrimSpace(name) != ""
	email, setEmail := cmd.Email.Get()
	setEmail = setEmail && strings.TrimSpace(email) != ""

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.Account{}, domain.AccountNotFound(id)
	}
	if setEmail {
		if err := s.policy.Validate(email); err != nil {
			return domain.Account{}, err
		}
		if owner, taken := s.emails[domain.NormalizeEmail(email)]; taken && owner != id {
			return domain.Account{}, duplicateEmail(email)
		}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if setEmail {
		delete(s.emails, domain.NormalizeEmail(entry.account.Email))
		s.emails[domain.NormalizeEmail(email)] = id
		entry.account.Email = email
	}
	if setName {
		entry.account.Name = name
	}
	return entry.account, nil
}

// Delete 永久刪除帳戶，帳戶不存在時回傳 NotFound
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.AccountNotFound(id)
	}

	entry.mu.Lock()
	entry.removed = true
	email := entry.account.Email
	entry.mu.Unlock()

	delete(s.entries, id)
	delete(s.emails, domain.NormalizeEmail(email))
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

// Exists 帳戶是否存在
func (s *AccountStore) Exists(ctx context.Context, id uuid.UUID) bool {
	_, ok := s.lookup(id)
	return ok
}

// Len 帳戶數量
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AdjustBalance 套用 balance += delta，結果為負時回傳餘額不足
func (s *AccountStore) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (domain.Account, error) {
	out, err := s.Mutate(ctx, []uuid.UUID{id}, func(accounts []*domain.Account) error {
		return accounts[0].Adjust(delta)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return out[0], nil
}

// Mutate 在持有所有帳戶鎖的情況下修改餘額
//
// 參數:
//
//	ctx: 上下文
//	ids: 帳戶 ID，依序檢查存在性，第一個不存在的 ID 回傳 NotFound
//	fn: 修改函式，收到的是副本；回傳 nil 才會寫回
//
// 回傳:
//
//	[]domain.Account: 修改後快照，順序同 ids
//	error: NotFound / fn 回傳的錯誤
func (s *AccountStore) Mutate(ctx context.Context, ids []uuid.UUID, fn usecase.MutateFunc) ([]domain.Account, error) {
	if len(ids) == 0 {
		return nil, domain.ErrMissingAccountID
	}
	lockIDs := domain.CanonicalOrder(slices.Clone(ids))
	if len(slices.Compact(slices.Clone(lockIDs))) != len(ids) {
		return nil, domain.ErrSameAccount
	}

	s.mu.RLock()
	entries := make([]*accountEntry, len(ids))
	for i, id := range ids {
		entry, ok := s.entries[id]
		if !ok {
			s.mu.RUnlock()
			return nil, domain.AccountNotFound(id)
		}
		entries[i] = entry
	}
	s.mu.RUnlock()

	// 1. 依固定順序上鎖，避免反向轉帳互相等待
	for _, id := range lockIDs {
		entries[slices.Index(ids, id)].mu.Lock()
	}
	defer func() {
		for i := len(lockIDs) - 1; i >= 0; i-- {
			entries[slices.Index(ids, lockIDs[i])].mu.Unlock()
		}
	}()

	// 2. 取得鎖之後才確認沒有被刪除
	for i, entry := range entries {
		if entry.removed {
			return nil, domain.AccountNotFound(ids[i])
		}
	}

	// 3. 在副本上執行，失敗就整批丟棄
	working := make([]*domain.Account, len(entries))
	for i, entry := range entries {
		cp := entry.account
		working[i] = &cp
	}
	if err := fn(working); err != nil {
		return nil, err
	}

	// 4. 只寫回餘額，其餘欄位由 store 自己管理
	out := make([]domain.Account, len(entries))
	for i, entry := range entries {
		entry.account.Balance = working[i].Balance
		out[i] = entry.account
	}
	return out, nil
}

func (s *AccountStore) lookup(id uuid.UUID) (*accountEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// lockEntries 依傳入順序鎖住帳戶，呼叫端需持有 s.mu
func (s *AccountStore) lockEntries(ids []uuid.UUID) (unlock func()) {
	for _, id := range ids {
		s.entries[id].mu.Lock()
	}
	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			s.entries[ids[i]].mu.Unlock()
		}
	}
}

func duplicateEmail(email string) error {
	return fmt.Errorf("%w: an account with this email already exists: %s", domain.ErrDuplicateEmail, email)
}

var _ usecase.AccountStore = (*AccountStore)(nil)
