package http

import (
	"errors"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

// Handler REST adapter
type Handler struct {
	core     *usecase.LedgerEngine
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler 建立 REST adapter，logger 可為 nil
func NewHandler(core *usecase.LedgerEngine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		core:     core,
		logger:   logger,
		validate: validator.New(),
	}
}

// NewApp 建立已註冊所有路由的 fiber.App
//
// Routes:
//   - POST   /api/accounts
//   - GET    /api/accounts
//   - GET    /api/accounts/:id
//   - PUT    /api/accounts/:id
//   - DELETE /api/accounts/:id
//   - GET    /api/accounts/:id/balance
//   - POST   /api/transactions/transfer
//   - POST   /api/transactions/deposit
//   - POST   /api/transactions/withdraw
//   - GET    /api/transactions/history/:accountId
func NewApp(core *usecase.LedgerEngine, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "go-mem-bank",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return ProblemJSON(c, fe.Code, fe.Message, "")
			}
			return ProblemJSON(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
		},
	})
	NewHandler(core, logger).Routes(app)
	return app
}

// Routes 註冊路由
func (h *Handler) Routes(r fiber.Router) {
	accounts := r.Group("/api/accounts")
	accounts.Post("/", h.CreateAccount)
	accounts.Get("/", h.ListAccounts)
	accounts.Get("/:id", h.GetAccount)
	accounts.Put("/:id", h.UpdateAccount)
	accounts.Delete("/:id", h.DeleteAccount)
	accounts.Get("/:id/balance", h.GetBalance)

	transactions := r.Group("/api/transactions")
	transactions.Post("/transfer", h.Transfer)
	transactions.Post("/deposit", h.Deposit)
	transactions.Post("/withdraw", h.Withdraw)
	transactions.Get("/history/:accountId", h.History)
}

func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	input, err := bindAndValidate[AccountCreationRequest](c, h.validate)
	if input == nil {
		return err
	}
	account, err := h.core.CreateAccount(c.UserContext(), domain.CreateAccount{
		Name:           input.AccountName,
		Email:          input.AccountEmail,
		InitialBalance: *input.InitialBalance,
	})
	if err != nil {
		return h.problem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAccountResponse(account))
}

func (h *Handler) GetAccount(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.core.GetAccount(c.UserContext(), id)
	if err != nil {
		return h.problem(c, err)
	}
	return c.JSON(toAccountResponse(account))
}

func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.core.ListAccounts(c.UserContext())
	if err != nil {
		return h.problem(c, err)
	}
	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	return c.JSON(resp)
}

func (h *Handler) UpdateAccount(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	input, err := bindAndValidate[AccountUpdateRequest](c, h.validate)
	if input == nil {
		return err
	}
	account, err := h.core.UpdateAccount(c.UserContext(), id, domain.UpdateAccount{
		Name:  optional(input.AccountName),
		Email: optional(input.AccountEmail),
	})
	if err != nil {
		return h.problem(c, err)
	}
	return c.JSON(toAccountResponse(account))
}

func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.core.DeleteAccount(c.UserContext(), id); err != nil {
		return h.problem(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	balance, err := h.core.BalanceOf(c.UserContext(), id)
	if err != nil {
		return h.problem(c, err)
	}
	return c.JSON(AccountBalanceResponse{
		AccountID: balance.AccountID.String(),
		Balance:   balance.Balance,
	})
}

func (h *Handler) Transfer(c *fiber.Ctx) error {
	input, err := bindAndValidate[TransferRequest](c, h.validate)
	if input == nil {
		return err
	}
	tx, err := h.core.Transfer(c.UserContext(), parseID(input.FromAccountID), parseID(input.ToAccountID), *input.Amount)
	if err != nil {
		return h.problem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx))
}

func (h *Handler) Deposit(c *fiber.Ctx) error {
	input, err := bindAndValidate[TransactionRequest](c, h.validate)
	if input == nil {
		return err
	}
	tx, err := h.core.Deposit(c.UserContext(), input.accountID(), *input.Amount)
	if err != nil {
		return h.problem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx))
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	input, err := bindAndValidate[TransactionRequest](c, h.validate)
	if input == nil {
		return err
	}
	tx, err := h.core.Withdraw(c.UserContext(), input.accountID(), *input.Amount)
	if err != nil {
		return h.problem(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx))
}

func (h *Handler) History(c *fiber.Ctx) error {
	id, err := pathID(c, "accountId")
	if err != nil {
		return err
	}
	history, err := h.core.HistoryOf(c.UserContext(), id)
	if err != nil {
		return h.problem(c, err)
	}
	resp := make([]TransactionResponse, 0, len(history))
	for _, tx := range history {
		resp = append(resp, toTransactionResponse(tx))
	}
	return c.JSON(resp)
}

func (h *Handler) problem(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		h.logger.ErrorContext(c.UserContext(), "http request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return ProblemJSON(c, StatusOf(err), kind.String(), err.Error())
}

func (r *TransactionRequest) accountID() uuid.UUID {
	if r.ToAccountID != "" {
		return parseID(r.ToAccountID)
	}
	return parseID(r.AccountID)
}

// parseID 已通過 validator 的 uuid 檢查，空字串回傳 uuid.Nil
func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// pathID 解析路徑參數，格式錯誤時回傳 400 的 fiber.Error
func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+": "+err.Error())
	}
	return id, nil
}
