package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// ProblemJSON 寫出 application/problem+json 回應
func ProblemJSON(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}, "application/problem+json")
}

// StatusOf 錯誤種類對應的 HTTP 狀態碼
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindInvalidArgument, domain.KindInvalidEmail, domain.KindInsufficientFunds:
		return fiber.StatusBadRequest
	case domain.KindDuplicateEmail:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// bindAndValidate 解析 body 並以 validator 檢查，失敗時已寫出回應且回傳 nil
func bindAndValidate[T any](c *fiber.Ctx, validate *validator.Validate) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
	}
	return &input, nil
}
