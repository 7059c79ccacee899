package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// DefaultEmailDomains 預設允許的 email 網域
var DefaultEmailDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"aol.com", "icloud.com", "protonmail.com", "mail.com",
	"zoho.com", "yandex.com", "gmx.com", "live.com",
}

// EmailPolicy 格式檢查加上網域白名單
type EmailPolicy struct {
	domains map[string]struct{}
}

// NewEmailPolicy 以指定網域建立 EmailPolicy，空清單時使用 DefaultEmailDomains
func NewEmailPolicy(domains []string) *EmailPolicy {
	if len(domains) == 0 {
		domains = DefaultEmailDomains
	}
	p := &EmailPolicy{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			p.domains[d] = struct{}{}
		}
	}
	return p
}

var defaultEmailPolicy = NewEmailPolicy(nil)

// DefaultEmailPolicy 回傳使用預設白名單的 EmailPolicy
func DefaultEmailPolicy() *EmailPolicy {
	return defaultEmailPolicy
}

// IsValid 格式正確且網域在白名單內
func (p *EmailPolicy) IsValid(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}
	_, ok := p.domains[emailDomain(email)]
	return ok
}

// Message 回傳 email 不合法的原因說明
func (p *EmailPolicy) Message(email string) string {
	if strings.TrimSpace(email) == "" {
		return "email cannot be empty"
	}
	if !emailPattern.MatchString(email) {
		return "email format is invalid: " + email
	}
	return fmt.Sprintf("email domain is not supported: %s. Please use a common email provider.", emailDomain(email))
}

// Validate 不合法時回傳包裝 ErrInvalidEmail 的錯誤
func (p *EmailPolicy) Validate(email string) error {
	if p.IsValid(email) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidEmail, p.Message(email))
}

func emailDomain(email string) string {
	return strings.ToLower(email[strings.LastIndex(email, "@")+1:])
}

// IsValidEmail 使用預設白名單檢查 email
func IsValidEmail(email string) bool {
	return defaultEmailPolicy.IsValid(email)
}

// InvalidEmailMessage 使用預設白名單產生錯誤說明
func InvalidEmailMessage(email string) string {
	return defaultEmailPolicy.Message(email)
}

// ValidateEmail 使用預設白名單驗證 email
func ValidateEmail(email string) error {
	return defaultEmailPolicy.Validate(email)
}

// NormalizeEmail 唯一性比對用的正規化 email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateAmount 交易金額必須大於 0
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	return nil
}

// ValidateInitialBalance 開戶餘額不得為負
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrNegativeInitialBalance
	}
	return nil
}
