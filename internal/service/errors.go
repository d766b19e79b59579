package service

import (
	"errors"
	"fmt"

	"github.com/dujiao-next/ledger-engine/internal/repository"
)

// 错误分类，处理层通过 errors.Is 映射业务码
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrSchemaUnready = errors.New("schema unready")
)

type categorizedError struct {
	message  string
	category error
}

func (e *categorizedError) Error() string {
	return e.message
}

func (e *categorizedError) Unwrap() error {
	return e.category
}

func newCategorizedError(category error, message string) error {
	return &categorizedError{message: message, category: category}
}

// 幂等相关错误
var (
	ErrIdempotencyKeyRequired  = newCategorizedError(ErrInvalidInput, "idempotency key is required")
	ErrIdempotencyKeyTooLong   = newCategorizedError(ErrInvalidInput, "idempotency key is too long")
	ErrIdempotencyKeyReused    = newCategorizedError(ErrConflict, "idempotency key already used for a different request")
	ErrIdempotencyReplayBroken = newCategorizedError(ErrConflict, "idempotency record has no recorded outcome")
)

// 礼品卡相关错误
var (
	ErrGiftCardInvalidAmount   = newCategorizedError(ErrInvalidInput, "gift card amount must be a positive integer")
	ErrGiftCardInvalidCurrency = newCategorizedError(ErrInvalidInput, "gift card currency is invalid")
	ErrGiftCardInvalidSource   = newCategorizedError(ErrInvalidInput, "gift card source is invalid")
	ErrGiftCardCodeRequired    = newCategorizedError(ErrInvalidInput, "gift card code is required")
	ErrGiftCardNotFound        = newCategorizedError(ErrNotFound, "gift card not found")
	ErrGiftCardDisabled        = newCategorizedError(ErrConflict, "gift card is disabled")
	ErrCurrencyMismatch        = newCategorizedError(ErrConflict, "currency does not match gift card")
)

// 会员权益相关错误
var (
	ErrEntitlementInvalid = newCategorizedError(ErrInvalidInput, "membership_id, rule_id, slot_key and ticket_id are required")
	ErrPeriodKeyRequired  = newCategorizedError(ErrInvalidInput, "period_key or booking_day is required")
	ErrBookingDayInvalid  = newCategorizedError(ErrInvalidInput, "booking_day must be YYYY-MM-DD")
)

// 会员折扣相关错误
var (
	ErrDiscountInvalid             = newCategorizedError(ErrInvalidInput, "discount definition is invalid")
	ErrDiscountRuleInvalid         = newCategorizedError(ErrInvalidInput, "discount rule is invalid")
	ErrDiscountPeriodInvalid       = newCategorizedError(ErrInvalidInput, "discount rule period is invalid")
	ErrDiscountScopeInvalid        = newCategorizedError(ErrConflict, "discount rule scope must name at least one id")
	ErrDiscountOrderIndexDuplicate = newCategorizedError(ErrConflict, "discount rule order_index must be unique")
	ErrDiscountNotFound            = newCategorizedError(ErrNotFound, "membership discount not found")
	ErrDiscountRuleNotFound        = newCategorizedError(ErrNotFound, "membership discount rule not found")
	ErrDiscountRuleInactive        = newCategorizedError(ErrConflict, "membership discount rule is inactive")
	ErrSubjectRequired             = newCategorizedError(ErrInvalidInput, "subject_id is required")
	ErrEvaluateItemsInvalid        = newCategorizedError(ErrInvalidInput, "evaluate items are invalid")
)

// withDetail 为分类错误附加上下文
func withDetail(base error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

// translateStoreError 将缺表错误转换为 ErrSchemaUnready
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsUndefinedTable(err) {
		return fmt.Errorf("%w: %v", ErrSchemaUnready, err)
	}
	return err
}

// ErrorCategory 返回错误所属分类，未分类返回 nil
func ErrorCategory(err error) error {
	for _, category := range []error{ErrInvalidInput, ErrNotFound, ErrConflict, ErrSchemaUnready} {
		if errors.Is(err, category) {
			return category
		}
	}
	return nil
}
