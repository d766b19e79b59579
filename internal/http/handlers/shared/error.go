package shared

import (
	"errors"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/i18n"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get(constants.ContextKeyRequestID); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	appErr := response.NewAppError(code, key, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"key", appErr.Key,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedError 业务错误到接口错误响应的映射
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// ServiceErrorRules 具体业务错误映射，先于分类映射匹配
var ServiceErrorRules = []MappedError{
	{Target: service.ErrIdempotencyKeyRequired, Code: response.CodeBadRequest, Key: "error.idempotency_key_required"},
	{Target: service.ErrIdempotencyKeyTooLong, Code: response.CodeBadRequest, Key: "error.idempotency_key_too_long"},
	{Target: service.ErrIdempotencyKeyReused, Code: response.CodeConflict, Key: "error.idempotency_key_reused"},
	{Target: service.ErrIdempotencyReplayBroken, Code: response.CodeConflict, Key: "error.idempotency_replay_broken"},
	{Target: service.ErrGiftCardInvalidAmount, Code: response.CodeBadRequest, Key: "error.gift_card_invalid_amount"},
	{Target: service.ErrGiftCardInvalidCurrency, Code: response.CodeBadRequest, Key: "error.gift_card_invalid_currency"},
	{Target: service.ErrGiftCardInvalidSource, Code: response.CodeBadRequest, Key: "error.gift_card_invalid_source"},
	{Target: service.ErrGiftCardCodeRequired, Code: response.CodeBadRequest, Key: "error.gift_card_code_required"},
	{Target: service.ErrGiftCardNotFound, Code: response.CodeNotFound, Key: "error.gift_card_not_found"},
	{Target: service.ErrGiftCardDisabled, Code: response.CodeConflict, Key: "error.gift_card_disabled"},
	{Target: service.ErrCurrencyMismatch, Code: response.CodeConflict, Key: "error.currency_mismatch"},
	{Target: service.ErrEntitlementInvalid, Code: response.CodeBadRequest, Key: "error.entitlement_invalid"},
	{Target: service.ErrPeriodKeyRequired, Code: response.CodeBadRequest, Key: "error.period_key_required"},
	{Target: service.ErrBookingDayInvalid, Code: response.CodeBadRequest, Key: "error.booking_day_invalid"},
	{Target: service.ErrDiscountInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrDiscountRuleInvalid, Code: response.CodeBadRequest, Key: "error.discount_rule_invalid"},
	{Target: service.ErrDiscountPeriodInvalid, Code: response.CodeBadRequest, Key: "error.discount_period_invalid"},
	{Target: service.ErrDiscountScopeInvalid, Code: response.CodeConflict, Key: "error.discount_scope_invalid"},
	{Target: service.ErrDiscountOrderIndexDuplicate, Code: response.CodeConflict, Key: "error.discount_order_duplicate"},
	{Target: service.ErrDiscountNotFound, Code: response.CodeNotFound, Key: "error.discount_not_found"},
	{Target: service.ErrDiscountRuleNotFound, Code: response.CodeNotFound, Key: "error.discount_rule_not_found"},
	{Target: service.ErrDiscountRuleInactive, Code: response.CodeConflict, Key: "error.discount_rule_inactive"},
	{Target: service.ErrSubjectRequired, Code: response.CodeBadRequest, Key: "error.subject_required"},
	{Target: service.ErrEvaluateItemsInvalid, Code: response.CodeBadRequest, Key: "error.evaluate_items_invalid"},
}

// categoryErrorRules 错误分类映射
var categoryErrorRules = []MappedError{
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrConflict, Code: response.CodeConflict, Key: "error.conflict"},
	{Target: service.ErrSchemaUnready, Code: response.CodeServiceUnavailable, Key: "error.schema_unready"},
}

// RespondServiceError 按业务错误映射响应，未识别错误返回 500 并记录日志
func RespondServiceError(c *gin.Context, err error) {
	if appErr, ok := response.AsAppError(err); ok {
		RespondError(c, appErr.Code, appErr.Key, appErr.Err)
		return
	}
	if rule, ok := MatchServiceError(err); ok {
		if rule.Code == response.CodeServiceUnavailable {
			RespondError(c, rule.Code, rule.Key, err)
			return
		}
		RespondError(c, rule.Code, rule.Key, nil)
		return
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}

// MatchServiceError 查找错误对应的映射
func MatchServiceError(err error) (MappedError, bool) {
	if err == nil {
		return MappedError{}, false
	}
	for _, rules := range [][]MappedError{ServiceErrorRules, categoryErrorRules} {
		for _, rule := range rules {
			if errors.Is(err, rule.Target) {
				return rule, true
			}
		}
	}
	return MappedError{}, false
}
