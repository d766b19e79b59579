package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"
)

func discountDefinitionKey(id string) string {
	return fmt.Sprintf(constants.DiscountDefinitionCacheKey, strings.TrimSpace(id))
}

// GetDiscountDefinition 读取缓存的折扣定义（含规则）
func GetDiscountDefinition(ctx context.Context, id string) (*models.MembershipDiscount, bool, error) {
	var definition models.MembershipDiscount
	hit, err := GetJSON(ctx, discountDefinitionKey(id), &definition)
	if err != nil || !hit {
		return nil, false, err
	}
	return &definition, true, nil
}

// SetDiscountDefinition 写入折扣定义缓存
func SetDiscountDefinition(ctx context.Context, definition *models.MembershipDiscount, ttl time.Duration) error {
	if definition == nil || strings.TrimSpace(definition.ID) == "" {
		return nil
	}
	return SetJSON(ctx, discountDefinitionKey(definition.ID), definition, ttl)
}

// InvalidateDiscountDefinition 删除折扣定义缓存
func InvalidateDiscountDefinition(ctx context.Context, id string) error {
	return Del(ctx, discountDefinitionKey(id))
}
