package models

import (
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/constants"
)

// QuotaCounter 规则用量计数
type QuotaCounter struct {
	PeriodKey    string `json:"period_key"`
	CountUsed    int64  `json:"count_used"`
	LifetimeUsed int64  `json:"lifetime_used"`
}

// QuotaCounterSnapshot 客户的规则用量快照，键为 rule_<规则ID>
type QuotaCounterSnapshot map[string]QuotaCounter

// QuotaCounterKey 生成规则计数键
func QuotaCounterKey(ruleID string) string {
	return constants.QuotaCounterKeyPrefix + strings.TrimSpace(ruleID)
}

// Get 读取规则计数
func (s QuotaCounterSnapshot) Get(ruleID string) (QuotaCounter, bool) {
	if s == nil {
		return QuotaCounter{}, false
	}
	counter, ok := s[QuotaCounterKey(ruleID)]
	return counter, ok
}

// Clone 复制快照
func (s QuotaCounterSnapshot) Clone() QuotaCounterSnapshot {
	next := make(QuotaCounterSnapshot, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	return next
}
