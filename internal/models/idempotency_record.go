package models

import "time"

// IdempotencyRecord 幂等记录，保存首次执行的结果用于重放
type IdempotencyRecord struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                         // 主键
	IdempotencyKey string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"idempotency_key"` // 幂等键
	Scope          string    `gorm:"type:varchar(64);index;not null" json:"scope"`                  // 操作作用域
	RequestHash    string    `gorm:"type:varchar(64);not null" json:"request_hash"`                 // 请求摘要
	ResponseJSON   string    `gorm:"type:text;not null;default:''" json:"-"`                        // 首次结果
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
}

// TableName 指定表名
func (IdempotencyRecord) TableName() string {
	return "idempotency_record"
}
