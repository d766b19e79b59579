package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubjectProfile 客户资料元数据（外部资料存储的数据库实现）
type SubjectProfile struct {
	SubjectID string            `gorm:"primaryKey;type:varchar(120)" json:"subject_id"` // 客户ID
	Metadata  datatypes.JSONMap `gorm:"type:text" json:"metadata"`                      // 不透明元数据
	UpdatedAt time.Time         `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (SubjectProfile) TableName() string {
	return "subject_profile"
}
