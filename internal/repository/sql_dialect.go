package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// buildLikeCondition 构建多列模糊匹配条件，sqlite 的 LIKE 对 ASCII 本身不区分大小写。
func buildLikeCondition(db *gorm.DB, columns []string, keyword string) (string, []interface{}) {
	return buildLikeConditionByDialect(dbDialectName(db), columns, keyword)
}

func buildLikeConditionByDialect(dialect string, columns []string, keyword string) (string, []interface{}) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	operator := likeOperatorByDialect(dialect)
	like := "%" + keyword + "%"
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
		args = append(args, like)
	}
	return strings.Join(parts, " OR "), args
}

// sumAsBigintExpr 汇总表达式，空集返回 0，postgres 下避免 numeric 类型
func sumAsBigintExpr(column string) string {
	return fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS BIGINT)", column)
}
