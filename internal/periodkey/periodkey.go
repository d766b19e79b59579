package periodkey

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period 计数周期粒度
type Period string

const (
	Day        Period = "day"
	Week       Period = "week"
	Month      Period = "month"
	Year       Period = "year"
	Membership Period = "membership"
	Unlimited  Period = "unlimited"
)

const bookingDayLayout = "2006-01-02"

var (
	// ErrInvalidPeriod 非法周期
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidBookingDay 非法预约日期
	ErrInvalidBookingDay = errors.New("invalid booking day")
)

// Parse 解析周期名称（忽略大小写与首尾空白）
func Parse(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// Valid 判断周期是否受支持
func (p Period) Valid() bool {
	switch p {
	case Day, Week, Month, Year, Membership, Unlimited:
		return true
	default:
		return false
	}
}

// For 计算时间点所在的周期键，统一使用 UTC
func For(period Period, at time.Time) (string, error) {
	at = at.UTC()
	switch period {
	case Day:
		return at.Format("2006-01-02"), nil
	case Week:
		year, week := at.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case Month:
		return at.Format("2006-01"), nil
	case Year:
		return fmt.Sprintf("%04d", at.Year()), nil
	case Membership:
		return string(Membership), nil
	case Unlimited:
		return string(Unlimited), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
}

// MustFor 与 For 相同，周期非法时 panic，仅用于已校验的周期
func MustFor(period Period, at time.Time) string {
	key, err := For(period, at)
	if err != nil {
		panic(err)
	}
	return key
}

// ForBookingDay 根据预约日期（YYYY-MM-DD）推导月度周期键
func ForBookingDay(day string) (string, error) {
	parsed, err := time.ParseInLocation(bookingDayLayout, strings.TrimSpace(day), time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBookingDay, err)
	}
	return For(Month, parsed)
}
