package repository

// GiftCardListFilter 礼品卡列表筛选
type GiftCardListFilter struct {
	Code     string
	Status   string
	OwnerRef string
	Page     int
	PageSize int
}

// EntitlementListFilter 会员权益状态与流水筛选
type EntitlementListFilter struct {
	MembershipID string
	RuleID       string
	Page         int
	PageSize     int
}

// DiscountListFilter 会员折扣定义筛选
type DiscountListFilter struct {
	Search     string
	ProductRef string
	OnlyActive bool
}
