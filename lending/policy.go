package lending

import (
	"Gin_postgres_redis_library/config"

	"github.com/shopspring/decimal"
)

// Policy 借阅规则：借期、预约保留期、各项罚款单价
type Policy struct {
	LoanDays       int
	HoldDays       int
	PageFee        decimal.Decimal
	DailyLateFee   decimal.Decimal
	DefaultLostFee decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		LoanDays:       14,
		HoldDays:       14,
		PageFee:        decimal.RequireFromString("2.00"),
		DailyLateFee:   decimal.RequireFromString("1.00"),
		DefaultLostFee: decimal.RequireFromString("50.00"),
	}
}

func PolicyFrom(c config.Lending) Policy {
	return Policy{
		LoanDays:       c.LoanDays,
		HoldDays:       c.HoldDays,
		PageFee:        c.PageFee,
		DailyLateFee:   c.DailyLateFee,
		DefaultLostFee: c.DefaultLostFee,
	}
}
