package domain

import "github.com/shopspring/decimal"

// FeeSchedule maps a trade's notional value to a commission with a
// minimum floor. The same schedule applies to both sides: commission is
// added to the cost of a buy and deducted from the proceeds of a sell.
type FeeSchedule struct {
	Rate decimal.Decimal // fraction of notional, e.g. 0.001 for 0.1%
	Min  decimal.Decimal // minimum commission per fill
}

// DefaultFeeSchedule returns the standard crypto fee schedule: 0.1% of
// notional with a $1 floor.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Rate: decimal.NewFromFloat(0.001),
		Min:  decimal.NewFromInt(1),
	}
}

// Commission returns max(notional × rate, min).
func (f FeeSchedule) Commission(notional decimal.Decimal) decimal.Decimal {
	pct := notional.Mul(f.Rate)
	if pct.LessThan(f.Min) {
		return f.Min
	}
	return pct
}
