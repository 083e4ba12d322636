package normalizer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
)

var (
	daysPerMonth  = decimal.NewFromInt(30)
	weeksPerMonth = decimal.RequireFromString("4.345")
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyAmount converts an amount billed every intervalCount intervals into its
// monthly equivalent in the same minor units. The result is rounded half to even
// once, on the final value, so snapshot totals reconcile with summed deltas.
func MonthlyAmount(amount int64, interval subscription.Interval, intervalCount int) (int64, error) {
	if intervalCount < 1 {
		return 0, fmt.Errorf("billing interval count %d must be at least 1", intervalCount)
	}

	a := decimal.NewFromInt(amount)
	count := decimal.NewFromInt(int64(intervalCount))

	var monthly decimal.Decimal
	switch interval {
	case subscription.IntervalDay:
		monthly = a.Mul(daysPerMonth).Div(count)
	case subscription.IntervalWeek:
		monthly = a.Mul(weeksPerMonth).Div(count)
	case subscription.IntervalMonth:
		monthly = a.Div(count)
	case subscription.IntervalYear:
		monthly = a.Div(monthsPerYear.Mul(count))
	default:
		return 0, fmt.Errorf("unknown billing interval %q", interval)
	}

	return monthly.RoundBank(0).IntPart(), nil
}

// LiveTotals sums the monthly amounts of the live subscriptions in subs and counts their
// distinct customers. Stored live state without a monthly amount is an invariant violation.
func LiveTotals(subs []*subscription.Subscription) (int64, int, error) {
	var total int64
	customers := make(map[uuid.UUID]struct{}, len(subs))
	for _, s := range subs {
		if !s.IsLive() {
			continue
		}
		monthly, err := MonthlyAmount(s.Amount, s.BillingInterval, s.BillingIntervalCount)
		if err != nil {
			return 0, 0, shared.InvariantViolationError{
				SubscriptionID: s.ID.String(),
				Reason:         fmt.Sprintf("stored live state has no monthly amount: %v", err),
			}
		}
		total += monthly
		customers[s.CustomerID] = struct{}{}
	}
	return total, len(customers), nil
}

// toMinorUnits converts a major-unit decimal string times quantity into integer minor units
func toMinorUnits(major string, quantity int64, currency string) (int64, error) {
	d, err := decimal.NewFromString(major)
	if err != nil {
		return 0, fmt.Errorf("not a decimal number")
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("must not be negative")
	}
	minor := d.Mul(decimal.NewFromInt(quantity)).Shift(CurrencyExponent(currency)).RoundBank(0)
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("out of range")
	}
	return minor.IntPart(), nil
}

// multiplyMinor multiplies a minor-unit amount by quantity, rejecting overflow
func multiplyMinor(unit, quantity int64) (int64, error) {
	if unit == 0 || quantity == 0 {
		return 0, nil
	}
	total := unit * quantity
	if total/quantity != unit || total < 0 {
		return 0, fmt.Errorf("out of range")
	}
	return total, nil
}
