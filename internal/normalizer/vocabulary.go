package normalizer

import (
	"strings"

	"github.com/revenue-ledger/internal/domain/subscription"
)

var statusVocabulary = map[string]subscription.Status{
	"trialing":           subscription.StatusTrialing,
	"trial":              subscription.StatusTrialing,
	"in_trial":           subscription.StatusTrialing,
	"active":             subscription.StatusActive,
	"past_due":           subscription.StatusPastDue,
	"unpaid":             subscription.StatusPastDue,
	"canceled":           subscription.StatusCanceled,
	"cancelled":          subscription.StatusCanceled,
	"incomplete_expired": subscription.StatusCanceled,
	"ended":              subscription.StatusCanceled,
	"expired":            subscription.StatusCanceled,
}

var intervalVocabulary = map[string]subscription.Interval{
	"day":     subscription.IntervalDay,
	"daily":   subscription.IntervalDay,
	"week":    subscription.IntervalWeek,
	"weekly":  subscription.IntervalWeek,
	"month":   subscription.IntervalMonth,
	"monthly": subscription.IntervalMonth,
	"year":    subscription.IntervalYear,
	"yearly":  subscription.IntervalYear,
	"annual":  subscription.IntervalYear,
}

// Minor unit exponents that differ from the ISO 4217 default of 2
var currencyExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

func canonicalStatus(raw string) (subscription.Status, bool) {
	s, ok := statusVocabulary[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

func canonicalInterval(raw string) (subscription.Interval, bool) {
	i, ok := intervalVocabulary[strings.ToLower(strings.TrimSpace(raw))]
	return i, ok
}

// CurrencyExponent returns the number of minor-unit digits for an ISO currency code
func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}
