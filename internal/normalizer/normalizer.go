// Package normalizer converts provider-shaped subscription and deal records into the
// ledger's canonical entities. It performs no I/O and is safe for concurrent use.
package normalizer

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
)

// NormalizedSubscription is a canonical subscription plus the customer identity it references.
// Subscription.ID and Subscription.CustomerID are left zero for the ledger to resolve.
type NormalizedSubscription struct {
	Subscription       *subscription.Subscription
	CustomerExternalID string
	CustomerName       string
}

// Normalizer converts provider records into canonical entities. All errors are MalformedInputError.
type Normalizer interface {
	Page(page *SyncPage) error
	Subscription(organizationID uuid.UUID, record *SubscriptionRecord) (*NormalizedSubscription, error)
	Deal(organizationID uuid.UUID, record *DealRecord) (*deal.Deal, error)
}

type normalizer struct {
	validate *validator.Validate
}

func NewNormalizer() Normalizer {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &normalizer{validate: v}
}

// Page validates the page envelope. Individual records are validated when normalized.
func (n *normalizer) Page(page *SyncPage) error {
	if page == nil {
		return shared.MalformedInputError{Reason: "sync page is empty"}
	}
	if page.OrganizationID == uuid.Nil {
		return shared.MalformedInputError{Field: "organization_id", Reason: "required"}
	}
	if page.SyncRunID == uuid.Nil {
		return shared.MalformedInputError{Field: "sync_run_id", Reason: "required"}
	}
	return nil
}

func (n *normalizer) Subscription(organizationID uuid.UUID, record *SubscriptionRecord) (*NormalizedSubscription, error) {
	if record == nil {
		return nil, shared.MalformedInputError{Field: "subscription", Reason: "required"}
	}
	if err := n.check(record); err != nil {
		return nil, err
	}

	status, ok := canonicalStatus(record.Status)
	if !ok {
		return nil, shared.MalformedInputError{Field: "status", Reason: "unknown status " + record.Status}
	}
	interval, ok := canonicalInterval(record.Interval)
	if !ok {
		return nil, shared.MalformedInputError{Field: "interval", Reason: "unknown interval " + record.Interval}
	}

	currency := strings.ToUpper(record.Currency)
	amount, err := recordAmount(record.UnitAmount, record.UnitAmountDecimal, record.Quantity, currency, "unit_amount")
	if err != nil {
		return nil, err
	}

	count := record.IntervalCount
	if count == 0 {
		count = 1
	}

	start, end := record.CurrentPeriodStart.UTC(), record.CurrentPeriodEnd.UTC()
	if !end.After(start) {
		return nil, shared.MalformedInputError{Field: "current_period_end", Reason: "must be after current_period_start"}
	}

	startedAt := start
	if record.StartedAt != nil {
		startedAt = record.StartedAt.UTC()
	}

	var canceledAt *time.Time
	if record.CanceledAt != nil {
		c := record.CanceledAt.UTC()
		canceledAt = &c
	}

	var sourceUpdatedAt *time.Time
	if record.UpdatedAt != nil {
		u := record.UpdatedAt.UTC()
		sourceUpdatedAt = &u
	}

	sub := &subscription.Subscription{
		OrganizationID:       organizationID,
		ExternalID:           record.ExternalID,
		Status:               status,
		Amount:               amount,
		Currency:             currency,
		BillingInterval:      interval,
		BillingIntervalCount: count,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		StartedAt:            startedAt,
		CanceledAt:           canceledAt,
		PlanName:             record.PlanName,
		SourceUpdatedAt:      sourceUpdatedAt,
	}
	if err := sub.Validate(); err != nil {
		return nil, shared.MalformedInputError{Reason: err.Error()}
	}

	return &NormalizedSubscription{
		Subscription:       sub,
		CustomerExternalID: record.CustomerExternalID,
		CustomerName:       record.CustomerName,
	}, nil
}

func (n *normalizer) Deal(organizationID uuid.UUID, record *DealRecord) (*deal.Deal, error) {
	if record == nil {
		return nil, shared.MalformedInputError{Field: "deal", Reason: "required"}
	}
	if err := n.check(record); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(record.Currency)
	amount, err := recordAmount(record.Amount, record.AmountDecimal, nil, currency, "amount")
	if err != nil {
		return nil, err
	}

	var probability *int
	if record.Probability != nil {
		p := *record.Probability
		probability = &p
	}

	return &deal.Deal{
		OrganizationID: organizationID,
		ExternalID:     record.ExternalID,
		Name:           record.Name,
		Stage:          record.Stage,
		Amount:         amount,
		Currency:       currency,
		Probability:    probability,
		IsClosed:       record.IsClosed,
	}, nil
}

// check runs struct validation and reports the first failing field
func (n *normalizer) check(record interface{}) error {
	err := n.validate.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return shared.MalformedInputError{Field: fe.Field(), Reason: reason}
	}
	return shared.MalformedInputError{Reason: err.Error()}
}

func recordAmount(minor *int64, major string, quantity *int64, currency, field string) (int64, error) {
	qty := int64(1)
	if quantity != nil {
		qty = *quantity
	}

	switch {
	case minor != nil:
		total, err := multiplyMinor(*minor, qty)
		if err != nil {
			return 0, shared.MalformedInputError{Field: field, Reason: err.Error()}
		}
		return total, nil
	case major != "":
		if currency == "" {
			return 0, shared.MalformedInputError{Field: "currency", Reason: "required for decimal amounts"}
		}
		total, err := toMinorUnits(major, qty, currency)
		if err != nil {
			return 0, shared.MalformedInputError{Field: field + "_decimal", Reason: err.Error()}
		}
		return total, nil
	default:
		return 0, shared.MalformedInputError{Field: field, Reason: "required"}
	}
}
