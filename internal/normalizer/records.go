package normalizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/shared"
)

// SyncPage is one page of provider records for a single organization, as produced by a sync driver
type SyncPage struct {
	SyncRunID      uuid.UUID `json:"sync_run_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Provider       string    `json:"provider"`
	Records        []Record  `json:"records"`
}

// Record is a tagged provider record. Exactly one payload matching Kind is set.
type Record struct {
	Kind         shared.RecordKind   `json:"kind"`
	Subscription *SubscriptionRecord `json:"subscription,omitempty"`
	Deal         *DealRecord         `json:"deal,omitempty"`
}

// ExternalID returns the provider id of the payload, or "" when the payload is missing
func (r Record) ExternalID() string {
	switch {
	case r.Kind == shared.RecordKindSubscription && r.Subscription != nil:
		return r.Subscription.ExternalID
	case r.Kind == shared.RecordKindDeal && r.Deal != nil:
		return r.Deal.ExternalID
	}
	return ""
}

// SubscriptionRecord is a provider subscription after transport decoding.
// The amount is either UnitAmount in minor units or UnitAmountDecimal in major units.
type SubscriptionRecord struct {
	ExternalID         string     `json:"external_id" validate:"required"`
	CustomerExternalID string     `json:"customer_external_id" validate:"required"`
	CustomerName       string     `json:"customer_name"`
	Status             string     `json:"status" validate:"required"`
	Currency           string     `json:"currency" validate:"required,alpha,len=3"`
	UnitAmount         *int64     `json:"unit_amount,omitempty" validate:"omitempty,min=0"`
	UnitAmountDecimal  string     `json:"unit_amount_decimal,omitempty"`
	Quantity           *int64     `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Interval           string     `json:"interval" validate:"required"`
	IntervalCount      int        `json:"interval_count" validate:"min=0"`
	CurrentPeriodStart *time.Time `json:"current_period_start" validate:"required"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end" validate:"required"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	PlanName           string     `json:"plan_name"`
	// UpdatedAt is the provider's last modification time. Older states than the stored one are skipped.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DealRecord is a provider CRM opportunity after transport decoding
type DealRecord struct {
	ExternalID    string `json:"external_id" validate:"required"`
	Name          string `json:"name"`
	Stage         string `json:"stage"`
	Currency      string `json:"currency" validate:"omitempty,alpha,len=3"`
	Amount        *int64 `json:"amount,omitempty" validate:"omitempty,min=0"`
	AmountDecimal string `json:"amount_decimal,omitempty"`
	Probability   *int   `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	IsClosed      bool   `json:"is_closed"`
}
