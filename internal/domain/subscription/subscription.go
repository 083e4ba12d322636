package subscription

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the canonical subscription status
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// IsLive reports whether the status contributes to MRR
func (s Status) IsLive() bool {
	return s == StatusTrialing || s == StatusActive || s == StatusPastDue
}

// Valid reports whether s is one of the canonical statuses
func (s Status) Valid() bool {
	return s.IsLive() || s == StatusCanceled
}

// Interval is the canonical billing cadence unit
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Valid reports whether i is one of the canonical intervals
func (i Interval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

var (
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrInvalidIntervalCount  = errors.New("billing interval count must be at least 1")
	ErrInvalidInterval       = errors.New("billing interval must be day, week, month or year")
	ErrInvalidStatus         = errors.New("status must be trialing, active, past_due or canceled")
	ErrInvalidBillingPeriod  = errors.New("current period end must be after current period start")
	ErrMissingExternalID     = errors.New("external id is required")
	ErrMissingOrganizationID = errors.New("organization id is required")
)

// Subscription is the billing engine's view of a recurring agreement.
// Amount is in integer minor units of Currency.
type Subscription struct {
	ID                   uuid.UUID  `json:"id"`
	OrganizationID       uuid.UUID  `json:"organization_id"`
	CustomerID           uuid.UUID  `json:"customer_id"`
	ExternalID           string     `json:"external_id"`
	Status               Status     `json:"status"`
	Amount               int64      `json:"amount"`
	Currency             string     `json:"currency"`
	BillingInterval      Interval   `json:"billing_interval"`
	BillingIntervalCount int        `json:"billing_interval_count"`
	CurrentPeriodStart   time.Time  `json:"current_period_start"`
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	StartedAt            time.Time  `json:"started_at"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	PlanName             string     `json:"plan_name"`
	SourceUpdatedAt      *time.Time `json:"source_updated_at,omitempty"` // provider modification time, when sent
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// OlderThan reports whether s was modified at the provider before other. States without a
// provider timestamp are never considered older.
func (s *Subscription) OlderThan(other *Subscription) bool {
	if s.SourceUpdatedAt == nil || other.SourceUpdatedAt == nil {
		return false
	}
	return s.SourceUpdatedAt.Before(*other.SourceUpdatedAt)
}

// IsLive reports whether the subscription currently contributes to MRR
func (s *Subscription) IsLive() bool {
	return s != nil && s.Status.IsLive()
}

// DiffersFrom reports whether any field that can move MRR changed between s and other
func (s *Subscription) DiffersFrom(other *Subscription) bool {
	return s.Status != other.Status ||
		s.Amount != other.Amount ||
		s.BillingInterval != other.BillingInterval ||
		s.BillingIntervalCount != other.BillingIntervalCount
}

// Validate checks the canonical shape invariants
func (s *Subscription) Validate() error {
	if s.OrganizationID == uuid.Nil {
		return ErrMissingOrganizationID
	}
	if s.ExternalID == "" {
		return ErrMissingExternalID
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if s.Amount < 0 {
		return ErrNegativeAmount
	}
	if !s.BillingInterval.Valid() {
		return ErrInvalidInterval
	}
	if s.BillingIntervalCount < 1 {
		return ErrInvalidIntervalCount
	}
	if !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		return ErrInvalidBillingPeriod
	}
	return nil
}
