package movement

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a change in monthly recurring revenue
type Type string

const (
	TypeNew          Type = "new"
	TypeExpansion    Type = "expansion"
	TypeContraction  Type = "contraction"
	TypeChurn        Type = "churn"
	TypeReactivation Type = "reactivation"
)

// Valid reports whether t is a known movement type
func (t Type) Valid() bool {
	switch t {
	case TypeNew, TypeExpansion, TypeContraction, TypeChurn, TypeReactivation:
		return true
	}
	return false
}

// Movement is one immutable ledger entry. AmountDeltaMonthly is signed:
// positive for new, expansion and reactivation, negative for contraction and churn.
type Movement struct {
	ID                 uuid.UUID `json:"id"`
	OrganizationID     uuid.UUID `json:"organization_id"`
	SubscriptionID     uuid.UUID `json:"subscription_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	Type               Type      `json:"type"`
	AmountDeltaMonthly int64     `json:"amount_delta_monthly"`
	OccurredAt         time.Time `json:"occurred_at"`
	PeriodKey          time.Time `json:"period_key"`
}

// NewMovement creates a movement. periodKey is the organization-local day of occurredAt.
func NewMovement(organizationID, subscriptionID, customerID uuid.UUID, movementType Type, delta int64, occurredAt, periodKey time.Time) *Movement {
	return &Movement{
		ID:                 uuid.New(),
		OrganizationID:     organizationID,
		SubscriptionID:     subscriptionID,
		CustomerID:         customerID,
		Type:               movementType,
		AmountDeltaMonthly: delta,
		OccurredAt:         occurredAt,
		PeriodKey:          periodKey,
	}
}

// Magnitude returns the absolute monthly amount of the movement
func (m *Movement) Magnitude() int64 {
	if m.AmountDeltaMonthly < 0 {
		return -m.AmountDeltaMonthly
	}
	return m.AmountDeltaMonthly
}

// Totals are per-type magnitudes for a set of movements, all non-negative
type Totals struct {
	New          int64 `json:"new"`
	Expansion    int64 `json:"expansion"`
	Contraction  int64 `json:"contraction"`
	Churn        int64 `json:"churn"`
	Reactivation int64 `json:"reactivation"`
}

// Add accumulates the magnitude of one movement type
func (t *Totals) Add(movementType Type, magnitude int64) {
	switch movementType {
	case TypeNew:
		t.New += magnitude
	case TypeExpansion:
		t.Expansion += magnitude
	case TypeContraction:
		t.Contraction += magnitude
	case TypeChurn:
		t.Churn += magnitude
	case TypeReactivation:
		t.Reactivation += magnitude
	}
}

// Net returns the signed MRR change represented by the totals
func (t Totals) Net() int64 {
	return t.New + t.Expansion + t.Reactivation - t.Contraction - t.Churn
}
