package snapshot

import (
	"time"

	"github.com/google/uuid"
)

// MrrSnapshot is the organization's MRR state for one reporting day.
// Component fields are non-negative magnitudes.
type MrrSnapshot struct {
	OrganizationID  uuid.UUID `json:"organization_id"`
	SnapshotDate    time.Time `json:"snapshot_date"`
	TotalMrr        int64     `json:"total_mrr"`
	TotalCustomers  int       `json:"total_customers"`
	NewMrr          int64     `json:"new_mrr"`
	ExpansionMrr    int64     `json:"expansion_mrr"`
	ContractionMrr  int64     `json:"contraction_mrr"`
	ChurnMrr        int64     `json:"churn_mrr"`
	ReactivationMrr int64     `json:"reactivation_mrr"`
}

// NetNewMrr is the signed MRR change recorded by the day's movements
func (s *MrrSnapshot) NetNewMrr() int64 {
	return s.NewMrr + s.ExpansionMrr + s.ReactivationMrr - s.ContractionMrr - s.ChurnMrr
}

// ChurnRate returns churned MRR as a percentage of the day's churn base, defined as ending
// MRR plus churned MRR. New, expansion, contraction and reactivation MRR stay out of the base.
// A zero base yields 0.
func (s *MrrSnapshot) ChurnRate() float64 {
	denominator := s.TotalMrr + s.ChurnMrr
	if denominator <= 0 {
		return 0
	}
	return float64(s.ChurnMrr) / float64(denominator) * 100
}

// PipelineSnapshot is the organization's open deal pipeline for one reporting day
type PipelineSnapshot struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	SnapshotDate   time.Time `json:"snapshot_date"`
	TotalValue     int64     `json:"total_value"`
	WeightedValue  int64     `json:"weighted_value"`
	DealCount      int       `json:"deal_count"`
}
