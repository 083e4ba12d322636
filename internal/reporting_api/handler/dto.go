package handler

import (
	"time"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
)

// DateRangeParams bounds a listing by inclusive reporting days (YYYY-MM-DD)
type DateRangeParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

// MovementListParams are the query parameters of the movement listing
type MovementListParams struct {
	DateRangeParams
	Type   string `form:"type" binding:"omitempty,oneof=new expansion contraction churn reactivation"`
	Limit  int    `form:"limit,default=50" binding:"min=1,max=500"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
}

// ListLimitParams caps report listings
type ListLimitParams struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// MovementResponse represents a movement in API responses
type MovementResponse struct {
	ID                 string `json:"id"`
	SubscriptionID     string `json:"subscription_id"`
	CustomerID         string `json:"customer_id"`
	Type               string `json:"type"`
	AmountDeltaMonthly int64  `json:"amount_delta_monthly"`
	OccurredAt         string `json:"occurred_at"`
	PeriodKey          string `json:"period_key"`
}

// MrrSnapshotResponse represents an MRR snapshot with its derived rates
type MrrSnapshotResponse struct {
	SnapshotDate    string  `json:"snapshot_date"`
	TotalMrr        int64   `json:"total_mrr"`
	TotalCustomers  int     `json:"total_customers"`
	NewMrr          int64   `json:"new_mrr"`
	ExpansionMrr    int64   `json:"expansion_mrr"`
	ContractionMrr  int64   `json:"contraction_mrr"`
	ChurnMrr        int64   `json:"churn_mrr"`
	ReactivationMrr int64   `json:"reactivation_mrr"`
	NetNewMrr       int64   `json:"net_new_mrr"`
	ChurnRate       float64 `json:"churn_rate"`
}

// PipelineSnapshotResponse represents a pipeline snapshot in API responses
type PipelineSnapshotResponse struct {
	SnapshotDate  string `json:"snapshot_date"`
	TotalValue    int64  `json:"total_value"`
	WeightedValue int64  `json:"weighted_value"`
	DealCount     int    `json:"deal_count"`
}

func mapMovementToResponse(m *movement.Movement) MovementResponse {
	return MovementResponse{
		ID:                 m.ID.String(),
		SubscriptionID:     m.SubscriptionID.String(),
		CustomerID:         m.CustomerID.String(),
		Type:               string(m.Type),
		AmountDeltaMonthly: m.AmountDeltaMonthly,
		OccurredAt:         m.OccurredAt.UTC().Format(time.RFC3339),
		PeriodKey:          m.PeriodKey.Format(shared.DateFormat),
	}
}

func mapMrrSnapshotToResponse(s *snapshot.MrrSnapshot) MrrSnapshotResponse {
	return MrrSnapshotResponse{
		SnapshotDate:    s.SnapshotDate.Format(shared.DateFormat),
		TotalMrr:        s.TotalMrr,
		TotalCustomers:  s.TotalCustomers,
		NewMrr:          s.NewMrr,
		ExpansionMrr:    s.ExpansionMrr,
		ContractionMrr:  s.ContractionMrr,
		ChurnMrr:        s.ChurnMrr,
		ReactivationMrr: s.ReactivationMrr,
		NetNewMrr:       s.NetNewMrr(),
		ChurnRate:       s.ChurnRate(),
	}
}

func mapPipelineSnapshotToResponse(s *snapshot.PipelineSnapshot) PipelineSnapshotResponse {
	return PipelineSnapshotResponse{
		SnapshotDate:  s.SnapshotDate.Format(shared.DateFormat),
		TotalValue:    s.TotalValue,
		WeightedValue: s.WeightedValue,
		DealCount:     s.DealCount,
	}
}
