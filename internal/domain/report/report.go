package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/revenue-ledger/internal/domain/shared"
)

// RecordFailure describes one record of a sync page that could not be applied
type RecordFailure struct {
	RecordIndex int                  `json:"record_index" bson:"record_index"`
	Kind        shared.RecordKind    `json:"kind" bson:"kind"`
	ExternalID  string               `json:"external_id" bson:"external_id"`
	Reason      shared.FailureReason `json:"reason" bson:"reason"`
	Message     string               `json:"message" bson:"message"`
}

// SyncReport summarizes one processed provider sync page
type SyncReport struct {
	SyncRunID      uuid.UUID       `json:"sync_run_id" bson:"sync_run_id"`
	OrganizationID uuid.UUID       `json:"organization_id" bson:"organization_id"`
	Provider       string          `json:"provider" bson:"provider"`
	ReceivedAt     time.Time       `json:"received_at" bson:"received_at"`
	CompletedAt    time.Time       `json:"completed_at" bson:"completed_at"`
	Processed      int             `json:"processed" bson:"processed"`
	Unchanged      int             `json:"unchanged" bson:"unchanged"`
	Skipped        int             `json:"skipped" bson:"skipped"`
	Movements      int             `json:"movements" bson:"movements"`
	DealsUpserted  int             `json:"deals_upserted" bson:"deals_upserted"`
	Failures       []RecordFailure `json:"failures" bson:"failures"`
}

// HasRetryableFailure reports whether any record failed transiently
func (r *SyncReport) HasRetryableFailure() bool {
	for _, f := range r.Failures {
		if f.Reason.Retryable() {
			return true
		}
	}
	return false
}

// OrganizationResult is the outcome of one organization inside a snapshot run
type OrganizationResult struct {
	OrganizationID uuid.UUID            `json:"organization_id" bson:"organization_id"`
	SnapshotDate   string               `json:"snapshot_date" bson:"snapshot_date"`
	ClosedDate     string               `json:"closed_date" bson:"closed_date"`
	Succeeded      bool                 `json:"succeeded" bson:"succeeded"`
	Reason         shared.FailureReason `json:"reason,omitempty" bson:"reason,omitempty"`
	Error          string               `json:"error,omitempty" bson:"error,omitempty"`
	TotalMrr       int64                `json:"total_mrr" bson:"total_mrr"`
	WeightedValue  int64                `json:"weighted_value" bson:"weighted_value"`
	DriftDetected  bool                 `json:"drift_detected" bson:"drift_detected"`
}

// SnapshotRunReport summarizes one scheduled snapshot pass
type SnapshotRunReport struct {
	RunID         uuid.UUID            `json:"run_id" bson:"run_id"`
	StartedAt     time.Time            `json:"started_at" bson:"started_at"`
	CompletedAt   time.Time            `json:"completed_at" bson:"completed_at"`
	Organizations []OrganizationResult `json:"organizations" bson:"organizations"`
}

// FailedCount returns the number of organizations whose snapshots failed
func (r *SnapshotRunReport) FailedCount() int {
	failed := 0
	for _, o := range r.Organizations {
		if !o.Succeeded {
			failed++
		}
	}
	return failed
}

// Repository stores run reports
type Repository interface {
	CreateSyncReport(ctx context.Context, report *SyncReport) error
	ListSyncReports(ctx context.Context, organizationID uuid.UUID, limit int) ([]*SyncReport, error)
	CreateSnapshotRun(ctx context.Context, report *SnapshotRunReport) error
	ListSnapshotRuns(ctx context.Context, limit int) ([]*SnapshotRunReport, error)
}
