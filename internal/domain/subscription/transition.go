package subscription

import "github.com/google/uuid"

// SourceRecord identifies the sync page record a state was read from. A record is applied at
// most once, so a redelivered page cannot produce its movements again.
type SourceRecord struct {
	SyncRunID   uuid.UUID
	RecordIndex int
}

// TransitionKind is the outcome of reconciling incoming state against stored state
type TransitionKind string

const (
	TransitionCreated   TransitionKind = "created"
	TransitionChanged   TransitionKind = "changed"
	TransitionUnchanged TransitionKind = "unchanged"
	// TransitionStale is incoming state the provider modified before the stored copy
	TransitionStale TransitionKind = "stale"
	// TransitionDuplicate is a source record that was already applied
	TransitionDuplicate TransitionKind = "duplicate"
)

// Applies reports whether the transition writes anything to the ledger
func (k TransitionKind) Applies() bool {
	return k == TransitionCreated || k == TransitionChanged
}

// Transition is one reconciled state change for a single subscription.
// Prior is nil for Created. Next always carries the identity the ledger will store it under.
type Transition struct {
	Kind  TransitionKind
	Prior *Subscription
	Next  *Subscription
}

// Reconcile compares incoming state with the last persisted copy, which is nil when the
// subscription was never seen. next is not modified.
func Reconcile(prior, next *Subscription) Transition {
	resolved := *next

	if prior == nil {
		if resolved.ID == uuid.Nil {
			resolved.ID = uuid.New()
		}
		return Transition{Kind: TransitionCreated, Next: &resolved}
	}

	resolved.ID = prior.ID
	resolved.CreatedAt = prior.CreatedAt
	if resolved.CustomerID == uuid.Nil {
		resolved.CustomerID = prior.CustomerID
	}
	if resolved.SourceUpdatedAt == nil {
		resolved.SourceUpdatedAt = prior.SourceUpdatedAt
	}

	if next.OlderThan(prior) {
		return Transition{Kind: TransitionStale, Prior: prior, Next: &resolved}
	}

	if !prior.DiffersFrom(&resolved) {
		return Transition{Kind: TransitionUnchanged, Prior: prior, Next: &resolved}
	}
	return Transition{Kind: TransitionChanged, Prior: prior, Next: &resolved}
}
