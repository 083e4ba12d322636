package components

import (
	"log/slog"
	"time"

	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// MovementClassifierImpl implements the MovementClassifier interface
type MovementClassifierImpl struct {
	logger *slog.Logger
}

// NewMovementClassifier creates a new MovementClassifierImpl
func NewMovementClassifier(logger *slog.Logger) service.MovementClassifier {
	return &MovementClassifierImpl{logger: logger}
}

// Classify compares the prior monthly amount A (zero when absent or terminal) with the new
// monthly amount B (zero when terminal):
//
//	none     -> live      new           +B
//	live     -> live      expansion     +(B-A) when B > A
//	live     -> live      contraction   -(A-B) when B < A
//	live     -> canceled  churn         -A
//	canceled -> live      reactivation  +B
//
// Everything else, including ties and zero deltas, yields no movement.
// occurredAt is attributed to its calendar day in loc.
func (c *MovementClassifierImpl) Classify(transition subscription.Transition, occurredAt time.Time, loc *time.Location) (*movement.Movement, error) {
	if !transition.Kind.Applies() || transition.Next == nil {
		return nil, nil
	}

	prior, next := transition.Prior, transition.Next

	var a, b int64
	var err error
	if prior.IsLive() {
		if a, err = monthlyAmount(prior); err != nil {
			return nil, err
		}
	}
	if next.IsLive() {
		if b, err = monthlyAmount(next); err != nil {
			return nil, err
		}
	}

	var movementType movement.Type
	var delta int64
	switch {
	case prior.IsLive() && next.IsLive():
		switch {
		case b > a:
			movementType, delta = movement.TypeExpansion, b-a
		case b < a:
			movementType, delta = movement.TypeContraction, -(a - b)
		}
	case prior.IsLive():
		movementType, delta = movement.TypeChurn, -a
	case next.IsLive() && prior == nil:
		movementType, delta = movement.TypeNew, b
	case next.IsLive():
		movementType, delta = movement.TypeReactivation, b
	}

	if delta == 0 {
		c.logger.Debug("Transition carries no MRR change",
			"external_id", next.ExternalID,
			"transition", transition.Kind,
			"status", next.Status,
		)
		return nil, nil
	}

	m := movement.NewMovement(
		next.OrganizationID,
		next.ID,
		next.CustomerID,
		movementType,
		delta,
		occurredAt.UTC(),
		shared.DayKey(occurredAt, loc),
	)
	c.logger.Info("Movement classified",
		"external_id", next.ExternalID,
		"movement_id", m.ID.String(),
		"type", m.Type,
		"delta", m.AmountDeltaMonthly,
	)
	return m, nil
}

// monthlyAmount converts stored state to its monthly equivalent. A state that passed
// normalization always converts, so failure means the state and the logic disagree.
func monthlyAmount(s *subscription.Subscription) (int64, error) {
	monthly, err := normalizer.MonthlyAmount(s.Amount, s.BillingInterval, s.BillingIntervalCount)
	if err != nil {
		return 0, shared.InvariantViolationError{
			SubscriptionID: s.ID.String(),
			Reason:         "monthly amount: " + err.Error(),
		}
	}
	return monthly, nil
}
