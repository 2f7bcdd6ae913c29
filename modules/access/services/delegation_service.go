package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/eventbus"
	"github.com/govkit/records-sdk/pkg/serrors"
)

// DelegationService manages time-bounded permission transfers. The
// subset-of-delegator invariant is enforced at evaluation time, not here:
// the engine re-runs the rule chain on behalf of the delegator, so a
// delegation can never outlive or exceed what the delegator currently
// holds.
type DelegationService struct {
	repo delegation.Repository
	bus  eventbus.EventBus
}

func NewDelegationService(repo delegation.Repository, bus eventbus.EventBus) *DelegationService {
	return &DelegationService{repo: repo, bus: bus}
}

func (s *DelegationService) CreateDelegation(ctx context.Context, delegateeID uuid.UUID, orgUnitID *uuid.UUID, permissions []policy.Action, validFrom, validUntil time.Time) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	delegatorID, err := composables.UseUserID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if delegatorID == delegateeID {
		return uuid.Nil, serrors.NewError("ACCESS_INVALID_DELEGATION", "cannot delegate to oneself", "")
	}
	if len(permissions) == 0 {
		return uuid.Nil, serrors.NewError("ACCESS_INVALID_DELEGATION", "delegation requires at least one permission", "")
	}
	if !validUntil.After(validFrom) {
		return uuid.Nil, serrors.NewError("ACCESS_INVALID_DELEGATION", "delegation validity window is empty", "")
	}

	d := &delegation.Delegation{
		ID:          uuid.New(),
		TenantID:    tenantID,
		DelegatorID: delegatorID,
		DelegateeID: delegateeID,
		OrgUnitID:   orgUnitID,
		Permissions: permissions,
		ValidFrom:   validFrom,
		ValidUntil:  validUntil,
		CreatedAt:   time.Now(),
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, d)
	})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "create delegation")
	}
	if s.bus != nil {
		s.bus.Publish(DelegationChangedEvent{TenantID: tenantID, DelegationID: d.ID})
	}
	return d.ID, nil
}

// RevokeDelegation sets RevokedAt on the row, preserving it for audit. It
// reports whether a live delegation was actually revoked.
func (s *DelegationService) RevokeDelegation(ctx context.Context, delegationID, revokedBy uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}

	var revoked bool
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, delegationID)
		if err != nil {
			return err
		}
		if existing == nil {
			return NewNotFoundError("delegation", delegationID)
		}
		revoked, err = s.repo.Revoke(txCtx, delegationID, revokedBy, time.Now())
		return err
	})
	if err != nil {
		return false, err
	}
	if revoked && s.bus != nil {
		s.bus.Publish(DelegationChangedEvent{TenantID: tenantID, DelegationID: delegationID})
	}
	return revoked, nil
}
