package delegation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
)

// Delegation is a time-bounded transfer of a subset of the delegator's
// permissions to the delegatee. Revocation sets RevokedAt rather than
// deleting the row, preserving audit history.
type Delegation struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DelegatorID uuid.UUID
	DelegateeID uuid.UUID
	OrgUnitID   *uuid.UUID
	Permissions []policy.Action
	ValidFrom   time.Time
	ValidUntil  time.Time
	RevokedAt   *time.Time
	RevokedBy   *uuid.UUID
	CreatedAt   time.Time
}

// EffectiveAt reports whether the delegation is live at the given instant.
func (d *Delegation) EffectiveAt(now time.Time) bool {
	if d.RevokedAt != nil {
		return false
	}
	return !now.Before(d.ValidFrom) && now.Before(d.ValidUntil)
}

// Covers reports whether the delegated permission list includes the action.
func (d *Delegation) Covers(action policy.Action) bool {
	for _, p := range d.Permissions {
		if p == action {
			return true
		}
	}
	return false
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Delegation, error)
	// ActiveForDelegatee returns delegations live at the given instant
	// where the subject is the delegatee.
	ActiveForDelegatee(ctx context.Context, delegateeID uuid.UUID, now time.Time) ([]*Delegation, error)
	Create(ctx context.Context, d *Delegation) error
	Revoke(ctx context.Context, id, revokedBy uuid.UUID, at time.Time) (bool, error)
}
