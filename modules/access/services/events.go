package services

import "github.com/google/uuid"

// GrantChangedEvent is published after any grant mutation commits.
type GrantChangedEvent struct {
	TenantID   uuid.UUID
	ResourceID uuid.UUID
}

// OrgUnitChangedEvent is published after an org unit mutation commits.
// Subscribers invalidate cached hierarchy snapshots for the tenant.
type OrgUnitChangedEvent struct {
	TenantID  uuid.UUID
	OrgUnitID uuid.UUID
}

// DelegationChangedEvent is published when a delegation is created or
// revoked.
type DelegationChangedEvent struct {
	TenantID     uuid.UUID
	DelegationID uuid.UUID
}
