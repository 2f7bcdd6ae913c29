package grants

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
)

// OrgAccessGrant gives an organizational unit (optionally with its whole
// subtree) capabilities on one resource.
type OrgAccessGrant struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ResourceType      policy.ResourceType
	ResourceID        uuid.UUID
	OrgUnitID         uuid.UUID
	Capabilities      policy.Capabilities
	InheritToChildren bool
	GrantedBy         uuid.UUID
	GrantedAt         time.Time
}

// UserAccessGrant gives a single user capabilities on one resource.
type UserAccessGrant struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	ResourceType policy.ResourceType
	ResourceID   uuid.UUID
	UserID       uuid.UUID
	Capabilities policy.Capabilities
	GrantedBy    uuid.UUID
	GrantedAt    time.Time
}

// VisibilityRecord holds a resource's ownership, classification and
// explicit sharing lists.
type VisibilityRecord struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ResourceType   policy.ResourceType
	ResourceID     uuid.UUID
	OwnerID        uuid.UUID
	OwnerOrgUnitID *uuid.UUID
	// ContainerID points at the enclosing resource (e.g. the knowledge
	// base a document belongs to) whose public flag also applies.
	ContainerID *uuid.UUID
	Level       securitylevel.Level
	// Confidentiality is a legacy resource-local label reconciled against
	// Level at evaluation time; the stricter of the two governs.
	Confidentiality string
	SharedWithOrgs  []uuid.UUID
	SharedWithUsers []uuid.UUID
	Public          bool
	// Attributes feed typed policy conditions, e.g. {"value": "150000"}.
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EffectiveLevel reconciles the formal classification with the legacy
// confidentiality label.
func (v *VisibilityRecord) EffectiveLevel() securitylevel.Level {
	if v.Confidentiality == "" {
		return v.Level
	}
	parsed, _ := securitylevel.Parse(v.Confidentiality)
	return securitylevel.Reconcile(v.Level, parsed)
}

type Repository interface {
	VisibilityFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) (*VisibilityRecord, error)
	UpsertVisibility(ctx context.Context, record *VisibilityRecord) error

	OrgGrantsFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) ([]*OrgAccessGrant, error)
	UserGrantsFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) ([]*UserAccessGrant, error)

	CreateOrgGrant(ctx context.Context, grant *OrgAccessGrant) error
	CreateUserGrant(ctx context.Context, grant *UserAccessGrant) error
	RevokeOrgGrant(ctx context.Context, resourceID, orgUnitID uuid.UUID) (bool, error)
	RevokeUserGrant(ctx context.Context, resourceID, userID uuid.UUID) (bool, error)
}
