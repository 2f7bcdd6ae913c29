package subject

import (
	"context"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
)

// Subject is a user whose access is being evaluated.
type Subject struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	OrgUnitID  *uuid.UUID
	PositionID *uuid.UUID
	// Clearance defaults to public unless explicitly elevated.
	Clearance securitylevel.Level
	Superuser bool
	Roles     []*policy.Role
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Subject, error)
	Create(ctx context.Context, s *Subject) error
	Update(ctx context.Context, s *Subject) error
	// CountByOrgUnit supports the org-unit delete guard.
	CountByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) (int64, error)
}
