package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrgUnit struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ParentID  pgtype.UUID
	Level     string
	Name      string
	ShortName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subject struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	OrgUnitID  pgtype.UUID
	PositionID pgtype.UUID
	Clearance  string
	Superuser  bool
}

type Role struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

type AccessPolicy struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	RoleID       uuid.UUID
	ResourceType string
	ResourceID   pgtype.UUID
	CanView      bool
	CanCreate    bool
	CanEdit      bool
	CanDelete    bool
	CanApprove   bool
	CanShare     bool
	CanManage    bool
	Scope        string
	Conditions   []byte
	ValidFrom    pgtype.Timestamptz
	ValidUntil   pgtype.Timestamptz
	IsActive     bool
}

type OrgAccessGrant struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ResourceType      string
	ResourceID        uuid.UUID
	OrgUnitID         uuid.UUID
	CanView           bool
	CanCreate         bool
	CanEdit           bool
	CanDelete         bool
	CanApprove        bool
	CanShare          bool
	CanManage         bool
	InheritToChildren bool
	GrantedBy         uuid.UUID
	GrantedAt         time.Time
}

type UserAccessGrant struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	ResourceType string
	ResourceID   uuid.UUID
	UserID       uuid.UUID
	CanView      bool
	CanCreate    bool
	CanEdit      bool
	CanDelete    bool
	CanApprove   bool
	CanShare     bool
	CanManage    bool
	GrantedBy    uuid.UUID
	GrantedAt    time.Time
}

type VisibilityRecord struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ResourceType    string
	ResourceID      uuid.UUID
	OwnerID         uuid.UUID
	OwnerOrgUnitID  pgtype.UUID
	ContainerID     pgtype.UUID
	SecurityLevel   string
	Confidentiality string
	SharedWithOrgs  []string
	SharedWithUsers []string
	IsPublic        bool
	Attributes      []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Delegation struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DelegatorID uuid.UUID
	DelegateeID uuid.UUID
	OrgUnitID   pgtype.UUID
	Permissions []string
	ValidFrom   time.Time
	ValidUntil  time.Time
	RevokedAt   pgtype.Timestamptz
	RevokedBy   pgtype.UUID
	CreatedAt   time.Time
}

type AccessDecision struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SubjectID    uuid.UUID
	ResourceType string
	ResourceID   uuid.UUID
	Action       string
	Allowed      bool
	Reason       string
	EvaluatedAt  time.Time
}
