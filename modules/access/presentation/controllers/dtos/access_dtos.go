package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var Validate = validator.New()

type CheckAccessRequest struct {
	SubjectID    uuid.UUID `json:"subject_id" validate:"required"`
	ResourceType string    `json:"resource_type" validate:"required,oneof=contract knowledge_base document"`
	ResourceID   uuid.UUID `json:"resource_id" validate:"required"`
	Action       string    `json:"action" validate:"required"`
}

type CapabilitiesDTO struct {
	View    bool `json:"view"`
	Create  bool `json:"create"`
	Edit    bool `json:"edit"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
	Share   bool `json:"share"`
	Manage  bool `json:"manage"`
}

type GrantOrgAccessRequest struct {
	ResourceType      string          `json:"resource_type" validate:"required,oneof=contract knowledge_base document"`
	ResourceID        uuid.UUID       `json:"resource_id" validate:"required"`
	OrgUnitID         uuid.UUID       `json:"org_unit_id" validate:"required"`
	Capabilities      CapabilitiesDTO `json:"capabilities"`
	InheritToChildren bool            `json:"inherit_to_children"`
}

type GrantUserAccessRequest struct {
	ResourceType string          `json:"resource_type" validate:"required,oneof=contract knowledge_base document"`
	ResourceID   uuid.UUID       `json:"resource_id" validate:"required"`
	UserID       uuid.UUID       `json:"user_id" validate:"required"`
	Capabilities CapabilitiesDTO `json:"capabilities"`
}

// RevokeAccessRequest names exactly one grantee axis.
type RevokeAccessRequest struct {
	ResourceID uuid.UUID  `json:"resource_id" validate:"required"`
	OrgUnitID  *uuid.UUID `json:"org_unit_id" validate:"required_without=UserID,excluded_with=UserID"`
	UserID     *uuid.UUID `json:"user_id" validate:"required_without=OrgUnitID,excluded_with=OrgUnitID"`
}

type UpsertVisibilityRequest struct {
	ResourceType    string            `json:"resource_type" validate:"required,oneof=contract knowledge_base document"`
	ResourceID      uuid.UUID         `json:"resource_id" validate:"required"`
	OwnerID         uuid.UUID         `json:"owner_id" validate:"required"`
	OwnerOrgUnitID  *uuid.UUID        `json:"owner_org_unit_id"`
	ContainerID     *uuid.UUID        `json:"container_id"`
	SecurityLevel   string            `json:"security_level" validate:"required"`
	Confidentiality string            `json:"confidentiality"`
	SharedWithOrgs  []uuid.UUID       `json:"shared_with_orgs"`
	SharedWithUsers []uuid.UUID       `json:"shared_with_users"`
	Public          bool              `json:"public"`
	Attributes      map[string]string `json:"attributes"`
}

type CreateDelegationRequest struct {
	DelegateeID uuid.UUID  `json:"delegatee_id" validate:"required"`
	OrgUnitID   *uuid.UUID `json:"org_unit_id"`
	Permissions []string   `json:"permissions" validate:"required,min=1,dive,oneof=view create edit delete approve share manage"`
	ValidFrom   time.Time  `json:"valid_from" validate:"required"`
	ValidUntil  time.Time  `json:"valid_until" validate:"required,gtfield=ValidFrom"`
}

type CreateOrgUnitRequest struct {
	ID       *uuid.UUID `json:"id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Level    string     `json:"level" validate:"required,oneof=ministry department bureau division unit"`
	Name     string     `json:"name" validate:"required,max=255"`
}

type UpdateOrgUnitRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Level    string     `json:"level" validate:"required,oneof=ministry department bureau division unit"`
	Name     string     `json:"name" validate:"required,max=255"`
}
