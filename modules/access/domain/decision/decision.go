package decision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
)

// Reason values carried on access decisions.
const (
	ReasonSuperuser             = "superuser"
	ReasonOwner                 = "owner"
	ReasonInsufficientClearance = "insufficient_clearance"
	ReasonPublicVisibility      = "public_visibility"
	ReasonExplicitUserGrant     = "explicit_user_grant"
	ReasonOrgGrant              = "org_grant"
	ReasonPolicyScope           = "policy_scope"
	ReasonNoMatchingGrant       = "no_matching_grant"
	// ReasonDelegatedPrefix prefixes the delegator-side reason, e.g.
	// "delegated:org_grant".
	ReasonDelegatedPrefix = "delegated:"
)

// AccessDecision is the immutable result of one policy evaluation. Never
// mutated after creation; the audit table is append-only.
type AccessDecision struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SubjectID    uuid.UUID
	ResourceType policy.ResourceType
	ResourceID   uuid.UUID
	Action       policy.Action
	Allowed      bool
	Reason       string
	EvaluatedAt  time.Time
}

type FindParams struct {
	SubjectID    *uuid.UUID
	ResourceType *policy.ResourceType
	ResourceID   *uuid.UUID
	Allowed      *bool
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type Repository interface {
	// CreateBatch appends decisions in one statement; duplicates are
	// acceptable, lost rows are not.
	CreateBatch(ctx context.Context, decisions []*AccessDecision) error
	List(ctx context.Context, params *FindParams) ([]*AccessDecision, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
