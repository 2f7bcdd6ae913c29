package policy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
)

// Action is a requested operation on a resource.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionShare   Action = "share"
	ActionManage  Action = "manage"
)

// NormalizeAction folds caller-supplied synonyms onto the canonical set.
func NormalizeAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "read", "view", "list", "":
		return ActionView
	case "create", "add":
		return ActionCreate
	case "edit", "update", "write":
		return ActionEdit
	case "delete", "remove":
		return ActionDelete
	case "approve":
		return ActionApprove
	case "share":
		return ActionShare
	case "manage":
		return ActionManage
	default:
		return Action(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// ResourceType partitions protected resources.
type ResourceType string

const (
	ResourceContract      ResourceType = "contract"
	ResourceKnowledgeBase ResourceType = "knowledge_base"
	ResourceDocument      ResourceType = "document"
)

// Capabilities is the fixed set of boolean capability flags a grant or
// policy can confer.
type Capabilities struct {
	View    bool
	Create  bool
	Edit    bool
	Delete  bool
	Approve bool
	Share   bool
	Manage  bool
}

// Covers reports whether the capability set includes the action. Manage
// implies every other capability.
func (c Capabilities) Covers(action Action) bool {
	if c.Manage {
		return true
	}
	switch action {
	case ActionView:
		return c.View
	case ActionCreate:
		return c.Create
	case ActionEdit:
		return c.Edit
	case ActionDelete:
		return c.Delete
	case ActionApprove:
		return c.Approve
	case ActionShare:
		return c.Share
	case ActionManage:
		return c.Manage
	default:
		return false
	}
}

// Actions lists the actions the capability set covers.
func (c Capabilities) Actions() []Action {
	all := []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionShare, ActionManage}
	out := make([]Action, 0, len(all))
	for _, a := range all {
		if c.Covers(a) {
			out = append(out, a)
		}
	}
	return out
}

// Scope is the organizational breadth over which a policy applies.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeOrg    Scope = "org"
	ScopeDept   Scope = "dept"
	ScopeDiv    Scope = "div"
	ScopeUnit   Scope = "unit"
	ScopeOwn    Scope = "own"
)

// UnitLevel maps an organizational scope onto the hierarchy level it pins
// the subject's reach to. Only org/dept/div/unit scopes have one.
func (s Scope) UnitLevel() (orgunit.UnitLevel, bool) {
	switch s {
	case ScopeOrg:
		return orgunit.Ministry, true
	case ScopeDept:
		return orgunit.Department, true
	case ScopeDiv:
		return orgunit.Division, true
	case ScopeUnit:
		return orgunit.Unit, true
	default:
		return 0, false
	}
}

// ConditionOperator is the comparison applied by a policy condition.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "eq"
	OpNotEquals      ConditionOperator = "ne"
	OpLessOrEqual    ConditionOperator = "lte"
	OpGreaterOrEqual ConditionOperator = "gte"
)

// Condition is a small typed expression constraining a policy, e.g. a
// contract value ceiling.
type Condition struct {
	Field    string
	Operator ConditionOperator
	Value    string
}

// Role aggregates permissions under a name.
type Role struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Policies []*AccessPolicy
}

// AccessPolicy binds a role to a resource type (optionally one resource)
// with capability flags, a scope, and a validity window.
type AccessPolicy struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	RoleID       uuid.UUID
	ResourceType ResourceType
	// ResourceID nil means the policy covers every resource of the type.
	ResourceID   *uuid.UUID
	Capabilities Capabilities
	Scope        Scope
	Conditions   []Condition
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	IsActive     bool
}

// EffectiveAt reports whether the policy contributes to decisions at the
// given instant.
func (p *AccessPolicy) EffectiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && !now.Before(*p.ValidUntil) {
		return false
	}
	return true
}

// Matches reports whether the policy applies to the given resource.
func (p *AccessPolicy) Matches(resourceType ResourceType, resourceID uuid.UUID) bool {
	if p.ResourceType != resourceType {
		return false
	}
	return p.ResourceID == nil || *p.ResourceID == resourceID
}

type Repository interface {
	RolesForSubject(ctx context.Context, subjectID uuid.UUID) ([]*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	CreatePolicy(ctx context.Context, p *AccessPolicy) error
	DeactivatePolicy(ctx context.Context, id uuid.UUID) error
}
