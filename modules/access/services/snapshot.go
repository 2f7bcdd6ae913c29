package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
)

// EvaluationSnapshot is everything one policy evaluation reads, captured at
// a single consistent point in time. The engine never touches a store
// directly, which keeps evaluation pure and repeatable.
type EvaluationSnapshot struct {
	Now       time.Time
	Subject   *subject.Subject
	Hierarchy *orgunit.Hierarchy

	// Visibility is the resource's ownership/classification record; nil
	// means the resource is unknown.
	Visibility *grants.VisibilityRecord
	// ContainerPublic is set when the resource's container (e.g. the
	// knowledge base a document belongs to) is globally visible.
	ContainerPublic bool
	// ResourceAttributes feed typed policy conditions (e.g. value ceilings).
	ResourceAttributes map[string]string

	OrgGrants  []*grants.OrgAccessGrant
	UserGrants []*grants.UserAccessGrant

	// Delegations are the live rows where Subject is the delegatee;
	// Delegators holds each delegator's subject row with roles attached.
	Delegations []*delegation.Delegation
	Delegators  map[uuid.UUID]*subject.Subject
}

// SnapshotLoader assembles an EvaluationSnapshot. The persistence
// implementation reads all tables inside one read-only transaction.
type SnapshotLoader interface {
	Load(ctx context.Context, subjectID uuid.UUID, resourceType policy.ResourceType, resourceID uuid.UUID) (*EvaluationSnapshot, error)
}
