package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/graph"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
)

// GraphFilter carries a subject's security context for graph traversal.
// Built once per request and reused for every traversal within it, so all
// traversals of one request see the same accessible-unit set.
type GraphFilter struct {
	TenantID                uuid.UUID
	HomeDepartmentID        *uuid.UUID
	Clearance               securitylevel.Level
	AccessibleDepartmentIDs map[uuid.UUID]struct{}
	// Superuser filters nothing.
	Superuser bool
}

// HierarchyProvider resolves a subject's accessible-unit set. The caching
// implementation sits in front of the org unit repository.
type HierarchyProvider interface {
	AccessibleUnits(ctx context.Context, subjectID uuid.UUID) (tenantID uuid.UUID, home *uuid.UUID, clearance securitylevel.Level, superuser bool, units map[uuid.UUID]struct{}, err error)
}

// GraphFilterService builds graph-side predicates mirroring the relational
// decision rules for contract-domain entities.
type GraphFilterService struct {
	provider HierarchyProvider
}

func NewGraphFilterService(provider HierarchyProvider) *GraphFilterService {
	return &GraphFilterService{provider: provider}
}

// BuildGraphFilter resolves the subject's context once. Knowledge-base
// domain entities bypass the returned filter entirely.
func (s *GraphFilterService) BuildGraphFilter(ctx context.Context, subjectID uuid.UUID) (*GraphFilter, error) {
	tenantID, home, clearance, superuser, units, err := s.provider.AccessibleUnits(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return &GraphFilter{
		TenantID:                tenantID,
		HomeDepartmentID:        home,
		Clearance:               clearance,
		AccessibleDepartmentIDs: units,
		Superuser:               superuser,
	}, nil
}

// Allows is the in-process predicate, applied at ingestion checks and in
// tests. Untagged (nil) axes carry no restriction; that laxer default for
// un-migrated graph data is counted for backfill follow-up.
func (f *GraphFilter) Allows(e *graph.Entity) bool {
	if e.Domain == graph.DomainKnowledgeBase {
		return true
	}
	if f.Superuser {
		return true
	}

	if e.TenantID == nil || e.DepartmentID == nil || e.SecurityLevel == nil {
		graphUntaggedTotal.Inc()
	}

	if e.TenantID != nil && *e.TenantID != f.TenantID {
		return false
	}

	level := securitylevel.Public
	if e.SecurityLevel != nil {
		level = *e.SecurityLevel
	}
	if !securitylevel.CanRead(f.Clearance, level) {
		return false
	}

	if e.DepartmentID == nil || level == securitylevel.Public {
		return true
	}
	_, ok := f.AccessibleDepartmentIDs[*e.DepartmentID]
	return ok
}

// CypherWhere renders the same predicate as a parameterized WHERE fragment
// for graph queries over contract-domain nodes. alias names the node
// variable. The params map feeds the cypher() parameter argument.
func (f *GraphFilter) CypherWhere(alias string) (string, map[string]any) {
	if f.Superuser {
		return "true", map[string]any{}
	}

	departments := make([]string, 0, len(f.AccessibleDepartmentIDs))
	for id := range f.AccessibleDepartmentIDs {
		departments = append(departments, id.String())
	}

	fragment := fmt.Sprintf(
		"(%[1]s.tenant_id IS NULL OR %[1]s.tenant_id = $tenant_id)"+
			" AND (%[1]s.department_id IS NULL OR %[1]s.department_id IN $department_ids OR coalesce(%[1]s.security_level, 0) = 0)"+
			" AND coalesce(%[1]s.security_level, 0) <= $clearance",
		alias,
	)
	params := map[string]any{
		"tenant_id":      f.TenantID.String(),
		"department_ids": departments,
		"clearance":      int(f.Clearance),
	}
	return fragment, params
}
