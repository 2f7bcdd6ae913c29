package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
)

// AuditRecorder receives every decision. Implementations must not fail the
// decision path; persistence problems are theirs to absorb.
type AuditRecorder interface {
	Record(d *decision.AccessDecision)
}

// PolicyEngine is the single authority for access decisions. Both the
// relational API layer and the graph filter derive from it.
type PolicyEngine struct {
	loader SnapshotLoader
	audit  AuditRecorder
	logger *logrus.Entry
}

func NewPolicyEngine(loader SnapshotLoader, audit AuditRecorder, logger *logrus.Logger) *PolicyEngine {
	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "policy_engine")
	} else {
		entry = logrus.WithField("component", "policy_engine")
	}
	return &PolicyEngine{loader: loader, audit: audit, logger: entry}
}

// CanAccess evaluates whether subjectID may perform action on the resource.
// Exactly one audit record is emitted per call, allowed or denied. Only
// infrastructure failures and missing references return an error.
func (e *PolicyEngine) CanAccess(ctx context.Context, subjectID uuid.UUID, resourceType policy.ResourceType, resourceID uuid.UUID, rawAction string) (*decision.AccessDecision, error) {
	start := time.Now()
	action := policy.NormalizeAction(rawAction)

	snap, err := e.loader.Load(ctx, subjectID, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if snap.Subject == nil {
		return e.finish(snap, subjectID, resourceType, resourceID, action, false, "subject_not_found", start),
			NewNotFoundError("subject", subjectID)
	}
	if snap.Visibility == nil {
		return e.finish(snap, subjectID, resourceType, resourceID, action, false, "resource_not_found", start),
			NewNotFoundError("resource", resourceID)
	}

	allowed, reason := e.evaluate(snap, snap.Subject, action, true)
	return e.finish(snap, subjectID, resourceType, resourceID, action, allowed, reason, start), nil
}

func (e *PolicyEngine) finish(snap *EvaluationSnapshot, subjectID uuid.UUID, resourceType policy.ResourceType, resourceID uuid.UUID, action policy.Action, allowed bool, reason string, start time.Time) *decision.AccessDecision {
	var tenantID uuid.UUID
	if snap != nil && snap.Subject != nil {
		tenantID = snap.Subject.TenantID
	}
	d := &decision.AccessDecision{
		ID:           uuid.New(),
		TenantID:     tenantID,
		SubjectID:    subjectID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Allowed:      allowed,
		Reason:       reason,
		EvaluatedAt:  time.Now(),
	}
	recordDecisionMetrics(resourceType, action, allowed, time.Since(start))
	if e.audit != nil {
		e.audit.Record(d)
	}
	return d
}

// evaluate runs the ordered rule chain. First matching rule wins.
// withDelegation is cleared when re-running on behalf of a delegator so
// delegations never chain.
func (e *PolicyEngine) evaluate(snap *EvaluationSnapshot, subj *subject.Subject, action policy.Action, withDelegation bool) (bool, string) {
	vis := snap.Visibility

	if subj.Superuser {
		return true, decision.ReasonSuperuser
	}
	if vis.OwnerID == subj.ID {
		return true, decision.ReasonOwner
	}

	// Classification is a hard ceiling: no grant below can override it.
	if !securitylevel.CanRead(subj.Clearance, vis.EffectiveLevel()) {
		return false, decision.ReasonInsufficientClearance
	}

	if (vis.Public || snap.ContainerPublic) && action == policy.ActionView {
		return true, decision.ReasonPublicVisibility
	}

	if e.matchUserGrant(snap, subj, action) {
		return true, decision.ReasonExplicitUserGrant
	}

	if e.matchOrgGrant(snap, subj, action) {
		return true, decision.ReasonOrgGrant
	}

	if e.matchPolicyScope(snap, subj, action) {
		return true, decision.ReasonPolicyScope
	}

	if withDelegation {
		if ok, reason := e.matchDelegation(snap, subj, action); ok {
			return true, decision.ReasonDelegatedPrefix + reason
		}
	}

	return false, decision.ReasonNoMatchingGrant
}

func (e *PolicyEngine) matchUserGrant(snap *EvaluationSnapshot, subj *subject.Subject, action policy.Action) bool {
	for _, g := range snap.UserGrants {
		if g.UserID == subj.ID && g.Capabilities.Covers(action) {
			return true
		}
	}
	if action != policy.ActionView {
		return false
	}
	// Sharing lists confer view only.
	for _, id := range snap.Visibility.SharedWithUsers {
		if id == subj.ID {
			return true
		}
	}
	return false
}

func (e *PolicyEngine) matchOrgGrant(snap *EvaluationSnapshot, subj *subject.Subject, action policy.Action) bool {
	if subj.OrgUnitID == nil {
		return false
	}
	unitID := *subj.OrgUnitID

	for _, g := range snap.OrgGrants {
		if !g.Capabilities.Covers(action) {
			continue
		}
		if g.OrgUnitID == unitID {
			return true
		}
		// The subject's unit may sit below the granted unit; inheritance
		// propagates downward only when the grant opts in.
		if g.InheritToChildren && snap.Hierarchy.IsDescendantOrSelf(unitID, g.OrgUnitID) {
			return true
		}
	}

	if action == policy.ActionView {
		for _, sharedOrg := range snap.Visibility.SharedWithOrgs {
			if sharedOrg == unitID || snap.Hierarchy.IsDescendantOrSelf(unitID, sharedOrg) {
				return true
			}
		}
	}
	return false
}

func (e *PolicyEngine) matchPolicyScope(snap *EvaluationSnapshot, subj *subject.Subject, action policy.Action) bool {
	vis := snap.Visibility
	for _, role := range subj.Roles {
		for _, p := range role.Policies {
			if !p.EffectiveAt(snap.Now) || !p.Matches(vis.ResourceType, vis.ResourceID) {
				continue
			}
			if !p.Capabilities.Covers(action) {
				continue
			}
			if !e.conditionsHold(p, snap.ResourceAttributes) {
				continue
			}

			switch p.Scope {
			case policy.ScopeGlobal:
				return true
			case policy.ScopeOwn:
				// Ownership already allowed at the top of the chain; kept
				// for explicitness.
				if vis.OwnerID == subj.ID {
					return true
				}
			default:
				if e.scopeCoversResource(snap, subj, p) {
					return true
				}
			}
		}
	}
	return false
}

// scopeCoversResource tests whether the resource's owning unit falls within
// the subject's reach at the policy's scope granularity. Structurally
// unevaluable scopes are non-matches, never evaluation failures.
func (e *PolicyEngine) scopeCoversResource(snap *EvaluationSnapshot, subj *subject.Subject, p *policy.AccessPolicy) bool {
	level, ok := p.Scope.UnitLevel()
	if !ok || subj.OrgUnitID == nil || snap.Visibility.OwnerOrgUnitID == nil {
		e.logger.WithFields(logrus.Fields{
			"policy_id": p.ID.String(),
			"scope":     string(p.Scope),
		}).Debug((&InvalidScopeError{PolicyID: p.ID, Scope: string(p.Scope)}).Error())
		return false
	}
	anchor, ok := snap.Hierarchy.AncestorAtLevel(*subj.OrgUnitID, level)
	if !ok {
		return false
	}
	return snap.Hierarchy.IsDescendantOrSelf(*snap.Visibility.OwnerOrgUnitID, anchor.ID)
}

func (e *PolicyEngine) conditionsHold(p *policy.AccessPolicy, attrs map[string]string) bool {
	for _, cond := range p.Conditions {
		got, ok := attrs[cond.Field]
		if !ok {
			// Ambiguity resolves toward deny.
			return false
		}
		if !compareCondition(got, cond.Operator, cond.Value) {
			return false
		}
	}
	return true
}

func compareCondition(got string, op policy.ConditionOperator, want string) bool {
	gotNum, errA := strconv.ParseFloat(got, 64)
	wantNum, errB := strconv.ParseFloat(want, 64)
	numeric := errA == nil && errB == nil

	switch op {
	case policy.OpEquals:
		if numeric {
			return gotNum == wantNum
		}
		return got == want
	case policy.OpNotEquals:
		if numeric {
			return gotNum != wantNum
		}
		return got != want
	case policy.OpLessOrEqual:
		return numeric && gotNum <= wantNum
	case policy.OpGreaterOrEqual:
		return numeric && gotNum >= wantNum
	default:
		return false
	}
}

// matchDelegation checks live delegations where subj is the delegatee and
// re-runs the chain on behalf of the delegator. The delegator's superuser
// flag and ownership do not transfer, and the delegator's own delegations
// are never chained, so a delegation can never exceed what the delegator
// currently holds through clearance, grants and policies.
func (e *PolicyEngine) matchDelegation(snap *EvaluationSnapshot, subj *subject.Subject, action policy.Action) (bool, string) {
	for _, d := range snap.Delegations {
		if d.DelegateeID != subj.ID || !d.EffectiveAt(snap.Now) || !d.Covers(action) {
			continue
		}
		if d.OrgUnitID != nil {
			// A unit-scoped delegation only applies to resources owned
			// within that unit's subtree.
			if snap.Visibility.OwnerOrgUnitID == nil ||
				!snap.Hierarchy.IsDescendantOrSelf(*snap.Visibility.OwnerOrgUnitID, *d.OrgUnitID) {
				continue
			}
		}
		delegator, ok := snap.Delegators[d.DelegatorID]
		if !ok || delegator == nil {
			continue
		}

		if !securitylevel.CanRead(delegator.Clearance, snap.Visibility.EffectiveLevel()) {
			continue
		}
		if (snap.Visibility.Public || snap.ContainerPublic) && action == policy.ActionView {
			return true, decision.ReasonPublicVisibility
		}
		if e.matchUserGrant(snap, delegator, action) {
			return true, decision.ReasonExplicitUserGrant
		}
		if e.matchOrgGrant(snap, delegator, action) {
			return true, decision.ReasonOrgGrant
		}
		if e.matchPolicyScope(snap, delegator, action) {
			return true, decision.ReasonPolicyScope
		}
	}
	return false, ""
}
