package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
)

var (
	testTenantID = uuid.New()

	ministryID = uuid.New()
	deptAID    = uuid.New()
	divBID     = uuid.New()
	unitCID    = uuid.New()
	deptXID    = uuid.New()

	resourceID = uuid.New()
	ownerID    = uuid.New()
)

func testHierarchy() *orgunit.Hierarchy {
	units := []*orgunit.OrgUnit{
		{ID: ministryID, TenantID: testTenantID, Level: orgunit.Ministry, Name: "Ministry"},
		{ID: deptAID, TenantID: testTenantID, ParentID: &ministryID, Level: orgunit.Department, Name: "Department A"},
		{ID: divBID, TenantID: testTenantID, ParentID: &deptAID, Level: orgunit.Division, Name: "Division B"},
		{ID: unitCID, TenantID: testTenantID, ParentID: &divBID, Level: orgunit.Unit, Name: "Unit C"},
		{ID: deptXID, TenantID: testTenantID, ParentID: &ministryID, Level: orgunit.Department, Name: "Department X"},
	}
	return orgunit.NewHierarchy(units, nil)
}

func testSubject(orgUnitID uuid.UUID, clearance securitylevel.Level) *subject.Subject {
	return &subject.Subject{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		OrgUnitID: &orgUnitID,
		Clearance: clearance,
	}
}

func testVisibility(level securitylevel.Level) *grants.VisibilityRecord {
	ownerOrg := divBID
	return &grants.VisibilityRecord{
		ID:             uuid.New(),
		TenantID:       testTenantID,
		ResourceType:   policy.ResourceContract,
		ResourceID:     resourceID,
		OwnerID:        ownerID,
		OwnerOrgUnitID: &ownerOrg,
		Level:          level,
	}
}

func testSnapshot(subj *subject.Subject, vis *grants.VisibilityRecord) *EvaluationSnapshot {
	return &EvaluationSnapshot{
		Now:        time.Now(),
		Subject:    subj,
		Hierarchy:  testHierarchy(),
		Visibility: vis,
		Delegators: map[uuid.UUID]*subject.Subject{},
	}
}

type fixtureLoader struct {
	snap *EvaluationSnapshot
}

func (l *fixtureLoader) Load(ctx context.Context, subjectID uuid.UUID, resourceType policy.ResourceType, rID uuid.UUID) (*EvaluationSnapshot, error) {
	return l.snap, nil
}

type recordingAudit struct {
	records []*decision.AccessDecision
}

func (a *recordingAudit) Record(d *decision.AccessDecision) {
	a.records = append(a.records, d)
}

func newTestEngine(snap *EvaluationSnapshot) (*PolicyEngine, *recordingAudit) {
	audit := &recordingAudit{}
	return NewPolicyEngine(&fixtureLoader{snap: snap}, audit, nil), audit
}

func TestCanAccess_Superuser(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Public)
	subj.Superuser = true
	engine, audit := newTestEngine(testSnapshot(subj, testVisibility(securitylevel.TopSecret)))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "delete")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonSuperuser, d.Reason)
	require.Len(t, audit.records, 1)
}

func TestCanAccess_Owner(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Public)
	vis := testVisibility(securitylevel.Confidential)
	vis.OwnerID = subj.ID
	engine, _ := newTestEngine(testSnapshot(subj, vis))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "edit")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonOwner, d.Reason)
}

func TestCanAccess_ClearanceCeilingBeatsUserGrant(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	vis := testVisibility(securitylevel.TopSecret)
	snap := testSnapshot(subj, vis)
	snap.UserGrants = []*grants.UserAccessGrant{{
		ID:           uuid.New(),
		UserID:       subj.ID,
		ResourceID:   resourceID,
		Capabilities: policy.Capabilities{View: true, Edit: true},
	}}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonInsufficientClearance, d.Reason)
}

func TestCanAccess_UnknownConfidentialityFailsStricter(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Public)
	vis := testVisibility(securitylevel.Public)
	vis.Public = true
	vis.Confidentiality = "internal-use-legacy"
	engine, _ := newTestEngine(testSnapshot(subj, vis))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonInsufficientClearance, d.Reason)
}

func TestCanAccess_PublicVisibilityViewOnly(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Public)
	vis := testVisibility(securitylevel.Public)
	vis.Public = true
	engine, _ := newTestEngine(testSnapshot(subj, vis))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "read")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonPublicVisibility, d.Reason)

	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "edit")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonNoMatchingGrant, d.Reason)
}

func TestCanAccess_ContainerPublicAppliesToView(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Public)
	snap := testSnapshot(subj, testVisibility(securitylevel.Public))
	snap.ContainerPublic = true
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonPublicVisibility, d.Reason)
}

func TestCanAccess_UserGrant(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Confidential)
	snap := testSnapshot(subj, testVisibility(securitylevel.Confidential))
	snap.UserGrants = []*grants.UserAccessGrant{{
		ID:           uuid.New(),
		UserID:       subj.ID,
		ResourceID:   resourceID,
		Capabilities: policy.Capabilities{View: true},
	}}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonExplicitUserGrant, d.Reason)

	// The grant covers view only.
	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "delete")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCanAccess_SharedWithUsersConfersViewOnly(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Confidential)
	vis := testVisibility(securitylevel.Confidential)
	vis.SharedWithUsers = []uuid.UUID{subj.ID}
	engine, _ := newTestEngine(testSnapshot(subj, vis))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonExplicitUserGrant, d.Reason)

	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "edit")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCanAccess_OrgGrantInheritance(t *testing.T) {
	// Grant on Department A with inheritance: a subject down in Unit C is
	// covered, a subject over in Department X is not.
	grant := &grants.OrgAccessGrant{
		ID:                uuid.New(),
		ResourceID:        resourceID,
		OrgUnitID:         deptAID,
		Capabilities:      policy.Capabilities{View: true},
		InheritToChildren: true,
	}

	inUnitC := testSubject(unitCID, securitylevel.Confidential)
	snap := testSnapshot(inUnitC, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{grant}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), inUnitC.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonOrgGrant, d.Reason)

	inDeptX := testSubject(deptXID, securitylevel.Confidential)
	snap = testSnapshot(inDeptX, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{grant}
	engine, _ = newTestEngine(snap)

	d, err = engine.CanAccess(context.Background(), inDeptX.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonNoMatchingGrant, d.Reason)
}

func TestCanAccess_OrgGrantWithoutInheritance(t *testing.T) {
	grant := &grants.OrgAccessGrant{
		ID:           uuid.New(),
		ResourceID:   resourceID,
		OrgUnitID:    deptAID,
		Capabilities: policy.Capabilities{View: true},
	}

	inUnitC := testSubject(unitCID, securitylevel.Confidential)
	snap := testSnapshot(inUnitC, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{grant}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), inUnitC.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCanAccess_RevokedGrantStopsMatching(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	snap := testSnapshot(subj, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{{
		ID:                uuid.New(),
		ResourceID:        resourceID,
		OrgUnitID:         deptAID,
		Capabilities:      policy.Capabilities{View: true},
		InheritToChildren: true,
	}}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Revocation removes the row; the next evaluation must deny.
	snap.OrgGrants = nil
	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonNoMatchingGrant, d.Reason)
}

func deptScopedRole(caps policy.Capabilities, conditions []policy.Condition) *policy.Role {
	roleID := uuid.New()
	return &policy.Role{
		ID:       roleID,
		TenantID: testTenantID,
		Name:     "contract_officer",
		Policies: []*policy.AccessPolicy{{
			ID:           uuid.New(),
			TenantID:     testTenantID,
			RoleID:       roleID,
			ResourceType: policy.ResourceContract,
			Capabilities: caps,
			Scope:        policy.ScopeDept,
			Conditions:   conditions,
			IsActive:     true,
		}},
	}
}

func TestCanAccess_PolicyScopeDept(t *testing.T) {
	// Subject sits in Unit C under Department A; the resource's owning unit
	// is Division B, also under Department A, so a dept-scoped policy covers
	// it.
	subj := testSubject(unitCID, securitylevel.Confidential)
	subj.Roles = []*policy.Role{deptScopedRole(policy.Capabilities{View: true, Edit: true}, nil)}
	engine, _ := newTestEngine(testSnapshot(subj, testVisibility(securitylevel.Confidential)))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "edit")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, decision.ReasonPolicyScope, d.Reason)
}

func TestCanAccess_PolicyScopeDeptDoesNotCrossDepartments(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Confidential)
	subj.Roles = []*policy.Role{deptScopedRole(policy.Capabilities{View: true}, nil)}
	engine, _ := newTestEngine(testSnapshot(subj, testVisibility(securitylevel.Confidential)))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCanAccess_PolicyConditions(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	subj.Roles = []*policy.Role{deptScopedRole(
		policy.Capabilities{Approve: true},
		[]policy.Condition{{Field: "value", Operator: policy.OpLessOrEqual, Value: "150000"}},
	)}
	vis := testVisibility(securitylevel.Confidential)
	snap := testSnapshot(subj, vis)
	snap.ResourceAttributes = map[string]string{"value": "120000"}
	engine, _ := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "approve")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	snap.ResourceAttributes = map[string]string{"value": "200000"}
	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "approve")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Missing attribute resolves toward deny.
	snap.ResourceAttributes = nil
	d, err = engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "approve")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCanAccess_ExpiredPolicyNeverContributes(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	role := deptScopedRole(policy.Capabilities{View: true}, nil)
	past := time.Now().Add(-time.Hour)
	role.Policies[0].ValidUntil = &past
	subj.Roles = []*policy.Role{role}
	engine, _ := newTestEngine(testSnapshot(subj, testVisibility(securitylevel.Confidential)))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func delegationFixture(delegator *subject.Subject, delegatee *subject.Subject, perms []policy.Action, orgUnitID *uuid.UUID) (*delegation.Delegation, *subject.Subject) {
	return &delegation.Delegation{
		ID:          uuid.New(),
		TenantID:    testTenantID,
		DelegatorID: delegator.ID,
		DelegateeID: delegatee.ID,
		OrgUnitID:   orgUnitID,
		Permissions: perms,
		ValidFrom:   time.Now().Add(-time.Hour),
		ValidUntil:  time.Now().Add(time.Hour),
	}, delegator
}

func TestCanAccess_DelegationReEvaluatesAsDelegator(t *testing.T) {
	delegatee := testSubject(deptXID, securitylevel.Confidential)
	delegator := testSubject(unitCID, securitylevel.Confidential)

	snap := testSnapshot(delegatee, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{{
		ID:                uuid.New(),
		ResourceID:        resourceID,
		OrgUnitID:         deptAID,
		Capabilities:      policy.Capabilities{View: true},
		InheritToChildren: true,
	}}
	d, delegatorSubj := delegationFixture(delegator, delegatee, []policy.Action{policy.ActionView}, nil)
	snap.Delegations = []*delegation.Delegation{d}
	snap.Delegators[delegator.ID] = delegatorSubj
	engine, _ := newTestEngine(snap)

	dec, err := engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	require.Equal(t, decision.ReasonDelegatedPrefix+decision.ReasonOrgGrant, dec.Reason)
}

func TestCanAccess_DelegationCappedByDelegator(t *testing.T) {
	// The delegator holds nothing on this resource, so the delegation
	// transfers nothing.
	delegatee := testSubject(deptXID, securitylevel.Confidential)
	delegator := testSubject(deptXID, securitylevel.Confidential)

	snap := testSnapshot(delegatee, testVisibility(securitylevel.Confidential))
	d, delegatorSubj := delegationFixture(delegator, delegatee, []policy.Action{policy.ActionView}, nil)
	snap.Delegations = []*delegation.Delegation{d}
	snap.Delegators[delegator.ID] = delegatorSubj
	engine, _ := newTestEngine(snap)

	dec, err := engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, dec.Allowed)
	require.Equal(t, decision.ReasonNoMatchingGrant, dec.Reason)
}

func TestCanAccess_DelegationLosesGrantWithDelegator(t *testing.T) {
	delegatee := testSubject(deptXID, securitylevel.Confidential)
	delegator := testSubject(unitCID, securitylevel.Confidential)
	delegator.Roles = []*policy.Role{deptScopedRole(policy.Capabilities{View: true}, nil)}

	snap := testSnapshot(delegatee, testVisibility(securitylevel.Confidential))
	d, delegatorSubj := delegationFixture(delegator, delegatee, []policy.Action{policy.ActionView}, nil)
	snap.Delegations = []*delegation.Delegation{d}
	snap.Delegators[delegator.ID] = delegatorSubj
	engine, _ := newTestEngine(snap)

	dec, err := engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	require.Equal(t, decision.ReasonDelegatedPrefix+decision.ReasonPolicyScope, dec.Reason)

	// The delegator's role is withdrawn; the delegation must stop working.
	delegatorSubj.Roles = nil
	dec, err = engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, dec.Allowed)
}

func TestCanAccess_DelegationDoesNotTransferSuperuser(t *testing.T) {
	delegatee := testSubject(deptXID, securitylevel.Public)
	delegator := testSubject(unitCID, securitylevel.Public)
	delegator.Superuser = true

	snap := testSnapshot(delegatee, testVisibility(securitylevel.TopSecret))
	d, delegatorSubj := delegationFixture(delegator, delegatee, []policy.Action{policy.ActionView}, nil)
	snap.Delegations = []*delegation.Delegation{d}
	snap.Delegators[delegator.ID] = delegatorSubj
	engine, _ := newTestEngine(snap)

	dec, err := engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, dec.Allowed)
}

func TestCanAccess_DelegationUnitScopeRestriction(t *testing.T) {
	delegatee := testSubject(deptXID, securitylevel.Confidential)
	delegator := testSubject(unitCID, securitylevel.Confidential)

	snap := testSnapshot(delegatee, testVisibility(securitylevel.Confidential))
	snap.OrgGrants = []*grants.OrgAccessGrant{{
		ID:                uuid.New(),
		ResourceID:        resourceID,
		OrgUnitID:         deptAID,
		Capabilities:      policy.Capabilities{View: true},
		InheritToChildren: true,
	}}
	// Scoped to Department X, but the resource is owned under Department A.
	d, delegatorSubj := delegationFixture(delegator, delegatee, []policy.Action{policy.ActionView}, &deptXID)
	snap.Delegations = []*delegation.Delegation{d}
	snap.Delegators[delegator.ID] = delegatorSubj
	engine, _ := newTestEngine(snap)

	dec, err := engine.CanAccess(context.Background(), delegatee.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, dec.Allowed)
}

func TestCanAccess_SubjectNotFound(t *testing.T) {
	snap := testSnapshot(nil, testVisibility(securitylevel.Public))
	engine, audit := newTestEngine(snap)

	missing := uuid.New()
	d, err := engine.CanAccess(context.Background(), missing, policy.ResourceContract, resourceID, "view")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.NotNil(t, d)
	require.False(t, d.Allowed)
	require.Equal(t, "subject_not_found", d.Reason)
	require.Len(t, audit.records, 1)
}

func TestCanAccess_ResourceNotFound(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	snap := testSnapshot(subj, nil)
	engine, audit := newTestEngine(snap)

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.False(t, d.Allowed)
	require.Equal(t, "resource_not_found", d.Reason)
	require.Len(t, audit.records, 1)
}

func TestCanAccess_DefaultDeny(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.TopSecret)
	engine, _ := newTestEngine(testSnapshot(subj, testVisibility(securitylevel.Confidential)))

	d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, decision.ReasonNoMatchingGrant, d.Reason)
}

func TestCanAccess_ExactlyOneAuditRecordPerCall(t *testing.T) {
	subj := testSubject(unitCID, securitylevel.Confidential)
	snap := testSnapshot(subj, testVisibility(securitylevel.Confidential))
	engine, audit := newTestEngine(snap)

	const calls = 25
	for i := 0; i < calls; i++ {
		_, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, "view")
		require.NoError(t, err)
	}
	require.Len(t, audit.records, calls)
	for _, rec := range audit.records {
		require.Equal(t, subj.ID, rec.SubjectID)
		require.Equal(t, resourceID, rec.ResourceID)
	}
}

func TestCanAccess_ActionNormalization(t *testing.T) {
	subj := testSubject(deptXID, securitylevel.Public)
	vis := testVisibility(securitylevel.Public)
	vis.Public = true
	engine, _ := newTestEngine(testSnapshot(subj, vis))

	for _, raw := range []string{"read", "view", "list", "READ", ""} {
		d, err := engine.CanAccess(context.Background(), subj.ID, policy.ResourceContract, resourceID, raw)
		require.NoError(t, err)
		require.True(t, d.Allowed, "raw action %q", raw)
		require.Equal(t, policy.ActionView, d.Action)
	}
}
