package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/pkg/composables"
)

type mockOrgUnitRepo struct {
	units []*orgunit.OrgUnit
}

func (m *mockOrgUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*orgunit.OrgUnit, error) {
	for _, u := range m.units {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockOrgUnitRepo) List(ctx context.Context, params *orgunit.FindParams) ([]*orgunit.OrgUnit, error) {
	return m.units, nil
}

func (m *mockOrgUnitRepo) ListAll(ctx context.Context) ([]*orgunit.OrgUnit, error) {
	return m.units, nil
}

func (m *mockOrgUnitRepo) Create(ctx context.Context, unit *orgunit.OrgUnit) error { return nil }
func (m *mockOrgUnitRepo) Update(ctx context.Context, unit *orgunit.OrgUnit) error { return nil }
func (m *mockOrgUnitRepo) Delete(ctx context.Context, id uuid.UUID) error          { return nil }

type mockSubjectRepo struct {
	subjects map[uuid.UUID]*subject.Subject
}

func (m *mockSubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	return m.subjects[id], nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, s *subject.Subject) error { return nil }
func (m *mockSubjectRepo) Update(ctx context.Context, s *subject.Subject) error { return nil }
func (m *mockSubjectRepo) CountByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) (int64, error) {
	return 0, nil
}

func hierarchyFixtureUnits() []*orgunit.OrgUnit {
	return []*orgunit.OrgUnit{
		{ID: ministryID, TenantID: testTenantID, Level: orgunit.Ministry, Name: "Ministry"},
		{ID: deptAID, TenantID: testTenantID, ParentID: &ministryID, Level: orgunit.Department, Name: "Department A"},
		{ID: divBID, TenantID: testTenantID, ParentID: &deptAID, Level: orgunit.Division, Name: "Division B"},
		{ID: unitCID, TenantID: testTenantID, ParentID: &divBID, Level: orgunit.Unit, Name: "Unit C"},
		{ID: deptXID, TenantID: testTenantID, ParentID: &ministryID, Level: orgunit.Department, Name: "Department X"},
	}
}

func TestHierarchyService_AccessibleUnits(t *testing.T) {
	subj := &subject.Subject{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		OrgUnitID: &unitCID,
		Clearance: securitylevel.Confidential,
	}
	svc := NewHierarchyService(
		&mockOrgUnitRepo{units: hierarchyFixtureUnits()},
		&mockSubjectRepo{subjects: map[uuid.UUID]*subject.Subject{subj.ID: subj}},
		nil, 0, nil,
	)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	tenantID, home, clearance, superuser, units, err := svc.AccessibleUnits(ctx, subj.ID)
	require.NoError(t, err)
	require.Equal(t, testTenantID, tenantID)
	require.False(t, superuser)
	require.Equal(t, securitylevel.Confidential, clearance)

	// A subject in Unit C is anchored to Department A and reaches its whole
	// subtree, not Department X.
	require.Equal(t, deptAID, *home)
	require.Contains(t, units, deptAID)
	require.Contains(t, units, divBID)
	require.Contains(t, units, unitCID)
	require.NotContains(t, units, deptXID)
	require.NotContains(t, units, ministryID)
}

func TestHierarchyService_AccessibleUnitsWithoutOrgUnit(t *testing.T) {
	subj := &subject.Subject{
		ID:        uuid.New(),
		TenantID:  testTenantID,
		Clearance: securitylevel.Public,
	}
	svc := NewHierarchyService(
		&mockOrgUnitRepo{units: hierarchyFixtureUnits()},
		&mockSubjectRepo{subjects: map[uuid.UUID]*subject.Subject{subj.ID: subj}},
		nil, 0, nil,
	)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	_, home, _, _, units, err := svc.AccessibleUnits(ctx, subj.ID)
	require.NoError(t, err)
	require.Nil(t, home)
	require.Empty(t, units)
}

func TestHierarchyService_AccessibleUnitsUnknownSubject(t *testing.T) {
	svc := NewHierarchyService(
		&mockOrgUnitRepo{units: hierarchyFixtureUnits()},
		&mockSubjectRepo{subjects: map[uuid.UUID]*subject.Subject{}},
		nil, 0, nil,
	)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	_, _, _, _, _, err := svc.AccessibleUnits(ctx, uuid.New())
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestHierarchyService_SnapshotRequiresTenant(t *testing.T) {
	svc := NewHierarchyService(&mockOrgUnitRepo{}, &mockSubjectRepo{}, nil, 0, nil)

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
}
