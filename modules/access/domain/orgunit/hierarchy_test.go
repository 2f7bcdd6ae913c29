package orgunit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func unitRef(id uuid.UUID) *uuid.UUID { return &id }

func buildTestTree() (ministry, deptA, divB, unitC, deptX *OrgUnit) {
	tenantID := uuid.New()
	ministry = &OrgUnit{ID: uuid.New(), TenantID: tenantID, Level: Ministry, Name: "Ministry"}
	deptA = &OrgUnit{ID: uuid.New(), TenantID: tenantID, ParentID: unitRef(ministry.ID), Level: Department, Name: "Department-A"}
	divB = &OrgUnit{ID: uuid.New(), TenantID: tenantID, ParentID: unitRef(deptA.ID), Level: Division, Name: "Division-B"}
	unitC = &OrgUnit{ID: uuid.New(), TenantID: tenantID, ParentID: unitRef(divB.ID), Level: Unit, Name: "Unit-C"}
	deptX = &OrgUnit{ID: uuid.New(), TenantID: tenantID, ParentID: unitRef(ministry.ID), Level: Department, Name: "Department-X"}
	return
}

func TestHierarchy_IsDescendantOrSelf(t *testing.T) {
	ministry, deptA, divB, unitC, deptX := buildTestTree()
	h := NewHierarchy([]*OrgUnit{ministry, deptA, divB, unitC, deptX}, nil)

	require.True(t, h.IsDescendantOrSelf(unitC.ID, ministry.ID))
	require.True(t, h.IsDescendantOrSelf(unitC.ID, deptA.ID))
	require.True(t, h.IsDescendantOrSelf(deptA.ID, deptA.ID))
	require.False(t, h.IsDescendantOrSelf(deptA.ID, divB.ID), "inheritance runs downward only")
	require.False(t, h.IsDescendantOrSelf(unitC.ID, deptX.ID))
	require.False(t, h.IsDescendantOrSelf(uuid.New(), ministry.ID), "unknown unit is not a descendant")
}

func TestHierarchy_AccessibleOrgUnits(t *testing.T) {
	ministry, deptA, divB, unitC, deptX := buildTestTree()
	h := NewHierarchy([]*OrgUnit{ministry, deptA, divB, unitC, deptX}, nil)

	withDescendants := h.AccessibleOrgUnits(deptA.ID, true)
	require.Len(t, withDescendants, 3)
	require.Contains(t, withDescendants, deptA.ID)
	require.Contains(t, withDescendants, divB.ID)
	require.Contains(t, withDescendants, unitC.ID)
	require.NotContains(t, withDescendants, deptX.ID)

	selfOnly := h.AccessibleOrgUnits(deptA.ID, false)
	require.Len(t, selfOnly, 1)
	require.Contains(t, selfOnly, deptA.ID)
}

func TestHierarchy_CyclicDataTerminates(t *testing.T) {
	tenantID := uuid.New()
	a := &OrgUnit{ID: uuid.New(), TenantID: tenantID, Level: Department}
	b := &OrgUnit{ID: uuid.New(), TenantID: tenantID, Level: Division}
	a.ParentID = unitRef(b.ID)
	b.ParentID = unitRef(a.ID)

	h := NewHierarchy([]*OrgUnit{a, b}, nil)
	require.False(t, h.IsDescendantOrSelf(a.ID, uuid.New()))

	units := h.AccessibleOrgUnits(a.ID, true)
	require.Contains(t, units, a.ID)
	require.Contains(t, units, b.ID)
}

func TestHierarchy_AncestorAtLevel(t *testing.T) {
	ministry, deptA, divB, unitC, _ := buildTestTree()
	h := NewHierarchy([]*OrgUnit{ministry, deptA, divB, unitC}, nil)

	dept, ok := h.AncestorAtLevel(unitC.ID, Department)
	require.True(t, ok)
	require.Equal(t, deptA.ID, dept.ID)

	_, ok = h.AncestorAtLevel(ministry.ID, Unit)
	require.False(t, ok)

	self, ok := h.AncestorAtLevel(divB.ID, Division)
	require.True(t, ok)
	require.Equal(t, divB.ID, self.ID)
}
