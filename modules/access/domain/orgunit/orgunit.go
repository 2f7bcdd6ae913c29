package orgunit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnitLevel is the seniority of an organizational unit within the
// ministry → department → bureau → division → unit hierarchy.
type UnitLevel int

const (
	Ministry UnitLevel = iota
	Department
	Bureau
	Division
	Unit
)

var levelNames = map[UnitLevel]string{
	Ministry:   "ministry",
	Department: "department",
	Bureau:     "bureau",
	Division:   "division",
	Unit:       "unit",
}

var levelsByName = map[string]UnitLevel{
	"ministry":   Ministry,
	"department": Department,
	"bureau":     Bureau,
	"division":   Division,
	"unit":       Unit,
}

func (l UnitLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unit"
}

func ParseUnitLevel(raw string) (UnitLevel, bool) {
	level, ok := levelsByName[strings.ToLower(strings.TrimSpace(raw))]
	return level, ok
}

// OrgUnit is one node of a tenant's organizational forest.
type OrgUnit struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ParentID  *uuid.UUID
	Level     UnitLevel
	Name      string
	ShortName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type FindParams struct {
	ParentID *uuid.UUID
	Level    *UnitLevel
	Limit    int
	Offset   int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OrgUnit, error)
	List(ctx context.Context, params *FindParams) ([]*OrgUnit, error)
	// ListAll returns every unit of the acting tenant; used to build a
	// Hierarchy snapshot.
	ListAll(ctx context.Context) ([]*OrgUnit, error)
	Create(ctx context.Context, unit *OrgUnit) error
	Update(ctx context.Context, unit *OrgUnit) error
	// Delete refuses while children or assigned subjects exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
