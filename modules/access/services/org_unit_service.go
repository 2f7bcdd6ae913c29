package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/eventbus"
)

var (
	ErrOrgUnitHasChildren = errors.New("org unit still has child units")
	ErrOrgUnitHasSubjects = errors.New("org unit still has assigned subjects")
)

// OrgUnitService covers the administrative lifecycle of organizational
// units.
type OrgUnitService struct {
	units    orgunit.Repository
	subjects subject.Repository
	bus      eventbus.EventBus
}

func NewOrgUnitService(units orgunit.Repository, subjects subject.Repository, bus eventbus.EventBus) *OrgUnitService {
	return &OrgUnitService{units: units, subjects: subjects, bus: bus}
}

func (s *OrgUnitService) Get(ctx context.Context, id uuid.UUID) (*orgunit.OrgUnit, error) {
	unit, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, NewNotFoundError("org unit", id)
	}
	return unit, nil
}

func (s *OrgUnitService) List(ctx context.Context, params *orgunit.FindParams) ([]*orgunit.OrgUnit, error) {
	return s.units.List(ctx, params)
}

func (s *OrgUnitService) Create(ctx context.Context, unit *orgunit.OrgUnit) error {
	if unit == nil {
		return errors.New("org unit payload is required")
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	unit.TenantID = tenantID

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if unit.ParentID != nil {
			parent, err := s.units.GetByID(txCtx, *unit.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return NewNotFoundError("org unit", *unit.ParentID)
			}
		}
		return s.units.Create(txCtx, unit)
	})
	if err != nil {
		return errors.Wrap(err, "create org unit")
	}
	s.publish(tenantID, unit.ID)
	return nil
}

func (s *OrgUnitService) Update(ctx context.Context, unit *orgunit.OrgUnit) error {
	if unit == nil {
		return errors.New("org unit payload is required")
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.units.Update(txCtx, unit)
	})
	if err != nil {
		return errors.Wrap(err, "update org unit")
	}
	s.publish(tenantID, unit.ID)
	return nil
}

// Delete refuses while children or assigned subjects exist.
func (s *OrgUnitService) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		children, err := s.units.List(txCtx, &orgunit.FindParams{ParentID: &id, Limit: 1})
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return ErrOrgUnitHasChildren
		}
		assigned, err := s.subjects.CountByOrgUnit(txCtx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return ErrOrgUnitHasSubjects
		}
		return s.units.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.publish(tenantID, id)
	return nil
}

func (s *OrgUnitService) publish(tenantID, orgUnitID uuid.UUID) {
	if s.bus != nil {
		s.bus.Publish(OrgUnitChangedEvent{TenantID: tenantID, OrgUnitID: orgUnitID})
	}
}
