package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/eventbus"
	"github.com/govkit/records-sdk/pkg/serrors"
)

// GrantService mutates the explicit grant tables. Every mutation runs in
// one transaction; a half-applied grant is never observable.
type GrantService struct {
	repo grants.Repository
	bus  eventbus.EventBus
}

func NewGrantService(repo grants.Repository, bus eventbus.EventBus) *GrantService {
	return &GrantService{repo: repo, bus: bus}
}

// GrantOrgAccess grants an org unit (optionally its subtree) capabilities
// on a resource and returns the grant ID.
func (s *GrantService) GrantOrgAccess(ctx context.Context, resourceType policy.ResourceType, resourceID, orgUnitID uuid.UUID, caps policy.Capabilities, inheritToChildren bool) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	grantedBy, err := composables.UseUserID(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	grant := &grants.OrgAccessGrant{
		ID:                uuid.New(),
		TenantID:          tenantID,
		ResourceType:      resourceType,
		ResourceID:        resourceID,
		OrgUnitID:         orgUnitID,
		Capabilities:      caps,
		InheritToChildren: inheritToChildren,
		GrantedBy:         grantedBy,
		GrantedAt:         time.Now(),
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateOrgGrant(txCtx, grant)
	})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "grant org access")
	}
	s.publish(GrantChangedEvent{TenantID: tenantID, ResourceID: resourceID})
	return grant.ID, nil
}

// GrantUserAccess grants a single user capabilities on a resource.
func (s *GrantService) GrantUserAccess(ctx context.Context, resourceType policy.ResourceType, resourceID, userID uuid.UUID, caps policy.Capabilities) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	grantedBy, err := composables.UseUserID(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	grant := &grants.UserAccessGrant{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		UserID:       userID,
		Capabilities: caps,
		GrantedBy:    grantedBy,
		GrantedAt:    time.Now(),
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateUserGrant(txCtx, grant)
	})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "grant user access")
	}
	s.publish(GrantChangedEvent{TenantID: tenantID, ResourceID: resourceID})
	return grant.ID, nil
}

// RevokeAccess removes org- and/or user-level grants on a resource. It
// reports whether anything was actually revoked.
func (s *GrantService) RevokeAccess(ctx context.Context, resourceID uuid.UUID, orgUnitID, userID *uuid.UUID) (bool, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}

	var revoked bool
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if orgUnitID != nil {
			ok, err := s.repo.RevokeOrgGrant(txCtx, resourceID, *orgUnitID)
			if err != nil {
				return err
			}
			revoked = revoked || ok
		}
		if userID != nil {
			ok, err := s.repo.RevokeUserGrant(txCtx, resourceID, *userID)
			if err != nil {
				return err
			}
			revoked = revoked || ok
		}
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "revoke access")
	}
	if revoked {
		s.publish(GrantChangedEvent{TenantID: tenantID, ResourceID: resourceID})
	}
	return revoked, nil
}

// UpsertVisibility records a resource's ownership, classification and
// sharing lists. Upstream processing supplies classification as fact.
func (s *GrantService) UpsertVisibility(ctx context.Context, record *grants.VisibilityRecord) error {
	if record == nil {
		return serrors.NewError("ACCESS_INVALID_BODY", "visibility record payload is required", "")
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	if record.TenantID == uuid.Nil {
		record.TenantID = tenantID
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpsertVisibility(txCtx, record)
	})
	if err != nil {
		return errors.Wrap(err, "upsert visibility")
	}
	s.publish(GrantChangedEvent{TenantID: tenantID, ResourceID: record.ResourceID})
	return nil
}

func (s *GrantService) publish(ev GrantChangedEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
