package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/pkg/composables"
)

// HierarchyService loads per-tenant hierarchy snapshots, optionally caching
// the flat unit listing in redis. A cache miss or error always falls back
// to the repository; the cache is never authoritative.
type HierarchyService struct {
	units    orgunit.Repository
	subjects subject.Repository
	rdb      *redis.Client
	ttl      time.Duration
	logger   *logrus.Entry
}

func NewHierarchyService(units orgunit.Repository, subjects subject.Repository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *HierarchyService {
	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "hierarchy")
	} else {
		entry = logrus.WithField("component", "hierarchy")
	}
	return &HierarchyService{units: units, subjects: subjects, rdb: rdb, ttl: ttl, logger: entry}
}

func hierarchyCacheKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("access:hierarchy:%s", tenantID)
}

// Snapshot returns the acting tenant's hierarchy.
func (s *HierarchyService) Snapshot(ctx context.Context) (*orgunit.Hierarchy, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if units, ok := s.cachedUnits(ctx, tenantID); ok {
		return orgunit.NewHierarchy(units, s.logger), nil
	}

	units, err := s.units.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.storeUnits(ctx, tenantID, units)
	return orgunit.NewHierarchy(units, s.logger), nil
}

// Invalidate drops the cached unit listing for a tenant. Wired to
// OrgUnitChangedEvent on the event bus.
func (s *HierarchyService) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, hierarchyCacheKey(tenantID)).Err(); err != nil {
		s.logger.WithError(err).Warn("hierarchy cache invalidation failed")
	}
}

// AccessibleUnits resolves the subject's graph-filter context: home
// department and its subtree, clearance and superuser flag. Implements
// HierarchyProvider.
func (s *HierarchyService) AccessibleUnits(ctx context.Context, subjectID uuid.UUID) (uuid.UUID, *uuid.UUID, securitylevel.Level, bool, map[uuid.UUID]struct{}, error) {
	subj, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return uuid.Nil, nil, securitylevel.Public, false, nil, err
	}
	if subj == nil {
		return uuid.Nil, nil, securitylevel.Public, false, nil, NewNotFoundError("subject", subjectID)
	}

	if subj.OrgUnitID == nil {
		return subj.TenantID, nil, subj.Clearance, subj.Superuser, map[uuid.UUID]struct{}{}, nil
	}

	hierarchy, err := s.Snapshot(ctx)
	if err != nil {
		return uuid.Nil, nil, securitylevel.Public, false, nil, err
	}

	// Department is the graph's partitioning granularity; a subject in a
	// division reaches its whole department subtree.
	home := *subj.OrgUnitID
	if dept, ok := hierarchy.AncestorAtLevel(home, orgunit.Department); ok {
		home = dept.ID
	}
	units := hierarchy.AccessibleOrgUnits(home, true)
	return subj.TenantID, &home, subj.Clearance, subj.Superuser, units, nil
}

func (s *HierarchyService) cachedUnits(ctx context.Context, tenantID uuid.UUID) ([]*orgunit.OrgUnit, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, hierarchyCacheKey(tenantID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("hierarchy cache read failed")
		}
		return nil, false
	}
	var units []*orgunit.OrgUnit
	if err := json.Unmarshal(raw, &units); err != nil {
		s.logger.WithError(err).Warn("hierarchy cache entry corrupt, discarding")
		s.Invalidate(ctx, tenantID)
		return nil, false
	}
	return units, true
}

func (s *HierarchyService) storeUnits(ctx context.Context, tenantID uuid.UUID, units []*orgunit.OrgUnit) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(units)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, hierarchyCacheKey(tenantID), raw, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("hierarchy cache write failed")
	}
}
