package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/composables"
)

// SnapshotLoader reads everything one evaluation needs inside a single
// read-only repeatable-read transaction so the engine sees one consistent
// point in time even while grants are being mutated concurrently.
type SnapshotLoader struct {
	subjects    subject.Repository
	policies    policy.Repository
	grants      grants.Repository
	delegations delegation.Repository
	hierarchy   *services.HierarchyService
}

func NewSnapshotLoader(
	subjects subject.Repository,
	policies policy.Repository,
	grantRepo grants.Repository,
	delegations delegation.Repository,
	hierarchy *services.HierarchyService,
) *SnapshotLoader {
	return &SnapshotLoader{
		subjects:    subjects,
		policies:    policies,
		grants:      grantRepo,
		delegations: delegations,
		hierarchy:   hierarchy,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context, subjectID uuid.UUID, resourceType policy.ResourceType, resourceID uuid.UUID) (*services.EvaluationSnapshot, error) {
	snap := &services.EvaluationSnapshot{
		Now:        time.Now(),
		Delegators: map[uuid.UUID]*subject.Subject{},
	}

	err := composables.InReadTx(ctx, func(txCtx context.Context) error {
		hier, err := l.hierarchy.Snapshot(txCtx)
		if err != nil {
			return err
		}
		snap.Hierarchy = hier

		subj, err := l.loadSubjectWithRoles(txCtx, subjectID)
		if err != nil {
			return err
		}
		snap.Subject = subj
		if subj == nil {
			return nil
		}

		vis, err := l.grants.VisibilityFor(txCtx, resourceType, resourceID)
		if err != nil {
			return err
		}
		snap.Visibility = vis
		if vis == nil {
			return nil
		}
		snap.ResourceAttributes = vis.Attributes

		if vis.ContainerID != nil {
			container, err := l.grants.VisibilityFor(txCtx, policy.ResourceKnowledgeBase, *vis.ContainerID)
			if err != nil {
				return err
			}
			snap.ContainerPublic = container != nil && container.Public
		}

		orgGrants, err := l.grants.OrgGrantsFor(txCtx, resourceType, resourceID)
		if err != nil {
			return err
		}
		snap.OrgGrants = orgGrants

		userGrants, err := l.grants.UserGrantsFor(txCtx, resourceType, resourceID)
		if err != nil {
			return err
		}
		snap.UserGrants = userGrants

		dels, err := l.delegations.ActiveForDelegatee(txCtx, subjectID, snap.Now)
		if err != nil {
			return err
		}
		snap.Delegations = dels

		for _, d := range dels {
			if _, ok := snap.Delegators[d.DelegatorID]; ok {
				continue
			}
			delegator, err := l.loadSubjectWithRoles(txCtx, d.DelegatorID)
			if err != nil {
				return err
			}
			if delegator != nil {
				snap.Delegators[d.DelegatorID] = delegator
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (l *SnapshotLoader) loadSubjectWithRoles(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	subj, err := l.subjects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subj == nil {
		return nil, nil
	}
	roles, err := l.policies.RolesForSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	subj.Roles = roles
	return subj, nil
}
