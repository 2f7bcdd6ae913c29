package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/pkg/composables"
)

func TestGrantOrgAccess_RequiresTenant(t *testing.T) {
	svc := NewGrantService(nil, nil)

	_, err := svc.GrantOrgAccess(
		context.Background(),
		policy.ResourceContract,
		uuid.New(),
		uuid.New(),
		policy.Capabilities{View: true},
		true,
	)
	require.ErrorIs(t, err, composables.ErrNoTenantID)
}

func TestGrantOrgAccess_RequiresActingSubject(t *testing.T) {
	svc := NewGrantService(nil, nil)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	_, err := svc.GrantOrgAccess(
		ctx,
		policy.ResourceContract,
		uuid.New(),
		uuid.New(),
		policy.Capabilities{View: true},
		false,
	)
	require.Error(t, err)
}

func TestGrantUserAccess_RequiresActingSubject(t *testing.T) {
	svc := NewGrantService(nil, nil)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	_, err := svc.GrantUserAccess(
		ctx,
		policy.ResourceDocument,
		uuid.New(),
		uuid.New(),
		policy.Capabilities{View: true, Share: true},
	)
	require.Error(t, err)
}

func TestRevokeAccess_RequiresTenant(t *testing.T) {
	svc := NewGrantService(nil, nil)
	orgUnitID := uuid.New()

	_, err := svc.RevokeAccess(context.Background(), uuid.New(), &orgUnitID, nil)
	require.ErrorIs(t, err, composables.ErrNoTenantID)
}

func TestUpsertVisibility_RejectsNilRecord(t *testing.T) {
	svc := NewGrantService(nil, nil)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	err := svc.UpsertVisibility(ctx, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "visibility record")
}
