package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/pkg/composables"
)

func delegationCtx(delegatorID uuid.UUID) context.Context {
	ctx := composables.WithTenantID(context.Background(), testTenantID)
	return composables.WithUserID(ctx, delegatorID)
}

func TestCreateDelegation_RejectsSelfDelegation(t *testing.T) {
	svc := NewDelegationService(nil, nil)
	actorID := uuid.New()

	_, err := svc.CreateDelegation(
		delegationCtx(actorID),
		actorID,
		nil,
		[]policy.Action{policy.ActionView},
		time.Now(),
		time.Now().Add(time.Hour),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "oneself")
}

func TestCreateDelegation_RejectsEmptyPermissions(t *testing.T) {
	svc := NewDelegationService(nil, nil)

	_, err := svc.CreateDelegation(
		delegationCtx(uuid.New()),
		uuid.New(),
		nil,
		nil,
		time.Now(),
		time.Now().Add(time.Hour),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission")
}

func TestCreateDelegation_RejectsEmptyWindow(t *testing.T) {
	svc := NewDelegationService(nil, nil)
	now := time.Now()

	_, err := svc.CreateDelegation(
		delegationCtx(uuid.New()),
		uuid.New(),
		nil,
		[]policy.Action{policy.ActionView},
		now,
		now,
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "window")
}

func TestCreateDelegation_RequiresActingSubject(t *testing.T) {
	svc := NewDelegationService(nil, nil)
	ctx := composables.WithTenantID(context.Background(), testTenantID)

	_, err := svc.CreateDelegation(
		ctx,
		uuid.New(),
		nil,
		[]policy.Action{policy.ActionView},
		time.Now(),
		time.Now().Add(time.Hour),
	)
	require.Error(t, err)
}
