package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
)

func TestToDomainSubject_UnknownClearanceStaysPublic(t *testing.T) {
	subj := toDomainSubject(&models.Subject{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Clearance: "corrupted-legacy-label",
	})

	require.Equal(t, securitylevel.Public, subj.Clearance)
	require.False(t, securitylevel.CanRead(subj.Clearance, securitylevel.DepartmentOnly))
}

func TestToDomainSubject_KnownClearance(t *testing.T) {
	subj := toDomainSubject(&models.Subject{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Clearance: "confidential",
	})

	require.Equal(t, securitylevel.Confidential, subj.Clearance)
}
