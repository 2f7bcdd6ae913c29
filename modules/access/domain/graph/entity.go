package graph

import (
	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
)

// Domain partitions the knowledge graph. Contract-domain entities mirror
// relational security context and are filtered; knowledge-base entities are
// agent-only and carry no security fields.
type Domain string

const (
	DomainContracts     Domain = "contracts"
	DomainKnowledgeBase Domain = "knowledge_base"
)

// Entity is a node extracted from a source document. Security properties
// are write-once at ingestion time and read-only here. Nil axes mean the
// entity predates security tagging; each nil axis is treated as
// unrestricted pending a data backfill.
type Entity struct {
	ID               uuid.UUID
	Domain           Domain
	Name             string
	Kind             string
	SourceResourceID *uuid.UUID
	TenantID         *uuid.UUID
	DepartmentID     *uuid.UUID
	SecurityLevel    *securitylevel.Level
}

// Relationship is a typed edge between two entities. It carries the same
// security axes as its endpoints.
type Relationship struct {
	ID            uuid.UUID
	Domain        Domain
	FromID        uuid.UUID
	ToID          uuid.UUID
	Kind          string
	TenantID      *uuid.UUID
	DepartmentID  *uuid.UUID
	SecurityLevel *securitylevel.Level
}
