package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/modules/access/domain/graph"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/composables"
)

// GraphRepository queries the knowledge graph stored in Apache AGE on the
// same Postgres instance as the relational tables. Every read of
// contract-domain nodes is fenced by the caller's GraphFilter; knowledge-base
// nodes are agent-internal and never filtered.
type GraphRepository struct {
	graphName string
}

func NewGraphRepository(graphName string) *GraphRepository {
	return &GraphRepository{graphName: graphName}
}

// entityRow mirrors the agtype JSON AGE returns for a vertex's property map.
type entityRow struct {
	ID            string `json:"id"`
	Domain        string `json:"domain"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	SourceID      string `json:"source_resource_id"`
	TenantID      string `json:"tenant_id"`
	DepartmentID  string `json:"department_id"`
	SecurityLevel *int   `json:"security_level"`
}

type relationshipRow struct {
	ID            string `json:"id"`
	Domain        string `json:"domain"`
	FromID        string `json:"from_id"`
	ToID          string `json:"to_id"`
	Kind          string `json:"kind"`
	TenantID      string `json:"tenant_id"`
	DepartmentID  string `json:"department_id"`
	SecurityLevel *int   `json:"security_level"`
}

// ListEntities returns contract-domain entities of the given kind visible
// under the filter. Pass kind == "" for all kinds.
func (r *GraphRepository) ListEntities(ctx context.Context, filter *services.GraphFilter, kind string, limit int) ([]*graph.Entity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, params := filter.CypherWhere("e")
	match := fmt.Sprintf("MATCH (e:Entity {domain: 'contracts'}) WHERE (%s)", where)
	if kind != "" {
		match += " AND e.kind = $kind"
		params["kind"] = kind
	}
	cypherQuery := match + " RETURN properties(e) LIMIT " + fmt.Sprintf("%d", limit)

	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, fmt.Sprintf(
		"SELECT props FROM cypher('%s', $$%s$$, $1) AS (props agtype)",
		r.graphName, cypherQuery,
	), paramJSON)
	if err != nil {
		return nil, errors.Wrap(err, "graph entity query failed")
	}
	defer rows.Close()

	var entities []*graph.Entity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		entity, err := parseEntity(raw)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}

// ListKnowledgeBaseEntities returns knowledge-base-domain entities without
// security filtering. KB nodes carry no security axes; the agent layer is
// their only consumer.
func (r *GraphRepository) ListKnowledgeBaseEntities(ctx context.Context, kind string, limit int) ([]*graph.Entity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	match := "MATCH (e:Entity {domain: 'knowledge_base'})"
	params := map[string]any{}
	if kind != "" {
		match += " WHERE e.kind = $kind"
		params["kind"] = kind
	}
	cypherQuery := match + " RETURN properties(e) LIMIT " + fmt.Sprintf("%d", limit)

	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, fmt.Sprintf(
		"SELECT props FROM cypher('%s', $$%s$$, $1) AS (props agtype)",
		r.graphName, cypherQuery,
	), paramJSON)
	if err != nil {
		return nil, errors.Wrap(err, "graph kb query failed")
	}
	defer rows.Close()

	var entities []*graph.Entity
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		entity, err := parseEntity(raw)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}

// Neighbors traverses one hop from the given entity, applying the filter to
// both the edge and the far node so a traversal can never widen access.
func (r *GraphRepository) Neighbors(ctx context.Context, filter *services.GraphFilter, entityID uuid.UUID, limit int) ([]*graph.Relationship, []*graph.Entity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, nil, err
	}

	edgeWhere, params := filter.CypherWhere("rel")
	nodeWhere, nodeParams := filter.CypherWhere("m")
	for k, v := range nodeParams {
		params[k] = v
	}
	params["entity_id"] = entityID.String()

	cypherQuery := fmt.Sprintf(
		"MATCH (e:Entity {id: $entity_id})-[rel]-(m:Entity {domain: 'contracts'})"+
			" WHERE (%s) AND (%s)"+
			" RETURN properties(rel), properties(m) LIMIT %d",
		edgeWhere, nodeWhere, limit,
	)

	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, nil, err
	}
	rows, err := tx.Query(ctx, fmt.Sprintf(
		"SELECT rel, node FROM cypher('%s', $$%s$$, $1) AS (rel agtype, node agtype)",
		r.graphName, cypherQuery,
	), paramJSON)
	if err != nil {
		return nil, nil, errors.Wrap(err, "graph traversal failed")
	}
	defer rows.Close()

	var rels []*graph.Relationship
	var nodes []*graph.Entity
	for rows.Next() {
		var rawRel, rawNode []byte
		if err := rows.Scan(&rawRel, &rawNode); err != nil {
			return nil, nil, err
		}
		rel, err := parseRelationship(rawRel)
		if err != nil {
			return nil, nil, err
		}
		node, err := parseEntity(rawNode)
		if err != nil {
			return nil, nil, err
		}
		rels = append(rels, rel)
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return rels, nodes, nil
}

func parseEntity(raw []byte) (*graph.Entity, error) {
	var row entityRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, errors.Wrap(err, "malformed graph entity")
	}
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "malformed graph entity id")
	}
	return &graph.Entity{
		ID:               id,
		Domain:           graph.Domain(row.Domain),
		Name:             row.Name,
		Kind:             row.Kind,
		SourceResourceID: parseOptionalUUID(row.SourceID),
		TenantID:         parseOptionalUUID(row.TenantID),
		DepartmentID:     parseOptionalUUID(row.DepartmentID),
		SecurityLevel:    parseOptionalLevel(row.SecurityLevel),
	}, nil
}

func parseRelationship(raw []byte) (*graph.Relationship, error) {
	var row relationshipRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, errors.Wrap(err, "malformed graph relationship")
	}
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "malformed graph relationship id")
	}
	fromID, err := uuid.Parse(row.FromID)
	if err != nil {
		return nil, err
	}
	toID, err := uuid.Parse(row.ToID)
	if err != nil {
		return nil, err
	}
	return &graph.Relationship{
		ID:            id,
		Domain:        graph.Domain(row.Domain),
		FromID:        fromID,
		ToID:          toID,
		Kind:          row.Kind,
		TenantID:      parseOptionalUUID(row.TenantID),
		DepartmentID:  parseOptionalUUID(row.DepartmentID),
		SecurityLevel: parseOptionalLevel(row.SecurityLevel),
	}, nil
}

func parseOptionalUUID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func parseOptionalLevel(raw *int) *securitylevel.Level {
	if raw == nil {
		return nil
	}
	level := securitylevel.Level(*raw)
	if !level.Valid() {
		// An unknown tag must read as more restricted, never as untagged.
		// Sit above every clearance so the predicate denies, matching the
		// coalesce comparison the cypher WHERE fragment performs.
		logrus.WithFields(logrus.Fields{
			"component":      "graph_repository",
			"security_level": *raw,
		}).Warn("entity carries unknown security level tag")
		level = securitylevel.TopSecret + 1
	}
	return &level
}
