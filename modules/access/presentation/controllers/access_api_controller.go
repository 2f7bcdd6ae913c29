package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/domain/graph"
	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/presentation/controllers/dtos"
	"github.com/govkit/records-sdk/modules/access/services"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/httpapi"
)

// GraphBrowser reads the knowledge graph under a prepared filter.
type GraphBrowser interface {
	ListEntities(ctx context.Context, filter *services.GraphFilter, kind string, limit int) ([]*graph.Entity, error)
	ListKnowledgeBaseEntities(ctx context.Context, kind string, limit int) ([]*graph.Entity, error)
	Neighbors(ctx context.Context, filter *services.GraphFilter, entityID uuid.UUID, limit int) ([]*graph.Relationship, []*graph.Entity, error)
}

type AccessAPIController struct {
	engine      *services.PolicyEngine
	grants      *services.GrantService
	delegations *services.DelegationService
	orgUnits    *services.OrgUnitService
	graphFilter *services.GraphFilterService
	graphStore  GraphBrowser
	audit       *services.AuditService
	apiPrefix   string
}

func NewAccessAPIController(
	engine *services.PolicyEngine,
	grantSvc *services.GrantService,
	delegationSvc *services.DelegationService,
	orgUnitSvc *services.OrgUnitService,
	graphFilterSvc *services.GraphFilterService,
	graphStore GraphBrowser,
	auditSvc *services.AuditService,
) *AccessAPIController {
	return &AccessAPIController{
		engine:      engine,
		grants:      grantSvc,
		delegations: delegationSvc,
		orgUnits:    orgUnitSvc,
		graphFilter: graphFilterSvc,
		graphStore:  graphStore,
		audit:       auditSvc,
		apiPrefix:   "/access/api",
	}
}

func (c *AccessAPIController) Key() string {
	return c.apiPrefix
}

func (c *AccessAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/check", c.CheckAccess).Methods(http.MethodPost)

	api.HandleFunc("/grants/org", c.GrantOrgAccess).Methods(http.MethodPost)
	api.HandleFunc("/grants/user", c.GrantUserAccess).Methods(http.MethodPost)
	api.HandleFunc("/grants:revoke", c.RevokeAccess).Methods(http.MethodPost)
	api.HandleFunc("/visibility", c.UpsertVisibility).Methods(http.MethodPut)

	api.HandleFunc("/delegations", c.CreateDelegation).Methods(http.MethodPost)
	api.HandleFunc("/delegations/{id}:revoke", c.RevokeDelegation).Methods(http.MethodPost)

	api.HandleFunc("/graph-filter", c.BuildGraphFilter).Methods(http.MethodGet)
	api.HandleFunc("/graph/entities", c.ListGraphEntities).Methods(http.MethodGet)
	api.HandleFunc("/graph/entities/{id}/neighbors", c.ListGraphNeighbors).Methods(http.MethodGet)
	api.HandleFunc("/graph/kb/entities", c.ListKnowledgeBaseEntities).Methods(http.MethodGet)
	api.HandleFunc("/audit", c.QueryAuditLog).Methods(http.MethodGet)

	api.HandleFunc("/org-units", c.ListOrgUnits).Methods(http.MethodGet)
	api.HandleFunc("/org-units", c.CreateOrgUnit).Methods(http.MethodPost)
	api.HandleFunc("/org-units/{id}", c.GetOrgUnit).Methods(http.MethodGet)
	api.HandleFunc("/org-units/{id}", c.UpdateOrgUnit).Methods(http.MethodPatch)
	api.HandleFunc("/org-units/{id}", c.DeleteOrgUnit).Methods(http.MethodDelete)
}

type decisionResponse struct {
	Allowed     bool      `json:"allowed"`
	Reason      string    `json:"reason"`
	SubjectID   string    `json:"subject_id"`
	ResourceID  string    `json:"resource_id"`
	Action      string    `json:"action"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

func toDecisionResponse(d *decision.AccessDecision) decisionResponse {
	return decisionResponse{
		Allowed:     d.Allowed,
		Reason:      d.Reason,
		SubjectID:   d.SubjectID.String(),
		ResourceID:  d.ResourceID.String(),
		Action:      string(d.Action),
		EvaluatedAt: d.EvaluatedAt,
	}
}

func (c *AccessAPIController) CheckAccess(w http.ResponseWriter, r *http.Request) {
	var req dtos.CheckAccessRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	d, err := c.engine.CanAccess(r.Context(), req.SubjectID, policy.ResourceType(req.ResourceType), req.ResourceID, req.Action)
	if err != nil {
		if services.IsNotFound(err) && d != nil {
			// Not-found still yields an audited deny; surface both.
			_ = httpapi.WriteJSON(w, http.StatusNotFound, toDecisionResponse(d))
			return
		}
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDecisionResponse(d))
}

func capabilitiesFromDTO(d dtos.CapabilitiesDTO) policy.Capabilities {
	return policy.Capabilities{
		View:    d.View,
		Create:  d.Create,
		Edit:    d.Edit,
		Delete:  d.Delete,
		Approve: d.Approve,
		Share:   d.Share,
		Manage:  d.Manage,
	}
}

func (c *AccessAPIController) GrantOrgAccess(w http.ResponseWriter, r *http.Request) {
	var req dtos.GrantOrgAccessRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	id, err := c.grants.GrantOrgAccess(
		r.Context(),
		policy.ResourceType(req.ResourceType),
		req.ResourceID,
		req.OrgUnitID,
		capabilitiesFromDTO(req.Capabilities),
		req.InheritToChildren,
	)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]string{"grant_id": id.String()})
}

func (c *AccessAPIController) GrantUserAccess(w http.ResponseWriter, r *http.Request) {
	var req dtos.GrantUserAccessRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	id, err := c.grants.GrantUserAccess(
		r.Context(),
		policy.ResourceType(req.ResourceType),
		req.ResourceID,
		req.UserID,
		capabilitiesFromDTO(req.Capabilities),
	)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]string{"grant_id": id.String()})
}

func (c *AccessAPIController) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	var req dtos.RevokeAccessRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	revoked, err := c.grants.RevokeAccess(r.Context(), req.ResourceID, req.OrgUnitID, req.UserID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

func (c *AccessAPIController) UpsertVisibility(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpsertVisibilityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	level, ok := securitylevel.Parse(req.SecurityLevel)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_BODY", "unknown security level", map[string]string{"security_level": req.SecurityLevel})
		return
	}

	record := &grants.VisibilityRecord{
		ResourceType:    policy.ResourceType(req.ResourceType),
		ResourceID:      req.ResourceID,
		OwnerID:         req.OwnerID,
		OwnerOrgUnitID:  req.OwnerOrgUnitID,
		ContainerID:     req.ContainerID,
		Level:           level,
		Confidentiality: req.Confidentiality,
		SharedWithOrgs:  req.SharedWithOrgs,
		SharedWithUsers: req.SharedWithUsers,
		Public:          req.Public,
		Attributes:      req.Attributes,
	}
	if err := c.grants.UpsertVisibility(r.Context(), record); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"visibility_id": record.ID.String()})
}

func (c *AccessAPIController) CreateDelegation(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateDelegationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	permissions := make([]policy.Action, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		permissions = append(permissions, policy.Action(p))
	}

	id, err := c.delegations.CreateDelegation(r.Context(), req.DelegateeID, req.OrgUnitID, permissions, req.ValidFrom, req.ValidUntil)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]string{"delegation_id": id.String()})
}

func (c *AccessAPIController) RevokeDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_PATH", "invalid delegation id", nil)
		return
	}
	revokedBy, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "ACCESS_UNAUTHENTICATED", "subject not identified", nil)
		return
	}

	revoked, err := c.delegations.RevokeDelegation(r.Context(), id, revokedBy)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

type graphFilterResponse struct {
	TenantID                string   `json:"tenant_id"`
	HomeDepartmentID        *string  `json:"home_department_id"`
	Clearance               string   `json:"clearance"`
	AccessibleDepartmentIDs []string `json:"accessible_department_ids"`
	Superuser               bool     `json:"superuser"`
	CypherWhere             string   `json:"cypher_where"`
}

func (c *AccessAPIController) BuildGraphFilter(w http.ResponseWriter, r *http.Request) {
	subjectID, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "ACCESS_UNAUTHENTICATED", "subject not identified", nil)
		return
	}
	if raw := r.URL.Query().Get("subject_id"); raw != "" {
		subjectID, err = uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid subject_id", nil)
			return
		}
	}

	filter, err := c.graphFilter.BuildGraphFilter(r.Context(), subjectID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	departments := make([]string, 0, len(filter.AccessibleDepartmentIDs))
	for id := range filter.AccessibleDepartmentIDs {
		departments = append(departments, id.String())
	}
	var home *string
	if filter.HomeDepartmentID != nil {
		s := filter.HomeDepartmentID.String()
		home = &s
	}
	where, _ := filter.CypherWhere("e")
	_ = httpapi.WriteJSON(w, http.StatusOK, graphFilterResponse{
		TenantID:                filter.TenantID.String(),
		HomeDepartmentID:        home,
		Clearance:               filter.Clearance.String(),
		AccessibleDepartmentIDs: departments,
		Superuser:               filter.Superuser,
		CypherWhere:             where,
	})
}

type graphEntityResponse struct {
	ID            string  `json:"id"`
	Domain        string  `json:"domain"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	TenantID      *string `json:"tenant_id"`
	DepartmentID  *string `json:"department_id"`
	SecurityLevel *string `json:"security_level"`
}

func toGraphEntityResponse(e *graph.Entity) graphEntityResponse {
	resp := graphEntityResponse{
		ID:     e.ID.String(),
		Domain: string(e.Domain),
		Name:   e.Name,
		Kind:   e.Kind,
	}
	if e.TenantID != nil {
		s := e.TenantID.String()
		resp.TenantID = &s
	}
	if e.DepartmentID != nil {
		s := e.DepartmentID.String()
		resp.DepartmentID = &s
	}
	if e.SecurityLevel != nil {
		s := e.SecurityLevel.String()
		resp.SecurityLevel = &s
	}
	return resp
}

func (c *AccessAPIController) graphLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 100, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 1000 {
		return 0, false
	}
	return limit, true
}

func (c *AccessAPIController) ListGraphEntities(w http.ResponseWriter, r *http.Request) {
	subjectID, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "ACCESS_UNAUTHENTICATED", "subject not identified", nil)
		return
	}
	limit, ok := c.graphLimit(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid limit", nil)
		return
	}

	filter, err := c.graphFilter.BuildGraphFilter(r.Context(), subjectID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	entities, err := c.graphStore.ListEntities(r.Context(), filter, r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	items := make([]graphEntityResponse, 0, len(entities))
	for _, e := range entities {
		items = append(items, toGraphEntityResponse(e))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) ListGraphNeighbors(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_PATH", "invalid entity id", nil)
		return
	}
	subjectID, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "ACCESS_UNAUTHENTICATED", "subject not identified", nil)
		return
	}
	limit, ok := c.graphLimit(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid limit", nil)
		return
	}

	filter, err := c.graphFilter.BuildGraphFilter(r.Context(), subjectID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	rels, nodes, err := c.graphStore.Neighbors(r.Context(), filter, entityID, limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	type neighborResponse struct {
		RelationshipKind string              `json:"relationship_kind"`
		Entity           graphEntityResponse `json:"entity"`
	}
	items := make([]neighborResponse, 0, len(nodes))
	for i, node := range nodes {
		items = append(items, neighborResponse{
			RelationshipKind: rels[i].Kind,
			Entity:           toGraphEntityResponse(node),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) ListKnowledgeBaseEntities(w http.ResponseWriter, r *http.Request) {
	limit, ok := c.graphLimit(r)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid limit", nil)
		return
	}
	entities, err := c.graphStore.ListKnowledgeBaseEntities(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	items := make([]graphEntityResponse, 0, len(entities))
	for _, e := range entities {
		items = append(items, toGraphEntityResponse(e))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) QueryAuditLog(w http.ResponseWriter, r *http.Request) {
	params := &decision.FindParams{Limit: 50}
	q := r.URL.Query()

	if raw := q.Get("subject_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid subject_id", nil)
			return
		}
		params.SubjectID = &id
	}
	if raw := q.Get("resource_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid resource_id", nil)
			return
		}
		params.ResourceID = &id
	}
	if raw := q.Get("resource_type"); raw != "" {
		rt := policy.ResourceType(raw)
		params.ResourceType = &rt
	}
	if raw := q.Get("allowed"); raw != "" {
		allowed, err := strconv.ParseBool(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid allowed flag", nil)
			return
		}
		params.Allowed = &allowed
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid from timestamp", nil)
			return
		}
		params.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid to timestamp", nil)
			return
		}
		params.To = &t
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 1000 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid limit", nil)
			return
		}
		params.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid offset", nil)
			return
		}
		params.Offset = offset
	}

	records, total, err := c.audit.Query(r.Context(), params)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	items := make([]decisionResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toDecisionResponse(rec))
	}
	type auditResponse struct {
		Total int64              `json:"total"`
		Items []decisionResponse `json:"items"`
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, auditResponse{Total: total, Items: items})
}

type orgUnitResponse struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Level    string  `json:"level"`
	Name     string  `json:"name"`
}

func toOrgUnitResponse(u *orgunit.OrgUnit) orgUnitResponse {
	var parent *string
	if u.ParentID != nil {
		s := u.ParentID.String()
		parent = &s
	}
	return orgUnitResponse{
		ID:       u.ID.String(),
		ParentID: parent,
		Level:    u.Level.String(),
		Name:     u.Name,
	}
}

func (c *AccessAPIController) ListOrgUnits(w http.ResponseWriter, r *http.Request) {
	params := &orgunit.FindParams{Limit: 200}
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid parent_id", nil)
			return
		}
		params.ParentID = &id
	}
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, ok := orgunit.ParseUnitLevel(raw)
		if !ok {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_QUERY", "invalid level", nil)
			return
		}
		params.Level = &level
	}

	units, err := c.orgUnits.List(r.Context(), params)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	items := make([]orgUnitResponse, 0, len(units))
	for _, u := range units {
		items = append(items, toOrgUnitResponse(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) GetOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_PATH", "invalid org unit id", nil)
		return
	}
	unit, err := c.orgUnits.Get(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toOrgUnitResponse(unit))
}

func (c *AccessAPIController) CreateOrgUnit(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateOrgUnitRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	level, _ := orgunit.ParseUnitLevel(req.Level)
	unit := &orgunit.OrgUnit{
		ParentID: req.ParentID,
		Level:    level,
		Name:     req.Name,
	}
	if req.ID != nil {
		unit.ID = *req.ID
	}
	if err := c.orgUnits.Create(r.Context(), unit); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toOrgUnitResponse(unit))
}

func (c *AccessAPIController) UpdateOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_PATH", "invalid org unit id", nil)
		return
	}
	var req dtos.UpdateOrgUnitRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := dtos.Validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	level, _ := orgunit.ParseUnitLevel(req.Level)
	unit := &orgunit.OrgUnit{
		ID:       id,
		ParentID: req.ParentID,
		Level:    level,
		Name:     req.Name,
	}
	if err := c.orgUnits.Update(r.Context(), unit); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toOrgUnitResponse(unit))
}

func (c *AccessAPIController) DeleteOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "ACCESS_INVALID_PATH", "invalid org unit id", nil)
		return
	}
	if err := c.orgUnits.Delete(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
