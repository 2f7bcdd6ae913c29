package orgunit

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxTraversalDepth bounds every parent-chain walk. Real hierarchies are at
// most five levels deep; anything beyond this indicates cyclic or corrupt
// parent links.
const maxTraversalDepth = 32

// Hierarchy is an immutable-per-query view of one tenant's organizational
// forest. Build one per evaluation and reuse it for every test within that
// evaluation.
type Hierarchy struct {
	units    map[uuid.UUID]*OrgUnit
	children map[uuid.UUID][]uuid.UUID
	logger   *logrus.Entry

	// integrityWarned guards against flooding the log when the same
	// malformed chain is walked repeatedly within one snapshot.
	integrityWarned bool
}

// NewHierarchy builds a snapshot from a flat unit listing.
func NewHierarchy(units []*OrgUnit, logger *logrus.Entry) *Hierarchy {
	h := &Hierarchy{
		units:    make(map[uuid.UUID]*OrgUnit, len(units)),
		children: make(map[uuid.UUID][]uuid.UUID, len(units)),
		logger:   logger,
	}
	for _, u := range units {
		h.units[u.ID] = u
	}
	for _, u := range units {
		if u.ParentID == nil {
			continue
		}
		h.children[*u.ParentID] = append(h.children[*u.ParentID], u.ID)
		if parent, ok := h.units[*u.ParentID]; ok && u.Level < parent.Level {
			// Child more senior than its parent: legacy data quality
			// problem, not an error.
			h.warn("org unit level inversion", logrus.Fields{
				"unit_id":   u.ID.String(),
				"parent_id": parent.ID.String(),
			})
		}
	}
	return h
}

// Get returns the unit with the given ID, if present in the snapshot.
func (h *Hierarchy) Get(id uuid.UUID) (*OrgUnit, bool) {
	u, ok := h.units[id]
	return u, ok
}

// IsDescendantOrSelf walks the parent chain upward from candidate until it
// reaches ancestor or a root. A walk exceeding maxTraversalDepth is treated
// as cyclic data: the answer is false and a data-integrity warning is
// logged instead of looping.
func (h *Hierarchy) IsDescendantOrSelf(candidate, ancestor uuid.UUID) bool {
	current, ok := h.units[candidate]
	for depth := 0; ok; depth++ {
		if depth >= maxTraversalDepth {
			h.warn("org hierarchy traversal depth exceeded, assuming cycle", logrus.Fields{
				"candidate": candidate.String(),
				"ancestor":  ancestor.String(),
			})
			return false
		}
		if current.ID == ancestor {
			return true
		}
		if current.ParentID == nil {
			return false
		}
		current, ok = h.units[*current.ParentID]
	}
	return false
}

// AccessibleOrgUnits returns root plus, when includeDescendants is set, its
// whole subtree. Traversal is breadth-first with a visited set so cyclic
// child links terminate.
func (h *Hierarchy) AccessibleOrgUnits(root uuid.UUID, includeDescendants bool) map[uuid.UUID]struct{} {
	out := map[uuid.UUID]struct{}{root: {}}
	if !includeDescendants {
		return out
	}

	queue := []uuid.UUID{root}
	for depth := 0; len(queue) > 0; depth++ {
		if depth >= maxTraversalDepth {
			h.warn("org hierarchy subtree depth exceeded, truncating", logrus.Fields{
				"root": root.String(),
			})
			break
		}
		next := make([]uuid.UUID, 0, len(queue))
		for _, id := range queue {
			for _, child := range h.children[id] {
				if _, seen := out[child]; seen {
					continue
				}
				out[child] = struct{}{}
				next = append(next, child)
			}
		}
		queue = next
	}
	return out
}

// AncestorAtLevel returns the nearest ancestor-or-self of unit with the
// given level.
func (h *Hierarchy) AncestorAtLevel(unit uuid.UUID, level UnitLevel) (*OrgUnit, bool) {
	current, ok := h.units[unit]
	for depth := 0; ok; depth++ {
		if depth >= maxTraversalDepth {
			h.warn("org hierarchy traversal depth exceeded, assuming cycle", logrus.Fields{
				"unit": unit.String(),
			})
			return nil, false
		}
		if current.Level == level {
			return current, true
		}
		if current.ParentID == nil {
			return nil, false
		}
		current, ok = h.units[*current.ParentID]
	}
	return nil, false
}

// AncestorChain returns unit followed by its ancestors up to the root,
// bounded by maxTraversalDepth.
func (h *Hierarchy) AncestorChain(unit uuid.UUID) []*OrgUnit {
	var chain []*OrgUnit
	current, ok := h.units[unit]
	for depth := 0; ok; depth++ {
		if depth >= maxTraversalDepth {
			h.warn("org hierarchy traversal depth exceeded, assuming cycle", logrus.Fields{
				"unit": unit.String(),
			})
			break
		}
		chain = append(chain, current)
		if current.ParentID == nil {
			break
		}
		current, ok = h.units[*current.ParentID]
	}
	return chain
}

// HasChildren reports whether the unit has at least one child in the
// snapshot.
func (h *Hierarchy) HasChildren(id uuid.UUID) bool {
	return len(h.children[id]) > 0
}

func (h *Hierarchy) warn(msg string, fields logrus.Fields) {
	if h.logger == nil || h.integrityWarned {
		return
	}
	h.integrityWarned = true
	h.logger.WithFields(fields).Warn(msg)
}
