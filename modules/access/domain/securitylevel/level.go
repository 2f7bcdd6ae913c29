package securitylevel

import "strings"

// Level is a document security classification. Levels form a fixed total
// order; comparisons always go through the ordinal, never string equality.
type Level int

const (
	Public Level = iota
	DepartmentOnly
	Confidential
	HighlyConfidential
	TopSecret
)

var names = map[Level]string{
	Public:             "public",
	DepartmentOnly:     "department_only",
	Confidential:       "confidential",
	HighlyConfidential: "highly_confidential",
	TopSecret:          "top_secret",
}

var byName = map[string]Level{
	"public":              Public,
	"department_only":     DepartmentOnly,
	"confidential":        Confidential,
	"highly_confidential": HighlyConfidential,
	"top_secret":          TopSecret,
}

// All lists every level in ascending strictness.
func All() []Level {
	return []Level{Public, DepartmentOnly, Confidential, HighlyConfidential, TopSecret}
}

func (l Level) String() string {
	if name, ok := names[l]; ok {
		return name
	}
	return "department_only"
}

func (l Level) Valid() bool {
	_, ok := names[l]
	return ok
}

// Parse maps a stored label to a Level. Unrecognized labels fall back to
// DepartmentOnly: legacy confidentiality strings must never widen access.
func Parse(raw string) (Level, bool) {
	level, ok := byName[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return DepartmentOnly, false
	}
	return level, true
}

// CanRead reports whether a subject with the given clearance may read a
// resource at the given classification.
func CanRead(clearance, level Level) bool {
	return clearance >= level
}

// Reconcile returns the stricter of two classifications. Used when a
// resource carries both a formal level and a resource-local confidentiality
// label.
func Reconcile(a, b Level) Level {
	if a >= b {
		return a
	}
	return b
}
