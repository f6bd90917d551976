// Package permission implements the catalog's permission-grant model: the
// grant record shape and the effective-level composition algorithm
// (max over matching non-expired grants, with table-inherits-namespace,
// nested-namespace-inherits-parent inheritance). Storage of grants is
// a caller-provided collaborator contract (the Store interface);
// this package supplies the composition logic plus reference in-memory
// and SQLite-backed stores.
package permission

import (
	"strings"
	"time"
)

// ResourceType is the kind of resource a grant applies to.
type ResourceType string

const (
	ResourceNamespace ResourceType = "namespace"
	ResourceTable     ResourceType = "table"
)

// PrincipalType is the kind of principal a grant applies to.
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalRole  PrincipalType = "role"
	PrincipalGroup PrincipalType = "group"
)

// Level is an access level. Levels are totally ordered
// NONE < READ < WRITE < ADMIN < OWNER.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelAdmin
	LevelOwner
)

// Grant is one permission grant record.
type Grant struct {
	ID            string
	ResourceType  ResourceType
	ResourceID    string
	PrincipalType PrincipalType
	PrincipalID   string
	Level         Level
	CreatedAt     time.Time
	CreatedBy     string
	ExpiresAt     *time.Time
}

// Expired reports whether g has passed its expiry as of now.
func (g Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// Principal identifies who a grant or an effective-level query is
// asking about. A query matches a grant when principal type/id are
// equal (role/group membership expansion, if any, is the caller's
// responsibility; this package composes grants, it does not resolve
// identity membership).
type Principal struct {
	Type PrincipalType
	ID   string
}

// Resource identifies the target of an effective-level query: a table
// identified by its namespace path plus name, or a namespace
// identified by its full path (outermost first). Namespaces nest, so
// NamespacePath []string{"a","b"} inherits from NamespacePath
// []string{"a"} (a nested namespace inherits from its parents).
type Resource struct {
	Type          ResourceType
	NamespacePath []string
	TableName     string
}

// namespaceChain returns every namespace-ID string a grant against r
// could match, from the most specific enclosing namespace to the
// root.
func (r Resource) namespaceChain() []string {
	chain := make([]string, 0, len(r.NamespacePath))
	for i := len(r.NamespacePath); i > 0; i-- {
		chain = append(chain, strings.Join(r.NamespacePath[:i], "."))
	}
	return chain
}

// tableID renders r's table resource-id, "namespace.path.tablename".
func (r Resource) tableID() string {
	if r.TableName == "" {
		return ""
	}
	parts := append(append([]string{}, r.NamespacePath...), r.TableName)
	return strings.Join(parts, ".")
}

// EffectiveLevel computes the max non-expired grant level applicable
// to principal on resource, considering the resource itself and every
// enclosing namespace in its inheritance chain ("Effective
// level = max over matching non-expired grants; inheritance: table
// inherits from its namespace, nested namespace from parent").
func EffectiveLevel(grants []Grant, principal Principal, resource Resource, now time.Time) Level {
	applicable := applicableResourceIDs(resource)
	best := LevelNone
	for _, g := range grants {
		if g.PrincipalType != principal.Type || g.PrincipalID != principal.ID {
			continue
		}
		if g.Expired(now) {
			continue
		}
		if !applicable[string(g.ResourceType)+":"+g.ResourceID] {
			continue
		}
		if g.Level > best {
			best = g.Level
		}
	}
	return best
}

func applicableResourceIDs(r Resource) map[string]bool {
	ids := make(map[string]bool)
	switch r.Type {
	case ResourceTable:
		ids["table:"+r.tableID()] = true
		for _, ns := range r.namespaceChain() {
			ids["namespace:"+ns] = true
		}
	case ResourceNamespace:
		for _, ns := range r.namespaceChain() {
			ids["namespace:"+ns] = true
		}
	}
	return ids
}

// HasLevel reports whether the principal's effective level on
// resource is at least required.
func HasLevel(grants []Grant, principal Principal, resource Resource, required Level, now time.Time) bool {
	return EffectiveLevel(grants, principal, resource, now) >= required
}
