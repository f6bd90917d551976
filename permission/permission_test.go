package permission

import (
	"testing"
	"time"
)

func TestEffectiveLevel_TableInheritsFromNamespace(t *testing.T) {
	now := time.Now()
	principal := Principal{Type: PrincipalUser, ID: "u1"}
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceNamespace, ResourceID: "sales", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelWrite, CreatedAt: now},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelWrite {
		t.Fatalf("got %v, want LevelWrite", got)
	}
}

func TestEffectiveLevel_NestedNamespaceInheritsFromParent(t *testing.T) {
	now := time.Now()
	principal := Principal{Type: PrincipalUser, ID: "u1"}
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceNamespace, ResourceID: "a", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelAdmin, CreatedAt: now},
	}
	resource := Resource{Type: ResourceNamespace, NamespacePath: []string{"a", "b"}}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelAdmin {
		t.Fatalf("got %v, want LevelAdmin", got)
	}
}

func TestEffectiveLevel_MaxOverMultipleGrants(t *testing.T) {
	now := time.Now()
	principal := Principal{Type: PrincipalUser, ID: "u1"}
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceNamespace, ResourceID: "sales", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelRead, CreatedAt: now},
		{ID: "g2", ResourceType: ResourceTable, ResourceID: "sales.orders", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelOwner, CreatedAt: now},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelOwner {
		t.Fatalf("got %v, want LevelOwner", got)
	}
}

func TestEffectiveLevel_ExpiredGrantIgnored(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	principal := Principal{Type: PrincipalUser, ID: "u1"}
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceTable, ResourceID: "sales.orders", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelOwner, CreatedAt: now, ExpiresAt: &past},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelNone {
		t.Fatalf("got %v, want LevelNone", got)
	}
}

func TestEffectiveLevel_DifferentPrincipalIgnored(t *testing.T) {
	now := time.Now()
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceTable, ResourceID: "sales.orders", PrincipalType: PrincipalUser, PrincipalID: "other", Level: LevelOwner, CreatedAt: now},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}
	principal := Principal{Type: PrincipalUser, ID: "u1"}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelNone {
		t.Fatalf("got %v, want LevelNone", got)
	}
}

func TestEffectiveLevel_UnrelatedNamespaceDoesNotLeak(t *testing.T) {
	now := time.Now()
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceNamespace, ResourceID: "marketing", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelOwner, CreatedAt: now},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}
	principal := Principal{Type: PrincipalUser, ID: "u1"}

	if got := EffectiveLevel(grants, principal, resource, now); got != LevelNone {
		t.Fatalf("got %v, want LevelNone", got)
	}
}

func TestHasLevel(t *testing.T) {
	now := time.Now()
	grants := []Grant{
		{ID: "g1", ResourceType: ResourceTable, ResourceID: "sales.orders", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelWrite, CreatedAt: now},
	}
	resource := Resource{Type: ResourceTable, NamespacePath: []string{"sales"}, TableName: "orders"}
	principal := Principal{Type: PrincipalUser, ID: "u1"}

	if !HasLevel(grants, principal, resource, LevelWrite, now) {
		t.Fatal("expected HasLevel(WRITE) true")
	}
	if HasLevel(grants, principal, resource, LevelAdmin, now) {
		t.Fatal("expected HasLevel(ADMIN) false")
	}
}
