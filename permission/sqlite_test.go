package permission

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "permissions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_CreateAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).Truncate(time.Microsecond)
	g := Grant{
		ID: "g1", ResourceType: ResourceTable, ResourceID: "sales.orders",
		PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelAdmin,
		CreatedAt: time.Now().Truncate(time.Microsecond), CreatedBy: "admin", ExpiresAt: &expires,
	}
	require.NoError(t, s.CreateGrant(ctx, g))

	byPrincipal, err := s.GrantsForPrincipal(ctx, Principal{Type: PrincipalUser, ID: "u1"})
	require.NoError(t, err)
	require.Len(t, byPrincipal, 1)
	assert.Equal(t, LevelAdmin, byPrincipal[0].Level)
	require.NotNil(t, byPrincipal[0].ExpiresAt)
	assert.WithinDuration(t, expires, *byPrincipal[0].ExpiresAt, time.Microsecond)

	byResource, err := s.GrantsForResource(ctx, ResourceTable, "sales.orders")
	require.NoError(t, err)
	assert.Len(t, byResource, 1)
}

func TestSQLiteStore_DeleteGrant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateGrant(ctx, Grant{ID: "g1", PrincipalType: PrincipalUser, PrincipalID: "u1", CreatedAt: time.Now()}))
	require.NoError(t, s.DeleteGrant(ctx, "g1"))
	assert.Error(t, s.DeleteGrant(ctx, "g1"))
}

func TestSQLiteStore_DeleteGrantsForResource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.CreateGrant(ctx, Grant{ID: "g1", ResourceType: ResourceTable, ResourceID: "t1", PrincipalType: PrincipalUser, PrincipalID: "u1", CreatedAt: now}))
	require.NoError(t, s.CreateGrant(ctx, Grant{ID: "g2", ResourceType: ResourceTable, ResourceID: "t1", PrincipalType: PrincipalUser, PrincipalID: "u2", CreatedAt: now}))
	require.NoError(t, s.CreateGrant(ctx, Grant{ID: "g3", ResourceType: ResourceTable, ResourceID: "t2", PrincipalType: PrincipalUser, PrincipalID: "u1", CreatedAt: now}))

	require.NoError(t, s.DeleteGrantsForResource(ctx, ResourceTable, "t1"))

	remaining, err := s.GrantsForResource(ctx, ResourceTable, "t2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := s.GrantsForResource(ctx, ResourceTable, "t1")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestSQLiteStore_NoExpiry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateGrant(ctx, Grant{ID: "g1", ResourceType: ResourceTable, ResourceID: "t1", PrincipalType: PrincipalUser, PrincipalID: "u1", Level: LevelRead, CreatedAt: time.Now()}))

	grants, err := s.GrantsForResource(ctx, ResourceTable, "t1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Nil(t, grants[0].ExpiresAt)
}
