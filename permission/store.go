package permission

import "context"

// Store is the permission-store collaborator contract:
// getGrantsForPrincipal, getGrantsForResource, createGrant,
// deleteGrant, deleteGrantsForResource.
type Store interface {
	GrantsForPrincipal(ctx context.Context, principal Principal) ([]Grant, error)
	GrantsForResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Grant, error)
	CreateGrant(ctx context.Context, g Grant) error
	DeleteGrant(ctx context.Context, id string) error
	DeleteGrantsForResource(ctx context.Context, resourceType ResourceType, resourceID string) error
}
