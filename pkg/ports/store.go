package ports

import (
	"context"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// WorkspaceStore defines how loaded workspaces are kept between requests.
type WorkspaceStore interface {
	// Save stores the workspace under ws.ID, replacing any previous value.
	Save(ctx context.Context, ws *domain.Workspace) error

	// Load retrieves a workspace.
	// Returns domain.ErrWorkspaceNotFound if the workspace does not exist.
	Load(ctx context.Context, id string) (*domain.Workspace, error)

	// Delete removes a workspace. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of the stored workspaces.
	List(ctx context.Context) ([]string, error)
}
