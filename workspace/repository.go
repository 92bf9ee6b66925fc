package workspace

import (
	"context"

	"github.com/mirror520/taskboard/model"
)

type Repository interface {
	// Command
	Store(ctx context.Context, w *Workspace) error
	Delete(ctx context.Context, id model.ID) error // cascades to members, services and tasks
	BumpVersion(ctx context.Context, id model.ID, expected uint64) error
	StoreMember(ctx context.Context, m *Member) error
	DeleteMember(ctx context.Context, workspaceID model.ID, userID model.ID) error
	StoreService(ctx context.Context, s *Service) error
	DeleteService(ctx context.Context, workspaceID model.ID, id model.ID) error

	// Query
	Find(ctx context.Context, id model.ID) (*Workspace, error)
	FindByInviteCode(ctx context.Context, code string) (*Workspace, error)
	FindMember(ctx context.Context, workspaceID model.ID, userID model.ID) (*Member, error)
	ListMembers(ctx context.Context, workspaceID model.ID) ([]*Member, error)
	FindService(ctx context.Context, workspaceID model.ID, id model.ID) (*Service, error)
	ListServices(ctx context.Context, workspaceID model.ID) ([]*Service, error)
}
