package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/workspace"
)

type workspaceRepository struct {
	db *gorm.DB
}

func (repo *workspaceRepository) Store(ctx context.Context, w *workspace.Workspace) error {
	result := repo.db.WithContext(ctx).Save(NewWorkspace(w))
	return translate(result.Error)
}

func (repo *workspaceRepository) Delete(ctx context.Context, id model.ID) error {
	db := repo.db.WithContext(ctx)

	if _, err := repo.Find(ctx, id); err != nil {
		return err
	}

	var taskIDs []string
	result := db.Model(&Task{}).Where("workspace_id = ?", id.String()).Pluck("id", &taskIDs)
	if err := result.Error; err != nil {
		return translate(err)
	}

	tasks := &taskRepository{repo.db}
	for _, taskID := range taskIDs {
		if err := tasks.Delete(ctx, mustParseID(taskID)); err != nil {
			return err
		}
	}

	rows := []any{&Partition{}, &Member{}, &Service{}}
	for _, row := range rows {
		result := db.Unscoped().Where("workspace_id = ?", id.String()).Delete(row)
		if err := result.Error; err != nil {
			return translate(err)
		}
	}

	result = db.Unscoped().Delete(&Workspace{}, "id = ?", id.String())
	return translate(result.Error)
}

func (repo *workspaceRepository) BumpVersion(ctx context.Context, id model.ID, expected uint64) error {
	result := repo.db.WithContext(ctx).
		Model(&Workspace{}).
		Where("id = ? AND version = ?", id.String(), expected).
		Update("version", expected+1)

	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		if _, err := repo.Find(ctx, id); err != nil {
			return err
		}

		return model.ErrConflict
	}

	return nil
}

func (repo *workspaceRepository) StoreMember(ctx context.Context, m *workspace.Member) error {
	result := repo.db.WithContext(ctx).Save(NewMember(m))
	return translate(result.Error)
}

func (repo *workspaceRepository) DeleteMember(ctx context.Context, workspaceID model.ID, userID model.ID) error {
	result := repo.db.WithContext(ctx).
		Unscoped().
		Delete(&Member{}, "workspace_id = ? AND user_id = ?", workspaceID.String(), userID.String())

	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (repo *workspaceRepository) StoreService(ctx context.Context, s *workspace.Service) error {
	result := repo.db.WithContext(ctx).Save(NewService(s))
	return translate(result.Error)
}

func (repo *workspaceRepository) DeleteService(ctx context.Context, workspaceID model.ID, id model.ID) error {
	result := repo.db.WithContext(ctx).
		Unscoped().
		Delete(&Service{}, "workspace_id = ? AND id = ?", workspaceID.String(), id.String())

	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (repo *workspaceRepository) Find(ctx context.Context, id model.ID) (*workspace.Workspace, error) {
	var w *Workspace

	result := repo.db.WithContext(ctx).Take(&w, "id = ?", id.String())
	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return w.reconstitute(), nil
}

func (repo *workspaceRepository) FindByInviteCode(ctx context.Context, code string) (*workspace.Workspace, error) {
	var w *Workspace

	result := repo.db.WithContext(ctx).Take(&w, "invite_code = ?", code)
	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return w.reconstitute(), nil
}

func (repo *workspaceRepository) FindMember(ctx context.Context, workspaceID model.ID, userID model.ID) (*workspace.Member, error) {
	var m *Member

	result := repo.db.WithContext(ctx).
		Take(&m, "workspace_id = ? AND user_id = ?", workspaceID.String(), userID.String())

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return m.reconstitute(), nil
}

func (repo *workspaceRepository) ListMembers(ctx context.Context, workspaceID model.ID) ([]*workspace.Member, error) {
	var rows []*Member

	result := repo.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID.String()).
		Order("user_id").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	members := make([]*workspace.Member, len(rows))
	for i, m := range rows {
		members[i] = m.reconstitute()
	}

	return members, nil
}

func (repo *workspaceRepository) FindService(ctx context.Context, workspaceID model.ID, id model.ID) (*workspace.Service, error) {
	var s *Service

	result := repo.db.WithContext(ctx).
		Take(&s, "workspace_id = ? AND id = ?", workspaceID.String(), id.String())

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return s.reconstitute(), nil
}

func (repo *workspaceRepository) ListServices(ctx context.Context, workspaceID model.ID) ([]*workspace.Service, error) {
	var rows []*Service

	result := repo.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID.String()).
		Order("id").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	services := make([]*workspace.Service, len(rows))
	for i, s := range rows {
		services[i] = s.reconstitute()
	}

	return services, nil
}
