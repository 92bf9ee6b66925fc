package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type workspaceRepository struct {
	txn *badger.Txn
}

func (repo *workspaceRepository) Store(ctx context.Context, w *workspace.Workspace) error {
	old := new(workspace.Workspace)
	err := get(repo.txn, workspaceKey(w.ID), old)
	switch {
	case err == nil:
		if old.InviteCode != w.InviteCode {
			if err := repo.txn.Delete(inviteKey(old.InviteCode)); err != nil {
				return translate(err)
			}
		}

	case !errors.Is(err, model.ErrNotFound):
		return err
	}

	var owner model.ID
	err = get(repo.txn, inviteKey(w.InviteCode), &owner)
	switch {
	case err == nil:
		if owner != w.ID {
			return model.ErrConflict
		}

	case !errors.Is(err, model.ErrNotFound):
		return err
	}

	if err := set(repo.txn, workspaceKey(w.ID), w); err != nil {
		return err
	}

	return set(repo.txn, inviteKey(w.InviteCode), w.ID)
}

func (repo *workspaceRepository) Delete(ctx context.Context, id model.ID) error {
	w, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	tasks := &taskRepository{repo.txn}
	for _, key := range keys(repo.txn, boardPrefix(id)) {
		taskID, err := model.ParseID(string(key[len(boardPrefix(id)):]))
		if err != nil {
			return err
		}

		if err := tasks.Delete(ctx, taskID); err != nil {
			return err
		}
	}

	for _, status := range task.Statuses {
		if err := repo.txn.Delete(partitionKey(id, status)); err != nil {
			return translate(err)
		}
	}

	if err := deletePrefix(repo.txn, memberPrefix(id)); err != nil {
		return err
	}

	if err := deletePrefix(repo.txn, servicePrefix(id)); err != nil {
		return err
	}

	if err := repo.txn.Delete(inviteKey(w.InviteCode)); err != nil {
		return translate(err)
	}

	return translate(repo.txn.Delete(workspaceKey(id)))
}

func (repo *workspaceRepository) BumpVersion(ctx context.Context, id model.ID, expected uint64) error {
	w, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	if w.Version != expected {
		return model.ErrConflict
	}

	w.Version = expected + 1
	return set(repo.txn, workspaceKey(id), w)
}

func (repo *workspaceRepository) StoreMember(ctx context.Context, m *workspace.Member) error {
	return set(repo.txn, memberKey(m.WorkspaceID, m.UserID), m)
}

func (repo *workspaceRepository) DeleteMember(ctx context.Context, workspaceID model.ID, userID model.ID) error {
	ok, err := exists(repo.txn, memberKey(workspaceID, userID))
	if err != nil {
		return err
	}

	if !ok {
		return model.ErrNotFound
	}

	return translate(repo.txn.Delete(memberKey(workspaceID, userID)))
}

func (repo *workspaceRepository) StoreService(ctx context.Context, s *workspace.Service) error {
	return set(repo.txn, serviceKey(s.WorkspaceID, s.ID), s)
}

func (repo *workspaceRepository) DeleteService(ctx context.Context, workspaceID model.ID, id model.ID) error {
	ok, err := exists(repo.txn, serviceKey(workspaceID, id))
	if err != nil {
		return err
	}

	if !ok {
		return model.ErrNotFound
	}

	return translate(repo.txn.Delete(serviceKey(workspaceID, id)))
}

func (repo *workspaceRepository) Find(ctx context.Context, id model.ID) (*workspace.Workspace, error) {
	w := new(workspace.Workspace)
	if err := get(repo.txn, workspaceKey(id), w); err != nil {
		return nil, err
	}

	return w, nil
}

func (repo *workspaceRepository) FindByInviteCode(ctx context.Context, code string) (*workspace.Workspace, error) {
	var id model.ID
	if err := get(repo.txn, inviteKey(code), &id); err != nil {
		return nil, err
	}

	return repo.Find(ctx, id)
}

func (repo *workspaceRepository) FindMember(ctx context.Context, workspaceID model.ID, userID model.ID) (*workspace.Member, error) {
	m := new(workspace.Member)
	if err := get(repo.txn, memberKey(workspaceID, userID), m); err != nil {
		return nil, err
	}

	return m, nil
}

func (repo *workspaceRepository) ListMembers(ctx context.Context, workspaceID model.ID) ([]*workspace.Member, error) {
	members := make([]*workspace.Member, 0)
	err := scan(repo.txn, memberPrefix(workspaceID), func(val []byte) error {
		m := new(workspace.Member)
		if err := json.Unmarshal(val, m); err != nil {
			return err
		}

		members = append(members, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (repo *workspaceRepository) FindService(ctx context.Context, workspaceID model.ID, id model.ID) (*workspace.Service, error) {
	s := new(workspace.Service)
	if err := get(repo.txn, serviceKey(workspaceID, id), s); err != nil {
		return nil, err
	}

	return s, nil
}

func (repo *workspaceRepository) ListServices(ctx context.Context, workspaceID model.ID) ([]*workspace.Service, error) {
	services := make([]*workspace.Service, 0)
	err := scan(repo.txn, servicePrefix(workspaceID), func(val []byte) error {
		s := new(workspace.Service)
		if err := json.Unmarshal(val, s); err != nil {
			return err
		}

		services = append(services, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return services, nil
}
