package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/mirror520/taskboard/model"
)

// Registry is the single source of truth for role checks. It reads
// through the repository it was built with, so a Registry created for
// one transaction never observes state from outside it.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{repo}
}

func (r *Registry) RoleOf(ctx context.Context, userID model.ID, workspaceID model.ID) (Role, error) {
	m, err := r.Member(ctx, userID, workspaceID)
	if err != nil {
		return "", err
	}

	return m.Role, nil
}

func (r *Registry) Member(ctx context.Context, userID model.ID, workspaceID model.ID) (*Member, error) {
	m, err := r.repo.FindMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotMember
		}

		return nil, err
	}

	return m, nil
}

func (r *Registry) Join(ctx context.Context, w *Workspace, userID model.ID, role Role) (*Member, error) {
	if !role.IsValid() {
		return nil, model.ErrInvalidArgument
	}

	existing, err := r.Member(ctx, userID, w.ID)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, model.ErrNotMember) {
		return nil, err
	}

	if err := r.bump(ctx, w); err != nil {
		return nil, err
	}

	m := NewMember(w.ID, userID, role)
	if err := r.repo.StoreMember(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *Registry) ChangeRole(ctx context.Context, w *Workspace, target model.ID, role Role) (*Member, error) {
	if !role.IsValid() {
		return nil, model.ErrInvalidArgument
	}

	members, err := r.repo.ListMembers(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	if err := CheckRoleChange(members, target, role); err != nil {
		return nil, err
	}

	if err := r.bump(ctx, w); err != nil {
		return nil, err
	}

	m := find(members, target)
	m.Role = role
	m.Touch(time.Now())

	if err := r.repo.StoreMember(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *Registry) Remove(ctx context.Context, w *Workspace, target model.ID) error {
	members, err := r.repo.ListMembers(ctx, w.ID)
	if err != nil {
		return err
	}

	if err := CheckRemoval(members, target); err != nil {
		return err
	}

	if err := r.bump(ctx, w); err != nil {
		return err
	}

	return r.repo.DeleteMember(ctx, w.ID, target)
}

// bump serializes membership mutations of one workspace.
func (r *Registry) bump(ctx context.Context, w *Workspace) error {
	if err := r.repo.BumpVersion(ctx, w.ID, w.Version); err != nil {
		return err
	}

	w.Version++
	return nil
}

func CheckRoleChange(members []*Member, target model.ID, role Role) error {
	m := find(members, target)
	if m == nil {
		return model.ErrNotMember
	}

	if m.Role == RoleAdmin && role != RoleAdmin && countAdmins(members) <= 1 {
		return model.Forbidden("workspace must keep at least one admin")
	}

	return nil
}

func CheckRemoval(members []*Member, target model.ID) error {
	m := find(members, target)
	if m == nil {
		return model.ErrNotMember
	}

	if len(members) <= 1 {
		return model.Forbidden("workspace must keep at least one member")
	}

	if m.Role == RoleAdmin && countAdmins(members) <= 1 {
		return model.Forbidden("workspace must keep at least one admin")
	}

	return nil
}

func find(members []*Member, userID model.ID) *Member {
	for _, m := range members {
		if m.UserID == userID {
			return m
		}
	}

	return nil
}

func countAdmins(members []*Member) int {
	n := 0
	for _, m := range members {
		if m.Role == RoleAdmin {
			n++
		}
	}

	return n
}
