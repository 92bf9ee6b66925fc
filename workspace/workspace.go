package workspace

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mirror520/taskboard/model"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleMember  Role = "MEMBER"
	RoleVisitor Role = "VISITOR"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(s)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	case RoleVisitor:
		return RoleVisitor, nil
	default:
		return "", model.ErrInvalidArgument
	}
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return strings.ToLower(string(r))
}

type Workspace struct {
	ID         model.ID `json:"id"`
	Name       string   `json:"name"`
	OwnerID    model.ID `json:"owner_id"`
	InviteCode string   `json:"invite_code"`
	Version    uint64   `json:"version"`
	model.Model
}

func NewWorkspace(name string, owner model.ID) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrInvalidArgument
	}

	w := &Workspace{
		ID:         model.NewID(),
		Name:       name,
		OwnerID:    owner,
		InviteCode: NewInviteCode(),
	}
	w.Touch(time.Now())

	return w, nil
}

func (w *Workspace) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrInvalidArgument
	}

	w.Name = name
	w.Touch(time.Now())
	return nil
}

func (w *Workspace) RegenerateInviteCode() string {
	w.InviteCode = NewInviteCode()
	w.Touch(time.Now())
	return w.InviteCode
}

// NewInviteCode returns 10 characters of crypto-random ULID entropy.
func NewInviteCode() string {
	id := ulid.MustNew(ulid.Now(), rand.Reader)
	return id.String()[10:20]
}

type Member struct {
	WorkspaceID model.ID `json:"workspace_id"`
	UserID      model.ID `json:"user_id"`
	Role        Role     `json:"role"`
	model.Model
}

func NewMember(workspaceID model.ID, userID model.ID, role Role) *Member {
	m := &Member{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}
	m.Touch(time.Now())

	return m
}

// Service is a grouping label for the tasks of a workspace.
type Service struct {
	ID          model.ID `json:"id"`
	WorkspaceID model.ID `json:"workspace_id"`
	Name        string   `json:"name"`
	model.Model
}

func NewService(workspaceID model.ID, name string) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrInvalidArgument
	}

	s := &Service{
		ID:          model.NewID(),
		WorkspaceID: workspaceID,
		Name:        name,
	}
	s.Touch(time.Now())

	return s, nil
}
