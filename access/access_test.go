package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

var (
	creator  = model.NewID()
	assignee = model.NewID()
	follower = model.NewID()
	outsider = model.NewID()
)

func newTask(confidential bool) *task.Task {
	return &task.Task{
		ID:           model.NewID(),
		CreatorID:    creator,
		AssigneeID:   assignee,
		Confidential: confidential,
		Followers:    task.NewFollowerSet(creator, follower),
	}
}

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name         string
		actor        Actor
		confidential bool
		action       Action
		allowed      bool
		reason       Reason
	}{
		{"admin views confidential", Actor{outsider, workspace.RoleAdmin}, true, View, true, ReasonNone},
		{"admin deletes others task", Actor{outsider, workspace.RoleAdmin}, false, Delete, true, ReasonNone},
		{"admin edits confidential", Actor{outsider, workspace.RoleAdmin}, true, Edit, true, ReasonNone},

		{"member creates", Actor{outsider, workspace.RoleMember}, false, Create, true, ReasonNone},
		{"member views public", Actor{outsider, workspace.RoleMember}, false, View, true, ReasonNone},
		{"member comments public", Actor{outsider, workspace.RoleMember}, false, Comment, true, ReasonNone},
		{"member follows public", Actor{outsider, workspace.RoleMember}, false, Follow, true, ReasonNone},
		{"member edits others task", Actor{outsider, workspace.RoleMember}, false, Edit, false, ReasonOwnership},
		{"member moves others task", Actor{outsider, workspace.RoleMember}, false, ChangeStatus, false, ReasonOwnership},
		{"member deletes others task", Actor{outsider, workspace.RoleMember}, false, Delete, false, ReasonOwnership},
		{"creator edits", Actor{creator, workspace.RoleMember}, false, Edit, true, ReasonNone},
		{"assignee moves", Actor{assignee, workspace.RoleMember}, false, ChangeStatus, true, ReasonNone},
		{"follower cannot edit", Actor{follower, workspace.RoleMember}, false, Edit, false, ReasonOwnership},
		{"follower manages attachments", Actor{follower, workspace.RoleMember}, false, ManageAttachment, true, ReasonNone},
		{"outsider cannot manage attachments", Actor{outsider, workspace.RoleMember}, false, ManageAttachment, false, ReasonInvolvement},

		{"outsider member cannot view confidential", Actor{outsider, workspace.RoleMember}, true, View, false, ReasonConfidential},
		{"outsider member cannot follow confidential", Actor{outsider, workspace.RoleMember}, true, Follow, false, ReasonConfidential},
		{"outsider member cannot comment confidential", Actor{outsider, workspace.RoleMember}, true, Comment, false, ReasonConfidential},
		{"follower views confidential", Actor{follower, workspace.RoleMember}, true, View, true, ReasonNone},
		{"assignee views confidential", Actor{assignee, workspace.RoleMember}, true, View, true, ReasonNone},
		{"creator edits confidential", Actor{creator, workspace.RoleMember}, true, Edit, true, ReasonNone},

		{"visitor views public", Actor{outsider, workspace.RoleVisitor}, false, View, true, ReasonNone},
		{"visitor cannot view confidential", Actor{outsider, workspace.RoleVisitor}, true, View, false, ReasonConfidential},
		{"visitor creator cannot view confidential", Actor{creator, workspace.RoleVisitor}, true, View, false, ReasonConfidential},
		{"visitor assignee cannot view confidential", Actor{assignee, workspace.RoleVisitor}, true, View, false, ReasonConfidential},
		{"visitor cannot create", Actor{outsider, workspace.RoleVisitor}, false, Create, false, ReasonRole},
		{"visitor cannot comment", Actor{outsider, workspace.RoleVisitor}, false, Comment, false, ReasonRole},
		{"visitor cannot follow", Actor{outsider, workspace.RoleVisitor}, false, Follow, false, ReasonRole},
		{"visitor cannot edit own", Actor{creator, workspace.RoleVisitor}, false, Edit, false, ReasonRole},

		{"unknown role", Actor{creator, workspace.Role("OWNER")}, false, View, false, ReasonRole},
		{"unknown action", Actor{creator, workspace.RoleAdmin}, false, Action("archive"), false, ReasonUnknownAction},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Authorize(c.actor, newTask(c.confidential), c.action)
			assert.Equal(t, c.allowed, d.Allowed)
			assert.Equal(t, c.reason, d.Reason)
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(allow().Err())
	assert.ErrorIs(deny(ReasonConfidential).Err(), model.ErrNotFound)
	assert.ErrorIs(deny(ReasonOwnership).Err(), model.ErrForbidden)
	assert.ErrorIs(deny(ReasonRole).Err(), model.ErrForbidden)
}

func TestConfidentialVisibility(t *testing.T) {
	assert := assert.New(t)

	tk := newTask(true)
	roles := []workspace.Role{workspace.RoleAdmin, workspace.RoleMember}
	users := []model.ID{creator, assignee, follower, outsider}

	for _, role := range roles {
		for _, u := range users {
			visible := CanView(Actor{u, role}, tk)
			expected := role == workspace.RoleAdmin || tk.Involves(u)
			assert.Equal(expected, visible, "role=%s user=%s", role, u)
		}
	}
}

func TestCreateWithoutTask(t *testing.T) {
	d := Authorize(Actor{outsider, workspace.RoleMember}, nil, Create)
	assert.True(t, d.Allowed)

	d = Authorize(Actor{outsider, workspace.RoleMember}, nil, View)
	assert.ErrorIs(t, d.Err(), model.ErrNotFound)
}
