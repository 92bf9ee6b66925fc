package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirror520/taskboard/model"
)

func members(roles ...Role) []*Member {
	ws := model.NewID()

	ms := make([]*Member, len(roles))
	for i, role := range roles {
		ms[i] = NewMember(ws, model.NewID(), role)
	}

	return ms
}

func TestCheckRoleChange(t *testing.T) {
	assert := assert.New(t)

	ms := members(RoleAdmin, RoleMember)

	err := CheckRoleChange(ms, ms[0].UserID, RoleMember)
	assert.ErrorIs(err, model.ErrForbidden)

	err = CheckRoleChange(ms, ms[1].UserID, RoleAdmin)
	assert.NoError(err)

	err = CheckRoleChange(ms, model.NewID(), RoleAdmin)
	assert.ErrorIs(err, model.ErrNotMember)

	ms = members(RoleAdmin, RoleAdmin)
	err = CheckRoleChange(ms, ms[0].UserID, RoleVisitor)
	assert.NoError(err)
}

func TestCheckRemoval(t *testing.T) {
	assert := assert.New(t)

	ms := members(RoleAdmin)
	assert.ErrorIs(CheckRemoval(ms, ms[0].UserID), model.ErrForbidden)

	ms = members(RoleAdmin, RoleVisitor)
	assert.ErrorIs(CheckRemoval(ms, ms[0].UserID), model.ErrForbidden)
	assert.NoError(CheckRemoval(ms, ms[1].UserID))

	ms = members(RoleAdmin, RoleAdmin, RoleMember)
	assert.NoError(CheckRemoval(ms, ms[1].UserID))
}

func TestParseRole(t *testing.T) {
	assert := assert.New(t)

	role, err := ParseRole("admin")
	assert.NoError(err)
	assert.Equal(RoleAdmin, role)

	_, err = ParseRole("owner")
	assert.ErrorIs(err, model.ErrInvalidArgument)
}

func TestNewInviteCode(t *testing.T) {
	assert := assert.New(t)

	a, b := NewInviteCode(), NewInviteCode()
	assert.Len(a, 10)
	assert.NotEqual(a, b)
}
