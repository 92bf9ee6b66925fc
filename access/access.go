// Package access holds the decision table for task actions. Every rule
// lives here so that endpoints cannot drift apart; the table is a pure
// function of the actor and a task snapshot.
package access

import (
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type Action string

const (
	View             Action = "view"
	Create           Action = "create"
	Edit             Action = "edit"
	ChangeStatus     Action = "change_status"
	Delete           Action = "delete"
	Comment          Action = "comment"
	Follow           Action = "follow"
	ManageAttachment Action = "manage_attachment"
)

func (a Action) IsValid() bool {
	switch a {
	case View, Create, Edit, ChangeStatus, Delete, Comment, Follow, ManageAttachment:
		return true
	default:
		return false
	}
}

type Actor struct {
	UserID model.ID
	Role   workspace.Role
}

type Reason string

const (
	ReasonNone          Reason = ""
	ReasonUnknownAction Reason = "unknown action"
	ReasonRole          Reason = "role does not permit action"
	ReasonConfidential  Reason = "confidential task"
	ReasonOwnership     Reason = "only the creator or assignee may modify the task"
	ReasonInvolvement   Reason = "only involved members may manage attachments"
	ReasonMissingTask   Reason = "no task to evaluate"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into the engine's error taxonomy. Confidential
// denials surface as not found so a hidden task is indistinguishable
// from a missing one.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonConfidential, d.Reason == ReasonMissingTask:
		return model.ErrNotFound
	default:
		return model.Forbidden(string(d.Reason))
	}
}

// Authorize decides whether actor may perform action on t. t may be nil
// only for Create. ADMIN is a superuser; for everyone else the
// confidentiality check runs before any ownership check.
func Authorize(actor Actor, t *task.Task, action Action) Decision {
	if !action.IsValid() {
		return deny(ReasonUnknownAction)
	}

	switch actor.Role {
	case workspace.RoleAdmin:
		return allow()

	case workspace.RoleMember, workspace.RoleVisitor:

	default:
		return deny(ReasonRole)
	}

	if action == Create {
		if actor.Role == workspace.RoleMember {
			return allow()
		}

		return deny(ReasonRole)
	}

	if t == nil {
		return deny(ReasonMissingTask)
	}

	if t.Confidential {
		if actor.Role == workspace.RoleVisitor || !t.Involves(actor.UserID) {
			return deny(ReasonConfidential)
		}
	}

	if actor.Role == workspace.RoleVisitor {
		if action == View {
			return allow()
		}

		return deny(ReasonRole)
	}

	switch action {
	case View, Comment, Follow:
		return allow()

	case Edit, ChangeStatus, Delete:
		if t.IsOwnedBy(actor.UserID) {
			return allow()
		}

		return deny(ReasonOwnership)

	case ManageAttachment:
		if t.Involves(actor.UserID) {
			return allow()
		}

		return deny(ReasonInvolvement)
	}

	return deny(ReasonUnknownAction)
}

func CanView(actor Actor, t *task.Task) bool {
	return Authorize(actor, t, View).Allowed
}
