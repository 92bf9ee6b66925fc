package taskboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "taskboard"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) CreateWorkspace(ctx context.Context, actor model.ID, name string) (*workspace.Workspace, error) {
	log := mw.log.With(
		zap.String("action", "create_workspace"),
		zap.String("actor", actor.String()),
	)

	w, err := mw.next.CreateWorkspace(ctx, actor, name)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("workspace created", zap.String("workspace_id", w.ID.String()))
	return w, nil
}

func (mw *loggingMiddleware) UpdateWorkspace(ctx context.Context, actor model.ID, id model.ID, name string) (*workspace.Workspace, error) {
	log := mw.log.With(
		zap.String("action", "update_workspace"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", id.String()),
	)

	w, err := mw.next.UpdateWorkspace(ctx, actor, id, name)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("workspace updated", zap.String("name", w.Name))
	return w, nil
}

func (mw *loggingMiddleware) DeleteWorkspace(ctx context.Context, actor model.ID, id model.ID) error {
	log := mw.log.With(
		zap.String("action", "delete_workspace"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", id.String()),
	)

	if err := mw.next.DeleteWorkspace(ctx, actor, id); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("workspace deleted")
	return nil
}

func (mw *loggingMiddleware) RegenerateInviteCode(ctx context.Context, actor model.ID, id model.ID) (*workspace.Workspace, error) {
	log := mw.log.With(
		zap.String("action", "regenerate_invite_code"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", id.String()),
	)

	w, err := mw.next.RegenerateInviteCode(ctx, actor, id)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("invite code regenerated")
	return w, nil
}

func (mw *loggingMiddleware) JoinWorkspace(ctx context.Context, actor model.ID, inviteCode string) (*workspace.Member, error) {
	log := mw.log.With(
		zap.String("action", "join_workspace"),
		zap.String("actor", actor.String()),
	)

	m, err := mw.next.JoinWorkspace(ctx, actor, inviteCode)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("workspace joined",
		zap.String("workspace_id", m.WorkspaceID.String()),
		zap.String("role", string(m.Role)),
	)
	return m, nil
}

func (mw *loggingMiddleware) ListMembers(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Member, error) {
	log := mw.log.With(
		zap.String("action", "list_members"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
	)

	members, err := mw.next.ListMembers(ctx, actor, workspaceID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("members listed", zap.Int("count", len(members)))
	return members, nil
}

func (mw *loggingMiddleware) ChangeRole(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID, role workspace.Role) (*workspace.Member, error) {
	log := mw.log.With(
		zap.String("action", "change_role"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("target", target.String()),
		zap.String("role", string(role)),
	)

	m, err := mw.next.ChangeRole(ctx, actor, workspaceID, target, role)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("role changed")
	return m, nil
}

func (mw *loggingMiddleware) RemoveMember(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID) error {
	log := mw.log.With(
		zap.String("action", "remove_member"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("target", target.String()),
	)

	if err := mw.next.RemoveMember(ctx, actor, workspaceID, target); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("member removed")
	return nil
}

func (mw *loggingMiddleware) CreateService(ctx context.Context, actor model.ID, workspaceID model.ID, name string) (*workspace.Service, error) {
	log := mw.log.With(
		zap.String("action", "create_service"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
	)

	s, err := mw.next.CreateService(ctx, actor, workspaceID, name)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("service created", zap.String("service_id", s.ID.String()))
	return s, nil
}

func (mw *loggingMiddleware) ListServices(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Service, error) {
	log := mw.log.With(
		zap.String("action", "list_services"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
	)

	services, err := mw.next.ListServices(ctx, actor, workspaceID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("services listed", zap.Int("count", len(services)))
	return services, nil
}

func (mw *loggingMiddleware) DeleteService(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, reassignTo model.ID) error {
	log := mw.log.With(
		zap.String("action", "delete_service"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("service_id", serviceID.String()),
		zap.String("reassign_to", reassignTo.String()),
	)

	if err := mw.next.DeleteService(ctx, actor, workspaceID, serviceID, reassignTo); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service deleted")
	return nil
}

func (mw *loggingMiddleware) CreateTask(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, fields task.Fields) (*task.Task, error) {
	log := mw.log.With(
		zap.String("action", "create_task"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("service_id", serviceID.String()),
	)

	t, err := mw.next.CreateTask(ctx, actor, workspaceID, serviceID, fields)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("task created",
		zap.String("task_id", t.ID.String()),
		zap.Float64("position", t.Position),
	)
	return t, nil
}

func (mw *loggingMiddleware) GetTask(ctx context.Context, actor model.ID, taskID model.ID) (*task.Task, error) {
	log := mw.log.With(
		zap.String("action", "get_task"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	t, err := mw.next.GetTask(ctx, actor, taskID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return t, nil
}

func (mw *loggingMiddleware) ChangeStatus(ctx context.Context, actor model.ID, taskID model.ID, status task.Status, position *int) (*task.Task, error) {
	log := mw.log.With(
		zap.String("action", "change_status"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
		zap.String("status", string(status)),
	)
	if position != nil {
		log = log.With(zap.Int("index", *position))
	}

	t, err := mw.next.ChangeStatus(ctx, actor, taskID, status, position)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("status changed", zap.Float64("position", t.Position))
	return t, nil
}

func (mw *loggingMiddleware) UpdateTask(ctx context.Context, actor model.ID, taskID model.ID, patch task.Patch) (*task.Task, error) {
	log := mw.log.With(
		zap.String("action", "update_task"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	t, err := mw.next.UpdateTask(ctx, actor, taskID, patch)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("task updated")
	return t, nil
}

func (mw *loggingMiddleware) DeleteTask(ctx context.Context, actor model.ID, taskID model.ID) error {
	log := mw.log.With(
		zap.String("action", "delete_task"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	if err := mw.next.DeleteTask(ctx, actor, taskID); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("task deleted")
	return nil
}

func (mw *loggingMiddleware) Follow(ctx context.Context, actor model.ID, taskID model.ID) error {
	log := mw.log.With(
		zap.String("action", "follow"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	if err := mw.next.Follow(ctx, actor, taskID); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("task followed")
	return nil
}

func (mw *loggingMiddleware) Unfollow(ctx context.Context, actor model.ID, taskID model.ID) error {
	log := mw.log.With(
		zap.String("action", "unfollow"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	if err := mw.next.Unfollow(ctx, actor, taskID); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("task unfollowed")
	return nil
}

func (mw *loggingMiddleware) ListFollowers(ctx context.Context, actor model.ID, taskID model.ID) ([]model.ID, error) {
	log := mw.log.With(
		zap.String("action", "list_followers"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	followers, err := mw.next.ListFollowers(ctx, actor, taskID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return followers, nil
}

func (mw *loggingMiddleware) ListVisibleTasks(ctx context.Context, actor model.ID, workspaceID model.ID, filter task.Filter) ([]*task.Task, error) {
	log := mw.log.With(
		zap.String("action", "list_visible_tasks"),
		zap.String("actor", actor.String()),
		zap.String("workspace_id", workspaceID.String()),
	)

	tasks, err := mw.next.ListVisibleTasks(ctx, actor, workspaceID, filter)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("tasks listed", zap.Int("count", len(tasks)))
	return tasks, nil
}

func (mw *loggingMiddleware) GetHistory(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.HistoryEntry, error) {
	log := mw.log.With(
		zap.String("action", "get_history"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	entries, err := mw.next.GetHistory(ctx, actor, taskID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return entries, nil
}

func (mw *loggingMiddleware) AddMessage(ctx context.Context, actor model.ID, taskID model.ID, content string) (*task.Message, error) {
	log := mw.log.With(
		zap.String("action", "add_message"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	m, err := mw.next.AddMessage(ctx, actor, taskID, content)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("message added", zap.String("message_id", m.ID.String()))
	return m, nil
}

func (mw *loggingMiddleware) ListMessages(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Message, error) {
	log := mw.log.With(
		zap.String("action", "list_messages"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	messages, err := mw.next.ListMessages(ctx, actor, taskID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return messages, nil
}

func (mw *loggingMiddleware) AddAttachment(ctx context.Context, actor model.ID, taskID model.ID, in task.AttachmentInput) (*task.Attachment, error) {
	log := mw.log.With(
		zap.String("action", "add_attachment"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	a, err := mw.next.AddAttachment(ctx, actor, taskID, in)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("attachment added",
		zap.String("attachment_id", a.ID.String()),
		zap.Int64("size", a.Size),
	)
	return a, nil
}

func (mw *loggingMiddleware) RemoveAttachment(ctx context.Context, actor model.ID, taskID model.ID, attachmentID model.ID) error {
	log := mw.log.With(
		zap.String("action", "remove_attachment"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
		zap.String("attachment_id", attachmentID.String()),
	)

	if err := mw.next.RemoveAttachment(ctx, actor, taskID, attachmentID); err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("attachment removed")
	return nil
}

func (mw *loggingMiddleware) ListAttachments(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Attachment, error) {
	log := mw.log.With(
		zap.String("action", "list_attachments"),
		zap.String("actor", actor.String()),
		zap.String("task_id", taskID.String()),
	)

	attachments, err := mw.next.ListAttachments(ctx, actor, taskID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	return attachments, nil
}
