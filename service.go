package taskboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard/access"
	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/events"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/policy"
	"github.com/mirror520/taskboard/pubsub"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type Service interface {
	// Workspaces
	CreateWorkspace(ctx context.Context, actor model.ID, name string) (*workspace.Workspace, error)
	UpdateWorkspace(ctx context.Context, actor model.ID, id model.ID, name string) (*workspace.Workspace, error)
	DeleteWorkspace(ctx context.Context, actor model.ID, id model.ID) error
	RegenerateInviteCode(ctx context.Context, actor model.ID, id model.ID) (*workspace.Workspace, error)
	JoinWorkspace(ctx context.Context, actor model.ID, inviteCode string) (*workspace.Member, error)
	ListMembers(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Member, error)
	ChangeRole(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID, role workspace.Role) (*workspace.Member, error)
	RemoveMember(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID) error

	// Services
	CreateService(ctx context.Context, actor model.ID, workspaceID model.ID, name string) (*workspace.Service, error)
	ListServices(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Service, error)
	DeleteService(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, reassignTo model.ID) error

	// Tasks
	CreateTask(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, fields task.Fields) (*task.Task, error)
	GetTask(ctx context.Context, actor model.ID, taskID model.ID) (*task.Task, error)
	ChangeStatus(ctx context.Context, actor model.ID, taskID model.ID, status task.Status, position *int) (*task.Task, error)
	UpdateTask(ctx context.Context, actor model.ID, taskID model.ID, patch task.Patch) (*task.Task, error)
	DeleteTask(ctx context.Context, actor model.ID, taskID model.ID) error
	Follow(ctx context.Context, actor model.ID, taskID model.ID) error
	Unfollow(ctx context.Context, actor model.ID, taskID model.ID) error
	ListFollowers(ctx context.Context, actor model.ID, taskID model.ID) ([]model.ID, error)
	ListVisibleTasks(ctx context.Context, actor model.ID, workspaceID model.ID, filter task.Filter) ([]*task.Task, error)
	GetHistory(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.HistoryEntry, error)

	// Messages and attachments
	AddMessage(ctx context.Context, actor model.ID, taskID model.ID, content string) (*task.Message, error)
	ListMessages(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Message, error)
	AddAttachment(ctx context.Context, actor model.ID, taskID model.ID, in task.AttachmentInput) (*task.Attachment, error)
	RemoveAttachment(ctx context.Context, actor model.ID, taskID model.ID, attachmentID model.ID) error
	ListAttachments(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Attachment, error)
}

type ServiceMiddleware func(Service) Service

type service struct {
	log       *zap.Logger
	store     persistence.Store
	policy    policy.Policy
	publisher *pubsub.EventPublisher
	recorder  *task.Recorder
	locks     *workspaceLocks
	cfg       conf.Engine
}

func NewService(store persistence.Store, policy policy.Policy, publisher *pubsub.EventPublisher, cfg conf.Engine) Service {
	return NewServiceWithRecorder(store, policy, publisher, cfg, task.NewRecorder())
}

// NewServiceWithRecorder lets callers control the history clock.
func NewServiceWithRecorder(store persistence.Store, policy policy.Policy, publisher *pubsub.EventPublisher, cfg conf.Engine, recorder *task.Recorder) Service {
	defaults := conf.DefaultEngine()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}

	return &service{
		log:       zap.L().With(zap.String("service", "taskboard")),
		store:     store,
		policy:    policy,
		publisher: publisher,
		recorder:  recorder,
		locks:     new(workspaceLocks),
		cfg:       cfg,
	}
}

// unit is one attempt at a unit of work. Everything it reads and writes
// goes through a single transaction.
type unit struct {
	ctx      context.Context
	tx       persistence.Tx
	registry *workspace.Registry
	policy   policy.Policy
	attempt  int
	last     bool
	events   []events.DomainEvent
}

func (u *unit) collect(evts ...events.DomainEvent) {
	u.events = append(u.events, evts...)
}

// reindex reports whether position writes should renumber the whole
// partition. Only the final retry does so.
func (u *unit) reindex() bool {
	return u.last && u.attempt > 0
}

// atomic runs fn inside one transaction bounded by the engine timeout.
// A conflict reruns fn against a fresh read after a jittered backoff;
// events are published only once a run has committed.
func (svc *service) atomic(ctx context.Context, fn func(u *unit) error) error {
	return svc.atomicIn(ctx, model.ID{}, fn)
}

// atomicIn is atomic for units that write into workspaceID. Those units
// share the workspace lock while retrying and the final attempt holds it
// exclusively, so the forced re-index cannot lose to another writer of
// this process.
func (svc *service) atomicIn(ctx context.Context, workspaceID model.ID, fn func(u *unit) error) error {
	ctx, cancel := context.WithTimeout(ctx, svc.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = svc.cfg.RetryInterval
	b.MaxInterval = 20 * svc.cfg.RetryInterval
	b.Reset()

	var err error
	for attempt := 0; attempt < svc.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.NextBackOff()):
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", model.ErrTransient, ctx.Err())
			}
		}

		u := &unit{
			ctx:     ctx,
			policy:  svc.policy,
			attempt: attempt,
			last:    attempt == svc.cfg.MaxAttempts-1,
		}

		unlock := svc.locks.acquire(workspaceID, u.last)
		err = svc.store.WithTx(ctx, func(tx persistence.Tx) error {
			u.tx = tx
			u.registry = workspace.NewRegistry(tx.Workspaces())
			return fn(u)
		})
		unlock()

		if err == nil {
			svc.publisher.Publish(u.events...)
			return nil
		}

		if !errors.Is(err, model.ErrConflict) {
			return err
		}

		svc.log.Debug(err.Error(), zap.Int("attempt", attempt))
	}

	return err
}

// atomicTask is atomicIn for the workspace taskID belongs to. Tasks never
// change workspace, so the lookup may happen outside the unit.
func (svc *service) atomicTask(ctx context.Context, taskID model.ID, fn func(u *unit) error) error {
	var workspaceID model.ID
	err := svc.store.WithTx(ctx, func(tx persistence.Tx) error {
		t, err := tx.Tasks().Find(ctx, taskID)
		if err != nil {
			return err
		}

		workspaceID = t.WorkspaceID
		return nil
	})
	if err != nil {
		return err
	}

	return svc.atomicIn(ctx, workspaceID, fn)
}

const lockStripes = 64

// workspaceLocks stripes one RWMutex per workspace id.
type workspaceLocks [lockStripes]sync.RWMutex

func (l *workspaceLocks) acquire(workspaceID model.ID, exclusive bool) func() {
	if workspaceID.IsZero() {
		return func() {}
	}

	mu := &l[workspaceID[len(workspaceID)-1]%lockStripes]
	if exclusive {
		mu.Lock()
		return mu.Unlock
	}

	mu.RLock()
	return mu.RUnlock
}

func (u *unit) actor(workspaceID model.ID, userID model.ID) (access.Actor, error) {
	role, err := u.registry.RoleOf(u.ctx, userID, workspaceID)
	if err != nil {
		return access.Actor{}, err
	}

	return access.Actor{UserID: userID, Role: role}, nil
}

// authorizeWorkspace checks a workspace-scope action against the policy.
func (u *unit) authorizeWorkspace(workspaceID model.ID, userID model.ID, domain string, action string) (*workspace.Workspace, error) {
	actor, err := u.actor(workspaceID, userID)
	if err != nil {
		return nil, err
	}

	allowed, err := u.policy.Allowed(u.ctx, actor.Role, domain, action)
	if err != nil {
		return nil, err
	}

	if !allowed {
		return nil, model.Forbidden("role does not permit " + domain + "." + action)
	}

	return u.tx.Workspaces().Find(u.ctx, workspaceID)
}

// task loads a task and authorizes action on it.
func (u *unit) task(taskID model.ID, userID model.ID, action access.Action) (*task.Task, error) {
	t, err := u.tx.Tasks().Find(u.ctx, taskID)
	if err != nil {
		return nil, err
	}

	actor, err := u.actor(t.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(actor, t, action).Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// checkAssignee accepts only ADMIN and MEMBER assignees.
func (u *unit) checkAssignee(workspaceID model.ID, assignee model.ID) error {
	if assignee.IsZero() {
		return nil
	}

	role, err := u.registry.RoleOf(u.ctx, assignee, workspaceID)
	if err != nil {
		if errors.Is(err, model.ErrNotMember) {
			return model.ErrInvalidArgument
		}

		return err
	}

	if role == workspace.RoleVisitor {
		return model.ErrInvalidArgument
	}

	return nil
}

// place assigns t a key at index in its destination partition and
// stores the neighbours that had to be renumbered. t itself is stored by
// the caller. The partition version is bumped so a concurrent move into
// the same column conflicts.
func (u *unit) place(t *task.Task, index *int) error {
	repo := u.tx.Tasks()

	partition, version, err := repo.Partition(u.ctx, t.WorkspaceID, t.Status)
	if err != nil {
		return err
	}

	partition = task.Without(partition, t.ID)

	i := len(partition)
	if index != nil {
		if *index < 0 {
			return model.ErrInvalidArgument
		}
		i = *index
	}

	for _, changed := range task.Place(partition, t, i, u.reindex()) {
		if changed == t {
			continue
		}

		if err := repo.Store(u.ctx, changed); err != nil {
			return err
		}
	}

	return repo.BumpPartition(u.ctx, t.WorkspaceID, t.Status, version)
}

// repair re-reads the partition of t after it was written and renumbers
// it if any keys collide.
func (u *unit) repair(t *task.Task) error {
	repo := u.tx.Tasks()

	partition, _, err := repo.Partition(u.ctx, t.WorkspaceID, t.Status)
	if err != nil {
		return err
	}

	for _, changed := range task.Repair(partition) {
		if changed.ID == t.ID {
			t.Position = changed.Position
		}

		if err := repo.Store(u.ctx, changed); err != nil {
			return err
		}
	}

	return nil
}

// save stores the task together with its new history entries.
func (u *unit) save(t *task.Task, entries ...*task.HistoryEntry) error {
	repo := u.tx.Tasks()

	if err := repo.Store(u.ctx, t); err != nil {
		return err
	}

	if err := repo.AppendHistory(u.ctx, entries...); err != nil {
		return err
	}

	u.collect(t.ClearEvents()...)
	return nil
}

func (svc *service) CreateWorkspace(ctx context.Context, actor model.ID, name string) (*workspace.Workspace, error) {
	w, err := workspace.NewWorkspace(name, actor)
	if err != nil {
		return nil, err
	}

	err = svc.atomic(ctx, func(u *unit) error {
		ws := *w
		if err := u.tx.Workspaces().Store(u.ctx, &ws); err != nil {
			return err
		}

		if _, err := u.registry.Join(u.ctx, &ws, actor, workspace.RoleAdmin); err != nil {
			return err
		}

		*w = ws
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (svc *service) UpdateWorkspace(ctx context.Context, actor model.ID, id model.ID, name string) (*workspace.Workspace, error) {
	var result *workspace.Workspace
	err := svc.atomicIn(ctx, id, func(u *unit) error {
		w, err := u.authorizeWorkspace(id, actor, "workspaces", "update")
		if err != nil {
			return err
		}

		if err := w.Rename(name); err != nil {
			return err
		}

		result = w
		return u.tx.Workspaces().Store(u.ctx, w)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) DeleteWorkspace(ctx context.Context, actor model.ID, id model.ID) error {
	return svc.atomicIn(ctx, id, func(u *unit) error {
		w, err := u.authorizeWorkspace(id, actor, "workspaces", "delete")
		if err != nil {
			return err
		}

		return u.tx.Workspaces().Delete(u.ctx, w.ID)
	})
}

func (svc *service) RegenerateInviteCode(ctx context.Context, actor model.ID, id model.ID) (*workspace.Workspace, error) {
	var result *workspace.Workspace
	err := svc.atomicIn(ctx, id, func(u *unit) error {
		w, err := u.authorizeWorkspace(id, actor, "workspaces", "regenerate_invite")
		if err != nil {
			return err
		}

		w.RegenerateInviteCode()

		result = w
		return u.tx.Workspaces().Store(u.ctx, w)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) JoinWorkspace(ctx context.Context, actor model.ID, inviteCode string) (*workspace.Member, error) {
	if inviteCode == "" {
		return nil, model.ErrInvalidArgument
	}

	var result *workspace.Member
	err := svc.atomic(ctx, func(u *unit) error {
		w, err := u.tx.Workspaces().FindByInviteCode(u.ctx, inviteCode)
		if err != nil {
			return err
		}

		m, err := u.registry.Join(u.ctx, w, actor, workspace.RoleMember)
		if err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) ListMembers(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Member, error) {
	var result []*workspace.Member
	err := svc.atomic(ctx, func(u *unit) error {
		w, err := u.authorizeWorkspace(workspaceID, actor, "members", "list")
		if err != nil {
			return err
		}

		members, err := u.tx.Workspaces().ListMembers(u.ctx, w.ID)
		if err != nil {
			return err
		}

		result = members
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) ChangeRole(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID, role workspace.Role) (*workspace.Member, error) {
	if !role.IsValid() {
		return nil, model.ErrInvalidArgument
	}

	var result *workspace.Member
	err := svc.atomicIn(ctx, workspaceID, func(u *unit) error {
		w, err := u.authorizeWorkspace(workspaceID, actor, "members", "update")
		if err != nil {
			return err
		}

		m, err := u.registry.ChangeRole(u.ctx, w, target, role)
		if err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) RemoveMember(ctx context.Context, actor model.ID, workspaceID model.ID, target model.ID) error {
	action := "remove"
	if actor == target {
		action = "leave"
	}

	return svc.atomicIn(ctx, workspaceID, func(u *unit) error {
		w, err := u.authorizeWorkspace(workspaceID, actor, "members", action)
		if err != nil {
			return err
		}

		return u.registry.Remove(u.ctx, w, target)
	})
}

func (svc *service) CreateService(ctx context.Context, actor model.ID, workspaceID model.ID, name string) (*workspace.Service, error) {
	s, err := workspace.NewService(workspaceID, name)
	if err != nil {
		return nil, err
	}

	err = svc.atomic(ctx, func(u *unit) error {
		if _, err := u.authorizeWorkspace(workspaceID, actor, "services", "create"); err != nil {
			return err
		}

		return u.tx.Workspaces().StoreService(u.ctx, s)
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (svc *service) ListServices(ctx context.Context, actor model.ID, workspaceID model.ID) ([]*workspace.Service, error) {
	var result []*workspace.Service
	err := svc.atomic(ctx, func(u *unit) error {
		if _, err := u.authorizeWorkspace(workspaceID, actor, "services", "list"); err != nil {
			return err
		}

		services, err := u.tx.Workspaces().ListServices(u.ctx, workspaceID)
		if err != nil {
			return err
		}

		result = services
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteService removes a service. With a non-zero reassignTo its tasks
// move to that service; otherwise they are deleted with it.
func (svc *service) DeleteService(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, reassignTo model.ID) error {
	if serviceID == reassignTo {
		return model.ErrInvalidArgument
	}

	return svc.atomicIn(ctx, workspaceID, func(u *unit) error {
		if _, err := u.authorizeWorkspace(workspaceID, actor, "services", "delete"); err != nil {
			return err
		}

		repo := u.tx.Workspaces()
		if _, err := repo.FindService(u.ctx, workspaceID, serviceID); err != nil {
			return err
		}

		if !reassignTo.IsZero() {
			if _, err := repo.FindService(u.ctx, workspaceID, reassignTo); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.ErrInvalidArgument
				}

				return err
			}
		}

		for _, status := range task.Statuses {
			filter := task.Filter{
				ServiceID: serviceID,
				Status:    status,
			}

			tasks, err := u.tx.Tasks().List(u.ctx, workspaceID, filter)
			if err != nil {
				return err
			}

			for _, t := range tasks {
				if reassignTo.IsZero() {
					if err := u.tx.Tasks().Delete(u.ctx, t.ID); err != nil {
						return err
					}

					u.collect(task.NewTaskDeletedEvent(t, actor))
					continue
				}

				before := t.Clone()
				if err := t.Apply(actor, task.Patch{ServiceID: &reassignTo}); err != nil {
					return err
				}

				entries := svc.recorder.Record(actor, before, t)
				if err := u.save(t, entries...); err != nil {
					return err
				}
			}
		}

		return repo.DeleteService(u.ctx, workspaceID, serviceID)
	})
}

func (svc *service) CreateTask(ctx context.Context, actor model.ID, workspaceID model.ID, serviceID model.ID, fields task.Fields) (*task.Task, error) {
	var result *task.Task
	err := svc.atomicIn(ctx, workspaceID, func(u *unit) error {
		a, err := u.actor(workspaceID, actor)
		if err != nil {
			return err
		}

		if err := access.Authorize(a, nil, access.Create).Err(); err != nil {
			return err
		}

		if _, err := u.tx.Workspaces().FindService(u.ctx, workspaceID, serviceID); err != nil {
			return err
		}

		if err := u.checkAssignee(workspaceID, fields.AssigneeID); err != nil {
			return err
		}

		t, err := task.NewTask(workspaceID, serviceID, actor, fields)
		if err != nil {
			return err
		}

		if err := u.place(t, nil); err != nil {
			return err
		}

		entries := svc.recorder.Record(actor, nil, t)
		if err := u.save(t, entries...); err != nil {
			return err
		}

		if err := u.repair(t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) GetTask(ctx context.Context, actor model.ID, taskID model.ID) (*task.Task, error) {
	var result *task.Task
	err := svc.atomic(ctx, func(u *unit) error {
		t, err := u.task(taskID, actor, access.View)
		if err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ChangeStatus moves a task to a column. position is the slot index in
// the destination column, counted without the task itself; nil appends
// the task at the end. A nil position with an unchanged status is a
// no-op.
func (svc *service) ChangeStatus(ctx context.Context, actor model.ID, taskID model.ID, status task.Status, position *int) (*task.Task, error) {
	if !status.IsValid() {
		return nil, model.ErrInvalidTransition
	}

	var result *task.Task
	err := svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.ChangeStatus)
		if err != nil {
			return err
		}

		before := t.Clone()
		if err := t.Transition(actor, status); err != nil {
			return err
		}

		if before.Status == t.Status && position == nil {
			result = t
			return nil
		}

		if err := u.place(t, position); err != nil {
			return err
		}

		entries := svc.recorder.Record(actor, before, t)
		if before.Status == t.Status && before.Position != t.Position {
			moved := svc.recorder.Lifecycle(actor, t, task.Moved, task.FieldPosition,
				task.FormatPosition(before.Position), task.FormatPosition(t.Position))

			entries = append(entries, moved)
		}

		if err := u.save(t, entries...); err != nil {
			return err
		}

		if err := u.repair(t); err != nil {
			return err
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) UpdateTask(ctx context.Context, actor model.ID, taskID model.ID, patch task.Patch) (*task.Task, error) {
	var result *task.Task
	err := svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.Edit)
		if err != nil {
			return err
		}

		if patch.AssigneeID != nil {
			if err := u.checkAssignee(t.WorkspaceID, *patch.AssigneeID); err != nil {
				return err
			}
		}

		if patch.ServiceID != nil && !patch.ServiceID.IsZero() {
			_, err := u.tx.Workspaces().FindService(u.ctx, t.WorkspaceID, *patch.ServiceID)
			if err != nil {
				return err
			}
		}

		before := t.Clone()
		if err := t.Apply(actor, patch); err != nil {
			return err
		}

		entries := svc.recorder.Record(actor, before, t)
		if len(entries) == 0 {
			result = before
			return nil
		}

		result = t
		return u.save(t, entries...)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) DeleteTask(ctx context.Context, actor model.ID, taskID model.ID) error {
	return svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.Delete)
		if err != nil {
			return err
		}

		if err := u.tx.Tasks().Delete(u.ctx, t.ID); err != nil {
			return err
		}

		u.collect(task.NewTaskDeletedEvent(t, actor))
		return nil
	})
}

func (svc *service) Follow(ctx context.Context, actor model.ID, taskID model.ID) error {
	return svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.Follow)
		if err != nil {
			return err
		}

		if !t.Follow(actor) {
			return nil
		}

		entry := svc.recorder.Lifecycle(actor, t, task.Followed, "", nil, ptr(actor.String()))
		return u.save(t, entry)
	})
}

func (svc *service) Unfollow(ctx context.Context, actor model.ID, taskID model.ID) error {
	return svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.Follow)
		if err != nil {
			return err
		}

		ok, err := t.Unfollow(actor)
		if err != nil || !ok {
			return err
		}

		entry := svc.recorder.Lifecycle(actor, t, task.Unfollowed, "", ptr(actor.String()), nil)
		return u.save(t, entry)
	})
}

func (svc *service) ListFollowers(ctx context.Context, actor model.ID, taskID model.ID) ([]model.ID, error) {
	t, err := svc.GetTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	return t.Followers.List(), nil
}

// ListVisibleTasks returns the tasks the actor may view, ordered by
// column and position.
func (svc *service) ListVisibleTasks(ctx context.Context, actor model.ID, workspaceID model.ID, filter task.Filter) ([]*task.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, model.ErrInvalidTransition
	}

	var result []*task.Task
	err := svc.atomic(ctx, func(u *unit) error {
		a, err := u.actor(workspaceID, actor)
		if err != nil {
			return err
		}

		tasks, err := u.tx.Tasks().List(u.ctx, workspaceID, filter)
		if err != nil {
			return err
		}

		visible := make([]*task.Task, 0, len(tasks))
		for _, t := range tasks {
			if access.CanView(a, t) {
				visible = append(visible, t)
			}
		}

		result = visible
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) GetHistory(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.HistoryEntry, error) {
	var result []*task.HistoryEntry
	err := svc.atomic(ctx, func(u *unit) error {
		t, err := u.task(taskID, actor, access.View)
		if err != nil {
			return err
		}

		entries, err := u.tx.Tasks().History(u.ctx, t.ID)
		if err != nil {
			return err
		}

		result = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) AddMessage(ctx context.Context, actor model.ID, taskID model.ID, content string) (*task.Message, error) {
	var result *task.Message
	err := svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.Comment)
		if err != nil {
			return err
		}

		m, err := task.NewMessage(t, actor, content)
		if err != nil {
			return err
		}

		if err := u.tx.Tasks().StoreMessage(u.ctx, m); err != nil {
			return err
		}

		entry := svc.recorder.Lifecycle(actor, t, task.Commented, "", nil, ptr(m.ID.String()))
		if err := u.save(t, entry); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) ListMessages(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Message, error) {
	var result []*task.Message
	err := svc.atomic(ctx, func(u *unit) error {
		t, err := u.task(taskID, actor, access.View)
		if err != nil {
			return err
		}

		messages, err := u.tx.Tasks().Messages(u.ctx, t.ID)
		if err != nil {
			return err
		}

		result = messages
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *service) AddAttachment(ctx context.Context, actor model.ID, taskID model.ID, in task.AttachmentInput) (*task.Attachment, error) {
	var result *task.Attachment
	err := svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.ManageAttachment)
		if err != nil {
			return err
		}

		a, err := task.NewAttachment(t, actor, in)
		if err != nil {
			return err
		}

		if err := u.tx.Tasks().StoreAttachment(u.ctx, a); err != nil {
			return err
		}

		entry := svc.recorder.Lifecycle(actor, t, task.AttachmentAdded, "", nil, ptr(a.Name))
		if err := u.save(t, entry); err != nil {
			return err
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RemoveAttachment deletes attachment metadata. A missing attachment and
// a hidden task are reported the same way.
func (svc *service) RemoveAttachment(ctx context.Context, actor model.ID, taskID model.ID, attachmentID model.ID) error {
	return svc.atomicTask(ctx, taskID, func(u *unit) error {
		t, err := u.task(taskID, actor, access.ManageAttachment)
		if err != nil {
			return err
		}

		a, err := u.tx.Tasks().FindAttachment(u.ctx, t.ID, attachmentID)
		if err != nil {
			return err
		}

		if err := u.tx.Tasks().DeleteAttachment(u.ctx, t.ID, a.ID); err != nil {
			return err
		}

		entry := svc.recorder.Lifecycle(actor, t, task.AttachmentRemoved, "", ptr(a.Name), nil)
		return u.save(t, entry)
	})
}

func (svc *service) ListAttachments(ctx context.Context, actor model.ID, taskID model.ID) ([]*task.Attachment, error) {
	var result []*task.Attachment
	err := svc.atomic(ctx, func(u *unit) error {
		t, err := u.task(taskID, actor, access.View)
		if err != nil {
			return err
		}

		attachments, err := u.tx.Tasks().Attachments(u.ctx, t.ID)
		if err != nil {
			return err
		}

		result = attachments
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func ptr(s string) *string {
	return &s
}
