package task

import (
	"strings"
	"time"

	"github.com/mirror520/taskboard/events"
	"github.com/mirror520/taskboard/model"
)

type EventName int

const (
	Unknown EventName = iota
	TaskCreated
	TaskStatusChanged
	TaskUpdated
	TaskDeleted
	TaskFollowed
	TaskUnfollowed
	TaskCommented
	TaskAttachmentAdded
)

func ParseEventName(s string) EventName {
	switch s {
	case "task_created":
		return TaskCreated
	case "task_status_changed":
		return TaskStatusChanged
	case "task_updated":
		return TaskUpdated
	case "task_deleted":
		return TaskDeleted
	case "task_followed":
		return TaskFollowed
	case "task_unfollowed":
		return TaskUnfollowed
	case "task_commented":
		return TaskCommented
	case "task_attachment_added":
		return TaskAttachmentAdded
	default:
		return Unknown
	}
}

func (name EventName) String() string {
	switch name {
	case TaskCreated:
		return "task_created"
	case TaskStatusChanged:
		return "task_status_changed"
	case TaskUpdated:
		return "task_updated"
	case TaskDeleted:
		return "task_deleted"
	case TaskFollowed:
		return "task_followed"
	case TaskUnfollowed:
		return "task_unfollowed"
	case TaskCommented:
		return "task_commented"
	case TaskAttachmentAdded:
		return "task_attachment_added"
	default:
		return ""
	}
}

func (name EventName) MarshalText() ([]byte, error) {
	return []byte(name.String()), nil
}

func (name *EventName) UnmarshalText(text []byte) error {
	*name = ParseEventName(string(text))
	return nil
}

// Event is the envelope shared by all task events. Followers lets the
// notifier address deliveries without reading the task back.
type Event struct {
	Domain      string     `json:"domain"`
	Name        EventName  `json:"name"`
	TaskID      model.ID   `json:"task_id"` // AggregateRoot
	WorkspaceID model.ID   `json:"workspace_id"`
	ActorID     model.ID   `json:"actor_id"`
	Followers   []model.ID `json:"followers"`
	OccuredAt   time.Time  `json:"occured_at"`
}

func NewEvent(name EventName, t *Task, actor model.ID) *Event {
	return &Event{
		Domain:      "taskboard:tasks",
		Name:        name,
		TaskID:      t.ID,
		WorkspaceID: t.WorkspaceID,
		ActorID:     actor,
		Followers:   t.Followers.List(),
		OccuredAt:   time.Now(),
	}
}

func (e *Event) EventName() string {
	return e.Name.String()
}

func (e *Event) Topic() string {
	name := strings.TrimPrefix(e.Name.String(), "task_")
	return "tasks." + e.WorkspaceID.String() + "." + e.TaskID.String() + "." + name
}

type TaskCreatedEvent struct {
	*Event
	Task *Task `json:"task"`
}

func NewTaskCreatedEvent(t *Task, actor model.ID) events.DomainEvent {
	return &TaskCreatedEvent{
		Event: NewEvent(TaskCreated, t, actor),
		Task:  t,
	}
}

type TaskStatusChangedEvent struct {
	*Event
	From Status `json:"from"`
	To   Status `json:"to"`
}

func NewTaskStatusChangedEvent(t *Task, actor model.ID, from Status, to Status) events.DomainEvent {
	return &TaskStatusChangedEvent{
		Event: NewEvent(TaskStatusChanged, t, actor),
		From:  from,
		To:    to,
	}
}

type TaskUpdatedEvent struct {
	*Event
	Fields []string `json:"fields"`
}

func NewTaskUpdatedEvent(t *Task, actor model.ID, fields []string) events.DomainEvent {
	return &TaskUpdatedEvent{
		Event:  NewEvent(TaskUpdated, t, actor),
		Fields: fields,
	}
}

type TaskDeletedEvent struct {
	*Event
}

func NewTaskDeletedEvent(t *Task, actor model.ID) events.DomainEvent {
	return &TaskDeletedEvent{
		Event: NewEvent(TaskDeleted, t, actor),
	}
}

type TaskFollowedEvent struct {
	*Event
	UserID model.ID `json:"user_id"`
}

func NewTaskFollowedEvent(t *Task, user model.ID, following bool) events.DomainEvent {
	name := TaskFollowed
	if !following {
		name = TaskUnfollowed
	}

	return &TaskFollowedEvent{
		Event:  NewEvent(name, t, user),
		UserID: user,
	}
}

type TaskCommentedEvent struct {
	*Event
	Message *Message `json:"message"`
}

func NewTaskCommentedEvent(t *Task, actor model.ID, m *Message) events.DomainEvent {
	return &TaskCommentedEvent{
		Event:   NewEvent(TaskCommented, t, actor),
		Message: m,
	}
}

type TaskAttachmentAddedEvent struct {
	*Event
	Attachment *Attachment `json:"attachment"`
}

func NewTaskAttachmentAddedEvent(t *Task, actor model.ID, a *Attachment) events.DomainEvent {
	return &TaskAttachmentAddedEvent{
		Event:      NewEvent(TaskAttachmentAdded, t, actor),
		Attachment: a,
	}
}
