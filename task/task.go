package task

import (
	"sort"
	"strings"
	"time"

	"github.com/mirror520/taskboard/events"
	"github.com/mirror520/taskboard/model"
)

type Status string

const (
	Backlog    Status = "BACKLOG"
	Todo       Status = "TODO"
	InProgress Status = "IN_PROGRESS"
	InReview   Status = "IN_REVIEW"
	Done       Status = "DONE"
	Archived   Status = "ARCHIVED"
)

var Statuses = []Status{Backlog, Todo, InProgress, InReview, Done, Archived}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(s))
	if !status.IsValid() {
		return "", model.ErrInvalidTransition
	}

	return status, nil
}

func (s Status) IsValid() bool {
	return s.rank() >= 0
}

func (s Status) IsActive() bool {
	return s.IsValid() && s != Archived
}

func (s Status) rank() int {
	for i, status := range Statuses {
		if s == status {
			return i
		}
	}

	return -1
}

type Priority string

const (
	NoPriority Priority = "NONE"
	Low        Priority = "LOW"
	Medium     Priority = "MEDIUM"
	High       Priority = "HIGH"
	Urgent     Priority = "URGENT"
)

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(s))
	switch p {
	case "":
		return NoPriority, nil
	case NoPriority, Low, Medium, High, Urgent:
		return p, nil
	default:
		return "", model.ErrInvalidArgument
	}
}

type Task struct {
	ID           model.ID    `json:"id"`
	WorkspaceID  model.ID    `json:"workspace_id"`
	ServiceID    model.ID    `json:"service_id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Status       Status      `json:"status"`
	Position     float64     `json:"position"`
	Priority     Priority    `json:"priority"`
	CreatorID    model.ID    `json:"creator_id"`
	AssigneeID   model.ID    `json:"assignee_id"`
	DueDate      *time.Time  `json:"due_date"`
	Confidential bool        `json:"is_confidential"`
	Followers    FollowerSet `json:"followed_ids"`
	HistorySeq   uint64      `json:"history_seq"`
	model.Model

	events.EventStore `json:"-"`
}

type Fields struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	AssigneeID   model.ID   `json:"assignee_id"`
	DueDate      *time.Time `json:"due_date"`
	Priority     Priority   `json:"priority"`
	Confidential bool       `json:"is_confidential"`
}

// NewTask builds a task in the TODO column. The creator is its first
// follower.
func NewTask(workspaceID model.ID, serviceID model.ID, creator model.ID, f Fields) (*Task, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, model.ErrInvalidArgument
	}

	priority, err := ParsePriority(string(f.Priority))
	if err != nil {
		return nil, err
	}

	t := &Task{
		ID:           model.NewID(),
		WorkspaceID:  workspaceID,
		ServiceID:    serviceID,
		Name:         name,
		Description:  f.Description,
		Status:       Todo,
		Priority:     priority,
		CreatorID:    creator,
		AssigneeID:   f.AssigneeID,
		DueDate:      normalizeDate(f.DueDate),
		Confidential: f.Confidential,
		Followers:    NewFollowerSet(creator),

		EventStore: events.NewEventStore(),
	}
	t.Touch(time.Now())

	t.AddEvent(NewTaskCreatedEvent(t, creator))
	return t, nil
}

// Involves reports whether the user is the creator, the assignee or a
// follower of the task.
func (t *Task) Involves(userID model.ID) bool {
	if userID.IsZero() {
		return false
	}

	return t.CreatorID == userID ||
		t.AssigneeID == userID ||
		t.Followers.Contains(userID)
}

func (t *Task) IsOwnedBy(userID model.ID) bool {
	if userID.IsZero() {
		return false
	}

	return t.CreatorID == userID || t.AssigneeID == userID
}

// Transition moves the task to another column. Archived tasks never
// re-enter the active board.
func (t *Task) Transition(actor model.ID, to Status) error {
	if !to.IsValid() {
		return model.ErrInvalidTransition
	}

	if t.Status == Archived && to != Archived {
		return model.ErrInvalidTransition
	}

	from := t.Status
	t.Status = to
	t.Touch(time.Now())

	if from != to {
		t.AddEvent(NewTaskStatusChangedEvent(t, actor, from, to))
	}

	return nil
}

// Patch carries a partial update. Nil fields are left untouched; a zero
// AssigneeID or a zero DueDate clears the field.
type Patch struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	AssigneeID   *model.ID  `json:"assignee_id"`
	DueDate      *time.Time `json:"due_date"`
	Priority     *Priority  `json:"priority"`
	Confidential *bool      `json:"is_confidential"`
	ServiceID    *model.ID  `json:"service_id"`
}

func (t *Task) Apply(actor model.ID, p Patch) error {
	before := t.Clone()

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return model.ErrInvalidArgument
		}
		t.Name = name
	}

	if p.Description != nil {
		t.Description = *p.Description
	}

	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}

	if p.DueDate != nil {
		t.DueDate = normalizeDate(p.DueDate)
	}

	if p.Priority != nil {
		priority, err := ParsePriority(string(*p.Priority))
		if err != nil {
			return err
		}
		t.Priority = priority
	}

	if p.Confidential != nil {
		t.Confidential = *p.Confidential
	}

	if p.ServiceID != nil {
		if p.ServiceID.IsZero() {
			return model.ErrInvalidArgument
		}
		t.ServiceID = *p.ServiceID
	}

	changes := Diff(before, t)
	if len(changes) == 0 {
		return nil
	}

	t.Touch(time.Now())

	fields := make([]string, len(changes))
	for i, c := range changes {
		fields[i] = c.Field
	}
	t.AddEvent(NewTaskUpdatedEvent(t, actor, fields))

	return nil
}

func (t *Task) Follow(actor model.ID) bool {
	if !t.Followers.Add(actor) {
		return false
	}

	t.AddEvent(NewTaskFollowedEvent(t, actor, true))
	return true
}

// Unfollow removes the user from the follower set. The creator stays a
// follower for as long as they are the creator.
func (t *Task) Unfollow(actor model.ID) (bool, error) {
	if actor == t.CreatorID {
		return false, model.Forbidden("creator cannot unfollow")
	}

	if !t.Followers.Remove(actor) {
		return false, nil
	}

	t.AddEvent(NewTaskFollowedEvent(t, actor, false))
	return true, nil
}

// Clone returns a detached snapshot without pending events.
func (t *Task) Clone() *Task {
	c := new(Task)
	*c = *t

	c.Followers = t.Followers.Clone()
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	c.EventStore = events.NewEventStore()

	return c
}

// Reconstitute prepares a task loaded from storage for mutation.
func (t *Task) Reconstitute() *Task {
	t.EventStore = events.NewEventStore()
	if t.Followers == nil {
		t.Followers = NewFollowerSet()
	}

	return t
}

func normalizeDate(d *time.Time) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}

	due := d.UTC()
	return &due
}

type Filter struct {
	ServiceID  model.ID   `json:"service_id"`
	AssigneeID model.ID   `json:"assignee_id"`
	Status     Status     `json:"status"`
	DueBefore  *time.Time `json:"due_before"`
}

// Match applies the filter. Archived tasks only match a filter that
// asks for the ARCHIVED column explicitly.
func (f Filter) Match(t *Task) bool {
	if f.Status == "" {
		if !t.Status.IsActive() {
			return false
		}
	} else if t.Status != f.Status {
		return false
	}

	if !f.ServiceID.IsZero() && t.ServiceID != f.ServiceID {
		return false
	}

	if !f.AssigneeID.IsZero() && t.AssigneeID != f.AssigneeID {
		return false
	}

	if f.DueBefore != nil {
		if t.DueDate == nil || !t.DueDate.Before(*f.DueBefore) {
			return false
		}
	}

	return true
}

// SortBoard orders tasks by column and then by position.
func SortBoard(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Status != b.Status {
			return a.Status.rank() < b.Status.rank()
		}

		if a.Position != b.Position {
			return a.Position < b.Position
		}

		return a.ID.Compare(b.ID) < 0
	})
}
