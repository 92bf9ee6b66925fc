package task

import (
	"sort"
	"strconv"
	"time"

	"github.com/mirror520/taskboard/model"
)

type Action string

const (
	Created           Action = "created"
	StatusChanged     Action = "status_changed"
	FieldChanged      Action = "field_changed"
	Moved             Action = "moved"
	Followed          Action = "followed"
	Unfollowed        Action = "unfollowed"
	Commented         Action = "commented"
	AttachmentAdded   Action = "attachment_added"
	AttachmentRemoved Action = "attachment_removed"
)

// HistoryEntry is one immutable audit record.
type HistoryEntry struct {
	ID          model.ID  `json:"id"`
	TaskID      model.ID  `json:"task_id"`
	WorkspaceID model.ID  `json:"workspace_id"`
	ActorID     model.ID  `json:"actor_id"`
	Action      Action    `json:"action"`
	Field       string    `json:"field,omitempty"`
	OldValue    *string   `json:"old_value,omitempty"`
	NewValue    *string   `json:"new_value,omitempty"`
	Seq         uint64    `json:"seq"`
	Timestamp   time.Time `json:"timestamp"`
}

// Tracked fields.
const (
	FieldName         = "name"
	FieldDescription  = "description"
	FieldStatus       = "status"
	FieldAssignee     = "assignee_id"
	FieldDueDate      = "due_date"
	FieldPriority     = "priority"
	FieldConfidential = "is_confidential"
	FieldService      = "service_id"
	FieldPosition     = "position"
)

type Change struct {
	Field    string
	OldValue *string
	NewValue *string
}

type snapshot struct {
	field string
	value func(t *Task) *string
}

var tracked = []snapshot{
	{FieldName, func(t *Task) *string { return &t.Name }},
	{FieldDescription, func(t *Task) *string { return &t.Description }},
	{FieldStatus, func(t *Task) *string { return str(string(t.Status)) }},
	{FieldAssignee, func(t *Task) *string { return idString(t.AssigneeID) }},
	{FieldDueDate, func(t *Task) *string { return dateString(t.DueDate) }},
	{FieldPriority, func(t *Task) *string { return str(string(t.Priority)) }},
	{FieldConfidential, func(t *Task) *string { return str(strconv.FormatBool(t.Confidential)) }},
	{FieldService, func(t *Task) *string { return idString(t.ServiceID) }},
}

// Diff compares the tracked fields of two snapshots of the same task.
func Diff(before, after *Task) []Change {
	changes := make([]Change, 0)
	for _, s := range tracked {
		oldValue, newValue := s.value(before), s.value(after)
		if equal(oldValue, newValue) {
			continue
		}

		changes = append(changes, Change{
			Field:    s.field,
			OldValue: copyOf(oldValue),
			NewValue: copyOf(newValue),
		})
	}

	return changes
}

// Recorder turns committed mutations into history entries. Entries of a
// task are ordered by timestamp, with ties broken by the task's
// monotonic sequence counter.
type Recorder struct {
	now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{time.Now}
}

func NewRecorderWithClock(now func() time.Time) *Recorder {
	return &Recorder{now}
}

// Record diffs two snapshots of a task. A nil before snapshot means the
// task was just created and yields a single created entry.
func (r *Recorder) Record(actor model.ID, before, after *Task) []*HistoryEntry {
	ts := r.now().UTC()

	if before == nil {
		return []*HistoryEntry{r.entry(ts, actor, after, Created, "", nil, nil)}
	}

	changes := Diff(before, after)
	entries := make([]*HistoryEntry, len(changes))
	for i, c := range changes {
		action := FieldChanged
		if c.Field == FieldStatus {
			action = StatusChanged
		}

		entries[i] = r.entry(ts, actor, after, action, c.Field, c.OldValue, c.NewValue)
	}

	return entries
}

// Lifecycle records an event that is not a tracked field change, such as
// a comment or a follower joining.
func (r *Recorder) Lifecycle(actor model.ID, t *Task, action Action, field string, oldValue, newValue *string) *HistoryEntry {
	return r.entry(r.now().UTC(), actor, t, action, field, oldValue, newValue)
}

func (r *Recorder) entry(ts time.Time, actor model.ID, t *Task, action Action, field string, oldValue, newValue *string) *HistoryEntry {
	t.HistorySeq++

	return &HistoryEntry{
		ID:          model.NewID(),
		TaskID:      t.ID,
		WorkspaceID: t.WorkspaceID,
		ActorID:     actor,
		Action:      action,
		Field:       field,
		OldValue:    oldValue,
		NewValue:    newValue,
		Seq:         t.HistorySeq,
		Timestamp:   ts,
	}
}

// SortEntries restores replay order.
func SortEntries(entries []*HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}

		return a.Seq < b.Seq
	})
}

func FormatPosition(p float64) *string {
	return str(strconv.FormatFloat(p, 'f', -1, 64))
}

func str(s string) *string {
	return &s
}

func idString(id model.ID) *string {
	if id.IsZero() {
		return nil
	}

	return str(id.String())
}

func dateString(d *time.Time) *string {
	if d == nil {
		return nil
	}

	return str(d.UTC().Format(time.RFC3339Nano))
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func copyOf(s *string) *string {
	if s == nil {
		return nil
	}

	return str(*s)
}
