package db

import (
	"time"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

type Workspace struct {
	ID         string `gorm:"primaryKey"`
	Name       string
	OwnerID    string
	InviteCode string `gorm:"uniqueIndex"`
	Version    uint64
	model.DataModel
}

func NewWorkspace(w *workspace.Workspace) *Workspace {
	return &Workspace{
		ID:         w.ID.String(),
		Name:       w.Name,
		OwnerID:    w.OwnerID.String(),
		InviteCode: w.InviteCode,
		Version:    w.Version,
		DataModel:  model.NewDataModel(w.Model),
	}
}

func (w *Workspace) reconstitute() *workspace.Workspace {
	return &workspace.Workspace{
		ID:         mustParseID(w.ID),
		Name:       w.Name,
		OwnerID:    mustParseID(w.OwnerID),
		InviteCode: w.InviteCode,
		Version:    w.Version,
		Model:      w.DataModel.Reconstitute(),
	}
}

type Member struct {
	WorkspaceID string `gorm:"primaryKey"`
	UserID      string `gorm:"primaryKey"`
	Role        workspace.Role
	model.DataModel
}

func NewMember(m *workspace.Member) *Member {
	return &Member{
		WorkspaceID: m.WorkspaceID.String(),
		UserID:      m.UserID.String(),
		Role:        m.Role,
		DataModel:   model.NewDataModel(m.Model),
	}
}

func (m *Member) reconstitute() *workspace.Member {
	return &workspace.Member{
		WorkspaceID: mustParseID(m.WorkspaceID),
		UserID:      mustParseID(m.UserID),
		Role:        m.Role,
		Model:       m.DataModel.Reconstitute(),
	}
}

type Service struct {
	ID          string `gorm:"primaryKey"`
	WorkspaceID string `gorm:"index"`
	Name        string
	model.DataModel
}

func NewService(s *workspace.Service) *Service {
	return &Service{
		ID:          s.ID.String(),
		WorkspaceID: s.WorkspaceID.String(),
		Name:        s.Name,
		DataModel:   model.NewDataModel(s.Model),
	}
}

func (s *Service) reconstitute() *workspace.Service {
	return &workspace.Service{
		ID:          mustParseID(s.ID),
		WorkspaceID: mustParseID(s.WorkspaceID),
		Name:        s.Name,
		Model:       s.DataModel.Reconstitute(),
	}
}

type Task struct {
	ID           string `gorm:"primaryKey"`
	WorkspaceID  string `gorm:"index"`
	ServiceID    string `gorm:"index"`
	Name         string
	Description  string
	Status       task.Status
	Position     float64
	Priority     task.Priority
	CreatorID    string
	AssigneeID   string
	DueDate      *time.Time
	Confidential bool
	HistorySeq   uint64
	Followers    []*TaskFollower
	model.DataModel
}

func NewTask(t *task.Task) *Task {
	followers := make([]*TaskFollower, len(t.Followers))
	for i, id := range t.Followers {
		followers[i] = &TaskFollower{
			TaskID: t.ID.String(),
			UserID: id.String(),
		}
	}

	return &Task{
		ID:           t.ID.String(),
		WorkspaceID:  t.WorkspaceID.String(),
		ServiceID:    t.ServiceID.String(),
		Name:         t.Name,
		Description:  t.Description,
		Status:       t.Status,
		Position:     t.Position,
		Priority:     t.Priority,
		CreatorID:    t.CreatorID.String(),
		AssigneeID:   t.AssigneeID.String(),
		DueDate:      t.DueDate,
		Confidential: t.Confidential,
		HistorySeq:   t.HistorySeq,
		Followers:    followers,
		DataModel:    model.NewDataModel(t.Model),
	}
}

func (t *Task) reconstitute() *task.Task {
	followers := make([]model.ID, len(t.Followers))
	for i, f := range t.Followers {
		followers[i] = mustParseID(f.UserID)
	}

	var due *time.Time
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		due = &d
	}

	result := &task.Task{
		ID:           mustParseID(t.ID),
		WorkspaceID:  mustParseID(t.WorkspaceID),
		ServiceID:    mustParseID(t.ServiceID),
		Name:         t.Name,
		Description:  t.Description,
		Status:       t.Status,
		Position:     t.Position,
		Priority:     t.Priority,
		CreatorID:    mustParseID(t.CreatorID),
		AssigneeID:   mustParseID(t.AssigneeID),
		DueDate:      due,
		Confidential: t.Confidential,
		HistorySeq:   t.HistorySeq,
		Followers:    task.NewFollowerSet(followers...),
		Model:        t.DataModel.Reconstitute(),
	}

	return result.Reconstitute()
}

type TaskFollower struct {
	TaskID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
}

type TaskHistory struct {
	ID          string `gorm:"primaryKey"`
	TaskID      string `gorm:"uniqueIndex:idx_task_seq"`
	Seq         uint64 `gorm:"uniqueIndex:idx_task_seq"`
	WorkspaceID string
	ActorID     string
	Action      task.Action
	Field       string
	OldValue    *string
	NewValue    *string
	Timestamp   time.Time
}

func NewTaskHistory(e *task.HistoryEntry) *TaskHistory {
	return &TaskHistory{
		ID:          e.ID.String(),
		TaskID:      e.TaskID.String(),
		Seq:         e.Seq,
		WorkspaceID: e.WorkspaceID.String(),
		ActorID:     e.ActorID.String(),
		Action:      e.Action,
		Field:       e.Field,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		Timestamp:   e.Timestamp,
	}
}

func (h *TaskHistory) reconstitute() *task.HistoryEntry {
	return &task.HistoryEntry{
		ID:          mustParseID(h.ID),
		TaskID:      mustParseID(h.TaskID),
		WorkspaceID: mustParseID(h.WorkspaceID),
		ActorID:     mustParseID(h.ActorID),
		Action:      h.Action,
		Field:       h.Field,
		OldValue:    h.OldValue,
		NewValue:    h.NewValue,
		Seq:         h.Seq,
		Timestamp:   h.Timestamp.UTC(),
	}
}

type TaskMessage struct {
	ID          string `gorm:"primaryKey"`
	TaskID      string `gorm:"index"`
	WorkspaceID string
	AuthorID    string
	Content     string
	model.DataModel
}

func NewTaskMessage(m *task.Message) *TaskMessage {
	return &TaskMessage{
		ID:          m.ID.String(),
		TaskID:      m.TaskID.String(),
		WorkspaceID: m.WorkspaceID.String(),
		AuthorID:    m.AuthorID.String(),
		Content:     m.Content,
		DataModel:   model.NewDataModel(m.Model),
	}
}

func (m *TaskMessage) reconstitute() *task.Message {
	return &task.Message{
		ID:          mustParseID(m.ID),
		TaskID:      mustParseID(m.TaskID),
		WorkspaceID: mustParseID(m.WorkspaceID),
		AuthorID:    mustParseID(m.AuthorID),
		Content:     m.Content,
		Model:       m.DataModel.Reconstitute(),
	}
}

type TaskAttachment struct {
	ID          string `gorm:"primaryKey"`
	TaskID      string `gorm:"index"`
	WorkspaceID string
	UploaderID  string
	Name        string
	ContentType string
	Size        int64
	BlobKey     string
	model.DataModel
}

func NewTaskAttachment(a *task.Attachment) *TaskAttachment {
	return &TaskAttachment{
		ID:          a.ID.String(),
		TaskID:      a.TaskID.String(),
		WorkspaceID: a.WorkspaceID.String(),
		UploaderID:  a.UploaderID.String(),
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        a.Size,
		BlobKey:     a.BlobKey,
		DataModel:   model.NewDataModel(a.Model),
	}
}

func (a *TaskAttachment) reconstitute() *task.Attachment {
	return &task.Attachment{
		ID:          mustParseID(a.ID),
		TaskID:      mustParseID(a.TaskID),
		WorkspaceID: mustParseID(a.WorkspaceID),
		UploaderID:  mustParseID(a.UploaderID),
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        a.Size,
		BlobKey:     a.BlobKey,
		Model:       a.DataModel.Reconstitute(),
	}
}

// Partition holds the ordering version of one status column.
type Partition struct {
	WorkspaceID string      `gorm:"primaryKey"`
	Status      task.Status `gorm:"primaryKey"`
	Version     uint64
}

func mustParseID(s string) model.ID {
	if s == "" {
		return model.ID{}
	}

	id, err := model.ParseID(s)
	if err != nil {
		panic(err.Error())
	}

	return id
}
