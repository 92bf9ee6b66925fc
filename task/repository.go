package task

import (
	"context"

	"github.com/mirror520/taskboard/model"
)

type Repository interface {
	// Command
	Store(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id model.ID) error // cascades to history, messages and attachments
	BumpPartition(ctx context.Context, workspaceID model.ID, status Status, expected uint64) error
	AppendHistory(ctx context.Context, entries ...*HistoryEntry) error
	StoreMessage(ctx context.Context, m *Message) error
	StoreAttachment(ctx context.Context, a *Attachment) error
	DeleteAttachment(ctx context.Context, taskID model.ID, id model.ID) error

	// Query
	Find(ctx context.Context, id model.ID) (*Task, error)
	List(ctx context.Context, workspaceID model.ID, filter Filter) ([]*Task, error)
	Partition(ctx context.Context, workspaceID model.ID, status Status) ([]*Task, uint64, error)
	History(ctx context.Context, taskID model.ID) ([]*HistoryEntry, error)
	Messages(ctx context.Context, taskID model.ID) ([]*Message, error)
	Attachments(ctx context.Context, taskID model.ID) ([]*Attachment, error)
	FindAttachment(ctx context.Context, taskID model.ID, id model.ID) (*Attachment, error)
}
