package task

import (
	"strings"
	"time"

	"github.com/mirror520/taskboard/model"
)

// Message is a comment posted on a task. It carries the workspace id so
// it can be checked without loading the task.
type Message struct {
	ID          model.ID `json:"id"`
	TaskID      model.ID `json:"task_id"`
	WorkspaceID model.ID `json:"workspace_id"`
	AuthorID    model.ID `json:"author_id"`
	Content     string   `json:"content"`
	model.Model
}

func NewMessage(t *Task, author model.ID, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, model.ErrInvalidArgument
	}

	m := &Message{
		ID:          model.NewID(),
		TaskID:      t.ID,
		WorkspaceID: t.WorkspaceID,
		AuthorID:    author,
		Content:     content,
	}
	m.Touch(time.Now())

	t.AddEvent(NewTaskCommentedEvent(t, author, m))
	return m, nil
}

// Attachment is the metadata of a file stored by the blob store.
type Attachment struct {
	ID          model.ID `json:"id"`
	TaskID      model.ID `json:"task_id"`
	WorkspaceID model.ID `json:"workspace_id"`
	UploaderID  model.ID `json:"uploader_id"`
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Size        int64    `json:"size"`
	BlobKey     string   `json:"blob_key"`
	model.Model
}

type AttachmentInput struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	BlobKey     string `json:"blob_key"`
}

func NewAttachment(t *Task, uploader model.ID, in AttachmentInput) (*Attachment, error) {
	if strings.TrimSpace(in.Name) == "" || in.BlobKey == "" || in.Size < 0 {
		return nil, model.ErrInvalidArgument
	}

	a := &Attachment{
		ID:          model.NewID(),
		TaskID:      t.ID,
		WorkspaceID: t.WorkspaceID,
		UploaderID:  uploader,
		Name:        in.Name,
		ContentType: in.ContentType,
		Size:        in.Size,
		BlobKey:     in.BlobKey,
	}
	a.Touch(time.Now())

	t.AddEvent(NewTaskAttachmentAddedEvent(t, uploader, a))
	return a, nil
}
