package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
)

type taskRepository struct {
	db *gorm.DB
}

func (repo *taskRepository) Store(ctx context.Context, t *task.Task) error {
	db := repo.db.WithContext(ctx)
	row := NewTask(t)

	result := db.Omit(clause.Associations).Save(row)
	if err := result.Error; err != nil {
		return translate(err)
	}

	result = db.Where("task_id = ?", row.ID).Delete(&TaskFollower{})
	if err := result.Error; err != nil {
		return translate(err)
	}

	if len(row.Followers) == 0 {
		return nil
	}

	result = db.Create(row.Followers)
	return translate(result.Error)
}

func (repo *taskRepository) Delete(ctx context.Context, id model.ID) error {
	db := repo.db.WithContext(ctx)

	rows := []any{&TaskFollower{}, &TaskHistory{}, &TaskMessage{}, &TaskAttachment{}}
	for _, row := range rows {
		result := db.Unscoped().Where("task_id = ?", id.String()).Delete(row)
		if err := result.Error; err != nil {
			return translate(err)
		}
	}

	result := db.Unscoped().Delete(&Task{}, "id = ?", id.String())
	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (repo *taskRepository) BumpPartition(ctx context.Context, workspaceID model.ID, status task.Status, expected uint64) error {
	db := repo.db.WithContext(ctx)

	if expected == 0 {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Partition{
			WorkspaceID: workspaceID.String(),
			Status:      status,
			Version:     1,
		})

		if err := result.Error; err != nil {
			return translate(err)
		}

		if result.RowsAffected == 0 {
			return model.ErrConflict
		}

		return nil
	}

	result := db.Model(&Partition{}).
		Where("workspace_id = ? AND status = ? AND version = ?", workspaceID.String(), status, expected).
		Update("version", expected+1)

	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		return model.ErrConflict
	}

	return nil
}

func (repo *taskRepository) AppendHistory(ctx context.Context, entries ...*task.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]*TaskHistory, len(entries))
	for i, e := range entries {
		rows[i] = NewTaskHistory(e)
	}

	result := repo.db.WithContext(ctx).Create(rows)
	return translate(result.Error)
}

func (repo *taskRepository) StoreMessage(ctx context.Context, m *task.Message) error {
	result := repo.db.WithContext(ctx).Save(NewTaskMessage(m))
	return translate(result.Error)
}

func (repo *taskRepository) StoreAttachment(ctx context.Context, a *task.Attachment) error {
	result := repo.db.WithContext(ctx).Save(NewTaskAttachment(a))
	return translate(result.Error)
}

func (repo *taskRepository) DeleteAttachment(ctx context.Context, taskID model.ID, id model.ID) error {
	result := repo.db.WithContext(ctx).
		Unscoped().
		Delete(&TaskAttachment{}, "task_id = ? AND id = ?", taskID.String(), id.String())

	if err := result.Error; err != nil {
		return translate(err)
	}

	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (repo *taskRepository) Find(ctx context.Context, id model.ID) (*task.Task, error) {
	var t *Task

	result := repo.db.WithContext(ctx).
		Preload("Followers").
		Take(&t, "id = ?", id.String())

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return t.reconstitute(), nil
}

func (repo *taskRepository) List(ctx context.Context, workspaceID model.ID, filter task.Filter) ([]*task.Task, error) {
	query := repo.db.WithContext(ctx).
		Preload("Followers").
		Where("workspace_id = ?", workspaceID.String())

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if !filter.ServiceID.IsZero() {
		query = query.Where("service_id = ?", filter.ServiceID.String())
	}

	if !filter.AssigneeID.IsZero() {
		query = query.Where("assignee_id = ?", filter.AssigneeID.String())
	}

	var rows []*Task
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		t := row.reconstitute()
		if filter.Match(t) {
			tasks = append(tasks, t)
		}
	}

	task.SortBoard(tasks)
	return tasks, nil
}

func (repo *taskRepository) Partition(ctx context.Context, workspaceID model.ID, status task.Status) ([]*task.Task, uint64, error) {
	db := repo.db.WithContext(ctx)

	var p Partition
	var version uint64

	result := db.Limit(1).Find(&p, "workspace_id = ? AND status = ?", workspaceID.String(), status)
	if err := result.Error; err != nil {
		return nil, 0, translate(err)
	}

	if result.RowsAffected > 0 {
		version = p.Version
	}

	var rows []*Task
	result = db.Preload("Followers").
		Where("workspace_id = ? AND status = ?", workspaceID.String(), status).
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, 0, translate(err)
	}

	partition := make([]*task.Task, len(rows))
	for i, row := range rows {
		partition[i] = row.reconstitute()
	}

	task.SortPartition(partition)
	return partition, version, nil
}

func (repo *taskRepository) History(ctx context.Context, taskID model.ID) ([]*task.HistoryEntry, error) {
	var rows []*TaskHistory

	result := repo.db.WithContext(ctx).
		Where("task_id = ?", taskID.String()).
		Order("timestamp, seq").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	entries := make([]*task.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.reconstitute()
	}

	task.SortEntries(entries)
	return entries, nil
}

func (repo *taskRepository) Messages(ctx context.Context, taskID model.ID) ([]*task.Message, error) {
	var rows []*TaskMessage

	result := repo.db.WithContext(ctx).
		Where("task_id = ?", taskID.String()).
		Order("id").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	messages := make([]*task.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.reconstitute()
	}

	return messages, nil
}

func (repo *taskRepository) Attachments(ctx context.Context, taskID model.ID) ([]*task.Attachment, error) {
	var rows []*TaskAttachment

	result := repo.db.WithContext(ctx).
		Where("task_id = ?", taskID.String()).
		Order("id").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	attachments := make([]*task.Attachment, len(rows))
	for i, row := range rows {
		attachments[i] = row.reconstitute()
	}

	return attachments, nil
}

func (repo *taskRepository) FindAttachment(ctx context.Context, taskID model.ID, id model.ID) (*task.Attachment, error) {
	var a *TaskAttachment

	result := repo.db.WithContext(ctx).
		Take(&a, "task_id = ? AND id = ?", taskID.String(), id.String())

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return a.reconstitute(), nil
}
