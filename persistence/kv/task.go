package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
)

type taskRepository struct {
	txn *badger.Txn
}

func (repo *taskRepository) Store(ctx context.Context, t *task.Task) error {
	if err := set(repo.txn, taskKey(t.ID), t); err != nil {
		return err
	}

	return translate(repo.txn.Set(boardKey(t.WorkspaceID, t.ID), t.ID.Bytes()))
}

func (repo *taskRepository) Delete(ctx context.Context, id model.ID) error {
	t, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	prefixes := [][]byte{
		historyPrefix(id),
		messagePrefix(id),
		attachmentPrefix(id),
	}

	for _, prefix := range prefixes {
		if err := deletePrefix(repo.txn, prefix); err != nil {
			return err
		}
	}

	if err := repo.txn.Delete(boardKey(t.WorkspaceID, id)); err != nil {
		return translate(err)
	}

	return translate(repo.txn.Delete(taskKey(id)))
}

func (repo *taskRepository) BumpPartition(ctx context.Context, workspaceID model.ID, status task.Status, expected uint64) error {
	version, err := repo.partitionVersion(workspaceID, status)
	if err != nil {
		return err
	}

	if version != expected {
		return model.ErrConflict
	}

	return set(repo.txn, partitionKey(workspaceID, status), expected+1)
}

func (repo *taskRepository) partitionVersion(workspaceID model.ID, status task.Status) (uint64, error) {
	var version uint64
	err := get(repo.txn, partitionKey(workspaceID, status), &version)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return 0, err
	}

	return version, nil
}

func (repo *taskRepository) AppendHistory(ctx context.Context, entries ...*task.HistoryEntry) error {
	for _, e := range entries {
		if err := set(repo.txn, historyKey(e.TaskID, e.Seq), e); err != nil {
			return err
		}
	}

	return nil
}

func (repo *taskRepository) StoreMessage(ctx context.Context, m *task.Message) error {
	return set(repo.txn, messageKey(m.TaskID, m.ID), m)
}

func (repo *taskRepository) StoreAttachment(ctx context.Context, a *task.Attachment) error {
	return set(repo.txn, attachmentKey(a.TaskID, a.ID), a)
}

func (repo *taskRepository) DeleteAttachment(ctx context.Context, taskID model.ID, id model.ID) error {
	ok, err := exists(repo.txn, attachmentKey(taskID, id))
	if err != nil {
		return err
	}

	if !ok {
		return model.ErrNotFound
	}

	return translate(repo.txn.Delete(attachmentKey(taskID, id)))
}

func (repo *taskRepository) Find(ctx context.Context, id model.ID) (*task.Task, error) {
	t := new(task.Task)
	if err := get(repo.txn, taskKey(id), t); err != nil {
		return nil, err
	}

	return t.Reconstitute(), nil
}

func (repo *taskRepository) all(ctx context.Context, workspaceID model.ID) ([]*task.Task, error) {
	prefix := boardPrefix(workspaceID)

	ids := make([]model.ID, 0)
	for _, key := range keys(repo.txn, prefix) {
		id, err := model.ParseID(string(key[len(prefix):]))
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	tasks := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := repo.Find(ctx, id)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (repo *taskRepository) List(ctx context.Context, workspaceID model.ID, filter task.Filter) ([]*task.Task, error) {
	all, err := repo.all(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(all))
	for _, t := range all {
		if filter.Match(t) {
			tasks = append(tasks, t)
		}
	}

	task.SortBoard(tasks)
	return tasks, nil
}

func (repo *taskRepository) Partition(ctx context.Context, workspaceID model.ID, status task.Status) ([]*task.Task, uint64, error) {
	version, err := repo.partitionVersion(workspaceID, status)
	if err != nil {
		return nil, 0, err
	}

	all, err := repo.all(ctx, workspaceID)
	if err != nil {
		return nil, 0, err
	}

	partition := make([]*task.Task, 0)
	for _, t := range all {
		if t.Status == status {
			partition = append(partition, t)
		}
	}

	task.SortPartition(partition)
	return partition, version, nil
}

func (repo *taskRepository) History(ctx context.Context, taskID model.ID) ([]*task.HistoryEntry, error) {
	entries := make([]*task.HistoryEntry, 0)
	err := scan(repo.txn, historyPrefix(taskID), func(val []byte) error {
		e := new(task.HistoryEntry)
		if err := json.Unmarshal(val, e); err != nil {
			return err
		}

		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	task.SortEntries(entries)
	return entries, nil
}

func (repo *taskRepository) Messages(ctx context.Context, taskID model.ID) ([]*task.Message, error) {
	messages := make([]*task.Message, 0)
	err := scan(repo.txn, messagePrefix(taskID), func(val []byte) error {
		m := new(task.Message)
		if err := json.Unmarshal(val, m); err != nil {
			return err
		}

		messages = append(messages, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (repo *taskRepository) Attachments(ctx context.Context, taskID model.ID) ([]*task.Attachment, error) {
	attachments := make([]*task.Attachment, 0)
	err := scan(repo.txn, attachmentPrefix(taskID), func(val []byte) error {
		a := new(task.Attachment)
		if err := json.Unmarshal(val, a); err != nil {
			return err
		}

		attachments = append(attachments, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

func (repo *taskRepository) FindAttachment(ctx context.Context, taskID model.ID, id model.ID) (*task.Attachment, error) {
	a := new(task.Attachment)
	if err := get(repo.txn, attachmentKey(taskID, id), a); err != nil {
		return nil, err
	}

	return a, nil
}
