package kv

import (
	"fmt"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
)

func workspaceKey(id model.ID) []byte {
	return []byte("workspace:" + id.String())
}

func inviteKey(code string) []byte {
	return []byte("invite:" + code)
}

func memberPrefix(workspaceID model.ID) []byte {
	return []byte("member:" + workspaceID.String() + ":")
}

func memberKey(workspaceID model.ID, userID model.ID) []byte {
	return append(memberPrefix(workspaceID), userID.String()...)
}

func servicePrefix(workspaceID model.ID) []byte {
	return []byte("service:" + workspaceID.String() + ":")
}

func serviceKey(workspaceID model.ID, id model.ID) []byte {
	return append(servicePrefix(workspaceID), id.String()...)
}

func taskKey(id model.ID) []byte {
	return []byte("task:" + id.String())
}

// boardPrefix indexes the tasks of a workspace.
func boardPrefix(workspaceID model.ID) []byte {
	return []byte("board:" + workspaceID.String() + ":")
}

func boardKey(workspaceID model.ID, id model.ID) []byte {
	return append(boardPrefix(workspaceID), id.String()...)
}

func partitionKey(workspaceID model.ID, status task.Status) []byte {
	return []byte("partition:" + workspaceID.String() + ":" + string(status))
}

func historyPrefix(taskID model.ID) []byte {
	return []byte("history:" + taskID.String() + ":")
}

func historyKey(taskID model.ID, seq uint64) []byte {
	return append(historyPrefix(taskID), fmt.Sprintf("%020d", seq)...)
}

func messagePrefix(taskID model.ID) []byte {
	return []byte("message:" + taskID.String() + ":")
}

func messageKey(taskID model.ID, id model.ID) []byte {
	return append(messagePrefix(taskID), id.String()...)
}

func attachmentPrefix(taskID model.ID) []byte {
	return []byte("attachment:" + taskID.String() + ":")
}

func attachmentKey(taskID model.ID, id model.ID) []byte {
	return append(attachmentPrefix(taskID), id.String()...)
}
