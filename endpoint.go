package taskboard

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
	"github.com/mirror520/taskboard/workspace"
)

var ErrInvalidRequest = errors.New("invalid request")

// Requests carry the authenticated actor; the transport fills it from
// the bearer token, never from the request body.

type CreateWorkspaceRequest struct {
	Actor model.ID `json:"-"`
	Name  string   `json:"name" binding:"required"`
}

type UpdateWorkspaceRequest struct {
	Actor       model.ID `json:"-"`
	WorkspaceID model.ID `json:"-"`
	Name        string   `json:"name" binding:"required"`
}

type WorkspaceRequest struct {
	Actor       model.ID
	WorkspaceID model.ID
}

type JoinWorkspaceRequest struct {
	Actor      model.ID `json:"-"`
	InviteCode string   `json:"invite_code" binding:"required"`
}

type ChangeRoleRequest struct {
	Actor       model.ID       `json:"-"`
	WorkspaceID model.ID       `json:"-"`
	UserID      model.ID       `json:"-"`
	Role        workspace.Role `json:"role" binding:"required"`
}

type MemberRequest struct {
	Actor       model.ID
	WorkspaceID model.ID
	UserID      model.ID
}

type CreateServiceRequest struct {
	Actor       model.ID `json:"-"`
	WorkspaceID model.ID `json:"-"`
	Name        string   `json:"name" binding:"required"`
}

type DeleteServiceRequest struct {
	Actor       model.ID
	WorkspaceID model.ID
	ServiceID   model.ID
	ReassignTo  model.ID
}

type CreateTaskRequest struct {
	Actor       model.ID `json:"-"`
	WorkspaceID model.ID `json:"-"`
	ServiceID   model.ID `json:"service_id" binding:"required"`
	task.Fields
}

type TaskRequest struct {
	Actor  model.ID
	TaskID model.ID
}

type ChangeStatusRequest struct {
	Actor    model.ID    `json:"-"`
	TaskID   model.ID    `json:"-"`
	Status   task.Status `json:"status" binding:"required"`
	Position *int        `json:"position"`
}

type UpdateTaskRequest struct {
	Actor  model.ID `json:"-"`
	TaskID model.ID `json:"-"`
	task.Patch
}

type ListTasksRequest struct {
	Actor       model.ID
	WorkspaceID model.ID
	Filter      task.Filter
}

type AddMessageRequest struct {
	Actor   model.ID `json:"-"`
	TaskID  model.ID `json:"-"`
	Content string   `json:"content" binding:"required"`
}

type AddAttachmentRequest struct {
	Actor  model.ID `json:"-"`
	TaskID model.ID `json:"-"`
	task.AttachmentInput
}

type AttachmentRequest struct {
	Actor        model.ID
	TaskID       model.ID
	AttachmentID model.ID
}

// EndpointSet collects one endpoint per engine operation.
type EndpointSet struct {
	CreateWorkspace      endpoint.Endpoint
	UpdateWorkspace      endpoint.Endpoint
	DeleteWorkspace      endpoint.Endpoint
	RegenerateInviteCode endpoint.Endpoint
	JoinWorkspace        endpoint.Endpoint
	ListMembers          endpoint.Endpoint
	ChangeRole           endpoint.Endpoint
	RemoveMember         endpoint.Endpoint

	CreateService endpoint.Endpoint
	ListServices  endpoint.Endpoint
	DeleteService endpoint.Endpoint

	CreateTask       endpoint.Endpoint
	GetTask          endpoint.Endpoint
	ChangeStatus     endpoint.Endpoint
	UpdateTask       endpoint.Endpoint
	DeleteTask       endpoint.Endpoint
	Follow           endpoint.Endpoint
	Unfollow         endpoint.Endpoint
	ListFollowers    endpoint.Endpoint
	ListVisibleTasks endpoint.Endpoint
	GetHistory       endpoint.Endpoint

	AddMessage       endpoint.Endpoint
	ListMessages     endpoint.Endpoint
	AddAttachment    endpoint.Endpoint
	RemoveAttachment endpoint.Endpoint
	ListAttachments  endpoint.Endpoint
}

func NewEndpointSet(svc Service) EndpointSet {
	return EndpointSet{
		CreateWorkspace:      CreateWorkspaceEndpoint(svc),
		UpdateWorkspace:      UpdateWorkspaceEndpoint(svc),
		DeleteWorkspace:      DeleteWorkspaceEndpoint(svc),
		RegenerateInviteCode: RegenerateInviteCodeEndpoint(svc),
		JoinWorkspace:        JoinWorkspaceEndpoint(svc),
		ListMembers:          ListMembersEndpoint(svc),
		ChangeRole:           ChangeRoleEndpoint(svc),
		RemoveMember:         RemoveMemberEndpoint(svc),

		CreateService: CreateServiceEndpoint(svc),
		ListServices:  ListServicesEndpoint(svc),
		DeleteService: DeleteServiceEndpoint(svc),

		CreateTask:       CreateTaskEndpoint(svc),
		GetTask:          GetTaskEndpoint(svc),
		ChangeStatus:     ChangeStatusEndpoint(svc),
		UpdateTask:       UpdateTaskEndpoint(svc),
		DeleteTask:       DeleteTaskEndpoint(svc),
		Follow:           FollowEndpoint(svc),
		Unfollow:         UnfollowEndpoint(svc),
		ListFollowers:    ListFollowersEndpoint(svc),
		ListVisibleTasks: ListVisibleTasksEndpoint(svc),
		GetHistory:       GetHistoryEndpoint(svc),

		AddMessage:       AddMessageEndpoint(svc),
		ListMessages:     ListMessagesEndpoint(svc),
		AddAttachment:    AddAttachmentEndpoint(svc),
		RemoveAttachment: RemoveAttachmentEndpoint(svc),
		ListAttachments:  ListAttachmentsEndpoint(svc),
	}
}

func CreateWorkspaceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(CreateWorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.CreateWorkspace(ctx, req.Actor, req.Name)
	}
}

func UpdateWorkspaceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(UpdateWorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.UpdateWorkspace(ctx, req.Actor, req.WorkspaceID, req.Name)
	}
}

func DeleteWorkspaceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(WorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.DeleteWorkspace(ctx, req.Actor, req.WorkspaceID)
	}
}

func RegenerateInviteCodeEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(WorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.RegenerateInviteCode(ctx, req.Actor, req.WorkspaceID)
	}
}

func JoinWorkspaceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(JoinWorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.JoinWorkspace(ctx, req.Actor, req.InviteCode)
	}
}

func ListMembersEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(WorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListMembers(ctx, req.Actor, req.WorkspaceID)
	}
}

func ChangeRoleEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(ChangeRoleRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		role, err := workspace.ParseRole(string(req.Role))
		if err != nil {
			return nil, err
		}

		return svc.ChangeRole(ctx, req.Actor, req.WorkspaceID, req.UserID, role)
	}
}

func RemoveMemberEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(MemberRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.RemoveMember(ctx, req.Actor, req.WorkspaceID, req.UserID)
	}
}

func CreateServiceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(CreateServiceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.CreateService(ctx, req.Actor, req.WorkspaceID, req.Name)
	}
}

func ListServicesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(WorkspaceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListServices(ctx, req.Actor, req.WorkspaceID)
	}
}

func DeleteServiceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(DeleteServiceRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.DeleteService(ctx, req.Actor, req.WorkspaceID, req.ServiceID, req.ReassignTo)
	}
}

func CreateTaskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(CreateTaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.CreateTask(ctx, req.Actor, req.WorkspaceID, req.ServiceID, req.Fields)
	}
}

func GetTaskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.GetTask(ctx, req.Actor, req.TaskID)
	}
}

func ChangeStatusEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(ChangeStatusRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		status, err := task.ParseStatus(string(req.Status))
		if err != nil {
			return nil, err
		}

		return svc.ChangeStatus(ctx, req.Actor, req.TaskID, status, req.Position)
	}
}

func UpdateTaskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(UpdateTaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.UpdateTask(ctx, req.Actor, req.TaskID, req.Patch)
	}
}

func DeleteTaskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.DeleteTask(ctx, req.Actor, req.TaskID)
	}
}

func FollowEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.Follow(ctx, req.Actor, req.TaskID)
	}
}

func UnfollowEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.Unfollow(ctx, req.Actor, req.TaskID)
	}
}

func ListFollowersEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListFollowers(ctx, req.Actor, req.TaskID)
	}
}

func ListVisibleTasksEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(ListTasksRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListVisibleTasks(ctx, req.Actor, req.WorkspaceID, req.Filter)
	}
}

func GetHistoryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.GetHistory(ctx, req.Actor, req.TaskID)
	}
}

func AddMessageEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(AddMessageRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.AddMessage(ctx, req.Actor, req.TaskID, req.Content)
	}
}

func ListMessagesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListMessages(ctx, req.Actor, req.TaskID)
	}
}

func AddAttachmentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(AddAttachmentRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.AddAttachment(ctx, req.Actor, req.TaskID, req.AttachmentInput)
	}
}

func RemoveAttachmentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(AttachmentRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return nil, svc.RemoveAttachment(ctx, req.Actor, req.TaskID, req.AttachmentID)
	}
}

func ListAttachmentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(TaskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.ListAttachments(ctx, req.Actor, req.TaskID)
	}
}
