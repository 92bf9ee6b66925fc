package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard"
	"github.com/mirror520/taskboard/model"
	"github.com/mirror520/taskboard/task"
)

var errInternal = errors.New("internal error")

// StatusCode maps engine errors onto HTTP statuses. Every access error
// collapses into one 404 so hidden resources cannot be probed.
func StatusCode(err error) int {
	switch {
	case model.IsAccessError(err):
		return http.StatusNotFound

	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, taskboard.ErrInvalidRequest):
		return http.StatusBadRequest

	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, model.ErrTransient):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func failure(ctx *gin.Context, err error) {
	code := StatusCode(err)
	switch code {
	case http.StatusNotFound:
		err = model.ErrAccessDenied

	case http.StatusInternalServerError:
		zap.L().Error(err.Error(),
			zap.String("transport", "http"),
			zap.String("path", ctx.FullPath()),
		)
		err = errInternal
	}

	ctx.AbortWithStatusJSON(code, model.FailureResult(err))
}

func badRequest(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, model.FailureResult(err))
}

// idParam parses a path id. Malformed ids are indistinguishable from
// missing resources.
func idParam(ctx *gin.Context, name string) (model.ID, bool) {
	id, err := model.ParseID(ctx.Param(name))
	if err != nil {
		failure(ctx, model.ErrNotFound)
		return model.ID{}, false
	}

	return id, true
}

func serve(ctx *gin.Context, endpoint endpoint.Endpoint, req any, msg string) {
	resp, err := endpoint(ctx, req)
	if err != nil {
		failure(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, model.SuccessResult(msg, resp))
}

func CreateWorkspaceHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req taskboard.CreateWorkspaceRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)

		serve(ctx, endpoint, req, "workspace created")
	}
}

func UpdateWorkspaceHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.UpdateWorkspaceRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.WorkspaceID = id

		serve(ctx, endpoint, req, "workspace updated")
	}
}

// WorkspaceHandler serves the operations addressed by workspace id alone.
func WorkspaceHandler(endpoint endpoint.Endpoint, msg string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		req := taskboard.WorkspaceRequest{
			Actor:       Actor(ctx),
			WorkspaceID: id,
		}

		serve(ctx, endpoint, req, msg)
	}
}

func JoinWorkspaceHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req taskboard.JoinWorkspaceRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)

		serve(ctx, endpoint, req, "workspace joined")
	}
}

func ChangeRoleHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		userID, ok := idParam(ctx, "user")
		if !ok {
			return
		}

		var req taskboard.ChangeRoleRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.WorkspaceID = id
		req.UserID = userID

		serve(ctx, endpoint, req, "role changed")
	}
}

func RemoveMemberHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		userID, ok := idParam(ctx, "user")
		if !ok {
			return
		}

		req := taskboard.MemberRequest{
			Actor:       Actor(ctx),
			WorkspaceID: id,
			UserID:      userID,
		}

		serve(ctx, endpoint, req, "member removed")
	}
}

func CreateServiceHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.CreateServiceRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.WorkspaceID = id

		serve(ctx, endpoint, req, "service created")
	}
}

func DeleteServiceHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		serviceID, ok := idParam(ctx, "service")
		if !ok {
			return
		}

		req := taskboard.DeleteServiceRequest{
			Actor:       Actor(ctx),
			WorkspaceID: id,
			ServiceID:   serviceID,
		}

		if s := ctx.Query("reassign_to"); s != "" {
			reassignTo, err := model.ParseID(s)
			if err != nil {
				badRequest(ctx, err)
				return
			}

			req.ReassignTo = reassignTo
		}

		serve(ctx, endpoint, req, "service deleted")
	}
}

func CreateTaskHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.CreateTaskRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.WorkspaceID = id

		serve(ctx, endpoint, req, "task created")
	}
}

func ListTasksHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		filter, err := parseFilter(ctx)
		if err != nil {
			badRequest(ctx, err)
			return
		}

		req := taskboard.ListTasksRequest{
			Actor:       Actor(ctx),
			WorkspaceID: id,
			Filter:      filter,
		}

		serve(ctx, endpoint, req, "tasks listed")
	}
}

func parseFilter(ctx *gin.Context) (task.Filter, error) {
	var (
		filter task.Filter
		err    error
	)

	if s := ctx.Query("service_id"); s != "" {
		if filter.ServiceID, err = model.ParseID(s); err != nil {
			return filter, err
		}
	}

	if s := ctx.Query("assignee_id"); s != "" {
		if filter.AssigneeID, err = model.ParseID(s); err != nil {
			return filter, err
		}
	}

	if s := ctx.Query("status"); s != "" {
		if filter.Status, err = task.ParseStatus(s); err != nil {
			return filter, err
		}
	}

	if s := ctx.Query("due_before"); s != "" {
		due, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, model.ErrInvalidArgument
		}

		filter.DueBefore = &due
	}

	return filter, nil
}

// TaskHandler serves the operations addressed by task id alone.
func TaskHandler(endpoint endpoint.Endpoint, msg string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		req := taskboard.TaskRequest{
			Actor:  Actor(ctx),
			TaskID: id,
		}

		serve(ctx, endpoint, req, msg)
	}
}

func ChangeStatusHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.ChangeStatusRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.TaskID = id

		serve(ctx, endpoint, req, "status changed")
	}
}

func UpdateTaskHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.UpdateTaskRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.TaskID = id

		serve(ctx, endpoint, req, "task updated")
	}
}

func AddMessageHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.AddMessageRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.TaskID = id

		serve(ctx, endpoint, req, "message added")
	}
}

func AddAttachmentHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		var req taskboard.AddAttachmentRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, err)
			return
		}
		req.Actor = Actor(ctx)
		req.TaskID = id

		serve(ctx, endpoint, req, "attachment added")
	}
}

func RemoveAttachmentHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := idParam(ctx, "id")
		if !ok {
			return
		}

		attachmentID, ok := idParam(ctx, "attachment")
		if !ok {
			return
		}

		req := taskboard.AttachmentRequest{
			Actor:        Actor(ctx),
			TaskID:       id,
			AttachmentID: attachmentID,
		}

		serve(ctx, endpoint, req, "attachment removed")
	}
}

func CheckHealthHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	}
}
