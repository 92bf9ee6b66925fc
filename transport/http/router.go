package http

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mirror520/taskboard"
)

// NewRouter builds the engine with access logging and panic recovery
// wired to log.
func NewRouter(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))
	return r
}

func SetRouter(r *gin.Engine, endpoints taskboard.EndpointSet, auth gin.HandlerFunc) {
	r.GET("/health", CheckHealthHandler())

	apiV1 := r.Group("/api/v1", auth)

	workspaces := apiV1.Group("/workspaces")
	{
		workspaces.POST("", CreateWorkspaceHandler(endpoints.CreateWorkspace))
		workspaces.POST("/join", JoinWorkspaceHandler(endpoints.JoinWorkspace))
		workspaces.PATCH("/:id", UpdateWorkspaceHandler(endpoints.UpdateWorkspace))
		workspaces.DELETE("/:id", WorkspaceHandler(endpoints.DeleteWorkspace, "workspace deleted"))
		workspaces.POST("/:id/invite-code", WorkspaceHandler(endpoints.RegenerateInviteCode, "invite code regenerated"))

		workspaces.GET("/:id/members", WorkspaceHandler(endpoints.ListMembers, "members listed"))
		workspaces.PATCH("/:id/members/:user", ChangeRoleHandler(endpoints.ChangeRole))
		workspaces.DELETE("/:id/members/:user", RemoveMemberHandler(endpoints.RemoveMember))

		workspaces.GET("/:id/services", WorkspaceHandler(endpoints.ListServices, "services listed"))
		workspaces.POST("/:id/services", CreateServiceHandler(endpoints.CreateService))
		workspaces.DELETE("/:id/services/:service", DeleteServiceHandler(endpoints.DeleteService))

		workspaces.GET("/:id/tasks", ListTasksHandler(endpoints.ListVisibleTasks))
		workspaces.POST("/:id/tasks", CreateTaskHandler(endpoints.CreateTask))
	}

	tasks := apiV1.Group("/tasks")
	{
		tasks.GET("/:id", TaskHandler(endpoints.GetTask, "task found"))
		tasks.PATCH("/:id", UpdateTaskHandler(endpoints.UpdateTask))
		tasks.DELETE("/:id", TaskHandler(endpoints.DeleteTask, "task deleted"))
		tasks.PUT("/:id/status", ChangeStatusHandler(endpoints.ChangeStatus))

		tasks.GET("/:id/followers", TaskHandler(endpoints.ListFollowers, "followers listed"))
		tasks.POST("/:id/followers", TaskHandler(endpoints.Follow, "task followed"))
		tasks.DELETE("/:id/followers", TaskHandler(endpoints.Unfollow, "task unfollowed"))

		tasks.GET("/:id/history", TaskHandler(endpoints.GetHistory, "history listed"))

		tasks.GET("/:id/messages", TaskHandler(endpoints.ListMessages, "messages listed"))
		tasks.POST("/:id/messages", AddMessageHandler(endpoints.AddMessage))

		tasks.GET("/:id/attachments", TaskHandler(endpoints.ListAttachments, "attachments listed"))
		tasks.POST("/:id/attachments", AddAttachmentHandler(endpoints.AddAttachment))
		tasks.DELETE("/:id/attachments/:attachment", RemoveAttachmentHandler(endpoints.RemoveAttachment))
	}
}
