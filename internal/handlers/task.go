package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/services"
)

type TaskHandler struct {
	taskService  *services.TaskService
	draftService *services.DraftService
}

func NewTaskHandler(taskService *services.TaskService, draftService *services.DraftService) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		draftService: draftService,
	}
}

// ListTasks returns every task, optionally filtered with ?status=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var status *models.TaskStatus
	if s := c.Query("status"); s != "" {
		st := models.TaskStatus(s)
		status = &st
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), status)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListUserTasks returns the tasks assigned to the user in the path
func (h *TaskHandler) ListUserTasks(c *gin.Context) {
	userID, ok := middleware.GetIDParam(c, constants.ContextKeyTargetID)
	if !ok {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	tasks, err := h.taskService.ListTasksForUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := middleware.GetIDParam(c, constants.ContextKeyTaskID)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// GetTaskHistory returns the status transitions of a task
func (h *TaskHandler) GetTaskHistory(c *gin.Context) {
	taskID, ok := middleware.GetIDParam(c, constants.ContextKeyTaskID)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	events, err := h.taskService.TaskHistory(c.Request.Context(), taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskEventDTOs(events))
}

// CreateTask creates a new task. Admin only.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title                string             `json:"title"`
		Description          string             `json:"description"`
		DueDate              string             `json:"dueDate"`
		AssignedTo           flexID             `json:"assignedTo"`
		CreatedBy            *flexID            `json:"createdBy"`
		Status               *models.TaskStatus `json:"status"`
		CompletionPercentage *int               `json:"completionPercentage"`
		AttachmentURL        *string            `json:"attachmentUrl"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Title:                req.Title,
		Description:          req.Description,
		AssignedTo:           uint64(req.AssignedTo),
		Status:               req.Status,
		CompletionPercentage: req.CompletionPercentage,
		AttachmentURL:        req.AttachmentURL,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.DueDate = &due
	}
	if req.CreatedBy != nil {
		createdBy := uint64(*req.CreatedBy)
		input.CreatedBy = &createdBy
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// updatableFields is the allow-list of keys accepted by UpdateTask.
var updatableFields = map[string]bool{
	"title":                true,
	"description":          true,
	"status":               true,
	"completionPercentage": true,
	"dueDate":              true,
	"assignedTo":           true,
	"attachmentUrl":        true,
}

// UpdateTask applies a partial update. The body may contain only the
// allow-listed keys; anything else is rejected before the task is read.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	taskID, ok := middleware.GetIDParam(c, constants.ContextKeyTaskID)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := decodeTaskUpdate(raw)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, taskID, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task. Admin only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	taskID, ok := middleware.GetIDParam(c, constants.ContextKeyTaskID)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, taskID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// DraftTasks turns free text into task drafts using AI. Nothing is saved.
func (h *TaskHandler) DraftTasks(c *gin.Context) {
	type DraftRequest struct {
		Text string `json:"text" binding:"required"`
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Text is required")
		return
	}

	drafts, err := h.draftService.DraftTasks(c.Request.Context(), actor, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.TaskDraftDTO, len(drafts))
	for i, d := range drafts {
		items[i] = dto.TaskDraftDTO{Title: d.Title, Description: d.Description, DueDate: d.DueDate}
	}
	c.JSON(http.StatusOK, gin.H{"drafts": items})
}

func decodeTaskUpdate(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	var unknown []string
	for key := range raw {
		if !updatableFields[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return input, fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}

	for key, value := range raw {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(value, &input.Title)
		case "description":
			err = json.Unmarshal(value, &input.Description)
		case "status":
			err = json.Unmarshal(value, &input.Status)
		case "completionPercentage":
			err = json.Unmarshal(value, &input.CompletionPercentage)
		case "dueDate":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				var due time.Time
				if due, err = parseDate(s); err == nil {
					input.DueDate = &due
				}
			}
		case "assignedTo":
			var id flexID
			if err = json.Unmarshal(value, &id); err == nil {
				v := uint64(id)
				input.AssignedTo = &v
			}
		case "attachmentUrl":
			var url *string
			if err = json.Unmarshal(value, &url); err == nil {
				if url == nil {
					url = new(string)
				}
				input.AttachmentURL = url
			}
		}
		if err != nil {
			return input, fmt.Errorf("invalid value for %s", key)
		}
	}

	return input, nil
}
