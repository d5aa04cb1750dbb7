package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	"github.com/yukikurage/team-task-tracker/internal/models"
)

// TaskHandlerTestSuite runs the task routes against a wired router
type TaskHandlerTestSuite struct {
	suite.Suite
	env apiEnv

	admin, lead, assignee, other *models.User
	adminToken, leadToken        string
	assigneeToken, otherToken    string
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	t := suite.T()
	suite.env = setupAPI(t)

	suite.admin, suite.adminToken = suite.env.user(t, "admin", models.RoleAdmin)
	suite.lead, suite.leadToken = suite.env.user(t, "lead", models.RoleTeamLead)
	suite.assignee, suite.assigneeToken = suite.env.user(t, "worker", models.RoleEmployee)
	suite.other, suite.otherToken = suite.env.user(t, "bystander", models.RoleEmployee)
}

func (suite *TaskHandlerTestSuite) createTask() dto.TaskDTO {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.adminToken, map[string]interface{}{
		"title":       "Quarterly report",
		"description": "Summarise the quarter",
		"dueDate":     "2026-12-01",
		"assignedTo":  strconv.FormatUint(suite.assignee.ID, 10),
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	decode(suite.T(), w, &task)
	return task
}

func (suite *TaskHandlerTestSuite) taskPath(id uint64) string {
	return "/api/tasks/" + strconv.FormatUint(id, 10)
}

func (suite *TaskHandlerTestSuite) update(token string, id uint64, body interface{}) (int, dto.TaskDTO) {
	w := suite.env.do(suite.T(), http.MethodPut, suite.taskPath(id), token, body)
	var task dto.TaskDTO
	if w.Code == http.StatusOK {
		decode(suite.T(), w, &task)
	}
	return w.Code, task
}

// TestCreateTask tests creating a task as admin
func (suite *TaskHandlerTestSuite) TestCreateTask() {
	task := suite.createTask()

	suite.NotZero(task.ID)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(0, task.CompletionPercentage)
	suite.Equal(suite.assignee.ID, task.AssignedTo)
	suite.Equal(suite.admin.ID, task.CreatedBy)
	suite.Equal("worker", task.AssignedUsername)
	suite.Equal("admin", task.CreatorUsername)
	suite.Equal("2026-12-01", task.DueDate.Format("2006-01-02"))
}

// TestCreateTaskForbiddenForNonAdmins tests that only admins create tasks
func (suite *TaskHandlerTestSuite) TestCreateTaskForbiddenForNonAdmins() {
	body := map[string]interface{}{
		"title":       "Sneaky",
		"description": "Should not exist",
		"dueDate":     "2026-12-01",
		"assignedTo":  suite.assignee.ID,
	}

	for _, token := range []string{suite.leadToken, suite.assigneeToken} {
		w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", token, body)
		suite.Equal(http.StatusForbidden, w.Code)
	}

	var count int64
	suite.env.db.Model(&models.Task{}).Count(&count)
	suite.Equal(int64(0), count)
}

// TestCreateTaskValidation tests required fields and value checks
func (suite *TaskHandlerTestSuite) TestCreateTaskValidation() {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"description": "d", "dueDate": "2026-12-01", "assignedTo": suite.assignee.ID}},
		{"missing due date", map[string]interface{}{"title": "t", "description": "d", "assignedTo": suite.assignee.ID}},
		{"bad due date", map[string]interface{}{"title": "t", "description": "d", "dueDate": "next week", "assignedTo": suite.assignee.ID}},
		{"unknown assignee", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2026-12-01", "assignedTo": 9999}},
		{"completion out of range", map[string]interface{}{"title": "t", "description": "d", "dueDate": "2026-12-01", "assignedTo": suite.assignee.ID, "completionPercentage": 150}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks", suite.adminToken, tt.body)
			suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

// TestReviewWorkflow walks a task through complete, reject and complete again
func (suite *TaskHandlerTestSuite) TestReviewWorkflow() {
	task := suite.createTask()

	code, updated := suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(models.TaskStatusCompleted, updated.Status)
	suite.Equal(100, updated.CompletionPercentage)

	code, updated = suite.update(suite.leadToken, task.ID, map[string]interface{}{"status": "rejected"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(models.TaskStatusRejected, updated.Status)
	suite.Equal(70, updated.CompletionPercentage)

	code, updated = suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(100, updated.CompletionPercentage)

	code, updated = suite.update(suite.adminToken, task.ID, map[string]interface{}{"status": "approved"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(models.TaskStatusApproved, updated.Status)

	w := suite.env.do(suite.T(), http.MethodGet, suite.taskPath(task.ID)+"/history", suite.otherToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var events []dto.TaskEventDTO
	decode(suite.T(), w, &events)
	suite.Require().Len(events, 4)
	suite.Equal(models.TaskStatusPending, events[0].FromStatus)
	suite.Equal(models.TaskStatusRejected, events[1].ToStatus)
	suite.Equal("lead", events[1].ActorUsername)
}

// TestForbiddenTransitions tests the status guards over HTTP
func (suite *TaskHandlerTestSuite) TestForbiddenTransitions() {
	task := suite.createTask()

	code, _ := suite.update(suite.otherToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.update(suite.leadToken, task.ID, map[string]interface{}{"status": "approved"})
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "approved"})
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "archived"})
	suite.Equal(http.StatusBadRequest, code)
}

// TestUpdateTaskBody tests the allow-list and partial updates
func (suite *TaskHandlerTestSuite) TestUpdateTaskBody() {
	task := suite.createTask()

	w := suite.env.do(suite.T(), http.MethodPut, suite.taskPath(task.ID), suite.assigneeToken, map[string]interface{}{
		"title":     "Renamed",
		"createdBy": suite.other.ID,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "createdBy")

	w = suite.env.do(suite.T(), http.MethodPut, suite.taskPath(task.ID), suite.assigneeToken, map[string]interface{}{})
	suite.Equal(http.StatusBadRequest, w.Code)

	code, updated := suite.update(suite.otherToken, task.ID, map[string]interface{}{
		"title":                "Renamed",
		"completionPercentage": 40,
		"attachmentUrl":        "https://files.example.com/report.pdf",
	})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal("Renamed", updated.Title)
	suite.Equal("Summarise the quarter", updated.Description)
	suite.Equal(40, updated.CompletionPercentage)
	suite.Require().NotNil(updated.AttachmentURL)

	code, updated = suite.update(suite.otherToken, task.ID, map[string]interface{}{"attachmentUrl": nil})
	suite.Require().Equal(http.StatusOK, code)
	suite.Nil(updated.AttachmentURL)

	code, updated = suite.update(suite.adminToken, task.ID, map[string]interface{}{"dueDate": "2027-01-15T09:00:00Z"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal("2027-01-15", updated.DueDate.Format("2006-01-02"))

	code, _ = suite.update(suite.adminToken, 9999, map[string]interface{}{"title": "Nope"})
	suite.Equal(http.StatusNotFound, code)
}

// TestListAndGetTasks tests listing, filtering and fetching
func (suite *TaskHandlerTestSuite) TestListAndGetTasks() {
	first := suite.createTask()
	suite.createTask()

	code, _ := suite.update(suite.assigneeToken, first.ID, map[string]interface{}{"status": "in_progress"})
	suite.Require().Equal(http.StatusOK, code)

	w := suite.env.do(suite.T(), http.MethodGet, "/api/tasks", suite.otherToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var tasks []dto.TaskDTO
	decode(suite.T(), w, &tasks)
	suite.Len(tasks, 2)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks?status=in_progress", suite.otherToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	decode(suite.T(), w, &tasks)
	suite.Require().Len(tasks, 1)
	suite.Equal(first.ID, tasks[0].ID)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks/user/"+strconv.FormatUint(suite.other.ID, 10), suite.otherToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq("[]", w.Body.String())

	w = suite.env.do(suite.T(), http.MethodGet, suite.taskPath(first.ID), suite.otherToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks/abc", suite.otherToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/tasks", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// TestDeleteTask tests that only admins delete tasks
func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.createTask()

	w := suite.env.do(suite.T(), http.MethodDelete, suite.taskPath(task.ID), suite.leadToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodDelete, suite.taskPath(task.ID), suite.adminToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Task deleted successfully")

	w = suite.env.do(suite.T(), http.MethodGet, suite.taskPath(task.ID), suite.adminToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodDelete, suite.taskPath(task.ID), suite.adminToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestDraftTasksWithoutAI tests the draft endpoint when no API key is set
func (suite *TaskHandlerTestSuite) TestDraftTasksWithoutAI() {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/tasks/draft", suite.assigneeToken, map[string]string{"text": "plan the offsite"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, "/api/tasks/draft", suite.adminToken, map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, "/api/tasks/draft", suite.adminToken, map[string]string{"text": "plan the offsite"})
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

// TestTopPerformers tests the leaderboard response shape
func (suite *TaskHandlerTestSuite) TestTopPerformers() {
	task := suite.createTask()
	code, _ := suite.update(suite.assigneeToken, task.ID, map[string]interface{}{"status": "completed"})
	suite.Require().Equal(http.StatusOK, code)

	w := suite.env.do(suite.T(), http.MethodGet, "/api/stats/top-performers", suite.otherToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp dto.TopPerformersResponse
	decode(suite.T(), w, &resp)
	suite.Require().Len(resp.Weekly, 1)
	suite.Equal(suite.assignee.ID, resp.Weekly[0].UserID)
	suite.Equal("worker", resp.Weekly[0].Username)
	suite.Equal(int64(1), resp.Weekly[0].TasksCompleted)
	suite.Len(resp.Monthly, 1)
	suite.Contains(w.Body.String(), `"tasksCompleted":1`)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
