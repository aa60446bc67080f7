package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// TaskService creates tasks and applies field-level updates to them.
type TaskService struct {
	store  storage.Store
	logger Logger
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// CreateTask creates a task in the given project with status NotStarted.
func (ts *TaskService) CreateTask(title string, projectID uuid.UUID) (models.Task, error) {
	if title == "" {
		return models.Task{}, errors.New("task title cannot be empty")
	}
	task, err := ts.store.SaveTask(models.Task{
		Title:     title,
		ProjectID: projectID,
	})
	if err != nil {
		ts.logger.Errorf("Failed to create task '%s' in project %s: %v", title, projectID, err)
		return models.Task{}, err
	}
	ts.logger.Infof("Created task '%s' with ID %s in project %s", title, task.ID, projectID)
	return task, nil
}

// SetStatus moves a task to the given status. The status graph is
// unconstrained: every status is reachable from every other status in one
// step, including a no-op transition to the current value. Task status
// reflects human judgment, so no workflow policy is encoded here.
func (ts *TaskService) SetStatus(taskID uuid.UUID, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, errors.Errorf("invalid task status %q", string(status))
	}
	task, err := ts.store.UpdateTaskStatus(taskID, status)
	if err != nil {
		ts.logger.Errorf("Failed to update status of task %s to '%s': %v", taskID, status, err)
		return models.Task{}, err
	}
	ts.logger.Infof("Updated task %s to status '%s'", taskID, status)
	return task, nil
}

// LinkJiraTicket records an external Jira ticket reference on a task.
func (ts *TaskService) LinkJiraTicket(taskID uuid.UUID, ticketID string) (models.Task, error) {
	if ticketID == "" {
		return models.Task{}, errors.New("jira ticket id cannot be empty")
	}
	task, err := ts.store.LinkJiraTicket(taskID, ticketID)
	if err != nil {
		ts.logger.Errorf("Failed to link ticket '%s' to task %s: %v", ticketID, taskID, err)
		return models.Task{}, err
	}
	ts.logger.Infof("Linked ticket '%s' to task %s", ticketID, taskID)
	return task, nil
}

// GetTask retrieves a single task.
func (ts *TaskService) GetTask(taskID uuid.UUID) (models.Task, error) {
	return ts.store.GetTask(taskID)
}

// ListTasks returns the project's tasks.
func (ts *TaskService) ListTasks(projectID uuid.UUID) ([]models.Task, error) {
	return ts.store.ListTasks(projectID)
}
