package storage

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
)

// Sentinel errors surfaced by every Store implementation. Callers match
// them with errors.Is.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference means a foreign-key target does not exist.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrConflict means a uniqueness constraint was violated.
	ErrConflict = errors.New("conflict")
)

// Store defines the storage operations for Clarika. Save operations return
// the persisted row with its generated identifier and defaults filled in.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// User operations
	SaveUser(u models.User) (models.User, error)
	GetUser(id uuid.UUID) (models.User, error)
	ListUsers() ([]models.User, error)

	// Project operations
	SaveProject(p models.Project) (models.Project, error)
	GetProject(id uuid.UUID) (models.Project, error)
	ListProjects(ownerID uuid.UUID) ([]models.Project, error)

	// Task operations
	SaveTask(t models.Task) (models.Task, error)
	GetTask(id uuid.UUID) (models.Task, error)
	UpdateTaskStatus(id uuid.UUID, status models.TaskStatus) (models.Task, error)
	LinkJiraTicket(id uuid.UUID, ticketID string) (models.Task, error)
	ListTasks(projectID uuid.UUID) ([]models.Task, error)

	// Workflow template operations
	SaveWorkflowTemplate(t models.WorkflowTemplate) (models.WorkflowTemplate, error)
	GetWorkflowTemplate(id uuid.UUID) (models.WorkflowTemplate, error)
	ListWorkflowTemplates() ([]models.WorkflowTemplate, error)
	SaveWorkflowStep(s models.WorkflowStep) (models.WorkflowStep, error)
	ListWorkflowSteps(templateID uuid.UUID) ([]models.WorkflowStep, error)

	// RACI operations. UpsertRaciAssignment is a single atomic
	// insert-or-update keyed on (user_id, task_id); concurrent writers for
	// the same pair serialize so the last write wins and at most one row is
	// ever visible.
	UpsertRaciAssignment(a models.RaciAssignment) (models.RaciAssignment, error)
	ListRaciAssignments(taskID uuid.UUID) ([]models.RaciAssignment, error)

	// Growth template operations
	SaveGrowthTemplate(g models.GrowthTemplate) (models.GrowthTemplate, error)
}
