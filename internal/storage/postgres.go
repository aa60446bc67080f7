package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

const taskColumns = "id, title, project_id, assigned_to_id, status, deadline, jira_ticket_id"

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// mapError converts driver-level failures into the storage sentinels:
// missing rows become ErrNotFound, foreign-key violations (23503) become
// ErrInvalidReference, unique violations (23505) become ErrConflict.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return errors.Wrap(storage.ErrInvalidReference, pqErr.Message)
		case "23505":
			return errors.Wrap(storage.ErrConflict, pqErr.Message)
		}
	}
	return err
}

// SaveUser inserts a user; the email must already be normalized to
// lowercase by the caller.
func (s *PostgresStore) SaveUser(u models.User) (models.User, error) {
	var saved models.User
	err := s.db.QueryRowx(
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, email, password_hash",
		u.Email, u.PasswordHash).StructScan(&saved)
	if err != nil {
		return models.User{}, errors.Wrap(mapError(err), "save user")
	}
	return saved, nil
}

func (s *PostgresStore) GetUser(id uuid.UUID) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, "SELECT id, email, password_hash FROM users WHERE id = $1", id)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers() ([]models.User, error) {
	users := []models.User{}
	err := s.db.Select(&users, "SELECT id, email, password_hash FROM users ORDER BY email")
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *PostgresStore) SaveProject(p models.Project) (models.Project, error) {
	var saved models.Project
	err := s.db.QueryRowx(
		`INSERT INTO projects (name, description, owner_id) VALUES ($1, $2, $3)
		RETURNING id, name, description, deadline, owner_id`,
		p.Name, p.Description, p.OwnerID).StructScan(&saved)
	if err != nil {
		return models.Project{}, errors.Wrap(mapError(err), "save project")
	}
	return saved, nil
}

func (s *PostgresStore) GetProject(id uuid.UUID) (models.Project, error) {
	var p models.Project
	err := s.db.Get(&p, "SELECT id, name, description, deadline, owner_id FROM projects WHERE id = $1", id)
	if err != nil {
		return models.Project{}, mapError(err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ownerID uuid.UUID) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.Select(&projects,
		"SELECT id, name, description, deadline, owner_id FROM projects WHERE owner_id = $1 ORDER BY name", ownerID)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// SaveTask inserts a task; the status column defaults to 'Not Started' in
// the schema.
func (s *PostgresStore) SaveTask(t models.Task) (models.Task, error) {
	var saved models.Task
	err := s.db.QueryRowx(
		"INSERT INTO tasks (title, project_id) VALUES ($1, $2) RETURNING "+taskColumns,
		t.Title, t.ProjectID).StructScan(&saved)
	if err != nil {
		return models.Task{}, errors.Wrap(mapError(err), "save task")
	}
	return saved, nil
}

func (s *PostgresStore) GetTask(id uuid.UUID) (models.Task, error) {
	var t models.Task
	err := s.db.Get(&t, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	if err != nil {
		return models.Task{}, mapError(err)
	}
	return t, nil
}

func (s *PostgresStore) UpdateTaskStatus(id uuid.UUID, status models.TaskStatus) (models.Task, error) {
	var t models.Task
	err := s.db.QueryRowx(
		"UPDATE tasks SET status = $1 WHERE id = $2 RETURNING "+taskColumns,
		status, id).StructScan(&t)
	if err != nil {
		return models.Task{}, errors.Wrap(mapError(err), "update task status")
	}
	return t, nil
}

func (s *PostgresStore) LinkJiraTicket(id uuid.UUID, ticketID string) (models.Task, error) {
	var t models.Task
	err := s.db.QueryRowx(
		"UPDATE tasks SET jira_ticket_id = $1 WHERE id = $2 RETURNING "+taskColumns,
		ticketID, id).StructScan(&t)
	if err != nil {
		return models.Task{}, errors.Wrap(mapError(err), "link jira ticket")
	}
	return t, nil
}

func (s *PostgresStore) ListTasks(projectID uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.Select(&tasks, "SELECT "+taskColumns+" FROM tasks WHERE project_id = $1 ORDER BY id", projectID)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *PostgresStore) SaveWorkflowTemplate(t models.WorkflowTemplate) (models.WorkflowTemplate, error) {
	var saved models.WorkflowTemplate
	err := s.db.QueryRowx(
		`INSERT INTO workflow_templates (name, description, created_by_id) VALUES ($1, $2, $3)
		RETURNING id, name, description, created_by_id`,
		t.Name, t.Description, t.CreatedByID).StructScan(&saved)
	if err != nil {
		return models.WorkflowTemplate{}, errors.Wrap(mapError(err), "save workflow template")
	}
	return saved, nil
}

// GetWorkflowTemplate retrieves a template by ID, including its steps in
// step_order.
func (s *PostgresStore) GetWorkflowTemplate(id uuid.UUID) (models.WorkflowTemplate, error) {
	var t models.WorkflowTemplate
	err := s.db.Get(&t, "SELECT id, name, description, created_by_id FROM workflow_templates WHERE id = $1", id)
	if err != nil {
		return models.WorkflowTemplate{}, mapError(err)
	}
	steps, err := s.ListWorkflowSteps(id)
	if err != nil {
		return models.WorkflowTemplate{}, errors.Wrapf(err, "get workflow template %s", id)
	}
	t.Steps = steps
	return t, nil
}

func (s *PostgresStore) ListWorkflowTemplates() ([]models.WorkflowTemplate, error) {
	templates := []models.WorkflowTemplate{}
	err := s.db.Select(&templates, "SELECT id, name, description, created_by_id FROM workflow_templates ORDER BY name")
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *PostgresStore) SaveWorkflowStep(step models.WorkflowStep) (models.WorkflowStep, error) {
	var saved models.WorkflowStep
	err := s.db.QueryRowx(
		`INSERT INTO workflow_steps (template_id, step_name, step_order, role, depends_on_step_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, template_id, step_name, step_order, role, depends_on_step_id`,
		step.TemplateID, step.StepName, step.StepOrder, step.Role, step.DependsOnStepID).StructScan(&saved)
	if err != nil {
		return models.WorkflowStep{}, errors.Wrap(mapError(err), "save workflow step")
	}
	return saved, nil
}

// ListWorkflowSteps returns the template's steps ascending by step_order.
// The instantiation engine relies on this ordering.
func (s *PostgresStore) ListWorkflowSteps(templateID uuid.UUID) ([]models.WorkflowStep, error) {
	steps := []models.WorkflowStep{}
	err := s.db.Select(&steps,
		`SELECT id, template_id, step_name, step_order, role, depends_on_step_id
		FROM workflow_steps WHERE template_id = $1 ORDER BY step_order ASC`, templateID)
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// UpsertRaciAssignment inserts or overwrites the role for a (user, task)
// pair in a single statement, so concurrent assignments for the same pair
// serialize inside Postgres and never produce a duplicate row.
func (s *PostgresStore) UpsertRaciAssignment(a models.RaciAssignment) (models.RaciAssignment, error) {
	var saved models.RaciAssignment
	err := s.db.QueryRowx(
		`INSERT INTO raci_assignments (user_id, task_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, task_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING user_id, task_id, role`,
		a.UserID, a.TaskID, a.Role).StructScan(&saved)
	if err != nil {
		return models.RaciAssignment{}, errors.Wrap(mapError(err), "upsert raci assignment")
	}
	return saved, nil
}

func (s *PostgresStore) ListRaciAssignments(taskID uuid.UUID) ([]models.RaciAssignment, error) {
	assignments := []models.RaciAssignment{}
	err := s.db.Select(&assignments,
		"SELECT user_id, task_id, role FROM raci_assignments WHERE task_id = $1", taskID)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *PostgresStore) SaveGrowthTemplate(g models.GrowthTemplate) (models.GrowthTemplate, error) {
	var saved models.GrowthTemplate
	err := s.db.QueryRowx(
		`INSERT INTO growth_templates (user_id, core_competencies, developing_skills, recent_achievements, how_to_contribute)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, core_competencies, developing_skills, recent_achievements, how_to_contribute`,
		g.UserID, g.CoreCompetencies, g.DevelopingSkills, g.RecentAchievements, g.HowToContribute).StructScan(&saved)
	if err != nil {
		return models.GrowthTemplate{}, errors.Wrap(mapError(err), "save growth template")
	}
	return saved, nil
}
