package storage

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
)

// mockStore implements Store with in-memory storage. It enforces the same
// referential and uniqueness constraints as the Postgres schema so service
// tests exercise the real failure modes, and it guards its state with a
// mutex so the upsert stays atomic under concurrent callers.
type mockStore struct {
	mu              sync.Mutex
	users           []models.User
	projects        []models.Project
	tasks           []models.Task
	templates       []models.WorkflowTemplate
	steps           []models.WorkflowStep
	assignments     []models.RaciAssignment
	growthTemplates []models.GrowthTemplate
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveUser(u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.User{}, errors.Wrapf(ErrConflict, "email %q already registered", u.Email)
		}
	}
	u.ID = uuid.New()
	m.users = append(m.users, u)
	return u, nil
}

func (m *mockStore) GetUser(id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, errors.Wrapf(ErrNotFound, "user %s", id)
}

func (m *mockStore) ListUsers() ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, len(m.users))
	copy(users, m.users)
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (m *mockStore) userExists(id uuid.UUID) bool {
	for _, u := range m.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (m *mockStore) projectExists(id uuid.UUID) bool {
	for _, p := range m.projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (m *mockStore) taskIndex(id uuid.UUID) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *mockStore) templateExists(id uuid.UUID) bool {
	for _, t := range m.templates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m *mockStore) SaveProject(p models.Project) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.userExists(p.OwnerID) {
		return models.Project{}, errors.Wrapf(ErrInvalidReference, "owner %s", p.OwnerID)
	}
	p.ID = uuid.New()
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *mockStore) GetProject(id uuid.UUID) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, errors.Wrapf(ErrNotFound, "project %s", id)
}

func (m *mockStore) ListProjects(ownerID uuid.UUID) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var projects []models.Project
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func (m *mockStore) SaveTask(t models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.projectExists(t.ProjectID) {
		return models.Task{}, errors.Wrapf(ErrInvalidReference, "project %s", t.ProjectID)
	}
	if t.AssignedToID != nil && !m.userExists(*t.AssignedToID) {
		return models.Task{}, errors.Wrapf(ErrInvalidReference, "user %s", *t.AssignedToID)
	}
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.StatusNotStarted
	}
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *mockStore) GetTask(id uuid.UUID) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.taskIndex(id); i >= 0 {
		return m.tasks[i], nil
	}
	return models.Task{}, errors.Wrapf(ErrNotFound, "task %s", id)
}

func (m *mockStore) UpdateTaskStatus(id uuid.UUID, status models.TaskStatus) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIndex(id)
	if i < 0 {
		return models.Task{}, errors.Wrapf(ErrNotFound, "task %s", id)
	}
	m.tasks[i].Status = status
	return m.tasks[i], nil
}

func (m *mockStore) LinkJiraTicket(id uuid.UUID, ticketID string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.taskIndex(id)
	if i < 0 {
		return models.Task{}, errors.Wrapf(ErrNotFound, "task %s", id)
	}
	m.tasks[i].JiraTicketID = &ticketID
	return m.tasks[i], nil
}

func (m *mockStore) ListTasks(projectID uuid.UUID) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *mockStore) SaveWorkflowTemplate(t models.WorkflowTemplate) (models.WorkflowTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.userExists(t.CreatedByID) {
		return models.WorkflowTemplate{}, errors.Wrapf(ErrInvalidReference, "user %s", t.CreatedByID)
	}
	t.ID = uuid.New()
	t.Steps = nil
	m.templates = append(m.templates, t)
	return t, nil
}

func (m *mockStore) GetWorkflowTemplate(id uuid.UUID) (models.WorkflowTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.ID == id {
			t.Steps = m.orderedSteps(id)
			return t, nil
		}
	}
	return models.WorkflowTemplate{}, errors.Wrapf(ErrNotFound, "workflow template %s", id)
}

func (m *mockStore) ListWorkflowTemplates() ([]models.WorkflowTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	templates := make([]models.WorkflowTemplate, len(m.templates))
	copy(templates, m.templates)
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (m *mockStore) SaveWorkflowStep(s models.WorkflowStep) (models.WorkflowStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.templateExists(s.TemplateID) {
		return models.WorkflowStep{}, errors.Wrapf(ErrInvalidReference, "workflow template %s", s.TemplateID)
	}
	if s.DependsOnStepID != nil {
		found := false
		for _, existing := range m.steps {
			if existing.ID == *s.DependsOnStepID {
				found = true
				break
			}
		}
		if !found {
			return models.WorkflowStep{}, errors.Wrapf(ErrInvalidReference, "workflow step %s", *s.DependsOnStepID)
		}
	}
	s.ID = uuid.New()
	m.steps = append(m.steps, s)
	return s, nil
}

func (m *mockStore) ListWorkflowSteps(templateID uuid.UUID) ([]models.WorkflowStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderedSteps(templateID), nil
}

// orderedSteps returns the template's steps sorted ascending by step_order.
// Insertion order breaks ties, matching the Postgres scan. Callers must
// hold mu.
func (m *mockStore) orderedSteps(templateID uuid.UUID) []models.WorkflowStep {
	var steps []models.WorkflowStep
	for _, s := range m.steps {
		if s.TemplateID == templateID {
			steps = append(steps, s)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })
	return steps
}

func (m *mockStore) UpsertRaciAssignment(a models.RaciAssignment) (models.RaciAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.userExists(a.UserID) {
		return models.RaciAssignment{}, errors.Wrapf(ErrInvalidReference, "user %s", a.UserID)
	}
	if m.taskIndex(a.TaskID) < 0 {
		return models.RaciAssignment{}, errors.Wrapf(ErrInvalidReference, "task %s", a.TaskID)
	}
	for i, existing := range m.assignments {
		if existing.UserID == a.UserID && existing.TaskID == a.TaskID {
			m.assignments[i].Role = a.Role
			return m.assignments[i], nil
		}
	}
	m.assignments = append(m.assignments, a)
	return a, nil
}

func (m *mockStore) ListRaciAssignments(taskID uuid.UUID) ([]models.RaciAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var assignments []models.RaciAssignment
	for _, a := range m.assignments {
		if a.TaskID == taskID {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

func (m *mockStore) SaveGrowthTemplate(g models.GrowthTemplate) (models.GrowthTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.userExists(g.UserID) {
		return models.GrowthTemplate{}, errors.Wrapf(ErrInvalidReference, "user %s", g.UserID)
	}
	g.ID = uuid.New()
	m.growthTemplates = append(m.growthTemplates, g)
	return g, nil
}
