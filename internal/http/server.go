package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/lapislazuli21/Clarika/internal/ai"
	"github.com/lapislazuli21/Clarika/internal/log"
	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/service"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// TaskScoper is the slice of the AI collaborator the server needs.
type TaskScoper interface {
	SuggestTasks(ctx context.Context, description string) (string, error)
}

// Server wires the services to the REST surface.
type Server struct {
	users     *service.UserService
	projects  *service.ProjectService
	tasks     *service.TaskService
	raci      *service.RaciService
	workflows *service.WorkflowService
	scoper    TaskScoper
	identity  IdentityProvider
}

func NewServer(store storage.Store, scoper TaskScoper, identity IdentityProvider) *Server {
	logger := log.GetLogger()
	return &Server{
		users:     service.NewUserService(store, logger),
		projects:  service.NewProjectService(store, logger),
		tasks:     service.NewTaskService(store, logger),
		raci:      service.NewRaciService(store, logger),
		workflows: service.NewWorkflowService(store, logger),
		scoper:    scoper,
		identity:  identity,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/users", s.handleRegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)

	r.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	r.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/tasks", s.handleListProjectTasks).Methods(http.MethodGet)

	r.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/status", s.handleSetTaskStatus).Methods(http.MethodPut)
	r.HandleFunc("/tasks/{id}/jira", s.handleLinkJiraTicket).Methods(http.MethodPut)

	r.HandleFunc("/raci", s.handleAssignRaciRole).Methods(http.MethodPost)

	r.HandleFunc("/templates", s.handleCreateTemplate).Methods(http.MethodPost)
	r.HandleFunc("/templates", s.handleListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}", s.handleGetTemplate).Methods(http.MethodGet)
	r.HandleFunc("/templates/{id}/steps", s.handleAddStep).Methods(http.MethodPost)
	r.HandleFunc("/templates/{id}/apply", s.handleApplyTemplate).Methods(http.MethodPost)

	r.HandleFunc("/ai/scope", s.handleScopeProject).Methods(http.MethodPost)

	r.HandleFunc("/growth-templates", s.handleCreateGrowthTemplate).Methods(http.MethodPost)
	return r
}

// StartServer runs the REST API on the given port.
func StartServer(port, allowedOrigin string, store storage.Store, scoper TaskScoper) error {
	server := NewServer(store, scoper, FixedIdentity{UserID: DefaultActorID})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		MaxAge:         3600,
	})

	log.GetLogger().Infof("Starting Clarika server on :%s", port)
	return http.ListenAndServe(":"+port, c.Handler(server.Router()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "Clarika server is running")
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'email' or 'password' parameter"))
		return
	}
	user, err := s.users.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.users.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.identity.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'name' parameter"))
		return
	}
	project, err := s.projects.CreateProject(actorID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.identity.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	projects, err := s.projects.ListProjects(actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := s.projects.GetProject(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleListProjectTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tasks, err := s.tasks.ListTasks(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string `json:"title"`
		ProjectID string `json:"project_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	projectID, ok := parseID(w, req.ProjectID)
	if !ok {
		return
	}
	if req.Title == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'title' parameter"))
		return
	}
	task, err := s.tasks.CreateTask(req.Title, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.tasks.SetStatus(id, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleLinkJiraTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		JiraTicketID string `json:"jira_ticket_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.JiraTicketID == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'jira_ticket_id' parameter"))
		return
	}
	task, err := s.tasks.LinkJiraTicket(id, req.JiraTicketID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleAssignRaciRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		TaskID string `json:"task_id"`
		Role   string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := parseID(w, req.UserID)
	if !ok {
		return
	}
	taskID, ok := parseID(w, req.TaskID)
	if !ok {
		return
	}
	role, err := models.ParseRaciRole(req.Role)
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	assignment, err := s.raci.AssignRole(userID, taskID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.identity.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'name' parameter"))
		return
	}
	template, err := s.workflows.CreateTemplate(actorID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	templates, err := s.workflows.ListTemplates()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	template, err := s.workflows.GetTemplate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (s *Server) handleAddStep(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		StepName        string  `json:"step_name"`
		StepOrder       int     `json:"step_order"`
		Role            *string `json:"role,omitempty"`
		DependsOnStepID *string `json:"depends_on_step_id,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var dependsOn *uuid.UUID
	if req.DependsOnStepID != nil {
		id, ok := parseID(w, *req.DependsOnStepID)
		if !ok {
			return
		}
		dependsOn = &id
	}
	if req.StepName == "" {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("missing 'step_name' parameter"))
		return
	}
	step, err := s.workflows.AddStep(templateID, req.StepName, req.StepOrder, req.Role, dependsOn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

// handleApplyTemplate instantiates a template into a project. On a partial
// failure the tasks created before the failing step stay persisted;
// clients should re-query the project's task list to see what was created.
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	projectID, ok := parseID(w, req.ProjectID)
	if !ok {
		return
	}
	tasks, err := s.workflows.ApplyTemplate(templateID, projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tasks)
}

func (s *Server) handleScopeProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	suggestions, err := s.scoper.SuggestTasks(r.Context(), req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	// The suggestions are raw, unvalidated text from the collaborator; no
	// tasks are created here.
	writeJSON(w, http.StatusOK, map[string]string{"suggestions": suggestions})
}

func (s *Server) handleCreateGrowthTemplate(w http.ResponseWriter, r *http.Request) {
	actorID, err := s.identity.CurrentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		CoreCompetencies   string `json:"core_competencies"`
		DevelopingSkills   string `json:"developing_skills"`
		RecentAchievements string `json:"recent_achievements"`
		HowToContribute    string `json:"how_to_contribute"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	template, err := s.users.CreateGrowthTemplate(actorID, req.CoreCompetencies, req.DevelopingSkills, req.RecentAchievements, req.HowToContribute)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	return parseID(w, mux.Vars(r)[name])
}

func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "malformed identifier %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps service failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeErrorStatus(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrInvalidReference):
		writeErrorStatus(w, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrConflict):
		writeErrorStatus(w, http.StatusConflict, err)
	case errors.Is(err, ai.ErrUpstream):
		writeErrorStatus(w, http.StatusBadGateway, err)
	default:
		writeErrorStatus(w, http.StatusInternalServerError, err)
	}
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	log.GetLogger().Errorf("Request failed: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
