package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lapislazuli21/Clarika/internal/ai"
	internal_http "github.com/lapislazuli21/Clarika/internal/http"
	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

type stubScoper struct {
	reply string
	err   error
}

func (s stubScoper) SuggestTasks(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

// newServer seeds the fixed actor identity so FK checks on owner_id pass.
func newServer(t *testing.T, store storage.Store, scoper internal_http.TaskScoper) *httptest.Server {
	t.Helper()
	actor, err := store.SaveUser(models.User{Email: "actor@clarika.dev", PasswordHash: "x"})
	assert.NoError(t, err)
	server := internal_http.NewServer(store, scoper, internal_http.FixedIdentity{UserID: actor.ID})
	return httptest.NewServer(server.Router())
}

func postJSON(t *testing.T, client *http.Client, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	assert.NoError(t, err)
	return resp
}

func putJSON(t *testing.T, client *http.Client, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewBufferString(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	assert.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestHealth(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Clarika server is running", string(body))
}

func TestCreateProjectAndTask(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{"name": "Mobile App"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var project models.Project
	decode(t, resp, &project)
	assert.Equal(t, "Mobile App", project.Name)

	resp = postJSON(t, srv.Client(), srv.URL+"/tasks",
		fmt.Sprintf(`{"title": "Design", "project_id": "%s"}`, project.ID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decode(t, resp, &task)
	assert.Equal(t, "Design", task.Title)
	assert.Equal(t, models.StatusNotStarted, task.Status)
	assert.Equal(t, project.ID, task.ProjectID)
}

func TestCreateProject_MissingName(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetTaskStatus(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{"name": "Mobile App"}`)
	var project models.Project
	decode(t, resp, &project)
	resp = postJSON(t, srv.Client(), srv.URL+"/tasks",
		fmt.Sprintf(`{"title": "Design", "project_id": "%s"}`, project.ID))
	var task models.Task
	decode(t, resp, &task)

	resp = putJSON(t, srv.Client(), srv.URL+"/tasks/"+task.ID.String()+"/status", `{"status": "Completed"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Task
	decode(t, resp, &updated)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// Reopening a completed task is allowed.
	resp = putJSON(t, srv.Client(), srv.URL+"/tasks/"+task.ID.String()+"/status", `{"status": "Blocked"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Storage labels are not valid wire values.
	resp = putJSON(t, srv.Client(), srv.URL+"/tasks/"+task.ID.String()+"/status", `{"status": "Under Review"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSetTaskStatus_NotFound(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := putJSON(t, srv.Client(), srv.URL+"/tasks/"+uuid.NewString()+"/status", `{"status": "Completed"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedIdentifier(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := putJSON(t, srv.Client(), srv.URL+"/tasks/not-a-uuid/status", `{"status": "Completed"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "malformed identifier")
}

func TestAssignRaciRole_Upsert(t *testing.T) {
	store := storage.NewMockStore()
	srv := newServer(t, store, stubScoper{})
	defer srv.Close()

	users, _ := store.ListUsers()
	actor := users[0]
	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{"name": "Mobile App"}`)
	var project models.Project
	decode(t, resp, &project)
	resp = postJSON(t, srv.Client(), srv.URL+"/tasks",
		fmt.Sprintf(`{"title": "Design", "project_id": "%s"}`, project.ID))
	var task models.Task
	decode(t, resp, &task)

	resp = postJSON(t, srv.Client(), srv.URL+"/raci",
		fmt.Sprintf(`{"user_id": "%s", "task_id": "%s", "role": "Responsible"}`, actor.ID, task.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.Client(), srv.URL+"/raci",
		fmt.Sprintf(`{"user_id": "%s", "task_id": "%s", "role": "Accountable"}`, actor.ID, task.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var assignment models.RaciAssignment
	decode(t, resp, &assignment)
	assert.Equal(t, models.RoleAccountable, assignment.Role)

	assignments, err := store.ListRaciAssignments(task.ID)
	assert.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestApplyTemplateEndToEnd(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{"name": "Mobile App"}`)
	var project models.Project
	decode(t, resp, &project)

	resp = postJSON(t, srv.Client(), srv.URL+"/templates", `{"name": "Launch"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var template models.WorkflowTemplate
	decode(t, resp, &template)

	for i, name := range []string{"Design", "Build", "Review"} {
		resp = postJSON(t, srv.Client(), srv.URL+"/templates/"+template.ID.String()+"/steps",
			fmt.Sprintf(`{"step_name": "%s", "step_order": %d}`, name, i+1))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp = postJSON(t, srv.Client(), srv.URL+"/templates/"+template.ID.String()+"/apply",
		fmt.Sprintf(`{"project_id": "%s"}`, project.ID))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var tasks []models.Task
	decode(t, resp, &tasks)
	assert.Len(t, tasks, 3)
	assert.Equal(t, "Design", tasks[0].Title)
	assert.Equal(t, "Build", tasks[1].Title)
	assert.Equal(t, "Review", tasks[2].Title)

	// The created tasks are visible on the project.
	resp, err := srv.Client().Get(srv.URL + "/projects/" + project.ID.String() + "/tasks")
	assert.NoError(t, err)
	var listed []models.Task
	decode(t, resp, &listed)
	assert.Len(t, listed, 3)
}

func TestApplyTemplate_MissingTemplate(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/projects", `{"name": "Mobile App"}`)
	var project models.Project
	decode(t, resp, &project)

	resp = postJSON(t, srv.Client(), srv.URL+"/templates/"+uuid.NewString()+"/apply",
		fmt.Sprintf(`{"project_id": "%s"}`, project.ID))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScopeProject(t *testing.T) {
	reply := `["Design UI", "Build API", "Write tests"]`
	srv := newServer(t, storage.NewMockStore(), stubScoper{reply: reply})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/ai/scope", `{"description": "Build a mobile app"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Suggestions string `json:"suggestions"`
	}
	decode(t, resp, &body)
	assert.Equal(t, reply, body.Suggestions)
}

func TestScopeProject_UpstreamFailure(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{err: errors.Wrap(ai.ErrUpstream, "API error: 500")})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/ai/scope", `{"description": "Build a mobile app"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRegisterUser(t *testing.T) {
	srv := newServer(t, storage.NewMockStore(), stubScoper{})
	defer srv.Close()

	resp := postJSON(t, srv.Client(), srv.URL+"/users", `{"email": "Ada@Clarika.DEV", "password": "pw"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var user models.User
	decode(t, resp, &user)
	assert.Equal(t, "ada@clarika.dev", user.Email)

	// Duplicate registration conflicts.
	resp = postJSON(t, srv.Client(), srv.URL+"/users", `{"email": "ada@clarika.dev", "password": "pw"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
