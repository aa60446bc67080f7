package storage_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	internal_storage "github.com/lapislazuli21/Clarika/internal/storage"
	"github.com/lapislazuli21/Clarika/internal/testutil"
	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store; rolling back in cleanup keeps
	// the subtests independent.
	newTxStore := func(t *testing.T) *internal_storage.PostgresStore {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { _ = txStore.Rollback() })
		return txStore.(*internal_storage.PostgresStore)
	}

	saveUser := func(t *testing.T, store storage.Store, email string) models.User {
		user, err := store.SaveUser(models.User{Email: email, PasswordHash: "hash"})
		assert.NoError(t, err)
		return user
	}

	saveProject := func(t *testing.T, store storage.Store, owner models.User) models.Project {
		project, err := store.SaveProject(models.Project{Name: "Mobile App", OwnerID: owner.ID})
		assert.NoError(t, err)
		return project
	}

	t.Run("SaveAndGetUser", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		assert.NotEqual(t, uuid.Nil, user.ID)

		fetched, err := store.GetUser(user.ID)
		assert.NoError(t, err)
		assert.Equal(t, "ada@clarika.dev", fetched.Email)

		_, err = store.GetUser(uuid.New())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		store := newTxStore(t)
		saveUser(t, store, "ada@clarika.dev")
		_, err := store.SaveUser(models.User{Email: "ada@clarika.dev", PasswordHash: "other"})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("SaveProjectUnknownOwner", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.SaveProject(models.Project{Name: "Mobile App", OwnerID: uuid.New()})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
	})

	t.Run("SaveTaskDefaultsStatus", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		project := saveProject(t, store, user)

		task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
		assert.NoError(t, err)
		assert.Equal(t, models.StatusNotStarted, task.Status)
		assert.Nil(t, task.JiraTicketID)
	})

	t.Run("SaveTaskUnknownProject", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.SaveTask(models.Task{Title: "Design", ProjectID: uuid.New()})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
	})

	t.Run("UpdateTaskStatusRoundTripsLabels", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		project := saveProject(t, store, user)
		task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
		assert.NoError(t, err)

		// Every status survives the trip through the DB enum labels.
		for _, status := range models.AllTaskStatuses() {
			updated, err := store.UpdateTaskStatus(task.ID, status)
			assert.NoError(t, err)
			assert.Equal(t, status, updated.Status)

			fetched, err := store.GetTask(task.ID)
			assert.NoError(t, err)
			assert.Equal(t, status, fetched.Status)
		}

		_, err = store.UpdateTaskStatus(uuid.New(), models.StatusCompleted)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("LinkJiraTicket", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		project := saveProject(t, store, user)
		task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
		assert.NoError(t, err)

		updated, err := store.LinkJiraTicket(task.ID, "CLAR-42")
		assert.NoError(t, err)
		assert.Equal(t, "CLAR-42", *updated.JiraTicketID)
	})

	t.Run("RaciUpsertKeepsOneRow", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		project := saveProject(t, store, user)
		task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
		assert.NoError(t, err)

		first, err := store.UpsertRaciAssignment(models.RaciAssignment{
			UserID: user.ID, TaskID: task.ID, Role: models.RoleResponsible,
		})
		assert.NoError(t, err)
		assert.Equal(t, models.RoleResponsible, first.Role)

		second, err := store.UpsertRaciAssignment(models.RaciAssignment{
			UserID: user.ID, TaskID: task.ID, Role: models.RoleAccountable,
		})
		assert.NoError(t, err)
		assert.Equal(t, models.RoleAccountable, second.Role)

		assignments, err := store.ListRaciAssignments(task.ID)
		assert.NoError(t, err)
		assert.Len(t, assignments, 1)
		assert.Equal(t, models.RoleAccountable, assignments[0].Role)
	})

	t.Run("RaciUpsertUnknownReferences", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		project := saveProject(t, store, user)
		task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
		assert.NoError(t, err)

		_, err = store.UpsertRaciAssignment(models.RaciAssignment{
			UserID: uuid.New(), TaskID: task.ID, Role: models.RoleInformed,
		})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)

		_, err = store.UpsertRaciAssignment(models.RaciAssignment{
			UserID: user.ID, TaskID: uuid.New(), Role: models.RoleInformed,
		})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
	})

	t.Run("WorkflowStepsOrderedScan", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")

		template, err := store.SaveWorkflowTemplate(models.WorkflowTemplate{Name: "Launch", CreatedByID: user.ID})
		assert.NoError(t, err)

		// Inserted out of order; the scan must come back in step_order.
		for _, step := range []struct {
			name  string
			order int
		}{{"Review", 3}, {"Design", 1}, {"Build", 2}} {
			_, err := store.SaveWorkflowStep(models.WorkflowStep{
				TemplateID: template.ID, StepName: step.name, StepOrder: step.order,
			})
			assert.NoError(t, err)
		}

		steps, err := store.ListWorkflowSteps(template.ID)
		assert.NoError(t, err)
		assert.Len(t, steps, 3)
		assert.Equal(t, "Design", steps[0].StepName)
		assert.Equal(t, "Build", steps[1].StepName)
		assert.Equal(t, "Review", steps[2].StepName)

		fetched, err := store.GetWorkflowTemplate(template.ID)
		assert.NoError(t, err)
		assert.Len(t, fetched.Steps, 3)
	})

	t.Run("WorkflowStepDependency", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")
		template, err := store.SaveWorkflowTemplate(models.WorkflowTemplate{Name: "Launch", CreatedByID: user.ID})
		assert.NoError(t, err)

		build, err := store.SaveWorkflowStep(models.WorkflowStep{
			TemplateID: template.ID, StepName: "Build", StepOrder: 1,
		})
		assert.NoError(t, err)

		review, err := store.SaveWorkflowStep(models.WorkflowStep{
			TemplateID: template.ID, StepName: "Review", StepOrder: 2, DependsOnStepID: &build.ID,
		})
		assert.NoError(t, err)
		assert.Equal(t, build.ID, *review.DependsOnStepID)

		missing := uuid.New()
		_, err = store.SaveWorkflowStep(models.WorkflowStep{
			TemplateID: template.ID, StepName: "Ship", StepOrder: 3, DependsOnStepID: &missing,
		})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.GetWorkflowTemplate(uuid.New())
		assert.ErrorIs(t, err, storage.ErrNotFound)

		steps, err := store.ListWorkflowSteps(uuid.New())
		assert.NoError(t, err)
		assert.Empty(t, steps)
	})

	t.Run("GrowthTemplate", func(t *testing.T) {
		store := newTxStore(t)
		user := saveUser(t, store, "ada@clarika.dev")

		template, err := store.SaveGrowthTemplate(models.GrowthTemplate{
			UserID:             user.ID,
			CoreCompetencies:   "Go, SQL",
			DevelopingSkills:   "Kubernetes",
			RecentAchievements: "Shipped v2",
			HowToContribute:    "Mentoring",
		})
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, template.ID)
	})
}
