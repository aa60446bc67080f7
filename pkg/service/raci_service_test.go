package service_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/service"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

func TestAssignRole_UpsertKeepsOneRowPerPair(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewRaciService(store, logger{})
	user, project := fixture(t, store)
	task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
	assert.NoError(t, err)

	first, err := svc.AssignRole(user.ID, task.ID, models.RoleResponsible)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleResponsible, first.Role)

	second, err := svc.AssignRole(user.ID, task.ID, models.RoleAccountable)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAccountable, second.Role)

	assignments, err := svc.ListAssignments(task.ID)
	assert.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, models.RoleAccountable, assignments[0].Role)
	assert.Equal(t, user.ID, assignments[0].UserID)
	assert.Equal(t, task.ID, assignments[0].TaskID)
}

func TestAssignRole_DifferentUsersSameTask(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewRaciService(store, logger{})
	owner, project := fixture(t, store)
	other, err := storeSaveUser(store, "other@clarika.dev")
	assert.NoError(t, err)
	task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
	assert.NoError(t, err)

	_, err = svc.AssignRole(owner.ID, task.ID, models.RoleResponsible)
	assert.NoError(t, err)
	_, err = svc.AssignRole(other.ID, task.ID, models.RoleResponsible)
	assert.NoError(t, err)

	assignments, err := svc.ListAssignments(task.ID)
	assert.NoError(t, err)
	assert.Len(t, assignments, 2)
}

func TestAssignRole_InvalidReferences(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewRaciService(store, logger{})
	user, project := fixture(t, store)
	task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
	assert.NoError(t, err)

	_, err = svc.AssignRole(uuid.New(), task.ID, models.RoleConsulted)
	assert.ErrorIs(t, err, storage.ErrInvalidReference)

	_, err = svc.AssignRole(user.ID, uuid.New(), models.RoleConsulted)
	assert.ErrorIs(t, err, storage.ErrInvalidReference)
}

func TestAssignRole_InvalidRole(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewRaciService(store, logger{})
	user, project := fixture(t, store)
	task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
	assert.NoError(t, err)

	_, err = svc.AssignRole(user.ID, task.ID, models.RaciRole("Supervisor"))
	assert.Error(t, err)
}

// Concurrent assignments for the same pair must never leave more than one
// row, whichever write wins.
func TestAssignRole_ConcurrentSamePair(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewRaciService(store, logger{})
	user, project := fixture(t, store)
	task, err := store.SaveTask(models.Task{Title: "Design", ProjectID: project.ID})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	for _, role := range models.AllRaciRoles() {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(role models.RaciRole) {
				defer wg.Done()
				_, err := svc.AssignRole(user.ID, task.ID, role)
				assert.NoError(t, err)
			}(role)
		}
	}
	wg.Wait()

	assignments, err := svc.ListAssignments(task.ID)
	assert.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.True(t, assignments[0].Role.Valid())
}
