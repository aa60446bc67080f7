package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// RaciService manages RACI role assignments. The invariant is at most one
// role per (user, task) pair; assigning a role to a pair that already has
// one overwrites it.
type RaciService struct {
	store  storage.Store
	logger Logger
}

func NewRaciService(store storage.Store, logger Logger) *RaciService {
	return &RaciService{
		store:  store,
		logger: logger,
	}
}

// AssignRole assigns a role to a (user, task) pair through a single atomic
// upsert, not a read-then-write, so concurrent assignments for the same
// pair cannot both insert. The last write wins.
func (rs *RaciService) AssignRole(userID, taskID uuid.UUID, role models.RaciRole) (models.RaciAssignment, error) {
	if !role.Valid() {
		return models.RaciAssignment{}, errors.Errorf("invalid RACI role %q", string(role))
	}
	assignment, err := rs.store.UpsertRaciAssignment(models.RaciAssignment{
		UserID: userID,
		TaskID: taskID,
		Role:   role,
	})
	if err != nil {
		rs.logger.Errorf("Failed to assign role '%s' to user %s on task %s: %v", role, userID, taskID, err)
		return models.RaciAssignment{}, err
	}
	rs.logger.Infof("Assigned role '%s' to user %s on task %s", role, userID, taskID)
	return assignment, nil
}

// ListAssignments returns the task's RACI assignments.
func (rs *RaciService) ListAssignments(taskID uuid.UUID) ([]models.RaciAssignment, error) {
	return rs.store.ListRaciAssignments(taskID)
}
