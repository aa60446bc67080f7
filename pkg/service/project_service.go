package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// ProjectService manages projects. Project deletion is unsupported.
type ProjectService struct {
	store  storage.Store
	logger Logger
}

func NewProjectService(store storage.Store, logger Logger) *ProjectService {
	return &ProjectService{
		store:  store,
		logger: logger,
	}
}

// CreateProject creates a project owned by the acting user.
func (ps *ProjectService) CreateProject(actorID uuid.UUID, name string, description *string) (models.Project, error) {
	if name == "" {
		return models.Project{}, errors.New("project name cannot be empty")
	}
	if len(name) > 100 {
		return models.Project{}, errors.New("project name too long (max 100 characters)")
	}
	project, err := ps.store.SaveProject(models.Project{
		Name:        name,
		Description: description,
		OwnerID:     actorID,
	})
	if err != nil {
		ps.logger.Errorf("Failed to create project '%s': %v", name, err)
		return models.Project{}, err
	}
	ps.logger.Infof("Created project '%s' with ID %s", name, project.ID)
	return project, nil
}

// GetProject retrieves a single project.
func (ps *ProjectService) GetProject(projectID uuid.UUID) (models.Project, error) {
	return ps.store.GetProject(projectID)
}

// ListProjects returns the projects owned by the given user.
func (ps *ProjectService) ListProjects(ownerID uuid.UUID) ([]models.Project, error) {
	return ps.store.ListProjects(ownerID)
}
