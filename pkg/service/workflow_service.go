package service

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/storage"
)

// WorkflowService manages workflow templates and instantiates them into
// project task lists.
type WorkflowService struct {
	store  storage.Store
	logger Logger
}

func NewWorkflowService(store storage.Store, logger Logger) *WorkflowService {
	return &WorkflowService{
		store:  store,
		logger: logger,
	}
}

// CreateTemplate creates an empty workflow template owned by the acting
// user.
func (ws *WorkflowService) CreateTemplate(actorID uuid.UUID, name string, description *string) (models.WorkflowTemplate, error) {
	if name == "" {
		return models.WorkflowTemplate{}, errors.New("template name cannot be empty")
	}
	if len(name) > 100 {
		return models.WorkflowTemplate{}, errors.New("template name too long (max 100 characters)")
	}
	template, err := ws.store.SaveWorkflowTemplate(models.WorkflowTemplate{
		Name:        name,
		Description: description,
		CreatedByID: actorID,
	})
	if err != nil {
		ws.logger.Errorf("Failed to create template '%s': %v", name, err)
		return models.WorkflowTemplate{}, err
	}
	ws.logger.Infof("Created workflow template '%s' with ID %s", name, template.ID)
	return template, nil
}

// AddStep appends a step to a template. StepOrder is a sort key; values do
// not need to be unique or contiguous. DependsOnStepID, when set, must
// reference an existing step and is stored as advisory metadata only.
func (ws *WorkflowService) AddStep(templateID uuid.UUID, stepName string, stepOrder int, role *string, dependsOnStepID *uuid.UUID) (models.WorkflowStep, error) {
	if stepName == "" {
		return models.WorkflowStep{}, errors.New("step name cannot be empty")
	}
	step, err := ws.store.SaveWorkflowStep(models.WorkflowStep{
		TemplateID:      templateID,
		StepName:        stepName,
		StepOrder:       stepOrder,
		Role:            role,
		DependsOnStepID: dependsOnStepID,
	})
	if err != nil {
		ws.logger.Errorf("Failed to add step '%s' to template %s: %v", stepName, templateID, err)
		return models.WorkflowStep{}, err
	}
	ws.logger.Infof("Added step '%s' (order %d) to template %s", stepName, stepOrder, templateID)
	return step, nil
}

// GetTemplate retrieves a template with its steps in step order.
func (ws *WorkflowService) GetTemplate(templateID uuid.UUID) (models.WorkflowTemplate, error) {
	return ws.store.GetWorkflowTemplate(templateID)
}

// ListTemplates returns all templates, ordered by name.
func (ws *WorkflowService) ListTemplates() ([]models.WorkflowTemplate, error) {
	return ws.store.ListWorkflowTemplates()
}

// ApplyTemplate instantiates a template into a project: it reads the
// template's steps ascending by step order and creates one task per step,
// titled after the step, strictly sequentially in that order. The returned
// slice holds the created tasks in creation order.
//
// Each task creation is an independent persisted write; there is no
// transaction wrapping the whole instantiation. A failure partway through
// returns the tasks created before the failing step together with the
// error, and nothing is rolled back. Re-applying a template is additive:
// it creates a second full set of tasks rather than detecting a prior
// application, so callers needing idempotence must track applied templates
// themselves.
//
// A template with zero steps yields an empty slice, not an error. A
// missing template yields storage.ErrNotFound with no tasks created. A
// step's depends_on_step_id does not gate creation order beyond what
// step_order already encodes.
func (ws *WorkflowService) ApplyTemplate(templateID, projectID uuid.UUID) ([]models.Task, error) {
	if _, err := ws.store.GetWorkflowTemplate(templateID); err != nil {
		ws.logger.Errorf("Failed to apply template %s: %v", templateID, err)
		return nil, errors.Wrapf(err, "apply template %s", templateID)
	}

	steps, err := ws.store.ListWorkflowSteps(templateID)
	if err != nil {
		ws.logger.Errorf("Failed to fetch steps of template %s: %v", templateID, err)
		return nil, errors.Wrapf(err, "fetch steps of template %s", templateID)
	}

	created := make([]models.Task, 0, len(steps))
	for _, step := range steps {
		task, err := ws.store.SaveTask(models.Task{
			Title:     step.StepName,
			ProjectID: projectID,
		})
		if err != nil {
			ws.logger.Errorf("Failed to create task for step '%s' of template %s after %d tasks: %v",
				step.StepName, templateID, len(created), err)
			return created, errors.Wrapf(err, "create task for step %q", step.StepName)
		}
		created = append(created, task)
	}

	ws.logger.Infof("Applied template %s to project %s, created %d tasks", templateID, projectID, len(created))
	return created, nil
}
