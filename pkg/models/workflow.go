package models

import "github.com/google/uuid"

// WorkflowTemplate is a named, reusable ordered list of steps that can be
// instantiated into a project's task list.
type WorkflowTemplate struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description *string        `json:"description,omitempty" db:"description"`
	CreatedByID uuid.UUID      `json:"created_by_id" db:"created_by_id"`
	Steps       []WorkflowStep `json:"steps,omitempty"` // populated on single-template reads
}

// WorkflowStep is one ordered entry in a template; it becomes one task
// upon instantiation. StepOrder is a sort key, not an index: values are
// not required to be unique or contiguous. Role is a free-text suggestion,
// not a RaciRole. DependsOnStepID is advisory metadata and does not gate
// creation order.
type WorkflowStep struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TemplateID      uuid.UUID  `json:"template_id" db:"template_id"`
	StepName        string     `json:"step_name" db:"step_name"`
	StepOrder       int        `json:"step_order" db:"step_order"`
	Role            *string    `json:"role,omitempty" db:"role"`
	DependsOnStepID *uuid.UUID `json:"depends_on_step_id,omitempty" db:"depends_on_step_id"`
}
