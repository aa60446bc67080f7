package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TaskStatus is the lifecycle state of a task. The status graph is
// unconstrained: any value may move to any other value in a single step,
// including back from Completed.
type TaskStatus string

const (
	StatusNotStarted  TaskStatus = "NotStarted"
	StatusInProgress  TaskStatus = "InProgress"
	StatusBlocked     TaskStatus = "Blocked"
	StatusUnderReview TaskStatus = "UnderReview"
	StatusDeprecated  TaskStatus = "Deprecated"
	StatusCompleted   TaskStatus = "Completed"
)

// statusLabels maps each status to the exact string stored in the
// task_status database enum. statusFromLabel is its inverse; both sides
// must stay one-to-one so values round-trip exactly.
var statusLabels = map[TaskStatus]string{
	StatusNotStarted:  "Not Started",
	StatusInProgress:  "In Progress",
	StatusBlocked:     "Blocked",
	StatusUnderReview: "Under Review",
	StatusDeprecated:  "Deprecated",
	StatusCompleted:   "Completed",
}

var statusFromLabel = func() map[string]TaskStatus {
	m := make(map[string]TaskStatus, len(statusLabels))
	for s, label := range statusLabels {
		m[label] = s
	}
	return m
}()

// AllTaskStatuses lists every status in a stable order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		StatusNotStarted, StatusInProgress, StatusBlocked,
		StatusUnderReview, StatusDeprecated, StatusCompleted,
	}
}

// ParseTaskStatus validates a wire-format status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if _, ok := statusLabels[status]; !ok {
		return "", errors.Errorf("unknown task status %q", s)
	}
	return status, nil
}

func (s TaskStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Value implements driver.Valuer, converting to the database label.
func (s TaskStatus) Value() (driver.Value, error) {
	label, ok := statusLabels[s]
	if !ok {
		return nil, errors.Errorf("unknown task status %q", string(s))
	}
	return label, nil
}

// Scan implements sql.Scanner, converting from the database label.
func (s *TaskStatus) Scan(src interface{}) error {
	var label string
	switch v := src.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return errors.Errorf("cannot scan %T into TaskStatus", src)
	}
	status, ok := statusFromLabel[label]
	if !ok {
		return errors.Errorf("unknown task status label %q", label)
	}
	*s = status
	return nil
}

// Task is a unit of work belonging to exactly one project. ProjectID is
// immutable after creation; tasks are never implicitly deleted.
type Task struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	ProjectID    uuid.UUID  `json:"project_id" db:"project_id"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty" db:"assigned_to_id"`
	Status       TaskStatus `json:"status" db:"status"`
	Deadline     *time.Time `json:"deadline,omitempty" db:"deadline"`
	JiraTicketID *string    `json:"jira_ticket_id,omitempty" db:"jira_ticket_id"`
}
