package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RaciRole is one of the four RACI responsibility roles.
type RaciRole string

const (
	RoleResponsible RaciRole = "Responsible"
	RoleAccountable RaciRole = "Accountable"
	RoleConsulted   RaciRole = "Consulted"
	RoleInformed    RaciRole = "Informed"
)

// roleLabels maps each role to the string stored in the raci_role database
// enum. The spellings happen to match the wire format, but the mapping is
// kept explicit so the two representations can diverge without a schema
// change.
var roleLabels = map[RaciRole]string{
	RoleResponsible: "Responsible",
	RoleAccountable: "Accountable",
	RoleConsulted:   "Consulted",
	RoleInformed:    "Informed",
}

var roleFromLabel = func() map[string]RaciRole {
	m := make(map[string]RaciRole, len(roleLabels))
	for r, label := range roleLabels {
		m[label] = r
	}
	return m
}()

// AllRaciRoles lists every role in a stable order.
func AllRaciRoles() []RaciRole {
	return []RaciRole{RoleResponsible, RoleAccountable, RoleConsulted, RoleInformed}
}

// ParseRaciRole validates a wire-format role string.
func ParseRaciRole(s string) (RaciRole, error) {
	role := RaciRole(s)
	if _, ok := roleLabels[role]; !ok {
		return "", errors.Errorf("unknown RACI role %q", s)
	}
	return role, nil
}

func (r RaciRole) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r RaciRole) Value() (driver.Value, error) {
	label, ok := roleLabels[r]
	if !ok {
		return nil, errors.Errorf("unknown RACI role %q", string(r))
	}
	return label, nil
}

func (r *RaciRole) Scan(src interface{}) error {
	var label string
	switch v := src.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return errors.Errorf("cannot scan %T into RaciRole", src)
	}
	role, ok := roleFromLabel[label]
	if !ok {
		return errors.Errorf("unknown RACI role label %q", label)
	}
	*r = role
	return nil
}

// RaciAssignment tags a (user, task) pair with one responsibility role.
// The pair is the composite key: at most one row exists per pair, and a
// later assignment overwrites the role rather than adding a second row.
type RaciAssignment struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	TaskID uuid.UUID `json:"task_id" db:"task_id"`
	Role   RaciRole  `json:"role" db:"role"`
}
