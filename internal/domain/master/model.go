// Package master manages the reference data the reception flow resolves
// against: departments, waiting areas, examinations and doctors.
package master

import (
	"time"

	"github.com/google/uuid"
)

// NamedEntity is a name-only reference row. Departments, waiting areas and
// examinations all share this shape.
type NamedEntity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Doctor belongs to a department.
type Doctor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DepartmentID uuid.UUID `json:"departmentId"`
	IsDeleted    bool      `json:"isDeleted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Masters bundles every reference list for the admin console's single
// bootstrap fetch.
type Masters struct {
	Departments  []*NamedEntity `json:"departments"`
	WaitingAreas []*NamedEntity `json:"waitingAreas"`
	Examinations []*NamedEntity `json:"examinations"`
	Doctors      []*Doctor      `json:"doctors"`
}
