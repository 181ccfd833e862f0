// Package schedule manages appointments. A schedule row ties a patient to
// a department, doctor and waiting area on a calendar date, with an ordered
// set of examinations attached through a join table.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled  = "scheduled"
	StatusVisited    = "visited"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusVisited:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

func ValidStatus(s string) bool { return validStatuses[s] }

// ExamRef is an examination attached to a schedule, carried with its name
// so responses need no second lookup.
type ExamRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Schedule is an appointment row. The *Name fields are joined from the
// reference tables on read and are never written back.
type Schedule struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patientId"`
	VisitDate     string     `json:"visitDate"`
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime,omitempty"`
	DepartmentID  uuid.UUID  `json:"departmentId"`
	DoctorID      uuid.UUID  `json:"doctorId"`
	WaitingAreaID uuid.UUID  `json:"waitingAreaId"`
	Note          string     `json:"note,omitempty"`
	Status        string     `json:"status"`
	VisitedAt     *time.Time `json:"visitedAt,omitempty"`
	IsDeleted     bool       `json:"isDeleted"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	PatientName     string    `json:"patientName,omitempty"`
	PatientCode     string    `json:"patientCode,omitempty"`
	PatientKana     string    `json:"patientKana,omitempty"`
	DepartmentName  string    `json:"departmentName,omitempty"`
	DoctorName      string    `json:"doctorName,omitempty"`
	WaitingAreaName string    `json:"waitingAreaName,omitempty"`
	Examinations    []ExamRef `json:"examinations"`
}
