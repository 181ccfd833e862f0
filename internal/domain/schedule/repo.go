package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows schedule lists. Zero values mean "not filtered".
type Filter struct {
	StartDate    string
	EndDate      string
	PatientID    uuid.UUID
	DepartmentID uuid.UUID
	DoctorID     uuid.UUID
	Status       string
}

type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	List(ctx context.Context, f Filter) ([]*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ReplaceExaminations swaps the full examination link set for a
	// schedule. An empty slice clears the links.
	ReplaceExaminations(ctx context.Context, scheduleID uuid.UUID, examinationIDs []uuid.UUID) error

	// ListForPatientOnDate returns the patient's live schedules on one
	// calendar date limited to the given statuses, earliest start first.
	ListForPatientOnDate(ctx context.Context, patientID uuid.UUID, date string, statuses []string) ([]*Schedule, error)

	// MarkVisited performs the conditional scheduled->visited transition.
	// It reports false when the row was no longer in scheduled state.
	MarkVisited(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReferenceChecker answers "does this row exist and is it live" for the
// tables a schedule points at.
type ReferenceChecker interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	WaitingAreaExists(ctx context.Context, id uuid.UUID) (bool, error)
	ExaminationExists(ctx context.Context, id uuid.UUID) (bool, error)
}
