// Package reception implements the kiosk check-in flow: resolve the QR
// patient code to today's appointment, move it to visited, and build the
// spoken guidance.
package reception

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mediq/mediq/internal/domain/patient"
	"github.com/mediq/mediq/internal/domain/schedule"
	"github.com/mediq/mediq/internal/platform/api"
)

// PatientLookup is the slice of the patient repository check-in needs.
type PatientLookup interface {
	GetByCode(ctx context.Context, code string) (*patient.Patient, error)
}

// ScheduleStore is the slice of the schedule repository check-in needs.
type ScheduleStore interface {
	ListForPatientOnDate(ctx context.Context, patientID uuid.UUID, date string, statuses []string) ([]*schedule.Schedule, error)
	MarkVisited(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*schedule.Schedule, error)
}

type PatientSummary struct {
	ID          uuid.UUID `json:"id"`
	PatientCode string    `json:"patientCode"`
	Name        string    `json:"name"`
	NameKana    string    `json:"nameKana"`
}

type Result struct {
	Patient     *PatientSummary    `json:"patient"`
	Schedule    *schedule.Schedule `json:"schedule"`
	Guidance    string             `json:"guidance"`
	CheckedInAt string             `json:"checkedInAt"`
}

type Service struct {
	patients  PatientLookup
	schedules ScheduleStore
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(patients PatientLookup, schedules ScheduleStore, logger zerolog.Logger) *Service {
	return &Service{patients: patients, schedules: schedules, logger: logger, now: time.Now}
}

// CheckIn resolves a patient code to today's first open appointment. A
// scheduled match is moved to visited; a visited match is surfaced
// unchanged so re-scanning the same QR code repeats the guidance.
func (s *Service) CheckIn(ctx context.Context, patientCode string) (*Result, error) {
	code := strings.TrimSpace(patientCode)
	if code == "" {
		return nil, api.Validation("患者番号を入力してください")
	}

	p, err := s.patients.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("患者が見つかりません")
		}
		return nil, api.Database("患者の取得に失敗しました", err)
	}

	now := s.now()
	today := now.Format("2006-01-02")

	candidates, err := s.schedules.ListForPatientOnDate(ctx, p.ID, today,
		[]string{schedule.StatusScheduled, schedule.StatusVisited})
	if err != nil {
		return nil, api.Database("予定の取得に失敗しました", err)
	}

	result := &Result{
		Patient: &PatientSummary{
			ID:          p.ID,
			PatientCode: p.PatientCode,
			Name:        p.Name,
			NameKana:    p.NameKana,
		},
		CheckedInAt: now.Format(time.RFC3339),
	}

	if len(candidates) == 0 {
		result.Guidance = guidanceNoAppointment(p.NameKana)
		s.logger.Info().
			Str("patient_code", p.PatientCode).
			Str("date", today).
			Msg("checkin without appointment")
		return result, nil
	}

	sched := candidates[0]
	if sched.Status == schedule.StatusScheduled {
		updated, err := s.schedules.MarkVisited(ctx, sched.ID)
		if err != nil {
			return nil, api.Database("受付処理に失敗しました", err)
		}
		// Zero rows means a concurrent scan got there first; re-read and
		// surface whatever state won.
		sched, err = s.schedules.GetByID(ctx, sched.ID)
		if err != nil {
			return nil, api.Database("予定の取得に失敗しました", err)
		}
		if updated {
			s.logger.Info().
				Str("patient_code", p.PatientCode).
				Str("schedule_id", sched.ID.String()).
				Msg("checkin completed")
		}
	}

	result.Schedule = sched
	result.Guidance = guidanceForSchedule(sched, p.NameKana)
	return result, nil
}
