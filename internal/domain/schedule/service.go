package schedule

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediq/mediq/internal/platform/api"
)

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TxRunner runs fn inside a database transaction. Tests substitute a
// pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo Repository
	refs ReferenceChecker
	tx   TxRunner
	now  func() time.Time
}

func NewService(repo Repository, refs ReferenceChecker, tx TxRunner) *Service {
	return &Service{repo: repo, refs: refs, tx: tx, now: time.Now}
}

type CreateInput struct {
	PatientID      uuid.UUID
	VisitDate      string
	StartTime      string
	EndTime        string
	DepartmentID   uuid.UUID
	DoctorID       uuid.UUID
	WaitingAreaID  uuid.UUID
	Note           string
	ExaminationIDs []uuid.UUID
}

type UpdateInput struct {
	PatientID      *uuid.UUID
	VisitDate      *string
	StartTime      *string
	EndTime        *string
	DepartmentID   *uuid.UUID
	DoctorID       *uuid.UUID
	WaitingAreaID  *uuid.UUID
	Note           *string
	Status         *string
	ExaminationIDs *[]uuid.UUID
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	if f.StartDate != "" {
		if _, err := time.Parse("2006-01-02", f.StartDate); err != nil {
			return nil, api.Validation("開始日の形式が正しくありません")
		}
	}
	if f.EndDate != "" {
		if _, err := time.Parse("2006-01-02", f.EndDate); err != nil {
			return nil, api.Validation("終了日の形式が正しくありません")
		}
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, api.Validation("ステータスが正しくありません")
	}

	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, api.Database("予定の取得に失敗しました", err)
	}
	if out == nil {
		out = []*Schedule{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("予定が見つかりません")
		}
		return nil, api.Database("予定の取得に失敗しました", err)
	}
	return sched, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Schedule, error) {
	if in.PatientID == uuid.Nil {
		return nil, api.Validation("患者を選択してください")
	}
	if err := validateDate(in.VisitDate, "診察日"); err != nil {
		return nil, err
	}
	if err := validateTime(in.StartTime, "開始時刻", true); err != nil {
		return nil, err
	}
	if err := validateTime(in.EndTime, "終了時刻", false); err != nil {
		return nil, err
	}
	if in.DepartmentID == uuid.Nil {
		return nil, api.Validation("診療科を選択してください")
	}
	if in.DoctorID == uuid.Nil {
		return nil, api.Validation("医師を選択してください")
	}
	if in.WaitingAreaID == uuid.Nil {
		return nil, api.Validation("待合室を選択してください")
	}
	if err := s.checkReferences(ctx, in.PatientID, in.DepartmentID, in.DoctorID, in.WaitingAreaID, in.ExaminationIDs); err != nil {
		return nil, err
	}

	examIDs := dedupe(in.ExaminationIDs)

	sched := &Schedule{
		PatientID:     in.PatientID,
		VisitDate:     in.VisitDate,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		DepartmentID:  in.DepartmentID,
		DoctorID:      in.DoctorID,
		WaitingAreaID: in.WaitingAreaID,
		Note:          strings.TrimSpace(in.Note),
		Status:        StatusScheduled,
	}
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, sched); err != nil {
			return err
		}
		return s.repo.ReplaceExaminations(ctx, sched.ID, examIDs)
	})
	if err != nil {
		return nil, api.Database("予定の作成に失敗しました", err)
	}
	return s.Get(ctx, sched.ID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Schedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.PatientID != nil {
		if *in.PatientID == uuid.Nil {
			return nil, api.Validation("患者を選択してください")
		}
		sched.PatientID = *in.PatientID
	}
	if in.VisitDate != nil {
		if err := validateDate(*in.VisitDate, "診察日"); err != nil {
			return nil, err
		}
		sched.VisitDate = *in.VisitDate
	}
	if in.StartTime != nil {
		if err := validateTime(*in.StartTime, "開始時刻", true); err != nil {
			return nil, err
		}
		sched.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		if err := validateTime(*in.EndTime, "終了時刻", false); err != nil {
			return nil, err
		}
		sched.EndTime = *in.EndTime
	}
	if in.DepartmentID != nil {
		sched.DepartmentID = *in.DepartmentID
	}
	if in.DoctorID != nil {
		sched.DoctorID = *in.DoctorID
	}
	if in.WaitingAreaID != nil {
		sched.WaitingAreaID = *in.WaitingAreaID
	}
	if in.Note != nil {
		sched.Note = strings.TrimSpace(*in.Note)
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, api.Validation("ステータスが正しくありません")
		}
		// Moving into visited stamps the arrival time once.
		if *in.Status == StatusVisited && sched.VisitedAt == nil {
			now := s.now()
			sched.VisitedAt = &now
		}
		sched.Status = *in.Status
	}

	var examIDs []uuid.UUID
	if in.ExaminationIDs != nil {
		examIDs = dedupe(*in.ExaminationIDs)
	}
	if err := s.checkReferences(ctx, sched.PatientID, sched.DepartmentID, sched.DoctorID, sched.WaitingAreaID, examIDs); err != nil {
		return nil, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, sched); err != nil {
			return err
		}
		if in.ExaminationIDs != nil {
			return s.repo.ReplaceExaminations(ctx, sched.ID, examIDs)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("予定が見つかりません")
		}
		return nil, api.Database("予定の更新に失敗しました", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return api.Database("予定の削除に失敗しました", err)
	}
	return nil
}

// dedupe removes repeated examination IDs while keeping first-seen order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) checkReferences(ctx context.Context, patientID, departmentID, doctorID, waitingAreaID uuid.UUID, examinationIDs []uuid.UUID) error {
	checks := []struct {
		fn    func(context.Context, uuid.UUID) (bool, error)
		id    uuid.UUID
		label string
	}{
		{s.refs.PatientExists, patientID, "患者"},
		{s.refs.DepartmentExists, departmentID, "診療科"},
		{s.refs.DoctorExists, doctorID, "医師"},
		{s.refs.WaitingAreaExists, waitingAreaID, "待合室"},
	}
	for _, c := range checks {
		ok, err := c.fn(ctx, c.id)
		if err != nil {
			return api.Database("予定の取得に失敗しました", err)
		}
		if !ok {
			return api.Validation("指定された" + c.label + "が見つかりません")
		}
	}
	for _, examID := range examinationIDs {
		ok, err := s.refs.ExaminationExists(ctx, examID)
		if err != nil {
			return api.Database("予定の取得に失敗しました", err)
		}
		if !ok {
			return api.Validation("指定された検査が見つかりません")
		}
	}
	return nil
}

func validateDate(value, label string) error {
	if value == "" {
		return api.Validation(label + "を入力してください")
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return api.Validation(label + "の形式が正しくありません")
	}
	return nil
}

func validateTime(value, label string, required bool) error {
	if value == "" {
		if required {
			return api.Validation(label + "を入力してください")
		}
		return nil
	}
	if !timePattern.MatchString(value) {
		return api.Validation(label + "の形式が正しくありません")
	}
	return nil
}
