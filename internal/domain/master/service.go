package master

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediq/mediq/internal/platform/api"
)

// Service applies the shared reference-data rules: names are required and
// unique among live rows, rows referenced elsewhere cannot be deleted, and
// delete only ever soft-deletes.
type Service struct {
	departments  NamedRepository
	waitingAreas NamedRepository
	examinations NamedRepository
	doctors      DoctorRepository
}

func NewService(departments, waitingAreas, examinations NamedRepository, doctors DoctorRepository) *Service {
	return &Service{
		departments:  departments,
		waitingAreas: waitingAreas,
		examinations: examinations,
		doctors:      doctors,
	}
}

// kind carries the repo and the Japanese label used in error messages.
type kind struct {
	repo  NamedRepository
	label string
}

func (s *Service) kindOf(name string) kind {
	switch name {
	case "department":
		return kind{s.departments, "診療科"}
	case "waiting_area":
		return kind{s.waitingAreas, "待合室"}
	default:
		return kind{s.examinations, "検査"}
	}
}

// -- Name-only entities --

func (s *Service) listNamed(ctx context.Context, k kind) ([]*NamedEntity, error) {
	out, err := k.repo.List(ctx)
	if err != nil {
		return nil, api.Database(k.label+"の取得に失敗しました", err)
	}
	if out == nil {
		out = []*NamedEntity{}
	}
	return out, nil
}

func (s *Service) getNamed(ctx context.Context, k kind, id uuid.UUID) (*NamedEntity, error) {
	e, err := k.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound(k.label + "が見つかりません")
		}
		return nil, api.Database(k.label+"の取得に失敗しました", err)
	}
	return e, nil
}

func (s *Service) createNamed(ctx context.Context, k kind, name string) (*NamedEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, api.Validation(k.label + "名を入力してください")
	}

	taken, err := k.repo.NameTaken(ctx, name, uuid.Nil)
	if err != nil {
		return nil, api.Database(k.label+"の取得に失敗しました", err)
	}
	if taken {
		return nil, api.Validation("同じ名前の" + k.label + "が既に存在します")
	}

	e := &NamedEntity{Name: name}
	if err := k.repo.Create(ctx, e); err != nil {
		return nil, api.Database(k.label+"の作成に失敗しました", err)
	}
	return k.repo.GetByID(ctx, e.ID)
}

func (s *Service) updateNamed(ctx context.Context, k kind, id uuid.UUID, name *string) (*NamedEntity, error) {
	e, err := s.getNamed(ctx, k, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, api.Validation(k.label + "名を入力してください")
		}
		taken, err := k.repo.NameTaken(ctx, trimmed, id)
		if err != nil {
			return nil, api.Database(k.label+"の取得に失敗しました", err)
		}
		if taken {
			return nil, api.Validation("同じ名前の" + k.label + "が既に存在します")
		}
		e.Name = trimmed
	}

	if err := k.repo.Update(ctx, e); err != nil {
		return nil, api.Database(k.label+"の更新に失敗しました", err)
	}
	return k.repo.GetByID(ctx, id)
}

func (s *Service) deleteNamed(ctx context.Context, k kind, id uuid.UUID) error {
	if _, err := s.getNamed(ctx, k, id); err != nil {
		return err
	}

	used, err := k.repo.InUse(ctx, id)
	if err != nil {
		return api.Database(k.label+"の取得に失敗しました", err)
	}
	if used {
		return api.Validation("この" + k.label + "は使用されているため削除できません")
	}

	if err := k.repo.SoftDelete(ctx, id); err != nil {
		return api.Database(k.label+"の削除に失敗しました", err)
	}
	return nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*NamedEntity, error) {
	return s.listNamed(ctx, s.kindOf("department"))
}
func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*NamedEntity, error) {
	return s.getNamed(ctx, s.kindOf("department"), id)
}
func (s *Service) CreateDepartment(ctx context.Context, name string) (*NamedEntity, error) {
	return s.createNamed(ctx, s.kindOf("department"), name)
}
func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, name *string) (*NamedEntity, error) {
	return s.updateNamed(ctx, s.kindOf("department"), id, name)
}
func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.deleteNamed(ctx, s.kindOf("department"), id)
}

func (s *Service) ListWaitingAreas(ctx context.Context) ([]*NamedEntity, error) {
	return s.listNamed(ctx, s.kindOf("waiting_area"))
}
func (s *Service) GetWaitingArea(ctx context.Context, id uuid.UUID) (*NamedEntity, error) {
	return s.getNamed(ctx, s.kindOf("waiting_area"), id)
}
func (s *Service) CreateWaitingArea(ctx context.Context, name string) (*NamedEntity, error) {
	return s.createNamed(ctx, s.kindOf("waiting_area"), name)
}
func (s *Service) UpdateWaitingArea(ctx context.Context, id uuid.UUID, name *string) (*NamedEntity, error) {
	return s.updateNamed(ctx, s.kindOf("waiting_area"), id, name)
}
func (s *Service) DeleteWaitingArea(ctx context.Context, id uuid.UUID) error {
	return s.deleteNamed(ctx, s.kindOf("waiting_area"), id)
}

func (s *Service) ListExaminations(ctx context.Context) ([]*NamedEntity, error) {
	return s.listNamed(ctx, s.kindOf("examination"))
}
func (s *Service) GetExamination(ctx context.Context, id uuid.UUID) (*NamedEntity, error) {
	return s.getNamed(ctx, s.kindOf("examination"), id)
}
func (s *Service) CreateExamination(ctx context.Context, name string) (*NamedEntity, error) {
	return s.createNamed(ctx, s.kindOf("examination"), name)
}
func (s *Service) UpdateExamination(ctx context.Context, id uuid.UUID, name *string) (*NamedEntity, error) {
	return s.updateNamed(ctx, s.kindOf("examination"), id, name)
}
func (s *Service) DeleteExamination(ctx context.Context, id uuid.UUID) error {
	return s.deleteNamed(ctx, s.kindOf("examination"), id)
}

// -- Doctors --

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	out, err := s.doctors.List(ctx)
	if err != nil {
		return nil, api.Database("医師の取得に失敗しました", err)
	}
	if out == nil {
		out = []*Doctor{}
	}
	return out, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("医師が見つかりません")
		}
		return nil, api.Database("医師の取得に失敗しました", err)
	}
	return d, nil
}

// checkDepartment verifies a doctor's department reference. A missing or
// soft-deleted department is a bad request, not a missing resource.
func (s *Service) checkDepartment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Validation("指定された診察科が見つかりません")
		}
		return api.Database("診療科の取得に失敗しました", err)
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, name string, departmentID uuid.UUID) (*Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, api.Validation("医師名を入力してください")
	}
	if departmentID == uuid.Nil {
		return nil, api.Validation("診療科を選択してください")
	}

	if err := s.checkDepartment(ctx, departmentID); err != nil {
		return nil, err
	}

	taken, err := s.doctors.NameTaken(ctx, name, uuid.Nil)
	if err != nil {
		return nil, api.Database("医師の取得に失敗しました", err)
	}
	if taken {
		return nil, api.Validation("同じ名前の医師が既に存在します")
	}

	d := &Doctor{Name: name, DepartmentID: departmentID}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, api.Database("医師の作成に失敗しました", err)
	}
	return s.doctors.GetByID(ctx, d.ID)
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, name *string, departmentID *uuid.UUID) (*Doctor, error) {
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, api.Validation("医師名を入力してください")
		}
		taken, err := s.doctors.NameTaken(ctx, trimmed, id)
		if err != nil {
			return nil, api.Database("医師の取得に失敗しました", err)
		}
		if taken {
			return nil, api.Validation("同じ名前の医師が既に存在します")
		}
		d.Name = trimmed
	}

	if departmentID != nil {
		if err := s.checkDepartment(ctx, *departmentID); err != nil {
			return nil, err
		}
		d.DepartmentID = *departmentID
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, api.Database("医師の更新に失敗しました", err)
	}
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDoctor(ctx, id); err != nil {
		return err
	}

	used, err := s.doctors.InUse(ctx, id)
	if err != nil {
		return api.Database("医師の取得に失敗しました", err)
	}
	if used {
		return api.Validation("この医師は予定で使用されているため削除できません")
	}

	if err := s.doctors.SoftDelete(ctx, id); err != nil {
		return api.Database("医師の削除に失敗しました", err)
	}
	return nil
}

// Masters returns every reference list in one call.
func (s *Service) Masters(ctx context.Context) (*Masters, error) {
	departments, err := s.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	waitingAreas, err := s.ListWaitingAreas(ctx)
	if err != nil {
		return nil, err
	}
	examinations, err := s.ListExaminations(ctx)
	if err != nil {
		return nil, err
	}
	doctors, err := s.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	return &Masters{
		Departments:  departments,
		WaitingAreas: waitingAreas,
		Examinations: examinations,
		Doctors:      doctors,
	}, nil
}
