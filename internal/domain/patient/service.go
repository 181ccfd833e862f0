package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediq/mediq/internal/platform/api"
)

// listLimit caps the admin roster so a broad search cannot pull the
// whole table onto the screen.
const listLimit = 100

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	PatientCode   string
	Name          string
	NameKana      string
	VoiceTemplate string
	PrintTemplate string
}

type UpdateInput struct {
	PatientCode   *string
	Name          *string
	NameKana      *string
	VoiceTemplate *string
	PrintTemplate *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	code := strings.TrimSpace(in.PatientCode)
	name := strings.TrimSpace(in.Name)
	kana := strings.TrimSpace(in.NameKana)

	if code == "" {
		return nil, api.Validation("患者番号を入力してください")
	}
	if name == "" {
		return nil, api.Validation("氏名を入力してください")
	}
	if kana == "" {
		return nil, api.Validation("カナ氏名を入力してください")
	}

	taken, err := s.repo.CodeTaken(ctx, code, uuid.Nil)
	if err != nil {
		return nil, api.Database("患者の取得に失敗しました", err)
	}
	if taken {
		return nil, api.Validation("この患者番号は既に使用されています")
	}

	p := &Patient{
		PatientCode:   code,
		Name:          name,
		NameKana:      kana,
		VoiceTemplate: strings.TrimSpace(in.VoiceTemplate),
		PrintTemplate: strings.TrimSpace(in.PrintTemplate),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, api.Database("患者の作成に失敗しました", err)
	}
	return s.Get(ctx, p.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("患者が見つかりません")
		}
		return nil, api.Database("患者の取得に失敗しました", err)
	}
	return p, nil
}

// List returns live patients, optionally narrowed by a substring match
// over patient code, name and kana.
func (s *Service) List(ctx context.Context, search string) ([]*Patient, error) {
	out, err := s.repo.List(ctx, strings.TrimSpace(search), listLimit)
	if err != nil {
		return nil, api.Database("患者の取得に失敗しました", err)
	}
	if out == nil {
		out = []*Patient{}
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.PatientCode != nil {
		code := strings.TrimSpace(*in.PatientCode)
		if code == "" {
			return nil, api.Validation("患者番号を入力してください")
		}
		taken, err := s.repo.CodeTaken(ctx, code, id)
		if err != nil {
			return nil, api.Database("患者の取得に失敗しました", err)
		}
		if taken {
			return nil, api.Validation("この患者番号は既に使用されています")
		}
		p.PatientCode = code
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, api.Validation("氏名を入力してください")
		}
		p.Name = name
	}
	if in.NameKana != nil {
		kana := strings.TrimSpace(*in.NameKana)
		if kana == "" {
			return nil, api.Validation("カナ氏名を入力してください")
		}
		p.NameKana = kana
	}
	if in.VoiceTemplate != nil {
		p.VoiceTemplate = strings.TrimSpace(*in.VoiceTemplate)
	}
	if in.PrintTemplate != nil {
		p.PrintTemplate = strings.TrimSpace(*in.PrintTemplate)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.NotFound("患者が見つかりません")
		}
		return nil, api.Database("患者の更新に失敗しました", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	used, err := s.repo.HasSchedules(ctx, id)
	if err != nil {
		return api.Database("患者の取得に失敗しました", err)
	}
	if used {
		return api.Validation("この患者には予定が登録されているため削除できません")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return api.Database("患者の削除に失敗しました", err)
	}
	return nil
}
