package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediq/mediq/internal/platform/api"
)

type mockRepo struct {
	schedules map[uuid.UUID]*Schedule
	order     []uuid.UUID
	examLinks map[uuid.UUID][]uuid.UUID
	examNames map[uuid.UUID]string
	err       error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		schedules: make(map[uuid.UUID]*Schedule),
		examLinks: make(map[uuid.UUID][]uuid.UUID),
		examNames: make(map[uuid.UUID]string),
	}
}

func (m *mockRepo) seed(s *Schedule) *Schedule {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusScheduled
	}
	m.schedules[s.ID] = s
	m.order = append(m.order, s.ID)
	return s
}

func (m *mockRepo) withExams(s *Schedule) *Schedule {
	links := m.examLinks[s.ID]
	s.Examinations = make([]ExamRef, 0, len(links))
	for _, id := range links {
		s.Examinations = append(s.Examinations, ExamRef{ID: id, Name: m.examNames[id]})
	}
	return s
}

func (m *mockRepo) Create(_ context.Context, s *Schedule) error {
	if m.err != nil {
		return m.err
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	m.schedules[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.schedules[id]
	if !ok || s.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	return m.withExams(s), nil
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]*Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*Schedule
	for _, id := range m.order {
		s := m.schedules[id]
		if s.IsDeleted {
			continue
		}
		if f.StartDate != "" && s.VisitDate < f.StartDate {
			continue
		}
		if f.EndDate != "" && s.VisitDate > f.EndDate {
			continue
		}
		if f.PatientID != uuid.Nil && s.PatientID != f.PatientID {
			continue
		}
		if f.DepartmentID != uuid.Nil && s.DepartmentID != f.DepartmentID {
			continue
		}
		if f.DoctorID != uuid.Nil && s.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, m.withExams(s))
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, s *Schedule) error {
	old, ok := m.schedules[s.ID]
	if !ok || old.IsDeleted {
		return pgx.ErrNoRows
	}
	s.UpdatedAt = time.Now()
	m.schedules[s.ID] = s
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	s, ok := m.schedules[id]
	if !ok || s.IsDeleted {
		return pgx.ErrNoRows
	}
	s.IsDeleted = true
	return nil
}

func (m *mockRepo) ReplaceExaminations(_ context.Context, scheduleID uuid.UUID, examinationIDs []uuid.UUID) error {
	m.examLinks[scheduleID] = examinationIDs
	return nil
}

func (m *mockRepo) ListForPatientOnDate(_ context.Context, patientID uuid.UUID, date string, statuses []string) ([]*Schedule, error) {
	allowed := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []*Schedule
	for _, id := range m.order {
		s := m.schedules[id]
		if s.IsDeleted || s.PatientID != patientID || s.VisitDate != date || !allowed[s.Status] {
			continue
		}
		out = append(out, m.withExams(s))
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StartTime < out[i].StartTime {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockRepo) MarkVisited(_ context.Context, id uuid.UUID) (bool, error) {
	s, ok := m.schedules[id]
	if !ok || s.IsDeleted || s.Status != StatusScheduled {
		return false, nil
	}
	now := time.Now()
	s.Status = StatusVisited
	s.VisitedAt = &now
	return true, nil
}

// mockRefs approves every ID it was told about and rejects the rest.
type mockRefs struct {
	known map[uuid.UUID]bool
}

func newMockRefs(ids ...uuid.UUID) *mockRefs {
	m := &mockRefs{known: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		m.known[id] = true
	}
	return m
}

func (m *mockRefs) check(id uuid.UUID) (bool, error) { return m.known[id], nil }

func (m *mockRefs) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.check(id)
}
func (m *mockRefs) DepartmentExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.check(id)
}
func (m *mockRefs) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.check(id)
}
func (m *mockRefs) WaitingAreaExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.check(id)
}
func (m *mockRefs) ExaminationExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.check(id)
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc   *Service
	repo  *mockRepo
	refs  *mockRefs
	ids   CreateInput
	fixed time.Time
}

func newFixture() *fixture {
	repo := newMockRepo()
	ids := CreateInput{
		PatientID:     uuid.New(),
		VisitDate:     "2026-08-31",
		StartTime:     "09:30",
		DepartmentID:  uuid.New(),
		DoctorID:      uuid.New(),
		WaitingAreaID: uuid.New(),
	}
	refs := newMockRefs(ids.PatientID, ids.DepartmentID, ids.DoctorID, ids.WaitingAreaID)
	svc := NewService(repo, refs, passthroughTx)
	fixed := time.Date(2026, 8, 31, 9, 45, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return &fixture{svc: svc, repo: repo, refs: refs, ids: ids, fixed: fixed}
}

func assertAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %v", err)
	}
	if apiErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture()

	sched, err := f.svc.Create(context.Background(), f.ids)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sched.Status != StatusScheduled {
		t.Fatalf("expected scheduled status, got %s", sched.Status)
	}
	if sched.VisitedAt != nil {
		t.Fatal("visitedAt must start unset")
	}
	if len(sched.Examinations) != 0 {
		t.Fatalf("expected no examinations, got %v", sched.Examinations)
	}
}

func TestService_Create_WithExaminations(t *testing.T) {
	f := newFixture()
	examID := uuid.New()
	f.refs.known[examID] = true
	f.repo.examNames[examID] = "血液検査"

	in := f.ids
	in.ExaminationIDs = []uuid.UUID{examID}
	sched, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sched.Examinations) != 1 || sched.Examinations[0].Name != "血液検査" {
		t.Fatalf("unexpected examinations %v", sched.Examinations)
	}
}

func TestService_Create_DuplicateExaminationsCollapsed(t *testing.T) {
	f := newFixture()
	examID := uuid.New()
	f.refs.known[examID] = true
	f.repo.examNames[examID] = "血液検査"

	in := f.ids
	in.ExaminationIDs = []uuid.UUID{examID, examID, examID}
	sched, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sched.Examinations) != 1 {
		t.Fatalf("expected collapsed examination list, got %v", sched.Examinations)
	}
}

func TestService_Create_MissingRequired(t *testing.T) {
	f := newFixture()

	mutations := []func(in *CreateInput){
		func(in *CreateInput) { in.PatientID = uuid.Nil },
		func(in *CreateInput) { in.VisitDate = "" },
		func(in *CreateInput) { in.StartTime = "" },
		func(in *CreateInput) { in.DepartmentID = uuid.Nil },
		func(in *CreateInput) { in.DoctorID = uuid.Nil },
		func(in *CreateInput) { in.WaitingAreaID = uuid.Nil },
	}
	for _, mutate := range mutations {
		in := f.ids
		mutate(&in)
		_, err := f.svc.Create(context.Background(), in)
		assertAPIError(t, err, api.CodeValidation)
	}
}

func TestService_Create_BadFormats(t *testing.T) {
	f := newFixture()

	in := f.ids
	in.VisitDate = "31-08-2026"
	_, err := f.svc.Create(context.Background(), in)
	assertAPIError(t, err, api.CodeValidation)

	in = f.ids
	in.StartTime = "25:00"
	_, err = f.svc.Create(context.Background(), in)
	assertAPIError(t, err, api.CodeValidation)

	in = f.ids
	in.EndTime = "9:5"
	_, err = f.svc.Create(context.Background(), in)
	assertAPIError(t, err, api.CodeValidation)
}

func TestService_Create_UnknownReference(t *testing.T) {
	f := newFixture()

	in := f.ids
	in.DoctorID = uuid.New()
	_, err := f.svc.Create(context.Background(), in)
	assertAPIError(t, err, api.CodeValidation)

	in = f.ids
	in.ExaminationIDs = []uuid.UUID{uuid.New()}
	_, err = f.svc.Create(context.Background(), in)
	assertAPIError(t, err, api.CodeValidation)
}

func TestService_Update_StatusVisitedStampsOnce(t *testing.T) {
	f := newFixture()
	sched, err := f.svc.Create(context.Background(), f.ids)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	visited := StatusVisited
	got, err := f.svc.Update(context.Background(), sched.ID, UpdateInput{Status: &visited})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.VisitedAt == nil || !got.VisitedAt.Equal(f.fixed) {
		t.Fatalf("expected visitedAt %v, got %v", f.fixed, got.VisitedAt)
	}

	// A later status write must not move the stamp.
	later := f.fixed.Add(time.Hour)
	f.svc.now = func() time.Time { return later }
	completed := StatusCompleted
	if _, err := f.svc.Update(context.Background(), sched.ID, UpdateInput{Status: &completed}); err != nil {
		t.Fatalf("update: %v", err)
	}
	visited = StatusVisited
	got, err = f.svc.Update(context.Background(), sched.ID, UpdateInput{Status: &visited})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.VisitedAt.Equal(f.fixed) {
		t.Fatalf("visitedAt was re-stamped: %v", got.VisitedAt)
	}
}

func TestService_Update_InvalidStatus(t *testing.T) {
	f := newFixture()
	sched, _ := f.svc.Create(context.Background(), f.ids)

	bad := "done"
	_, err := f.svc.Update(context.Background(), sched.ID, UpdateInput{Status: &bad})
	assertAPIError(t, err, api.CodeValidation)
}

func TestService_Update_ReplacesExaminations(t *testing.T) {
	f := newFixture()
	examA := uuid.New()
	examB := uuid.New()
	f.refs.known[examA] = true
	f.refs.known[examB] = true
	f.repo.examNames[examA] = "血液検査"
	f.repo.examNames[examB] = "レントゲン"

	in := f.ids
	in.ExaminationIDs = []uuid.UUID{examA}
	sched, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newLinks := []uuid.UUID{examB}
	got, err := f.svc.Update(context.Background(), sched.ID, UpdateInput{ExaminationIDs: &newLinks})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Examinations) != 1 || got.Examinations[0].Name != "レントゲン" {
		t.Fatalf("expected replaced links, got %v", got.Examinations)
	}

	empty := []uuid.UUID{}
	got, err = f.svc.Update(context.Background(), sched.ID, UpdateInput{ExaminationIDs: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Examinations) != 0 {
		t.Fatalf("expected cleared links, got %v", got.Examinations)
	}
}

func TestService_Update_OmittedExaminationsUntouched(t *testing.T) {
	f := newFixture()
	examID := uuid.New()
	f.refs.known[examID] = true
	f.repo.examNames[examID] = "血液検査"

	in := f.ids
	in.ExaminationIDs = []uuid.UUID{examID}
	sched, _ := f.svc.Create(context.Background(), in)

	note := "午後に変更"
	got, err := f.svc.Update(context.Background(), sched.ID, UpdateInput{Note: &note})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Examinations) != 1 {
		t.Fatalf("examination links were lost: %v", got.Examinations)
	}
}

func TestService_List_Filters(t *testing.T) {
	f := newFixture()
	first, _ := f.svc.Create(context.Background(), f.ids)

	in := f.ids
	in.VisitDate = "2026-09-01"
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := f.svc.List(context.Background(), Filter{StartDate: "2026-08-31", EndDate: "2026-08-31"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].ID != first.ID {
		t.Fatalf("unexpected result %v", out)
	}
}

func TestService_List_InvalidFilter(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), Filter{StartDate: "yesterday"})
	assertAPIError(t, err, api.CodeValidation)

	_, err = f.svc.List(context.Background(), Filter{Status: "done"})
	assertAPIError(t, err, api.CodeValidation)
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	sched, _ := f.svc.Create(context.Background(), f.ids)

	if err := f.svc.Delete(context.Background(), sched.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := f.svc.Get(context.Background(), sched.ID)
	assertAPIError(t, err, api.CodeNotFound)
}

func TestService_Get_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), uuid.New())
	assertAPIError(t, err, api.CodeNotFound)
}
