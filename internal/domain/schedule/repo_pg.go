package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediq/mediq/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// scheduleSelect joins the reference names in one pass so list responses
// need no per-row lookups.
const scheduleSelect = `
SELECT s.id, s.patient_id, s.visit_date, s.start_time, s.end_time,
       s.department_id, s.doctor_id, s.waiting_area_id, s.note, s.status,
       s.visited_at, s.is_deleted, s.created_at, s.updated_at,
       p.name, p.patient_code, p.name_kana, d.name, doc.name, w.name
FROM schedule s
JOIN patient p ON p.id = s.patient_id
JOIN department d ON d.id = s.department_id
JOIN doctor doc ON doc.id = s.doctor_id
JOIN waiting_area w ON w.id = s.waiting_area_id`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var (
		s         Schedule
		visitDate time.Time
		endTime   *string
		note      *string
	)
	err := row.Scan(&s.ID, &s.PatientID, &visitDate, &s.StartTime, &endTime,
		&s.DepartmentID, &s.DoctorID, &s.WaitingAreaID, &note, &s.Status,
		&s.VisitedAt, &s.IsDeleted, &s.CreatedAt, &s.UpdatedAt,
		&s.PatientName, &s.PatientCode, &s.PatientKana,
		&s.DepartmentName, &s.DoctorName, &s.WaitingAreaName)
	if err != nil {
		return nil, err
	}
	s.VisitDate = visitDate.Format("2006-01-02")
	if endTime != nil {
		s.EndTime = *endTime
	}
	if note != nil {
		s.Note = *note
	}
	s.Examinations = []ExamRef{}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO schedule
		   (id, patient_id, visit_date, start_time, end_time,
		    department_id, doctor_id, waiting_area_id, note, status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10)`,
		s.ID, s.PatientID, s.VisitDate, s.StartTime, s.EndTime,
		s.DepartmentID, s.DoctorID, s.WaitingAreaID, s.Note, s.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	s, err := scanSchedule(r.conn(ctx).QueryRow(ctx,
		scheduleSelect+` WHERE s.id = $1 AND s.is_deleted = FALSE`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachExaminations(ctx, []*Schedule{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	sql := scheduleSelect + ` WHERE s.is_deleted = FALSE`
	args := []interface{}{}
	add := func(clause string, val interface{}) {
		args = append(args, val)
		sql += fmt.Sprintf(clause, len(args))
	}

	if f.StartDate != "" {
		add(` AND s.visit_date >= $%d`, f.StartDate)
	}
	if f.EndDate != "" {
		add(` AND s.visit_date <= $%d`, f.EndDate)
	}
	if f.PatientID != uuid.Nil {
		add(` AND s.patient_id = $%d`, f.PatientID)
	}
	if f.DepartmentID != uuid.Nil {
		add(` AND s.department_id = $%d`, f.DepartmentID)
	}
	if f.DoctorID != uuid.Nil {
		add(` AND s.doctor_id = $%d`, f.DoctorID)
	}
	if f.Status != "" {
		add(` AND s.status = $%d`, f.Status)
	}
	sql += ` ORDER BY s.visit_date ASC, s.start_time ASC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachExaminations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) Update(ctx context.Context, s *Schedule) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE schedule
		 SET patient_id = $2, visit_date = $3, start_time = $4,
		     end_time = NULLIF($5, ''), department_id = $6, doctor_id = $7,
		     waiting_area_id = $8, note = NULLIF($9, ''), status = $10,
		     visited_at = $11, updated_at = now()
		 WHERE id = $1 AND is_deleted = FALSE`,
		s.ID, s.PatientID, s.VisitDate, s.StartTime, s.EndTime,
		s.DepartmentID, s.DoctorID, s.WaitingAreaID, s.Note, s.Status, s.VisitedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE schedule SET is_deleted = TRUE, updated_at = now()
		 WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ReplaceExaminations(ctx context.Context, scheduleID uuid.UUID, examinationIDs []uuid.UUID) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx,
		`DELETE FROM schedule_examination WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}
	for i, examID := range examinationIDs {
		if _, err := conn.Exec(ctx,
			`INSERT INTO schedule_examination (schedule_id, examination_id, position)
			 VALUES ($1, $2, $3)`, scheduleID, examID, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListForPatientOnDate(ctx context.Context, patientID uuid.UUID, date string, statuses []string) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx,
		scheduleSelect+` WHERE s.is_deleted = FALSE
		   AND s.patient_id = $1 AND s.visit_date = $2 AND s.status = ANY($3)
		 ORDER BY s.start_time ASC`,
		patientID, date, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachExaminations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) MarkVisited(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE schedule SET status = $2, visited_at = now(), updated_at = now()
		 WHERE id = $1 AND status = $3 AND is_deleted = FALSE`,
		id, StatusVisited, StatusScheduled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// attachExaminations loads the examination links for a batch of schedules
// in a single query.
func (r *repoPG) attachExaminations(ctx context.Context, schedules []*Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(schedules))
	byID := make(map[uuid.UUID]*Schedule, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT se.schedule_id, e.id, e.name
		 FROM schedule_examination se
		 JOIN examination e ON e.id = se.examination_id
		 WHERE se.schedule_id = ANY($1)
		 ORDER BY se.position ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID uuid.UUID
		var ref ExamRef
		if err := rows.Scan(&scheduleID, &ref.ID, &ref.Name); err != nil {
			return err
		}
		if s, ok := byID[scheduleID]; ok {
			s.Examinations = append(s.Examinations, ref)
		}
	}
	return rows.Err()
}

// =========== Reference existence checks ===========

type refCheckerPG struct {
	pool *pgxpool.Pool
}

func NewReferenceCheckerPG(pool *pgxpool.Pool) ReferenceChecker {
	return &refCheckerPG{pool: pool}
}

func (r *refCheckerPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// The table name comes from the fixed list below, never from input.
func (r *refCheckerPG) exists(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND is_deleted = FALSE)`, table),
		id).Scan(&ok)
	return ok, err
}

func (r *refCheckerPG) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "patient", id)
}

func (r *refCheckerPG) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "department", id)
}

func (r *refCheckerPG) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "doctor", id)
}

func (r *refCheckerPG) WaitingAreaExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "waiting_area", id)
}

func (r *refCheckerPG) ExaminationExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "examination", id)
}
