package master

import (
	"context"
	"fmt"

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

// =========== Name-only reference repositories ===========

// namedRepoPG serves one reference table. The table name is fixed at
// construction, never taken from input.
type namedRepoPG struct {
	pool     *pgxpool.Pool
	table    string
	inUseSQL string
}

const deptInUseSQL = `SELECT EXISTS (
	SELECT 1 FROM schedule WHERE department_id = $1 AND is_deleted = FALSE
	UNION ALL
	SELECT 1 FROM doctor WHERE department_id = $1 AND is_deleted = FALSE
)`

const waitingAreaInUseSQL = `SELECT EXISTS (
	SELECT 1 FROM schedule WHERE waiting_area_id = $1 AND is_deleted = FALSE
)`

const examinationInUseSQL = `SELECT EXISTS (
	SELECT 1 FROM schedule_examination se
	JOIN schedule s ON s.id = se.schedule_id
	WHERE se.examination_id = $1 AND s.is_deleted = FALSE
)`

func NewDepartmentRepoPG(pool *pgxpool.Pool) NamedRepository {
	return &namedRepoPG{pool: pool, table: "department", inUseSQL: deptInUseSQL}
}

func NewWaitingAreaRepoPG(pool *pgxpool.Pool) NamedRepository {
	return &namedRepoPG{pool: pool, table: "waiting_area", inUseSQL: waitingAreaInUseSQL}
}

func NewExaminationRepoPG(pool *pgxpool.Pool) NamedRepository {
	return &namedRepoPG{pool: pool, table: "examination", inUseSQL: examinationInUseSQL}
}

func (r *namedRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const namedCols = `id, name, is_deleted, created_at, updated_at`

func scanNamed(row pgx.Row) (*NamedEntity, error) {
	var e NamedEntity
	err := row.Scan(&e.ID, &e.Name, &e.IsDeleted, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *namedRepoPG) Create(ctx context.Context, e *NamedEntity) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2)`, r.table),
		e.ID, e.Name)
	return err
}

func (r *namedRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*NamedEntity, error) {
	return scanNamed(r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND is_deleted = FALSE`, namedCols, r.table), id))
}

func (r *namedRepoPG) List(ctx context.Context) ([]*NamedEntity, error) {
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE is_deleted = FALSE ORDER BY created_at ASC`, namedCols, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*NamedEntity
	for rows.Next() {
		e, err := scanNamed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *namedRepoPG) Update(ctx context.Context, e *NamedEntity) error {
	_, err := r.conn(ctx).Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET name = $2, updated_at = NOW() WHERE id = $1`, r.table),
		e.ID, e.Name)
	return err
}

func (r *namedRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, r.table), id)
	return err
}

func (r *namedRepoPG) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (
			SELECT 1 FROM %s WHERE name = $1 AND is_deleted = FALSE AND id != $2
		)`, r.table),
		name, exclude).Scan(&taken)
	return taken, err
}

func (r *namedRepoPG) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx, r.inUseSQL, id).Scan(&used)
	return used, err
}

// =========== Doctor repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, name, department_id, is_deleted, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.DepartmentID, &d.IsDeleted, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, name, department_id) VALUES ($1, $2, $3)`,
		d.ID, d.Name, d.DepartmentID)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1 AND is_deleted = FALSE`, id))
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE is_deleted = FALSE ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET name = $2, department_id = $3, updated_at = NOW() WHERE id = $1`,
		d.ID, d.Name, d.DepartmentID)
	return err
}

func (r *doctorRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM doctor WHERE name = $1 AND is_deleted = FALSE AND id != $2
	)`, name, exclude).Scan(&taken)
	return taken, err
}

func (r *doctorRepoPG) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM schedule WHERE doctor_id = $1 AND is_deleted = FALSE
	)`, id).Scan(&used)
	return used, err
}
