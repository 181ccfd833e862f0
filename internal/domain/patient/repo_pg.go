package patient

import (
	"context"
	"fmt"
	"strings"

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

const patientCols = `id, patient_code, name, name_kana, voice_template, print_template, is_deleted, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientCode, &p.Name, &p.NameKana,
		&p.VoiceTemplate, &p.PrintTemplate, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO patient (id, patient_code, name, name_kana, voice_template, print_template)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.PatientCode, p.Name, p.NameKana, p.VoiceTemplate, p.PrintTemplate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND is_deleted = FALSE`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE patient_code = $1 AND is_deleted = FALSE`, code))
}

func (r *repoPG) List(ctx context.Context, search string, limit int) ([]*Patient, error) {
	sql := `SELECT ` + patientCols + ` FROM patient WHERE is_deleted = FALSE`
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		sql += fmt.Sprintf(` AND (patient_code ILIKE $%d OR name ILIKE $%d OR name_kana ILIKE $%d)`,
			len(args), len(args), len(args))
	}
	sql += ` ORDER BY created_at ASC`
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient
		 SET patient_code = $2, name = $3, name_kana = $4,
		     voice_template = $5, print_template = $6, updated_at = now()
		 WHERE id = $1 AND is_deleted = FALSE`,
		p.ID, p.PatientCode, p.Name, p.NameKana, p.VoiceTemplate, p.PrintTemplate)
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
		`UPDATE patient SET is_deleted = TRUE, updated_at = now()
		 WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) CodeTaken(ctx context.Context, code string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM patient
		   WHERE patient_code = $1 AND is_deleted = FALSE AND id != $2)`,
		code, exclude).Scan(&taken)
	return taken, err
}

func (r *repoPG) HasSchedules(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM schedule
		   WHERE patient_id = $1 AND is_deleted = FALSE)`,
		id).Scan(&used)
	return used, err
}

// escapeLike neutralises LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
