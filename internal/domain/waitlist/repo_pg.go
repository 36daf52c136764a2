package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/erwaitlist/waitlist/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// pgStore holds what both repositories share: the fallback connection and
// the logger persistence faults are reported to.
type pgStore struct {
	db     queryable
	logger zerolog.Logger
}

// conn prefers the request-scoped connection put in the context by
// db.ConnMiddleware and falls back to the pool.
func (s *pgStore) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.db
}

func (s *pgStore) fail(op string, err error) error {
	s.logger.Error().Err(err).Str("op", op).Msg("persistence failure")
	return &PersistenceError{Op: op, Err: err}
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pgStore }

func NewPatientRepoPG(pool *pgxpool.Pool, logger zerolog.Logger) PatientRepository {
	return newPatientRepo(pool, logger)
}

func newPatientRepo(q queryable, logger zerolog.Logger) *patientRepoPG {
	return &patientRepoPG{pgStore{db: q, logger: logger}}
}

const patientCols = `id, name, gender, date_of_birth, contact, priority_level,
	medical_issue, doctor_id, room_id, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob time.Time
	err := row.Scan(&p.ID, &p.Name, &p.Gender, &dob, &p.Contact, &p.PriorityLevel,
		&p.MedicalIssue, &p.DoctorID, &p.RoomID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.DateOfBirth = Date{dob}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	created, err := scanPatient(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (name, gender, date_of_birth, contact, priority_level, medical_issue)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+patientCols,
		p.Name, p.Gender, p.DateOfBirth.Time, p.Contact, p.PriorityLevel, p.MedicalIssue))
	if err != nil {
		return r.fail("insert patient", err)
	}
	*p = *created
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY id ASC`)
	if err != nil {
		return nil, r.fail("list patients", err)
	}
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, r.fail("scan patient", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("list patients", err)
	}
	return items, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return r.one("get patient", p, err)
}

func (r *patientRepoPG) AssignCareTeam(ctx context.Context, id int64, doctorID, roomID string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET doctor_id = $2, room_id = $3
		WHERE id = $1
		RETURNING `+patientCols,
		id, doctorID, roomID))
	return r.one("assign care team", p, err)
}

func (r *patientRepoPG) MarkTreated(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `DELETE FROM patients WHERE id = $1 RETURNING `+patientCols, id))
	return r.one("mark treated", p, err)
}

// one maps a single-row result: no row is a not-found, anything else a fault.
func (r *patientRepoPG) one(op string, p *Patient, err error) (*Patient, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, r.fail(op, err)
	}
	return p, nil
}

// =========== Admin Repository ===========

type adminRepoPG struct{ pgStore }

func NewAdminRepoPG(pool *pgxpool.Pool, logger zerolog.Logger) AdminRepository {
	return newAdminRepo(pool, logger)
}

func newAdminRepo(q queryable, logger zerolog.Logger) *adminRepoPG {
	return &adminRepoPG{pgStore{db: q, logger: logger}}
}

func (r *adminRepoPG) GetByUsername(ctx context.Context, username string) (*AdminCredential, error) {
	var a AdminCredential
	err := r.conn(ctx).QueryRow(ctx, `SELECT username, password FROM admins WHERE username = $1`, username).
		Scan(&a.Username, &a.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, r.fail("get admin", err)
	}
	return &a, nil
}

func (r *adminRepoPG) Upsert(ctx context.Context, a *AdminCredential) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admins (username, password) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password = EXCLUDED.password`,
		a.Username, a.Password)
	if err != nil {
		return r.fail("upsert admin", err)
	}
	return nil
}
