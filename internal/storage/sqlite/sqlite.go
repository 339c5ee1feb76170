// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// All sections share one students table. Serial numbers are allocated
// per section inside a transaction on a single connection, so two
// concurrent inserts into the same section can never read the same maximum.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		section       TEXT    NOT NULL,
		serial_number INTEGER NOT NULL,
		prn           TEXT    NOT NULL,
		password      TEXT    NOT NULL,
		mobile        TEXT    NOT NULL,
		branch        TEXT    NOT NULL,
		year          TEXT    NOT NULL,
		UNIQUE (section, serial_number)
	);
	CREATE INDEX IF NOT EXISTS idx_students_section_prn ON students (section, prn);
`

// New opens the SQLite database at cfg.Storage.URI, creates the schema if
// it does not already exist, and returns a ready-to-use *SQLite.
func New(ctx context.Context, cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.URI)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One connection serializes writers (required for the serial-number
	// transaction) and keeps a ":memory:" database alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create schema: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent reads the section's highest serial number and inserts the
// new row in the same transaction.
func (s *SQLite) CreateStudent(ctx context.Context, sec section.Section, student types.Student) (types.Student, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var next int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(serial_number), 0) + 1 FROM students WHERE section = ?",
		sec.String(),
	).Scan(&next)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: next serial: %w", err)
	}

	student.SerialNumber = next
	student.Section = sec.String()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO students (section, serial_number, prn, password, mobile, branch, year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		student.Section, student.SerialNumber, student.PRN, student.Password,
		student.Mobile, student.Branch, student.Year,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: commit: %w", err)
	}
	return student, nil
}

func (s *SQLite) GetStudentsByPRN(ctx context.Context, sec section.Section, prn string) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		`SELECT serial_number, prn, password, mobile, branch, year, section
		 FROM students WHERE section = ? AND prn = ? ORDER BY serial_number`,
		sec.String(), prn,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudentsByPRN: query: %w", err)
	}
	return scanStudents(rows)
}

// GetStudents filters on branch and year only when they are set.
func (s *SQLite) GetStudents(ctx context.Context, sec section.Section, filter types.StudentFilter) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, `
		SELECT serial_number, prn, password, mobile, branch, year, section
		FROM students
		WHERE section = ?
		  AND (? IS NULL OR branch = ?)
		  AND (? IS NULL OR year = ?)
		ORDER BY serial_number`)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	branch, year := nullString(filter.Branch), nullString(filter.Year)
	rows, err := stmt.QueryContext(ctx,
		sec.String(),
		branch, branch,
		year, year,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	return scanStudents(rows)
}

func (s *SQLite) GetPRNs(ctx context.Context, sec section.Section) ([]types.PRN, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT prn FROM students WHERE section = ? ORDER BY serial_number",
		sec.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("GetPRNs: query: %w", err)
	}
	defer rows.Close()

	prns := make([]types.PRN, 0)
	for rows.Next() {
		var p types.PRN
		if err := rows.Scan(&p.PRN); err != nil {
			return nil, fmt.Errorf("GetPRNs: scan row: %w", err)
		}
		prns = append(prns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPRNs: rows iteration: %w", err)
	}
	return prns, nil
}

// DeleteStudent removes the lowest-serial record matching prn, so duplicate
// PRNs are removed one call at a time.
func (s *SQLite) DeleteStudent(ctx context.Context, sec section.Section, prn string) error {
	stmt, err := s.Db.PrepareContext(ctx, `
		DELETE FROM students WHERE id = (
			SELECT id FROM students
			WHERE section = ? AND prn = ?
			ORDER BY serial_number LIMIT 1
		)`)
	if err != nil {
		return fmt.Errorf("DeleteStudent: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, sec.String(), prn)
	if err != nil {
		return fmt.Errorf("DeleteStudent: exec: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudent: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrStudentNotFound
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close(_ context.Context) error {
	return s.Db.Close()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func scanStudents(rows *sql.Rows) ([]types.Student, error) {
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var st types.Student
		if err := rows.Scan(
			&st.SerialNumber,
			&st.PRN,
			&st.Password,
			&st.Mobile,
			&st.Branch,
			&st.Year,
			&st.Section,
		); err != nil {
			return nil, fmt.Errorf("scan student row: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("students rows iteration: %w", err)
	}
	return students, nil
}
