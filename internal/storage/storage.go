// Package storage defines the Storage interface: the contract that any
// database backend must satisfy to work with this application.
//
// Handlers depend only on this interface, so the sqlite and mongo backends
// are interchangeable and tests can run against an in-memory sqlite store.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/types"
)

// ErrStudentNotFound is returned when a delete matches no record.
var ErrStudentNotFound = errors.New("student not found")

// Storage is the database contract. All records share one table or
// collection; the section argument scopes every call.
type Storage interface {
	// CreateStudent stores student in sec, assigning SerialNumber as the
	// section's current maximum plus one (1 for an empty section).
	// student.Section is overwritten with sec. The stored record is returned.
	CreateStudent(ctx context.Context, sec section.Section, student types.Student) (types.Student, error)

	// GetStudentsByPRN returns every record in sec with the given PRN.
	GetStudentsByPRN(ctx context.Context, sec section.Section, prn string) ([]types.Student, error)

	// GetStudents returns the records in sec matching filter, ordered by
	// serial number. Returns an empty slice (not nil) when nothing matches.
	GetStudents(ctx context.Context, sec section.Section, filter types.StudentFilter) ([]types.Student, error)

	// GetPRNs returns the PRN of every record in sec, ordered by serial
	// number. Returns an empty slice (not nil) when the section is empty.
	GetPRNs(ctx context.Context, sec section.Section) ([]types.PRN, error)

	// DeleteStudent removes one record with the given PRN from sec.
	// Returns ErrStudentNotFound when none exists.
	DeleteStudent(ctx context.Context, sec section.Section, prn string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection(s).
	Close(ctx context.Context) error
}
