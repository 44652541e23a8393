package academy

import (
	"context"
	"time"
)

// The interfaces below are the durable-store collaborator contracts. Every
// call is assumed atomic; adapters return ErrNotFound (wrapped) for lookups
// matching no row. Implementations live in internal/bunstore; tests use the
// fakes from pkg/testsupport.

// AcademicYearStore persists academic years for a tenant.
type AcademicYearStore interface {
	ByID(ctx context.Context, id string) (*AcademicYear, error)
	ByAcademy(ctx context.Context, academyID string) ([]AcademicYear, error)
	Current(ctx context.Context, academyID string) (*AcademicYear, error)
	Create(ctx context.Context, year *AcademicYear) (*AcademicYear, error)
	// SetCurrent clears every current flag for the tenant and sets the one
	// on yearID in a single transaction, so there is never a window with
	// zero or two current years.
	SetCurrent(ctx context.Context, academyID, yearID string) error
}

// TrimesterStore persists trimesters.
type TrimesterStore interface {
	ByID(ctx context.Context, id string) (*Trimester, error)
	ByYearAndOrder(ctx context.Context, academicYearID string, order int) (*Trimester, error)
	ByYear(ctx context.Context, academicYearID string) ([]Trimester, error)
}

// TestStore persists tests.
type TestStore interface {
	ByID(ctx context.Context, id string) (*Test, error)
	// ByTrimesterAndCourse returns the trimester's tests for a course,
	// ordered by date ascending. The Trim{N}-{M} resolver indexes into it.
	ByTrimesterAndCourse(ctx context.Context, trimesterID, courseID string) ([]Test, error)
}

// StudentStore persists students.
type StudentStore interface {
	ByID(ctx context.Context, id string) (*Student, error)
	ByRegistrationNumber(ctx context.Context, academyID, registrationNumber string) (*Student, error)
}

// CourseStore persists courses.
type CourseStore interface {
	ByID(ctx context.Context, id string) (*Course, error)
	ByCode(ctx context.Context, academyID, code string) (*Course, error)
	ByAcademy(ctx context.Context, academyID string) ([]Course, error)
	ByCategory(ctx context.Context, academyID, category string) ([]Course, error)
	Upsert(ctx context.Context, course *Course) (*Course, error)
	DeleteByID(ctx context.Context, id string) error
}

// EnrollmentStore answers enrollment questions for the grade pipeline.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, studentID, courseID, academicYearID string) (bool, error)
}

// NoteStore persists grade records.
type NoteStore interface {
	ByStudentAndTest(ctx context.Context, studentID, testID string) (*Note, error)
	ByStudent(ctx context.Context, studentID string) ([]Note, error)
	ByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]Note, error)
	ByTestAndCourse(ctx context.Context, testID, courseID string) ([]Note, error)
	// BulkUpsert applies the whole batch keyed on (student_id, test_id):
	// insert when absent, overwrite score/comment/entered-by/entered-at when
	// present. Re-submitting an identical batch leaves the same end state.
	BulkUpsert(ctx context.Context, notes []Note) ([]Note, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
