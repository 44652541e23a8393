package bunstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
)

// TrimesterStore is the bun adapter for academy.TrimesterStore.
type TrimesterStore struct {
	db *bun.DB
}

// NewTrimesterStore creates the adapter.
func NewTrimesterStore(db *bun.DB) *TrimesterStore {
	return &TrimesterStore{db: db}
}

// ByID implements academy.TrimesterStore.
func (s *TrimesterStore) ByID(ctx context.Context, id string) (*academy.Trimester, error) {
	tr := new(academy.Trimester)
	err := s.db.NewSelect().Model(tr).Where("tr.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return tr, nil
}

// ByYearAndOrder implements academy.TrimesterStore.
func (s *TrimesterStore) ByYearAndOrder(ctx context.Context, academicYearID string, order int) (*academy.Trimester, error) {
	tr := new(academy.Trimester)
	err := s.db.NewSelect().Model(tr).
		Where("tr.academic_year_id = ?", academicYearID).
		Where("tr.ord = ?", order).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return tr, nil
}

// ByYear implements academy.TrimesterStore, in trimester order.
func (s *TrimesterStore) ByYear(ctx context.Context, academicYearID string) ([]academy.Trimester, error) {
	var trimesters []academy.Trimester
	err := s.db.NewSelect().Model(&trimesters).
		Where("tr.academic_year_id = ?", academicYearID).
		Order("tr.ord ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return trimesters, nil
}

var _ academy.TrimesterStore = (*TrimesterStore)(nil)

// TestStore is the bun adapter for academy.TestStore.
type TestStore struct {
	db *bun.DB
}

// NewTestStore creates the adapter.
func NewTestStore(db *bun.DB) *TestStore {
	return &TestStore{db: db}
}

// ByID implements academy.TestStore.
func (s *TestStore) ByID(ctx context.Context, id string) (*academy.Test, error) {
	test := new(academy.Test)
	err := s.db.NewSelect().Model(test).Where("t.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return test, nil
}

// ByTrimesterAndCourse implements academy.TestStore. Date order matters: the
// Trim{N}-{M} resolver indexes into this slice.
func (s *TestStore) ByTrimesterAndCourse(ctx context.Context, trimesterID, courseID string) ([]academy.Test, error) {
	var tests []academy.Test
	err := s.db.NewSelect().Model(&tests).
		Join("JOIN course_classes AS cc ON cc.id = t.course_class_id").
		Where("t.trimester_id = ?", trimesterID).
		Where("cc.course_id = ?", courseID).
		Order("t.date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tests, nil
}

var _ academy.TestStore = (*TestStore)(nil)

// StudentStore is the bun adapter for academy.StudentStore.
type StudentStore struct {
	db *bun.DB
}

// NewStudentStore creates the adapter.
func NewStudentStore(db *bun.DB) *StudentStore {
	return &StudentStore{db: db}
}

// ByID implements academy.StudentStore.
func (s *StudentStore) ByID(ctx context.Context, id string) (*academy.Student, error) {
	student := new(academy.Student)
	err := s.db.NewSelect().Model(student).Where("s.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return student, nil
}

// ByRegistrationNumber implements academy.StudentStore. Registration numbers
// are unique per tenant, so the query is tenant-scoped.
func (s *StudentStore) ByRegistrationNumber(ctx context.Context, academyID, registrationNumber string) (*academy.Student, error) {
	student := new(academy.Student)
	err := s.db.NewSelect().Model(student).
		Where("s.academy_id = ?", academyID).
		Where("s.registration_number = ?", registrationNumber).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return student, nil
}

var _ academy.StudentStore = (*StudentStore)(nil)

// EnrollmentStore answers enrollment questions with a single join chain:
// confirmed inscription for the year, then an active course class for the
// inscription's class year.
type EnrollmentStore struct {
	db *bun.DB
}

// NewEnrollmentStore creates the adapter.
func NewEnrollmentStore(db *bun.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

// IsEnrolled implements academy.EnrollmentStore.
func (s *EnrollmentStore) IsEnrolled(ctx context.Context, studentID, courseID, academicYearID string) (bool, error) {
	count, err := s.db.NewSelect().Model((*academy.Inscription)(nil)).
		Join("JOIN course_classes AS cc ON cc.class_year_id = i.class_year_id").
		Where("i.student_id = ?", studentID).
		Where("i.academic_year_id = ?", academicYearID).
		Where("i.status = ?", academy.InscriptionConfirmed).
		Where("cc.course_id = ?", courseID).
		Where("cc.is_active = ?", true).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ academy.EnrollmentStore = (*EnrollmentStore)(nil)
