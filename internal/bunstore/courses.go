package bunstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
)

// CourseStore is the bun adapter for academy.CourseStore.
type CourseStore struct {
	db *bun.DB
}

// NewCourseStore creates the adapter.
func NewCourseStore(db *bun.DB) *CourseStore {
	return &CourseStore{db: db}
}

// ByID implements academy.CourseStore.
func (s *CourseStore) ByID(ctx context.Context, id string) (*academy.Course, error) {
	course := new(academy.Course)
	err := s.db.NewSelect().Model(course).Where("co.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return course, nil
}

// ByCode implements academy.CourseStore. Codes are unique per tenant.
func (s *CourseStore) ByCode(ctx context.Context, academyID, code string) (*academy.Course, error) {
	course := new(academy.Course)
	err := s.db.NewSelect().Model(course).
		Where("co.academy_id = ?", academyID).
		Where("co.code = ?", code).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return course, nil
}

// ByAcademy implements academy.CourseStore.
func (s *CourseStore) ByAcademy(ctx context.Context, academyID string) ([]academy.Course, error) {
	var courses []academy.Course
	err := s.db.NewSelect().Model(&courses).
		Where("co.academy_id = ?", academyID).
		Order("co.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ByCategory implements academy.CourseStore.
func (s *CourseStore) ByCategory(ctx context.Context, academyID, category string) ([]academy.Course, error) {
	var courses []academy.Course
	err := s.db.NewSelect().Model(&courses).
		Where("co.academy_id = ?", academyID).
		Where("co.category = ?", category).
		Order("co.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// Upsert implements academy.CourseStore keyed on the primary key.
func (s *CourseStore) Upsert(ctx context.Context, course *academy.Course) (*academy.Course, error) {
	_, err := s.db.NewInsert().Model(course).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("code = EXCLUDED.code").
		Set("description = EXCLUDED.description").
		Set("coefficient = EXCLUDED.coefficient").
		Set("category = EXCLUDED.category").
		Set("is_active = EXCLUDED.is_active").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteByID implements academy.CourseStore. Deleting an absent id reports
// ErrNotFound so callers can name the missing course.
func (s *CourseStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*academy.Course)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return academy.ErrNotFound
	}
	return nil
}

var _ academy.CourseStore = (*CourseStore)(nil)
