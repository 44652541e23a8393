package bunstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
)

// AcademicYearStore is the bun adapter for academy.AcademicYearStore.
type AcademicYearStore struct {
	db *bun.DB
}

// NewAcademicYearStore creates the adapter.
func NewAcademicYearStore(db *bun.DB) *AcademicYearStore {
	return &AcademicYearStore{db: db}
}

// ByID implements academy.AcademicYearStore.
func (s *AcademicYearStore) ByID(ctx context.Context, id string) (*academy.AcademicYear, error) {
	year := new(academy.AcademicYear)
	err := s.db.NewSelect().Model(year).Where("ay.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return year, nil
}

// ByAcademy implements academy.AcademicYearStore, newest first.
func (s *AcademicYearStore) ByAcademy(ctx context.Context, academyID string) ([]academy.AcademicYear, error) {
	var years []academy.AcademicYear
	err := s.db.NewSelect().Model(&years).
		Where("ay.academy_id = ?", academyID).
		Order("ay.start_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return years, nil
}

// Current implements academy.AcademicYearStore.
func (s *AcademicYearStore) Current(ctx context.Context, academyID string) (*academy.AcademicYear, error) {
	year := new(academy.AcademicYear)
	err := s.db.NewSelect().Model(year).
		Where("ay.academy_id = ?", academyID).
		Where("ay.is_current = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return year, nil
}

// Create implements academy.AcademicYearStore.
func (s *AcademicYearStore) Create(ctx context.Context, year *academy.AcademicYear) (*academy.AcademicYear, error) {
	if _, err := s.db.NewInsert().Model(year).Exec(ctx); err != nil {
		return nil, err
	}
	return year, nil
}

// SetCurrent clears and sets the current flag in one transaction, so no
// reader ever observes zero or two current years for a tenant.
func (s *AcademicYearStore) SetCurrent(ctx context.Context, academyID, yearID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model((*academy.AcademicYear)(nil)).
			Set("is_current = ?", false).
			Where("academy_id = ?", academyID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewUpdate().Model((*academy.AcademicYear)(nil)).
			Set("is_current = ?", true).
			Where("id = ?", yearID).
			Where("academy_id = ?", academyID).
			Exec(ctx)
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
	})
}

var _ academy.AcademicYearStore = (*AcademicYearStore)(nil)
