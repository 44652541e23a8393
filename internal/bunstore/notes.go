package bunstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
)

// NoteStore is the bun adapter for academy.NoteStore.
type NoteStore struct {
	db *bun.DB
}

// NewNoteStore creates the adapter.
func NewNoteStore(db *bun.DB) *NoteStore {
	return &NoteStore{db: db}
}

// ByStudentAndTest implements academy.NoteStore.
func (s *NoteStore) ByStudentAndTest(ctx context.Context, studentID, testID string) (*academy.Note, error) {
	note := new(academy.Note)
	err := s.db.NewSelect().Model(note).
		Where("n.student_id = ?", studentID).
		Where("n.test_id = ?", testID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return note, nil
}

// ByStudent implements academy.NoteStore, ordered by entry time.
func (s *NoteStore) ByStudent(ctx context.Context, studentID string) ([]academy.Note, error) {
	var notes []academy.Note
	err := s.db.NewSelect().Model(&notes).
		Where("n.student_id = ?", studentID).
		Order("n.entered_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// ByStudentAndCourse implements academy.NoteStore.
func (s *NoteStore) ByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]academy.Note, error) {
	var notes []academy.Note
	err := s.db.NewSelect().Model(&notes).
		Where("n.student_id = ?", studentID).
		Where("n.course_id = ?", courseID).
		Order("n.entered_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// ByTestAndCourse implements academy.NoteStore.
func (s *NoteStore) ByTestAndCourse(ctx context.Context, testID, courseID string) ([]academy.Note, error) {
	var notes []academy.Note
	err := s.db.NewSelect().Model(&notes).
		Where("n.test_id = ?", testID).
		Where("n.course_id = ?", courseID).
		Order("n.entered_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// BulkUpsert implements academy.NoteStore. The conflict target is the
// unique (student_id, test_id) index, which is what makes grade batches
// idempotent: a resubmitted batch overwrites instead of duplicating. The
// insert runs as one statement; the rows are re-read afterwards so callers
// see the persisted ids of overwritten records.
func (s *NoteStore) BulkUpsert(ctx context.Context, notes []academy.Note) ([]academy.Note, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	_, err := s.db.NewInsert().Model(&notes).
		On("CONFLICT (student_id, test_id) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("max_score = EXCLUDED.max_score").
		Set("is_absent = EXCLUDED.is_absent").
		Set("comment = EXCLUDED.comment").
		Set("entered_by = EXCLUDED.entered_by").
		Set("entered_at = EXCLUDED.entered_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	persisted := make([]academy.Note, 0, len(notes))
	for _, n := range notes {
		row, err := s.ByStudentAndTest(ctx, n.StudentID, n.TestID)
		if err != nil {
			return nil, err
		}
		persisted = append(persisted, *row)
	}
	return persisted, nil
}

var _ academy.NoteStore = (*NoteStore)(nil)
