package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-academy-core/academy"
)

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) academy.Clock {
	return academy.ClockFunc(func() time.Time { return t })
}

// YearStore is an in-memory academy.AcademicYearStore.
type YearStore struct {
	mu    sync.Mutex
	years map[string]*academy.AcademicYear

	CreateErr       error
	SetCurrentErr   error
	SetCurrentCalls int
}

// NewYearStore creates the fake, seeded with the given years.
func NewYearStore(seed ...*academy.AcademicYear) *YearStore {
	s := &YearStore{years: map[string]*academy.AcademicYear{}}
	for _, y := range seed {
		cp := *y
		s.years[y.ID] = &cp
	}
	return s
}

func (s *YearStore) ByID(ctx context.Context, id string) (*academy.AcademicYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.years[id]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *y
	return &cp, nil
}

func (s *YearStore) ByAcademy(ctx context.Context, academyID string) ([]academy.AcademicYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.AcademicYear
	for _, y := range s.years {
		if y.AcademyID == academyID {
			out = append(out, *y)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (s *YearStore) Current(ctx context.Context, academyID string) (*academy.AcademicYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, y := range s.years {
		if y.AcademyID == academyID && y.IsCurrent {
			cp := *y
			return &cp, nil
		}
	}
	return nil, academy.ErrNotFound
}

func (s *YearStore) Create(ctx context.Context, year *academy.AcademicYear) (*academy.AcademicYear, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *year
	s.years[year.ID] = &cp
	out := cp
	return &out, nil
}

func (s *YearStore) SetCurrent(ctx context.Context, academyID, yearID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetCurrentCalls++
	if s.SetCurrentErr != nil {
		return s.SetCurrentErr
	}
	target, ok := s.years[yearID]
	if !ok || target.AcademyID != academyID {
		return academy.ErrNotFound
	}
	for _, y := range s.years {
		if y.AcademyID == academyID {
			y.IsCurrent = false
		}
	}
	target.IsCurrent = true
	return nil
}

var _ academy.AcademicYearStore = (*YearStore)(nil)

// CourseStore is an in-memory academy.CourseStore.
type CourseStore struct {
	mu      sync.Mutex
	courses map[string]*academy.Course

	UpsertErr error
	ByIDCalls int
}

// NewCourseStore creates the fake, seeded with the given courses.
func NewCourseStore(seed ...*academy.Course) *CourseStore {
	s := &CourseStore{courses: map[string]*academy.Course{}}
	for _, c := range seed {
		cp := *c
		s.courses[c.ID] = &cp
	}
	return s
}

func (s *CourseStore) ByID(ctx context.Context, id string) (*academy.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ByIDCalls++
	c, ok := s.courses[id]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *CourseStore) ByCode(ctx context.Context, academyID, code string) (*academy.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.AcademyID == academyID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, academy.ErrNotFound
}

func (s *CourseStore) ByAcademy(ctx context.Context, academyID string) ([]academy.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Course
	for _, c := range s.courses {
		if c.AcademyID == academyID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CourseStore) ByCategory(ctx context.Context, academyID, category string) ([]academy.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Course
	for _, c := range s.courses {
		if c.AcademyID == academyID && c.Category == category {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CourseStore) Upsert(ctx context.Context, course *academy.Course) (*academy.Course, error) {
	if s.UpsertErr != nil {
		return nil, s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *course
	s.courses[course.ID] = &cp
	out := cp
	return &out, nil
}

func (s *CourseStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return academy.ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

var _ academy.CourseStore = (*CourseStore)(nil)

// StudentStore is an in-memory academy.StudentStore.
type StudentStore struct {
	mu       sync.Mutex
	students map[string]*academy.Student
}

// NewStudentStore creates the fake, seeded with the given students.
func NewStudentStore(seed ...*academy.Student) *StudentStore {
	s := &StudentStore{students: map[string]*academy.Student{}}
	for _, st := range seed {
		cp := *st
		s.students[st.ID] = &cp
	}
	return s
}

func (s *StudentStore) ByID(ctx context.Context, id string) (*academy.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *StudentStore) ByRegistrationNumber(ctx context.Context, academyID, registrationNumber string) (*academy.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.AcademyID == academyID && st.RegistrationNumber == registrationNumber {
			cp := *st
			return &cp, nil
		}
	}
	return nil, academy.ErrNotFound
}

var _ academy.StudentStore = (*StudentStore)(nil)

// TrimesterStore is an in-memory academy.TrimesterStore.
type TrimesterStore struct {
	mu         sync.Mutex
	trimesters map[string]*academy.Trimester
}

// NewTrimesterStore creates the fake, seeded with the given trimesters.
func NewTrimesterStore(seed ...*academy.Trimester) *TrimesterStore {
	s := &TrimesterStore{trimesters: map[string]*academy.Trimester{}}
	for _, tr := range seed {
		cp := *tr
		s.trimesters[tr.ID] = &cp
	}
	return s
}

func (s *TrimesterStore) ByID(ctx context.Context, id string) (*academy.Trimester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trimesters[id]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (s *TrimesterStore) ByYearAndOrder(ctx context.Context, academicYearID string, order int) (*academy.Trimester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.trimesters {
		if tr.AcademicYearID == academicYearID && tr.Order == order {
			cp := *tr
			return &cp, nil
		}
	}
	return nil, academy.ErrNotFound
}

func (s *TrimesterStore) ByYear(ctx context.Context, academicYearID string) ([]academy.Trimester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Trimester
	for _, tr := range s.trimesters {
		if tr.AcademicYearID == academicYearID {
			out = append(out, *tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

var _ academy.TrimesterStore = (*TrimesterStore)(nil)

// TestStore is an in-memory academy.TestStore. Courses maps a course-class id
// to its course id, standing in for the join the real adapter performs.
type TestStore struct {
	mu      sync.Mutex
	tests   map[string]*academy.Test
	Courses map[string]string
}

// NewTestStore creates the fake, seeded with the given tests.
func NewTestStore(seed ...*academy.Test) *TestStore {
	s := &TestStore{tests: map[string]*academy.Test{}, Courses: map[string]string{}}
	for _, t := range seed {
		cp := *t
		s.tests[t.ID] = &cp
	}
	return s
}

func (s *TestStore) ByID(ctx context.Context, id string) (*academy.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *TestStore) ByTrimesterAndCourse(ctx context.Context, trimesterID, courseID string) ([]academy.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Test
	for _, t := range s.tests {
		if t.TrimesterID == trimesterID && s.Courses[t.CourseClassID] == courseID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var _ academy.TestStore = (*TestStore)(nil)

// EnrollmentStore is an in-memory academy.EnrollmentStore.
type EnrollmentStore struct {
	mu       sync.Mutex
	enrolled map[[3]string]bool

	Err error
}

// NewEnrollmentStore creates the fake.
func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{enrolled: map[[3]string]bool{}}
}

// Enroll marks a student enrolled in a course for a year.
func (s *EnrollmentStore) Enroll(studentID, courseID, academicYearID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled[[3]string{studentID, courseID, academicYearID}] = true
}

func (s *EnrollmentStore) IsEnrolled(ctx context.Context, studentID, courseID, academicYearID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.enrolled[[3]string{studentID, courseID, academicYearID}], nil
}

var _ academy.EnrollmentStore = (*EnrollmentStore)(nil)

// NoteStore is an in-memory academy.NoteStore keyed by (student, test), the
// same conflict target the real adapter upserts on.
type NoteStore struct {
	mu    sync.Mutex
	notes map[[2]string]*academy.Note

	UpsertErr   error
	UpsertCalls int
}

// NewNoteStore creates the fake.
func NewNoteStore() *NoteStore {
	return &NoteStore{notes: map[[2]string]*academy.Note{}}
}

func (s *NoteStore) ByStudentAndTest(ctx context.Context, studentID, testID string) (*academy.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[[2]string{studentID, testID}]
	if !ok {
		return nil, academy.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *NoteStore) ByStudent(ctx context.Context, studentID string) ([]academy.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Note
	for _, n := range s.notes {
		if n.StudentID == studentID {
			out = append(out, *n)
		}
	}
	sortNotes(out)
	return out, nil
}

func (s *NoteStore) ByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]academy.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Note
	for _, n := range s.notes {
		if n.StudentID == studentID && n.CourseID == courseID {
			out = append(out, *n)
		}
	}
	sortNotes(out)
	return out, nil
}

func (s *NoteStore) ByTestAndCourse(ctx context.Context, testID, courseID string) ([]academy.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []academy.Note
	for _, n := range s.notes {
		if n.TestID == testID && n.CourseID == courseID {
			out = append(out, *n)
		}
	}
	sortNotes(out)
	return out, nil
}

func (s *NoteStore) BulkUpsert(ctx context.Context, notes []academy.Note) ([]academy.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++
	if s.UpsertErr != nil {
		return nil, s.UpsertErr
	}
	out := make([]academy.Note, 0, len(notes))
	for _, n := range notes {
		key := [2]string{n.StudentID, n.TestID}
		if existing, ok := s.notes[key]; ok {
			// Overwrite in place, keeping the original row id.
			n.ID = existing.ID
			n.CreatedAt = existing.CreatedAt
		}
		cp := n
		s.notes[key] = &cp
		out = append(out, cp)
	}
	return out, nil
}

// Len returns the number of stored notes.
func (s *NoteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

func sortNotes(notes []academy.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].EnteredAt.Equal(notes[j].EnteredAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].EnteredAt.Before(notes[j].EnteredAt)
	})
}

var _ academy.NoteStore = (*NoteStore)(nil)
