// Package notes implements grade recording: a batch pipeline that resolves
// human-facing codes to internal identifiers, validates enrollment and score
// bounds against tenant state, and persists the whole batch with one
// idempotent upsert keyed by (student, test). Validation is all-or-nothing:
// any failing item aborts the batch before a single row is written.
package notes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/repositorycache"
	"github.com/goliatone/go-academy-core/scope"
)

// Cache key layout. Code resolutions cache under the scope their query
// filters by: registration numbers and course codes per tenant, test codes
// per tenant and year. Note lists key by internal ids, which are global.
const (
	noteEntityKind  = "note"
	studentListKind = "student"
	testCourseKind  = "test_course"
	studentTestKind = "student_test"

	studentEntityKind = "student"
	registrationKind  = "registration"
	courseEntityKind  = "course"
	courseCodeKind    = "code"
	testEntityKind    = "test"
	testCodeKind      = "code"
)

// Coordinator owns the grade pipeline and cached grade reads.
type Coordinator struct {
	students    academy.StudentStore
	courses     academy.CourseStore
	trimesters  academy.TrimesterStore
	tests       academy.TestStore
	enrollments academy.EnrollmentStore
	notes       academy.NoteStore
	clock       academy.Clock

	studentCache *repositorycache.ScopedStore[*academy.Student]
	courseCache  *repositorycache.ScopedStore[*academy.Course]
	testCache    *repositorycache.ScopedStore[*academy.Test]
	noteCache    *repositorycache.ScopedStore[[]academy.Note]
}

// Stores bundles the durable collaborators the coordinator needs.
type Stores struct {
	Students    academy.StudentStore
	Courses     academy.CourseStore
	Trimesters  academy.TrimesterStore
	Tests       academy.TestStore
	Enrollments academy.EnrollmentStore
	Notes       academy.NoteStore
}

// NewCoordinator wires the pipeline. A nil clock falls back to time.Now.
func NewCoordinator(stores Stores, kv cache.KeyValue, cfg cache.Config, coord *repositorycache.Coordinator, clock academy.Clock, logger *slog.Logger) *Coordinator {
	if clock == nil {
		clock = academy.ClockFunc(time.Now)
	}
	return &Coordinator{
		students:     stores.Students,
		courses:      stores.Courses,
		trimesters:   stores.Trimesters,
		tests:        stores.Tests,
		enrollments:  stores.Enrollments,
		notes:        stores.Notes,
		clock:        clock,
		studentCache: repositorycache.NewScopedStore[*academy.Student](studentEntityKind, kv, cfg, coord, logger),
		courseCache:  repositorycache.NewScopedStore[*academy.Course](courseEntityKind, kv, cfg, coord, logger),
		testCache:    repositorycache.NewScopedStore[*academy.Test](testEntityKind, kv, cfg, coord, logger),
		noteCache:    repositorycache.NewScopedStore[[]academy.Note](noteEntityKind, kv, cfg, coord, logger),
	}
}

// resolvedItem is a batch item after code resolution, ready to persist.
type resolvedItem struct {
	item    BatchItem
	student *academy.Student
	course  *academy.Course
	test    *academy.Test
}

// Record applies one grade batch for the resolved scope. The whole batch is
// validated first: code resolution, enrollment, score bound. Only when every
// item passes does a single bulk upsert run, keyed by (student, test), so a
// re-submitted batch overwrites rather than duplicates. Invalidation follows
// the committed write and covers every affected lookup.
func (c *Coordinator) Record(ctx context.Context, sc scope.RequestScope, enteredBy string, items []BatchItem) ([]academy.Note, error) {
	if !sc.HasYear() {
		return nil, academy.NewError(academy.CategoryBadRequest,
			"grade entry requires an academic year: supply one or mark a year current")
	}
	if len(items) == 0 {
		return nil, academy.NewError(academy.CategoryBadRequest, "grade batch is empty")
	}

	resolved := make([]resolvedItem, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, academy.WrapError(academy.CategoryBadRequest, err, "invalid grade item %d", i)
		}
		r, err := c.resolve(ctx, sc, item)
		if err != nil {
			return nil, err
		}
		if err := c.checkPolicy(ctx, sc, r); err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}

	now := c.clock.Now()
	rows := make([]academy.Note, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, academy.Note{
			ID:        uuid.NewString(),
			StudentID: r.student.ID,
			TestID:    r.test.ID,
			CourseID:  r.course.ID,
			Score:     r.item.Score,
			MaxScore:  r.item.maxScore(),
			IsAbsent:  r.item.IsAbsent,
			Comment:   r.item.Comment,
			EnteredBy: enteredBy,
			EnteredAt: now,
		})
	}

	persisted, err := c.notes.BulkUpsert(ctx, rows)
	if err != nil {
		return nil, err
	}
	c.noteCache.Invalidate(ctx, c.invalidationPlan(persisted))
	return persisted, nil
}

// NotesByStudent returns a student's grades cache-aside, optionally filtered
// by course. All filter variants share one invalidation prefix per student.
func (c *Coordinator) NotesByStudent(ctx context.Context, sc scope.RequestScope, studentID, courseID string) ([]academy.Note, error) {
	values := []string{studentID, cache.SerializeArgs(courseID)}
	return c.noteCache.GetOrLoad(ctx, cache.Global, studentListKind, values, func(ctx context.Context) ([]academy.Note, error) {
		if courseID != "" {
			return c.notes.ByStudentAndCourse(ctx, studentID, courseID)
		}
		return c.notes.ByStudent(ctx, studentID)
	})
}

// NotesByTest returns every grade recorded for one test within a course.
func (c *Coordinator) NotesByTest(ctx context.Context, sc scope.RequestScope, testID, courseID string) ([]academy.Note, error) {
	values := []string{testID, courseID}
	return c.noteCache.GetOrLoad(ctx, cache.Global, testCourseKind, values, func(ctx context.Context) ([]academy.Note, error) {
		return c.notes.ByTestAndCourse(ctx, testID, courseID)
	})
}

// NoteByStudentAndTest returns the single grade for a (student, test) pair.
func (c *Coordinator) NoteByStudentAndTest(ctx context.Context, sc scope.RequestScope, studentID, testID string) (*academy.Note, error) {
	note, err := c.noteCache.GetOrLoad(ctx, cache.Global, studentTestKind, []string{studentID, testID}, func(ctx context.Context) ([]academy.Note, error) {
		row, err := c.notes.ByStudentAndTest(ctx, studentID, testID)
		if err != nil {
			return nil, err
		}
		return []academy.Note{*row}, nil
	})
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"no grade recorded for student %s on test %s", studentID, testID)
		}
		return nil, err
	}
	return &note[0], nil
}

// resolve maps one item's references to internal records, failing NotFound
// with the offending code in the message.
func (c *Coordinator) resolve(ctx context.Context, sc scope.RequestScope, item BatchItem) (resolvedItem, error) {
	student, err := c.resolveStudent(ctx, sc, item)
	if err != nil {
		return resolvedItem{}, err
	}
	course, err := c.resolveCourse(ctx, sc, item)
	if err != nil {
		return resolvedItem{}, err
	}
	test, err := c.resolveTest(ctx, sc, item, course.ID)
	if err != nil {
		return resolvedItem{}, err
	}
	return resolvedItem{item: item, student: student, course: course, test: test}, nil
}

func (c *Coordinator) resolveStudent(ctx context.Context, sc scope.RequestScope, item BatchItem) (*academy.Student, error) {
	if item.StudentID != "" {
		student, err := c.students.ByID(ctx, item.StudentID)
		if err != nil {
			if errors.Is(err, academy.ErrNotFound) {
				return nil, academy.NewError(academy.CategoryNotFound,
					"student %s not found", item.StudentID)
			}
			return nil, err
		}
		if student.AcademyID != sc.TenantID {
			return nil, academy.NewError(academy.CategoryForbidden,
				"student %s does not belong to your academy", item.StudentID)
		}
		return student, nil
	}

	student, err := c.studentCache.GetOrLoad(ctx, sc.TenantScope(), registrationKind, []string{item.RegistrationNumber}, func(ctx context.Context) (*academy.Student, error) {
		return c.students.ByRegistrationNumber(ctx, sc.TenantID, item.RegistrationNumber)
	})
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"registration number %q not found", item.RegistrationNumber)
		}
		return nil, err
	}
	return student, nil
}

func (c *Coordinator) resolveCourse(ctx context.Context, sc scope.RequestScope, item BatchItem) (*academy.Course, error) {
	if item.CourseID != "" {
		course, err := c.courses.ByID(ctx, item.CourseID)
		if err != nil {
			if errors.Is(err, academy.ErrNotFound) {
				return nil, academy.NewError(academy.CategoryNotFound,
					"course %s not found", item.CourseID)
			}
			return nil, err
		}
		if course.AcademyID != sc.TenantID {
			return nil, academy.NewError(academy.CategoryForbidden,
				"course %s does not belong to your academy", item.CourseID)
		}
		return course, nil
	}

	course, err := c.courseCache.GetOrLoad(ctx, sc.TenantScope(), courseCodeKind, []string{item.CourseCode}, func(ctx context.Context) (*academy.Course, error) {
		return c.courses.ByCode(ctx, sc.TenantID, item.CourseCode)
	})
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"course code %q not found", item.CourseCode)
		}
		return nil, err
	}
	return course, nil
}

// resolveTest maps a test reference to a record. Trim{N}-{M} codes resolve
// positionally: the M-th test by date within the year's N-th trimester by
// order, for the item's course. Resolved positions cache per (tenant, year).
func (c *Coordinator) resolveTest(ctx context.Context, sc scope.RequestScope, item BatchItem, courseID string) (*academy.Test, error) {
	if item.TestID != "" {
		test, err := c.tests.ByID(ctx, item.TestID)
		if err != nil {
			if errors.Is(err, academy.ErrNotFound) {
				return nil, academy.NewError(academy.CategoryNotFound,
					"test %s not found", item.TestID)
			}
			return nil, err
		}
		return test, nil
	}

	trimOrder, position, err := parseTestCode(item.TestCode)
	if err != nil {
		return nil, err
	}

	values := []string{courseID, item.TestCode}
	return c.testCache.GetOrLoad(ctx, sc.CacheScope(), testCodeKind, values, func(ctx context.Context) (*academy.Test, error) {
		trimester, err := c.trimesters.ByYearAndOrder(ctx, sc.AcademicYearID, trimOrder)
		if err != nil {
			if errors.Is(err, academy.ErrNotFound) {
				return nil, academy.NewError(academy.CategoryNotFound,
					"test code %q: the academic year has no trimester %d", item.TestCode, trimOrder)
			}
			return nil, err
		}
		tests, err := c.tests.ByTrimesterAndCourse(ctx, trimester.ID, courseID)
		if err != nil {
			return nil, err
		}
		if position > len(tests) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"test code %q: trimester %d has only %d tests for this course", item.TestCode, trimOrder, len(tests))
		}
		test := tests[position-1]
		return &test, nil
	})
}

// checkPolicy enforces enrollment and the score bound for one resolved item.
func (c *Coordinator) checkPolicy(ctx context.Context, sc scope.RequestScope, r resolvedItem) error {
	enrolled, err := c.enrollments.IsEnrolled(ctx, r.student.ID, r.course.ID, sc.AcademicYearID)
	if err != nil {
		return err
	}
	if !enrolled {
		return academy.NewError(academy.CategoryForbidden,
			"student %s is not enrolled in course %s for this academic year",
			r.student.RegistrationNumber, r.course.Code)
	}
	if r.item.Score > r.item.maxScore() {
		return academy.NewError(academy.CategoryForbidden,
			"student %s: score %.2f exceeds the maximum of %.2f",
			r.student.RegistrationNumber, r.item.Score, r.item.maxScore())
	}
	return nil
}

// invalidationPlan covers every lookup a persisted note can be cached under:
// the exact (student, test) entry and the per-test list, plus the per-student
// prefix that spans all filter variants, course-filtered reads included.
func (c *Coordinator) invalidationPlan(persisted []academy.Note) repositorycache.Plan {
	plan := repositorycache.Plan{}
	for _, n := range persisted {
		plan = plan.
			WithKeys(
				c.noteCache.Key(cache.Global, studentTestKind, n.StudentID, n.TestID),
				c.noteCache.Key(cache.Global, testCourseKind, n.TestID, n.CourseID),
			).
			WithPrefixes(c.noteCache.Prefix(cache.Global, studentListKind, n.StudentID))
	}
	return plan
}
