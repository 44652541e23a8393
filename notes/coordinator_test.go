package notes

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/pkg/testsupport"
	"github.com/goliatone/go-academy-core/repositorycache"
	"github.com/goliatone/go-academy-core/scope"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	coord       *Coordinator
	notes       *testsupport.NoteStore
	enrollments *testsupport.EnrollmentStore
	sc          scope.RequestScope
}

// newFixture seeds one tenant with a student (STU001), a course (MATH101)
// and two dated tests in the year's first trimester, the student enrolled.
func newFixture(t *testing.T) fixture {
	t.Helper()
	enrollments := testsupport.NewEnrollmentStore()
	enrollments.Enroll("stu-1", "crs-1", "y1")
	return buildFixture(t, enrollments)
}

func buildFixture(t *testing.T, enrollments *testsupport.EnrollmentStore) fixture {
	t.Helper()

	students := testsupport.NewStudentStore(&academy.Student{
		ID: "stu-1", RegistrationNumber: "STU001",
		FirstName: "Awa", LastName: "Diallo", AcademyID: "t1",
	})
	courseStore := testsupport.NewCourseStore(&academy.Course{
		ID: "crs-1", Name: "Mathematics", Code: "MATH101",
		Category: "science", IsActive: true, AcademyID: "t1",
	})
	trimesters := testsupport.NewTrimesterStore(&academy.Trimester{
		ID: "tri-1", Name: "Trimestre 1", Order: 1, AcademicYearID: "y1", IsActive: true,
	})
	tests := testsupport.NewTestStore(
		&academy.Test{
			ID: "tst-1", Name: "Contrôle 1", Type: academy.TestExam,
			Date:        time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
			TrimesterID: "tri-1", CourseClassID: "cc-1",
		},
		&academy.Test{
			ID: "tst-2", Name: "Contrôle 2", Type: academy.TestExam,
			Date:        time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
			TrimesterID: "tri-1", CourseClassID: "cc-1",
		},
	)
	tests.Courses["cc-1"] = "crs-1"

	noteStore := testsupport.NewNoteStore()

	kv := testsupport.NewMemoryKV()
	cfg := cache.DefaultConfig()
	logger := quietLogger()
	coord := NewCoordinator(Stores{
		Students:    students,
		Courses:     courseStore,
		Trimesters:  trimesters,
		Tests:       tests,
		Enrollments: enrollments,
		Notes:       noteStore,
	}, kv, cfg, repositorycache.NewCoordinator(kv, logger),
		testsupport.FixedClock(time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)), logger)

	return fixture{
		coord:       coord,
		notes:       noteStore,
		enrollments: enrollments,
		sc:          scope.RequestScope{TenantID: "t1", AcademicYearID: "y1", YearIsCurrent: true},
	}
}

func TestRecordResolvesCodes(t *testing.T) {
	f := newFixture(t)

	recorded, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001",
		CourseCode:         "MATH101",
		TestCode:           "Trim1-2",
		Score:              14,
		Comment:            "improving",
	}})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("expected one note, got %d", len(recorded))
	}
	n := recorded[0]
	if n.StudentID != "stu-1" || n.CourseID != "crs-1" || n.TestID != "tst-2" {
		t.Fatalf("codes misresolved: %+v", n)
	}
	if n.MaxScore != academy.DefaultMaxScore {
		t.Fatalf("omitted maxScore should default to %d, got %v", academy.DefaultMaxScore, n.MaxScore)
	}
	if n.EnteredBy != "teacher-1" {
		t.Fatalf("got %+v", n)
	}
}

func TestRecordIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := []BatchItem{{
		RegistrationNumber: "STU001",
		CourseCode:         "MATH101",
		TestCode:           "Trim1-1",
		Score:              12,
	}}
	if _, err := f.coord.Record(ctx, f.sc, "teacher-1", batch); err != nil {
		t.Fatalf("first Record: %v", err)
	}

	batch[0].Score = 15
	recorded, err := f.coord.Record(ctx, f.sc, "teacher-1", batch)
	if err != nil {
		t.Fatalf("second Record: %v", err)
	}

	if f.notes.Len() != 1 {
		t.Fatalf("re-submission duplicated rows: %d", f.notes.Len())
	}
	if recorded[0].Score != 15 {
		t.Fatalf("second submission's values must win, got %v", recorded[0].Score)
	}
}

func TestRecordScoreBoundRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{
		{RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-1", Score: 12},
		{RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-2", Score: 25},
	})
	if !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "STU001") {
		t.Fatalf("error must name the offending student, got %q", err.Error())
	}
	if f.notes.Len() != 0 {
		t.Fatalf("invalid batch must write nothing, wrote %d", f.notes.Len())
	}
}

func TestRecordScoreBoundAppliesToAbsentItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001",
		CourseCode:         "MATH101",
		TestCode:           "Trim1-1",
		Score:              25,
		IsAbsent:           true,
	}})
	if !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if f.notes.Len() != 0 {
		t.Fatalf("invalid batch must write nothing, wrote %d", f.notes.Len())
	}
}

func TestRecordExplicitMaxScoreRaisesBound(t *testing.T) {
	f := newFixture(t)

	max := 40.0
	recorded, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001",
		CourseCode:         "MATH101",
		TestCode:           "Trim1-1",
		Score:              25,
		MaxScore:           &max,
	}})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if recorded[0].MaxScore != 40 {
		t.Fatalf("got %+v", recorded[0])
	}
}

func TestRecordNotEnrolledForbidden(t *testing.T) {
	unenrolled := fixtureWithoutEnrollment(t)
	_, err := unenrolled.coord.Record(context.Background(), unenrolled.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-1", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "STU001") || !strings.Contains(err.Error(), "MATH101") {
		t.Fatalf("error must name student and course, got %q", err.Error())
	}
	if unenrolled.notes.Len() != 0 {
		t.Fatal("no write may happen for an unenrolled student")
	}
}

func TestRecordMalformedTestCode(t *testing.T) {
	f := newFixture(t)

	for _, code := range []string{"Trim-1", "Trim0-1", "Trim1-0", "T1-1", "Trim1"} {
		_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
			RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: code, Score: 10,
		}})
		if !academy.IsCategory(err, academy.CategoryBadRequest) {
			t.Errorf("code %q: expected BadRequest, got %v", code, err)
		}
	}
}

func TestRecordTestPositionOutOfRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-3", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRecordUnknownTrimester(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim2-1", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRecordUnknownRegistrationNumber(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "NOPE", CourseCode: "MATH101", TestCode: "Trim1-1", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "NOPE") {
		t.Fatalf("error must name the offending code, got %q", err.Error())
	}
}

func TestRecordRequiresYear(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), scope.RequestScope{TenantID: "t1"}, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-1", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestRecordEmptyBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", nil)
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestRecordMissingReferenceRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Record(context.Background(), f.sc, "teacher-1", []BatchItem{{
		CourseCode: "MATH101", TestCode: "Trim1-1", Score: 10,
	}})
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

// Recording must evict the cached read paths so the next read sees the batch.
func TestRecordInvalidatesCachedReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.coord.NotesByStudent(ctx, f.sc, "stu-1", "")
	if err != nil {
		t.Fatalf("NotesByStudent: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no notes yet, got %d", len(empty))
	}

	if _, err := f.coord.Record(ctx, f.sc, "teacher-1", []BatchItem{{
		RegistrationNumber: "STU001", CourseCode: "MATH101", TestCode: "Trim1-1", Score: 12,
	}}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := f.coord.NotesByStudent(ctx, f.sc, "stu-1", "")
	if err != nil {
		t.Fatalf("NotesByStudent after record: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("stale read served: %d notes", len(all))
	}

	filtered, err := f.coord.NotesByStudent(ctx, f.sc, "stu-1", "crs-1")
	if err != nil {
		t.Fatalf("NotesByStudent filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("filtered read wrong: %d notes", len(filtered))
	}

	byTest, err := f.coord.NotesByTest(ctx, f.sc, "tst-1", "crs-1")
	if err != nil {
		t.Fatalf("NotesByTest: %v", err)
	}
	if len(byTest) != 1 {
		t.Fatalf("by-test read wrong: %d notes", len(byTest))
	}
}

func TestInvalidationPlanCoversFilteredReads(t *testing.T) {
	f := newFixture(t)

	plan := f.coord.invalidationPlan([]academy.Note{{
		StudentID: "stu-1", TestID: "tst-1", CourseID: "crs-1",
	}})

	want := []string{
		f.coord.noteCache.Key(cache.Global, studentTestKind, "stu-1", "tst-1"),
		f.coord.noteCache.Key(cache.Global, testCourseKind, "tst-1", "crs-1"),
	}
	if len(plan.Keys) != len(want) {
		t.Fatalf("plan carries %d keys, want %d: %v", len(plan.Keys), len(want), plan.Keys)
	}
	for i, k := range want {
		if plan.Keys[i] != k {
			t.Fatalf("key %d = %q, want %q", i, plan.Keys[i], k)
		}
	}

	// The per-student prefix must reach both filter variants of the
	// by-student read, so neither needs its own exact key.
	if len(plan.Prefixes) != 1 {
		t.Fatalf("plan carries %d prefixes: %v", len(plan.Prefixes), plan.Prefixes)
	}
	unfiltered := f.coord.noteCache.Key(cache.Global, studentListKind, "stu-1", cache.SerializeArgs(""))
	filtered := f.coord.noteCache.Key(cache.Global, studentListKind, "stu-1", cache.SerializeArgs("crs-1"))
	for _, key := range []string{unfiltered, filtered} {
		if !strings.HasPrefix(key, plan.Prefixes[0]) {
			t.Fatalf("prefix %q misses cached key %q", plan.Prefixes[0], key)
		}
	}
}

func TestParseTestCode(t *testing.T) {
	trimester, position, err := parseTestCode("Trim2-3")
	if err != nil {
		t.Fatalf("parseTestCode: %v", err)
	}
	if trimester != 2 || position != 3 {
		t.Fatalf("got %d, %d", trimester, position)
	}
}

// fixtureWithoutEnrollment builds the standard fixture but leaves the
// student unenrolled.
func fixtureWithoutEnrollment(t *testing.T) fixture {
	t.Helper()
	f := buildFixture(t, testsupport.NewEnrollmentStore())
	return f
}
