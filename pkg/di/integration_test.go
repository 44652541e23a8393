package di

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/courses"
	"github.com/goliatone/go-academy-core/notes"
	"github.com/goliatone/go-academy-core/scope"
	"github.com/goliatone/go-academy-core/years"

	_ "github.com/mattn/go-sqlite3"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })

	db := NewDB(sqldb)
	if err := CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func seedTenant(t *testing.T, db *bun.DB) string {
	t.Helper()
	tenantID := uuid.NewString()
	if _, err := db.NewInsert().Model(&academy.Academy{ID: tenantID, Name: "Test Academy"}).
		Exec(context.Background()); err != nil {
		t.Fatalf("seed academy: %v", err)
	}
	return tenantID
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestContainerRejectsBadConfig(t *testing.T) {
	db := openDB(t)
	cfg := cache.DefaultConfig()
	cfg.NumShards = 0
	if _, err := NewContainer(db, cfg, quietLogger()); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestResolveScopeRequiresTenant(t *testing.T) {
	db := openDB(t)
	container, err := NewContainerWithDefaults(db, quietLogger())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}

	_, err = container.ResolveScope(context.Background(), scope.Principal{UserID: "u1"}, "", false)
	if !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

// End-to-end over real sqlite: year lifecycle, course catalog and one grade
// batch resolved entirely by human-facing codes.
func TestContainerEndToEnd(t *testing.T) {
	db := openDB(t)
	container, err := NewContainerWithDefaults(db, quietLogger())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	principal := scope.Principal{UserID: "teacher-1", TenantID: tenantID, Role: "teacher"}

	// No year exists yet: a year-requiring resolve must instruct the caller.
	if _, err := container.ResolveScope(ctx, principal, "", true); !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest before any year exists, got %v", err)
	}

	yearScope, err := container.ResolveScope(ctx, principal, "", false)
	if err != nil {
		t.Fatalf("resolve tenant scope: %v", err)
	}
	year, err := container.Years().Create(ctx, yearScope, years.CreateInput{
		Name:      "2025/2026",
		StartDate: date(2025, 9, 1),
		EndDate:   date(2026, 6, 30),
	})
	if err != nil {
		t.Fatalf("create year: %v", err)
	}
	if !year.IsCurrent {
		t.Fatal("first year must be current")
	}

	sc, err := container.ResolveScope(ctx, principal, "", true)
	if err != nil {
		t.Fatalf("resolve scope with year: %v", err)
	}
	if sc.AcademicYearID != year.ID {
		t.Fatalf("resolved %s, want %s", sc.AcademicYearID, year.ID)
	}

	course, err := container.Courses().Create(ctx, sc, courses.Input{
		Name: "Mathematics", Code: "MATH101", Coefficient: 4, Category: "science",
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	seedClassroom(t, db, tenantID, year.ID, course.ID)

	batch := []notes.BatchItem{{
		RegistrationNumber: "STU001",
		CourseCode:         "MATH101",
		TestCode:           "Trim1-1",
		Score:              15,
	}}
	recorded, err := container.Grades().Record(ctx, sc, principal.UserID, batch)
	if err != nil {
		t.Fatalf("record grades: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Score != 15 {
		t.Fatalf("got %+v", recorded)
	}

	// Idempotency over the real unique index.
	batch[0].Score = 17
	again, err := container.Grades().Record(ctx, sc, principal.UserID, batch)
	if err != nil {
		t.Fatalf("re-record grades: %v", err)
	}
	if again[0].ID != recorded[0].ID {
		t.Fatalf("re-submission created a new row: %s vs %s", again[0].ID, recorded[0].ID)
	}
	if again[0].Score != 17 {
		t.Fatalf("second submission's score must win, got %v", again[0].Score)
	}

	all, err := container.Grades().NotesByStudent(ctx, sc, recorded[0].StudentID, "")
	if err != nil {
		t.Fatalf("read notes: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one note, got %d", len(all))
	}

	// Out-of-policy score: whole batch rejected, nothing written.
	batch[0].Score = 25
	if _, err := container.Grades().Record(ctx, sc, principal.UserID, batch); !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	final, err := container.Grades().NotesByStudent(ctx, sc, recorded[0].StudentID, "")
	if err != nil {
		t.Fatalf("read notes after rejection: %v", err)
	}
	if len(final) != 1 || final[0].Score != 17 {
		t.Fatalf("rejected batch leaked a write: %+v", final)
	}
}

// seedClassroom inserts the structural rows that sit outside this module's
// services: class, class year, course class, trimester, test, student and a
// confirmed inscription.
func seedClassroom(t *testing.T, db *bun.DB, tenantID, yearID, courseID string) {
	t.Helper()
	ctx := context.Background()

	classID := uuid.NewString()
	classYearID := uuid.NewString()
	courseClassID := uuid.NewString()
	trimesterID := uuid.NewString()
	studentID := uuid.NewString()

	rows := []any{
		&academy.Class{ID: classID, Name: "6e A", Code: "6A", AcademyID: tenantID},
		&academy.ClassYear{ID: classYearID, ClassID: classID, AcademicYearID: yearID},
		&academy.CourseClass{ID: courseClassID, CourseID: courseID, ClassYearID: classYearID, IsActive: true},
		&academy.Trimester{
			ID: trimesterID, Name: "Trimestre 1", Order: 1,
			StartDate: date(2025, 9, 1), EndDate: date(2025, 12, 20),
			AcademicYearID: yearID, IsActive: true,
		},
		&academy.Test{
			ID: uuid.NewString(), Name: "Contrôle 1", Type: academy.TestExam,
			Date: date(2025, 10, 15), TrimesterID: trimesterID, CourseClassID: courseClassID,
		},
		&academy.Student{
			ID: studentID, RegistrationNumber: "STU001",
			FirstName: "Awa", LastName: "Diallo", AcademyID: tenantID,
		},
		&academy.Inscription{
			ID: uuid.NewString(), StudentID: studentID, ClassYearID: classYearID,
			AcademicYearID: yearID, Status: academy.InscriptionConfirmed,
		},
	}
	for _, row := range rows {
		if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
			t.Fatalf("seed classroom: %v", err)
		}
	}
}
