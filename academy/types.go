package academy

import (
	"time"

	"github.com/uptrace/bun"
)

// Academy is the tenant: every scoped record carries its id.
type Academy struct {
	bun.BaseModel `bun:"table:academies,alias:a"`

	ID        string    `bun:",pk" json:"id"`
	Name      string    `bun:"name" json:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// AcademicYear governs enrollment, trimesters and grade entry for one tenant.
// At most one year per tenant carries IsCurrent.
type AcademicYear struct {
	bun.BaseModel `bun:"table:academic_years,alias:ay"`

	ID        string    `bun:",pk" json:"id"`
	Name      string    `bun:"name" json:"name"`
	StartDate time.Time `bun:"start_date" json:"startDate"`
	EndDate   time.Time `bun:"end_date" json:"endDate"`
	IsCurrent bool      `bun:"is_current" json:"isCurrent"`
	IsActive  bool      `bun:"is_active" json:"isActive"`
	AcademyID string    `bun:"academy_id" json:"academyId"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// Trimester is an ordered grading period within an academic year.
type Trimester struct {
	bun.BaseModel `bun:"table:trimesters,alias:tr"`

	ID             string    `bun:",pk" json:"id"`
	Name           string    `bun:"name" json:"name"`
	Order          int       `bun:"ord" json:"order"`
	StartDate      time.Time `bun:"start_date" json:"startDate"`
	EndDate        time.Time `bun:"end_date" json:"endDate"`
	Percentage     float64   `bun:"percentage" json:"percentage"`
	AcademicYearID string    `bun:"academic_year_id" json:"academicYearId"`
	IsActive       bool      `bun:"is_active" json:"isActive"`
}

// Class is a grade level (e.g. "6e A"); ClassYear instantiates it for one
// academic year.
type Class struct {
	bun.BaseModel `bun:"table:classes,alias:c"`

	ID        string `bun:",pk" json:"id"`
	Name      string `bun:"name" json:"name"`
	Code      string `bun:"code" json:"code"`
	AcademyID string `bun:"academy_id" json:"academyId"`
}

// ClassYear binds a class to an academic year. Inscriptions and course
// classes hang off it.
type ClassYear struct {
	bun.BaseModel `bun:"table:class_years,alias:cy"`

	ID             string `bun:",pk" json:"id"`
	ClassID        string `bun:"class_id" json:"classId"`
	AcademicYearID string `bun:"academic_year_id" json:"academicYearId"`
}

// Course is a subject taught at the academy. Category partitions list
// caches, so reassigning it must invalidate both old and new partitions.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:co"`

	ID          string    `bun:",pk" json:"id"`
	Name        string    `bun:"name" json:"name"`
	Code        string    `bun:"code" json:"code"`
	Description string    `bun:"description" json:"description"`
	Coefficient float64   `bun:"coefficient" json:"coefficient"`
	Category    string    `bun:"category" json:"category"`
	IsActive    bool      `bun:"is_active" json:"isActive"`
	AcademyID   string    `bun:"academy_id" json:"academyId"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// CourseClass binds a course to a class year; tests are scheduled against it.
type CourseClass struct {
	bun.BaseModel `bun:"table:course_classes,alias:cc"`

	ID          string `bun:",pk" json:"id"`
	CourseID    string `bun:"course_id" json:"courseId"`
	ClassYearID string `bun:"class_year_id" json:"classYearId"`
	IsActive    bool   `bun:"is_active" json:"isActive"`
}

// InscriptionConfirmed is the status that makes an inscription count as an
// enrollment.
const InscriptionConfirmed = "confirmed"

// Student is identified internally by id and externally by registration
// number (unique per tenant).
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID                 string    `bun:",pk" json:"id"`
	RegistrationNumber string    `bun:"registration_number" json:"registrationNumber"`
	FirstName          string    `bun:"first_name" json:"firstName"`
	LastName           string    `bun:"last_name" json:"lastName"`
	AcademyID          string    `bun:"academy_id" json:"academyId"`
	CreatedAt          time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// Inscription enrolls a student into a class year for one academic year.
type Inscription struct {
	bun.BaseModel `bun:"table:inscriptions,alias:i"`

	ID             string    `bun:",pk" json:"id"`
	StudentID      string    `bun:"student_id" json:"studentId"`
	ClassYearID    string    `bun:"class_year_id" json:"classYearId"`
	AcademicYearID string    `bun:"academic_year_id" json:"academicYearId"`
	Status         string    `bun:"status" json:"status"`
	CreatedAt      time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
}

// TestType enumerates supported assessment kinds.
type TestType string

const (
	TestExam      TestType = "exam"
	TestQuiz      TestType = "quiz"
	TestHomework  TestType = "homework"
	TestPractical TestType = "practical"
	TestOral      TestType = "oral"
)

// Test is a graded assessment within a trimester for a course class.
type Test struct {
	bun.BaseModel `bun:"table:tests,alias:t"`

	ID            string    `bun:",pk" json:"id"`
	Name          string    `bun:"name" json:"name"`
	Type          TestType  `bun:"type" json:"type"`
	Date          time.Time `bun:"date" json:"date"`
	Percentage    float64   `bun:"percentage" json:"percentage"`
	TrimesterID   string    `bun:"trimester_id" json:"trimesterId"`
	CourseClassID string    `bun:"course_class_id" json:"courseClassId"`
	Description   string    `bun:"description" json:"description"`
}

// Note is a recorded grade. At most one note exists per (StudentID, TestID);
// the grade pipeline enforces this with an idempotent upsert.
type Note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID        string    `bun:",pk" json:"id"`
	StudentID string    `bun:"student_id" json:"studentId"`
	TestID    string    `bun:"test_id" json:"testId"`
	CourseID  string    `bun:"course_id" json:"courseId"`
	Score     float64   `bun:"score" json:"score"`
	MaxScore  float64   `bun:"max_score" json:"maxScore"`
	IsAbsent  bool      `bun:"is_absent" json:"isAbsent"`
	Comment   string    `bun:"comment" json:"comment"`
	EnteredBy string    `bun:"entered_by" json:"enteredBy"`
	EnteredAt time.Time `bun:"entered_at" json:"enteredAt"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// DefaultMaxScore applies when a grade batch item omits MaxScore.
const DefaultMaxScore = 20
