package notes

import (
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-academy-core/academy"
)

// BatchItem is one grade in a submission. Students, courses and tests may be
// referenced either by internal id or by the human-facing code teachers work
// with (registration number, course code, Trim{N}-{M} test code).
type BatchItem struct {
	StudentID          string   `json:"studentId,omitempty"`
	RegistrationNumber string   `json:"registrationNumber,omitempty"`
	CourseID           string   `json:"courseId,omitempty"`
	CourseCode         string   `json:"courseCode,omitempty"`
	TestID             string   `json:"testId,omitempty"`
	TestCode           string   `json:"testCode,omitempty"`
	Score              float64  `json:"score"`
	MaxScore           *float64 `json:"maxScore,omitempty"`
	IsAbsent           bool     `json:"isAbsent,omitempty"`
	Comment            string   `json:"comment,omitempty"`
}

// Validate checks the item shape: one reference per subject and a
// non-negative score. Score bounds and enrollment are checked against tenant
// state by the coordinator.
func (it BatchItem) Validate() error {
	return validation.ValidateStruct(&it,
		validation.Field(&it.StudentID,
			validation.Required.When(it.RegistrationNumber == "").
				Error("either studentId or registrationNumber is required")),
		validation.Field(&it.CourseID,
			validation.Required.When(it.CourseCode == "").
				Error("either courseId or courseCode is required")),
		validation.Field(&it.TestID,
			validation.Required.When(it.TestCode == "").
				Error("either testId or testCode is required")),
		validation.Field(&it.Score, validation.Min(0.0)),
		validation.Field(&it.MaxScore, validation.Min(0.0)),
	)
}

// maxScore resolves the per-item bound, falling back to the default scale.
func (it BatchItem) maxScore() float64 {
	if it.MaxScore != nil {
		return *it.MaxScore
	}
	return academy.DefaultMaxScore
}

var testCodePattern = regexp.MustCompile(`^Trim([1-9]\d*)-([1-9]\d*)$`)

// parseTestCode splits a Trim{N}-{M} code into the trimester order N and the
// one-based test position M within that trimester (tests ordered by date).
func parseTestCode(code string) (trimester, position int, err error) {
	m := testCodePattern.FindStringSubmatch(code)
	if m == nil {
		return 0, 0, academy.NewError(academy.CategoryBadRequest,
			"malformed test code %q: expected Trim{N}-{M}", code)
	}
	trimester, _ = strconv.Atoi(m[1])
	position, _ = strconv.Atoi(m[2])
	return trimester, position, nil
}
