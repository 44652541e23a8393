// Package courses implements course catalog reads and writes. Single-course
// lookups cache by id (global, with a post-load ownership check) and by code
// (tenant-scoped); lists cache per tenant, partitioned by category. Every
// mutation computes its invalidation set from both the old and the new
// record, so moving a course between categories evicts both partitions.
package courses

import (
	"context"
	"errors"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/repositorycache"
	"github.com/goliatone/go-academy-core/scope"
)

const (
	entityKind   = "course"
	idKind       = "id"
	codeKind     = "code"
	listKind     = "list"
	categoryKind = "category"
)

// Input is the payload for creating or updating a course.
type Input struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Coefficient float64 `json:"coefficient"`
	Category    string  `json:"category"`
}

// Validate checks the payload shape.
func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.Coefficient, validation.Min(0.0)),
	)
}

// Service owns course mutations and cached reads.
type Service struct {
	courses academy.CourseStore
	single  *repositorycache.ScopedStore[*academy.Course]
	lists   *repositorycache.ScopedStore[[]academy.Course]
	clock   academy.Clock
}

// NewService wires the service. A nil clock falls back to time.Now.
func NewService(courses academy.CourseStore, kv cache.KeyValue, cfg cache.Config, coord *repositorycache.Coordinator, clock academy.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = academy.ClockFunc(time.Now)
	}
	return &Service{
		courses: courses,
		single:  repositorycache.NewScopedStore[*academy.Course](entityKind, kv, cfg, coord, logger),
		lists:   repositorycache.NewScopedStore[[]academy.Course](entityKind, kv, cfg, coord, logger),
		clock:   clock,
	}
}

// Get returns one course by id. The id is a global identifier, so the cache
// entry is unscoped and ownership is enforced after the load.
func (s *Service) Get(ctx context.Context, sc scope.RequestScope, id string) (*academy.Course, error) {
	course, err := s.single.GetOrLoad(ctx, cache.Global, idKind, []string{id}, func(ctx context.Context) (*academy.Course, error) {
		return s.courses.ByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound, "course %s not found", id)
		}
		return nil, err
	}
	if course.AcademyID != sc.TenantID {
		return nil, academy.NewError(academy.CategoryForbidden,
			"course %s does not belong to your academy", id)
	}
	return course, nil
}

// GetByCode returns one course by its tenant-unique code.
func (s *Service) GetByCode(ctx context.Context, sc scope.RequestScope, code string) (*academy.Course, error) {
	course, err := s.single.GetOrLoad(ctx, sc.TenantScope(), codeKind, []string{code}, func(ctx context.Context) (*academy.Course, error) {
		return s.courses.ByCode(ctx, sc.TenantID, code)
	})
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound, "course %q not found", code)
		}
		return nil, err
	}
	return course, nil
}

// List returns every course of the tenant, cache-aside.
func (s *Service) List(ctx context.Context, sc scope.RequestScope) ([]academy.Course, error) {
	values := []string{cache.SerializeArgs()}
	return s.lists.GetOrLoad(ctx, sc.TenantScope(), listKind, values, func(ctx context.Context) ([]academy.Course, error) {
		return s.courses.ByAcademy(ctx, sc.TenantID)
	})
}

// ListByCategory returns the tenant's courses within one category partition.
func (s *Service) ListByCategory(ctx context.Context, sc scope.RequestScope, category string) ([]academy.Course, error) {
	return s.lists.GetOrLoad(ctx, sc.TenantScope(), categoryKind, []string{category}, func(ctx context.Context) ([]academy.Course, error) {
		return s.courses.ByCategory(ctx, sc.TenantID, category)
	})
}

// Create adds a course. The code must be unused within the tenant.
func (s *Service) Create(ctx context.Context, sc scope.RequestScope, in Input) (*academy.Course, error) {
	if err := in.Validate(); err != nil {
		return nil, academy.WrapError(academy.CategoryBadRequest, err, "invalid course")
	}
	if err := s.ensureCodeFree(ctx, sc, in.Code, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	course := &academy.Course{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Coefficient: in.Coefficient,
		Category:    in.Category,
		IsActive:    true,
		AcademyID:   sc.TenantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.single.Mutate(ctx, func(ctx context.Context) (*academy.Course, error) {
		return s.courses.Upsert(ctx, course)
	}, s.mutationPlan(sc, course, nil), s.idKey(course.ID))
}

// Update replaces the mutable fields of a course. When the category or code
// changes, the plan covers the old values too.
func (s *Service) Update(ctx context.Context, sc scope.RequestScope, id string, in Input) (*academy.Course, error) {
	if err := in.Validate(); err != nil {
		return nil, academy.WrapError(academy.CategoryBadRequest, err, "invalid course")
	}

	old, err := s.owned(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if in.Code != old.Code {
		if err := s.ensureCodeFree(ctx, sc, in.Code, id); err != nil {
			return nil, err
		}
	}

	updated := &academy.Course{
		ID:          id,
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Coefficient: in.Coefficient,
		Category:    in.Category,
		IsActive:    old.IsActive,
		AcademyID:   old.AcademyID,
		CreatedAt:   old.CreatedAt,
		UpdatedAt:   s.clock.Now(),
	}
	return s.single.Mutate(ctx, func(ctx context.Context) (*academy.Course, error) {
		return s.courses.Upsert(ctx, updated)
	}, s.mutationPlan(sc, updated, old), s.idKey(id))
}

// Delete removes a course and every cache entry that could mention it.
func (s *Service) Delete(ctx context.Context, sc scope.RequestScope, id string) error {
	old, err := s.owned(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := s.courses.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return academy.NewError(academy.CategoryNotFound, "course %s not found", id)
		}
		return err
	}
	s.single.Invalidate(ctx, s.mutationPlan(sc, old, nil))
	return nil
}

// owned loads the course durably and enforces tenant ownership. Mutations go
// through here rather than the cache so a stale entry can never gate a write.
func (s *Service) owned(ctx context.Context, sc scope.RequestScope, id string) (*academy.Course, error) {
	course, err := s.courses.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound, "course %s not found", id)
		}
		return nil, err
	}
	if course.AcademyID != sc.TenantID {
		return nil, academy.NewError(academy.CategoryForbidden,
			"course %s does not belong to your academy", id)
	}
	return course, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, sc scope.RequestScope, code, selfID string) error {
	existing, err := s.courses.ByCode(ctx, sc.TenantID, code)
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return academy.NewError(academy.CategoryConflict, "course code %q is already in use", code)
}

// mutationPlan covers the by-id entry, the by-code entry, the tenant list and
// the category partition of the written record, plus the code and category
// entries of the previous record when they differ.
func (s *Service) mutationPlan(sc scope.RequestScope, course, old *academy.Course) repositorycache.Plan {
	plan := repositorycache.Plan{}.
		WithKeys(
			s.idKey(course.ID),
			s.single.Key(sc.TenantScope(), codeKind, course.Code),
			s.lists.Key(sc.TenantScope(), categoryKind, course.Category),
		).
		WithPrefixes(s.lists.Prefix(sc.TenantScope(), listKind))
	if old != nil && old.Code != course.Code {
		plan = plan.WithKeys(s.single.Key(sc.TenantScope(), codeKind, old.Code))
	}
	if old != nil && old.Category != course.Category {
		plan = plan.WithKeys(s.lists.Key(sc.TenantScope(), categoryKind, old.Category))
	}
	return plan
}

func (s *Service) idKey(id string) string {
	return s.single.Key(cache.Global, idKind, id)
}
