// Package years implements the academic-year lifecycle for one tenant:
// creation with overlap protection, the single current-year flag, and cached
// listing. Invalidation always runs after the durable write commits, so a
// failed transition never evicts a correct cache entry.
package years

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
	entityKind = "academic_year"
	listKind   = "list"
)

// CreateInput is the payload for opening a new academic year.
type CreateInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Validate checks field presence; ordering and overlap rules live in the
// service because they need tenant state.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.StartDate, validation.Required),
		validation.Field(&in.EndDate, validation.Required),
	)
}

// Service owns academic-year mutations and cached reads.
type Service struct {
	years    academy.AcademicYearStore
	lists    *repositorycache.ScopedStore[[]academy.AcademicYear]
	resolver *scope.YearResolver
	clock    academy.Clock
}

// NewService wires the service. A nil clock falls back to time.Now.
func NewService(years academy.AcademicYearStore, kv cache.KeyValue, cfg cache.Config, coord *repositorycache.Coordinator, resolver *scope.YearResolver, clock academy.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = academy.ClockFunc(time.Now)
	}
	return &Service{
		years:    years,
		lists:    repositorycache.NewScopedStore[[]academy.AcademicYear](entityKind, kv, cfg, coord, logger),
		resolver: resolver,
		clock:    clock,
	}
}

// List returns the tenant's years, newest first, cache-aside.
func (s *Service) List(ctx context.Context, sc scope.RequestScope) ([]academy.AcademicYear, error) {
	values := []string{cache.SerializeArgs()}
	return s.lists.GetOrLoad(ctx, sc.TenantScope(), listKind, values, func(ctx context.Context) ([]academy.AcademicYear, error) {
		return s.years.ByAcademy(ctx, sc.TenantID)
	})
}

// Current returns the tenant's current year, cache-aside via the resolver.
func (s *Service) Current(ctx context.Context, sc scope.RequestScope) (*academy.AcademicYear, error) {
	year, err := s.resolver.Current(ctx, sc.TenantID)
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"no current academic year for this academy")
		}
		return nil, err
	}
	return year, nil
}

// Create opens a new academic year. The first year a tenant ever creates
// becomes current automatically; later years stay non-current until promoted
// with SetCurrent. Date ranges may not overlap an existing year.
func (s *Service) Create(ctx context.Context, sc scope.RequestScope, in CreateInput) (*academy.AcademicYear, error) {
	if err := in.Validate(); err != nil {
		return nil, academy.WrapError(academy.CategoryBadRequest, err, "invalid academic year")
	}
	if !in.StartDate.Before(in.EndDate) {
		return nil, academy.NewError(academy.CategoryConflict,
			"academic year must start before it ends")
	}

	existing, err := s.years.ByAcademy(ctx, sc.TenantID)
	if err != nil {
		return nil, err
	}
	for _, y := range existing {
		if in.StartDate.Before(y.EndDate) && y.StartDate.Before(in.EndDate) {
			return nil, academy.NewError(academy.CategoryConflict,
				"academic year overlaps existing year %q", y.Name)
		}
	}

	now := s.clock.Now()
	year := &academy.AcademicYear{
		ID:        uuid.NewString(),
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsCurrent: len(existing) == 0,
		IsActive:  true,
		AcademyID: sc.TenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.years.Create(ctx, year)
	if err != nil {
		return nil, err
	}

	plan := repositorycache.Plan{}.WithPrefixes(s.lists.Prefix(sc.TenantScope(), listKind))
	if created.IsCurrent {
		plan = plan.WithKeys(s.resolver.CurrentYearKey(sc.TenantID))
	}
	s.lists.Invalidate(ctx, plan)
	return created, nil
}

// SetCurrent promotes one year to current. The durable store flips the flags
// transactionally; only after that commit do the current-year entry, both
// affected by-id entries and the list get invalidated.
func (s *Service) SetCurrent(ctx context.Context, sc scope.RequestScope, yearID string) (*academy.AcademicYear, error) {
	year, err := s.years.ByID(ctx, yearID)
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"academic year %s not found", yearID)
		}
		return nil, err
	}
	if year.AcademyID != sc.TenantID {
		return nil, academy.NewError(academy.CategoryForbidden,
			"academic year %s does not belong to your academy", yearID)
	}

	previous, err := s.years.Current(ctx, sc.TenantID)
	if err != nil && !errors.Is(err, academy.ErrNotFound) {
		return nil, err
	}

	if err := s.years.SetCurrent(ctx, sc.TenantID, yearID); err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return nil, academy.NewError(academy.CategoryNotFound,
				"academic year %s not found", yearID)
		}
		return nil, err
	}

	plan := repositorycache.Plan{}.
		WithKeys(s.resolver.CurrentYearKey(sc.TenantID), s.resolver.IDKey(yearID)).
		WithPrefixes(s.lists.Prefix(sc.TenantScope(), listKind))
	if previous != nil && previous.ID != yearID {
		plan = plan.WithKeys(s.resolver.IDKey(previous.ID))
	}
	s.lists.Invalidate(ctx, plan)

	year.IsCurrent = true
	return year, nil
}
