package scope

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
)

// Cache key layout for academic years. The by-id lookup is a global query
// (uuid primary key, no tenant filter), so its key carries no scope; the
// current-year lookup filters by tenant, so its key must.
const (
	yearEntityKind  = "academic_year"
	yearByIDKind    = "id"
	yearCurrentKind = "current"
)

// YearResolver derives the academic year governing a request: an explicit
// identifier when the caller supplies one, the tenant's current year as a
// fallback when the operation requires a year, or no year at all.
type YearResolver struct {
	years academy.AcademicYearStore
	store *cache.Store[*academy.AcademicYear]
	keys  *cache.KeyBuilder
}

// NewYearResolver builds a resolver serving year lookups cache-aside.
func NewYearResolver(years academy.AcademicYearStore, kv cache.KeyValue, cfg cache.Config, logger *slog.Logger) *YearResolver {
	return &YearResolver{
		years: years,
		store: cache.NewStore[*academy.AcademicYear](kv, cfg.TTL, logger),
		keys:  cache.NewKeyBuilder(cfg.Namespace),
	}
}

// Resolve produces the RequestScope for one request.
//
// Explicit id: malformed → BadRequest; unknown → BadRequest; belonging to
// another tenant → Forbidden. No id and yearRequired: the tenant's current
// year, or BadRequest instructing the caller when none is flagged. No id and
// not required: scope without a year.
func (r *YearResolver) Resolve(ctx context.Context, tenantID, explicitYearID string, yearRequired bool) (RequestScope, error) {
	rs := RequestScope{TenantID: tenantID}

	if explicitYearID == "" {
		if !yearRequired {
			return rs, nil
		}
		current, err := r.Current(ctx, tenantID)
		if err != nil {
			if errors.Is(err, academy.ErrNotFound) {
				return rs, academy.NewError(academy.CategoryBadRequest,
					"no current academic year for this academy: supply an academic year id or mark one current")
			}
			return rs, err
		}
		rs.AcademicYearID = current.ID
		rs.YearIsCurrent = true
		return rs, nil
	}

	if _, err := uuid.Parse(explicitYearID); err != nil {
		return rs, academy.NewError(academy.CategoryBadRequest,
			"invalid academic year id %q", explicitYearID)
	}

	year, err := r.byID(ctx, explicitYearID)
	if err != nil {
		if errors.Is(err, academy.ErrNotFound) {
			return rs, academy.NewError(academy.CategoryBadRequest,
				"academic year %s not found", explicitYearID)
		}
		return rs, err
	}
	if year.AcademyID != tenantID {
		return rs, academy.NewError(academy.CategoryForbidden,
			"academic year %s does not belong to your academy", explicitYearID)
	}

	rs.AcademicYearID = year.ID
	rs.YearIsCurrent = year.IsCurrent
	return rs, nil
}

// Current returns the tenant's current year, cache-aside.
func (r *YearResolver) Current(ctx context.Context, tenantID string) (*academy.AcademicYear, error) {
	key := r.CurrentYearKey(tenantID)
	return r.store.GetOrLoad(ctx, key, func(ctx context.Context) (*academy.AcademicYear, error) {
		return r.years.Current(ctx, tenantID)
	})
}

// CurrentYearKey is the exact key the years service must invalidate after a
// committed current-year change.
func (r *YearResolver) CurrentYearKey(tenantID string) string {
	return r.keys.Entity(cache.Scope{TenantID: tenantID}, yearEntityKind, yearCurrentKind)
}

// IDKey is the exact key a year is cached under for by-id resolution. The
// years service invalidates it when the year's flags change.
func (r *YearResolver) IDKey(id string) string {
	return r.keys.Entity(cache.Global, yearEntityKind, yearByIDKind, id)
}

func (r *YearResolver) byID(ctx context.Context, id string) (*academy.AcademicYear, error) {
	return r.store.GetOrLoad(ctx, r.IDKey(id), func(ctx context.Context) (*academy.AcademicYear, error) {
		return r.years.ByID(ctx, id)
	})
}
