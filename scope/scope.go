// Package scope resolves the tenant and academic-year context governing a
// request. Every operation in this module receives its isolation scope as an
// explicit RequestScope value, never as ambient state, so the scope can be
// constructed and tested in isolation.
package scope

import (
	"github.com/goliatone/go-academy-core/cache"
)

// Principal is the authenticated caller as provided by the (external)
// authentication layer.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

// RequestScope is the resolved (tenant, academic year) pair for one request.
// It is immutable for the request's lifetime.
type RequestScope struct {
	TenantID       string
	AcademicYearID string
	// YearIsCurrent reports whether the resolved year is the tenant's
	// current one (true for fallback resolution, looked up for explicit).
	YearIsCurrent bool
}

// HasYear reports whether an academic year was resolved. Operations that
// need a year must check this and fail their own preconditions otherwise.
func (s RequestScope) HasYear() bool { return s.AcademicYearID != "" }

// CacheScope returns the full cache scope: tenant and academic year.
func (s RequestScope) CacheScope() cache.Scope {
	return cache.Scope{TenantID: s.TenantID, AcademicYearID: s.AcademicYearID}
}

// TenantScope returns a cache scope carrying only the tenant dimension, for
// queries that filter by tenant but not by year.
func (s RequestScope) TenantScope() cache.Scope {
	return cache.Scope{TenantID: s.TenantID}
}
