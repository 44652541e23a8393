package scope

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/cache"
	"github.com/goliatone/go-academy-core/pkg/testsupport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		required  bool
		want      string
		wantCat   academy.Category
		wantErr   bool
	}{
		{"with tenant", Principal{TenantID: "t1"}, true, "t1", 0, false},
		{"without tenant, not required", Principal{}, false, "", 0, false},
		{"without tenant, required", Principal{}, true, "", academy.CategoryForbidden, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveTenant(tc.principal, tc.required)
			if tc.wantErr {
				if !academy.IsCategory(err, tc.wantCat) {
					t.Fatalf("expected %v, got %v", tc.wantCat, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTenant: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func newResolver(t *testing.T, store academy.AcademicYearStore) (*YearResolver, *testsupport.MemoryKV) {
	t.Helper()
	kv := testsupport.NewMemoryKV()
	return NewYearResolver(store, kv, cache.DefaultConfig(), quietLogger()), kv
}

func seedYear(tenantID string, current bool) *academy.AcademicYear {
	return &academy.AcademicYear{
		ID:        uuid.NewString(),
		Name:      "2025/2026",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		IsCurrent: current,
		IsActive:  true,
		AcademyID: tenantID,
	}
}

func TestResolveExplicitYear(t *testing.T) {
	year := seedYear("t1", false)
	resolver, _ := newResolver(t, testsupport.NewYearStore(year))

	rs, err := resolver.Resolve(context.Background(), "t1", year.ID, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rs.AcademicYearID != year.ID || rs.TenantID != "t1" {
		t.Fatalf("got %+v", rs)
	}
	if rs.YearIsCurrent {
		t.Fatal("year is not flagged current")
	}
}

func TestResolveMalformedYearID(t *testing.T) {
	resolver, _ := newResolver(t, testsupport.NewYearStore())

	_, err := resolver.Resolve(context.Background(), "t1", "not-a-uuid", true)
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestResolveUnknownYearID(t *testing.T) {
	resolver, _ := newResolver(t, testsupport.NewYearStore())

	_, err := resolver.Resolve(context.Background(), "t1", uuid.NewString(), true)
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestResolveForeignTenantYear(t *testing.T) {
	year := seedYear("t2", false)
	resolver, _ := newResolver(t, testsupport.NewYearStore(year))

	_, err := resolver.Resolve(context.Background(), "t1", year.ID, true)
	if !academy.IsCategory(err, academy.CategoryForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestResolveFallsBackToCurrentYear(t *testing.T) {
	year := seedYear("t1", true)
	resolver, _ := newResolver(t, testsupport.NewYearStore(year))

	rs, err := resolver.Resolve(context.Background(), "t1", "", true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rs.AcademicYearID != year.ID || !rs.YearIsCurrent {
		t.Fatalf("got %+v", rs)
	}
}

func TestResolveNoCurrentYearIsInstructive(t *testing.T) {
	resolver, _ := newResolver(t, testsupport.NewYearStore())

	_, err := resolver.Resolve(context.Background(), "t1", "", true)
	if !academy.IsCategory(err, academy.CategoryBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "mark one current") {
		t.Fatalf("message should instruct the caller, got %q", err.Error())
	}
}

func TestResolveYearOptional(t *testing.T) {
	resolver, _ := newResolver(t, testsupport.NewYearStore())

	rs, err := resolver.Resolve(context.Background(), "t1", "", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rs.HasYear() {
		t.Fatalf("expected no year, got %+v", rs)
	}
}

// Current-year lookups are cached per tenant; two tenants never share an
// entry even when both have a current year.
func TestCurrentYearCachedPerTenant(t *testing.T) {
	y1 := seedYear("t1", true)
	y2 := seedYear("t2", true)
	store := testsupport.NewYearStore(y1, y2)
	resolver, kv := newResolver(t, store)

	ctx := context.Background()
	got1, err := resolver.Current(ctx, "t1")
	if err != nil {
		t.Fatalf("Current t1: %v", err)
	}
	got2, err := resolver.Current(ctx, "t2")
	if err != nil {
		t.Fatalf("Current t2: %v", err)
	}
	if got1.ID != y1.ID || got2.ID != y2.ID {
		t.Fatalf("cross-tenant leakage: got %s and %s", got1.ID, got2.ID)
	}
	if resolver.CurrentYearKey("t1") == resolver.CurrentYearKey("t2") {
		t.Fatal("tenants must not share a current-year key")
	}
	if kv.Len() != 2 {
		t.Fatalf("expected two cached entries, got %d", kv.Len())
	}

	// Cached: repeat reads never hit the store with a different result.
	again, err := resolver.Current(ctx, "t1")
	if err != nil {
		t.Fatalf("Current again: %v", err)
	}
	if again.ID != y1.ID {
		t.Fatalf("got %s", again.ID)
	}
}
