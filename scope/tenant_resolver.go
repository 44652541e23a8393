package scope

import (
	"github.com/goliatone/go-academy-core/academy"
)

// ResolveTenant derives the acting tenant from the principal. Operations not
// marked tenant-required get an empty tenant without error; tenant-required
// operations without a tenant fail Forbidden. Resolution is a pure function,
// so calling it twice for one request is trivially idempotent.
func ResolveTenant(p Principal, required bool) (string, error) {
	if !required {
		return p.TenantID, nil
	}
	if p.TenantID == "" {
		return "", academy.NewError(academy.CategoryForbidden,
			"this operation requires an academy: create or join one first")
	}
	return p.TenantID, nil
}
