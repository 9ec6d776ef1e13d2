// Package tenancy describes who is calling and which tenant's data they may touch.
//
// A Scope is passed explicitly to every repository operation.
package tenancy

import (
	"context"
	"strconv"

	"github.com/rise-and-shine/blocks/meta"
)

// Scope is the request-scoped identity of a caller.
type Scope struct {
	UserID   string
	TenantID string
	// Elevated marks a recognized cross-tenant (system) identity.
	Elevated bool
}

// ForTenant returns a non-elevated scope for a user of tenantID.
func ForTenant(tenantID, userID string) Scope {
	return Scope{UserID: userID, TenantID: tenantID}
}

// System returns an elevated scope that sees all tenants.
func System(userID string) Scope {
	return Scope{UserID: userID, Elevated: true}
}

// FromMeta builds a scope from request metadata placed in ctx by the transport layer.
func FromMeta(ctx context.Context) Scope {
	elevated, _ := strconv.ParseBool(meta.Find(ctx, meta.ElevatedAccess))
	return Scope{
		UserID:   meta.Find(ctx, meta.RequestUserID),
		TenantID: meta.Find(ctx, meta.TenantID),
		Elevated: elevated,
	}
}

// Inject stores s in ctx as request metadata. FromMeta(Inject(ctx, s)) == s.
func (s Scope) Inject(ctx context.Context) context.Context {
	data := map[meta.ContextKey]string{
		meta.RequestUserID: s.UserID,
		meta.TenantID:      s.TenantID,
	}
	if s.Elevated {
		data[meta.ElevatedAccess] = "true"
	}
	return meta.InjectMetaToContext(ctx, data)
}

// Allows reports whether a row owned by tenantID is visible to s.
// A non-elevated scope sees only its own tenant; an empty scope tenant sees only
// untenanted rows.
func (s Scope) Allows(tenantID string) bool {
	return s.Elevated || s.TenantID == tenantID
}

// Restriction returns the tenant every query must be narrowed to, and whether a
// restriction applies at all.
func (s Scope) Restriction() (string, bool) {
	if s.Elevated {
		return "", false
	}
	return s.TenantID, true
}

// Tenanted is implemented by aggregates that belong to a tenant.
type Tenanted interface {
	GetTenantID() string
	SetTenantID(id string)
}

// Stamp assigns the scope's tenant to entity when it is Tenanted and not yet owned.
// Elevated scopes keep whatever tenant the entity already carries.
func Stamp(s Scope, entity any) {
	t, ok := entity.(Tenanted)
	if !ok || s.Elevated {
		return
	}
	if t.GetTenantID() == "" {
		t.SetTenantID(s.TenantID)
	}
}

// TenantOf returns entity's tenant, or "" when it carries none.
func TenantOf(entity any) string {
	if t, ok := entity.(Tenanted); ok {
		return t.GetTenantID()
	}
	return ""
}
