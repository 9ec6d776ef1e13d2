package pg

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/tenancy"
)

// BaseModel provides common timestamp fields that can be embedded in other models.
type BaseModel struct {
	// CreatedAt stores the timestamp when the record was created.
	CreatedAt time.Time `bun:",nullzero" json:"created_at"`
	// UpdatedAt stores the timestamp when the record was last updated.
	UpdatedAt time.Time `bun:",nullzero" json:"updated_at"`
}

// Verify that BaseModel implements bun.BeforeAppendModelHook.
var _ bun.BeforeAppendModelHook = (*BaseModel)(nil)

// BeforeAppendModel stamps CreatedAt on insert and UpdatedAt on insert and update.
func (m *BaseModel) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		m.CreatedAt = now
		m.UpdatedAt = now
	case *bun.UpdateQuery:
		m.UpdatedAt = now
	}
	return nil
}

// TenantModel adds the owning tenant column to a model so that repositories
// scope it automatically.
type TenantModel struct {
	TenantID string `bun:"tenant_id,notnull" json:"tenant_id"`
}

var _ tenancy.Tenanted = (*TenantModel)(nil)

func (m *TenantModel) GetTenantID() string { return m.TenantID }

func (m *TenantModel) SetTenantID(id string) { m.TenantID = id }
