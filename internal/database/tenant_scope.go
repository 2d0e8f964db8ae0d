package database

import (
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantScopePlugin scopes queries, updates and deletes to the tenant carried
// by the statement context whenever the model has a tenant_id column.
// Raw SQL is not covered.
type TenantScopePlugin struct{}

func NewTenantScopePlugin() *TenantScopePlugin { return &TenantScopePlugin{} }

func (p *TenantScopePlugin) Name() string { return "tenant_scope" }

func (p *TenantScopePlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_scope:query", tenantScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_scope:row", tenantScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_scope:update", tenantScopeCallback); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("tenant_scope:delete", tenantScopeCallback)
}

func tenantScopeCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil || db.Statement.Schema == nil {
		return
	}
	ctx := db.Statement.Context
	if appctx.TenantScopeSkipped(ctx) {
		return
	}
	tenantID := appctx.TenantID(ctx)
	if tenantID == "" {
		return
	}
	if db.Statement.Schema.LookUpField("tenant_id") == nil {
		return
	}
	if whereHasTenantID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "tenant_id"},
				Value:  tenantID,
			},
		},
	})
}

func whereHasTenantID(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasTenantID(e) {
			return true
		}
	}
	return false
}

func exprHasTenantID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsTenantID(v.Column)
	case clause.IN:
		return colIsTenantID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasTenantID(x) {
				return true
			}
		}
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasTenantID(x) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), "tenant_id")
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), "tenant_id")
	}
	return false
}

func colIsTenantID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "tenant_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "tenant_id")
	}
	return false
}
