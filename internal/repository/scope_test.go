package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

func TestScopeClause(t *testing.T) {
	cases := []struct {
		name   string
		scope  models.Scope
		clause string
		args   []interface{}
	}{
		{"all", models.Scope{Kind: models.ScopeAll}, "1=1", []interface{}{"x"}},
		{"self", models.Scope{Kind: models.ScopeSelf, UserID: "u1"}, "a.user_id = $2", []interface{}{"x", "u1"}},
		{"supervised by id", models.Scope{Kind: models.ScopeSupervised, SupervisorID: "s1"}, "p.supervisor_id = $2", []interface{}{"x", "s1"}},
		{
			"supervised with legacy name",
			models.Scope{Kind: models.ScopeSupervised, SupervisorID: "s1", LegacyName: "Pak Budi"},
			"(p.supervisor_id = $2 OR (p.supervisor_id IS NULL AND p.supervisor_name = $3))",
			[]interface{}{"x", "s1", "Pak Budi"},
		},
		{"unknown", models.Scope{}, "1=0", []interface{}{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := []interface{}{"x"}
			clause := scopeClause(tc.scope, "a.user_id", "p", &args)
			assert.Equal(t, tc.clause, clause)
			assert.Equal(t, tc.args, args)
		})
	}
}
