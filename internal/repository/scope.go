package repository

import (
	"fmt"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

// scopeClause renders the row predicate restricting ownerColumn to the rows
// visible under scope. profileAlias names the profiles table left-joined on
// the owner. Arguments are appended to args and referenced positionally.
func scopeClause(scope models.Scope, ownerColumn, profileAlias string, args *[]interface{}) string {
	switch scope.Kind {
	case models.ScopeAll:
		return "1=1"
	case models.ScopeSelf:
		*args = append(*args, scope.UserID)
		return fmt.Sprintf("%s = $%d", ownerColumn, len(*args))
	case models.ScopeSupervised:
		return supervisedClause(scope.SupervisorID, scope.LegacyName, profileAlias, args)
	default:
		return "1=0"
	}
}

// supervisedClause matches profiles linked by supervisor id, or by legacy
// supervisor name when the profile has no supervisor id and legacyName is set.
func supervisedClause(supervisorID, legacyName, profileAlias string, args *[]interface{}) string {
	*args = append(*args, supervisorID)
	clause := fmt.Sprintf("%s.supervisor_id = $%d", profileAlias, len(*args))
	if legacyName == "" {
		return clause
	}
	*args = append(*args, legacyName)
	return fmt.Sprintf("(%s OR (%s.supervisor_id IS NULL AND %s.supervisor_name = $%d))", clause, profileAlias, profileAlias, len(*args))
}
