package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"

	"github.com/tutorcraft/tutorcraft/core"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation && strings.Contains(pqErr.Constraint, constraint)
	}
	return false
}

// orderByClause renders ordering; fields missing from columns are skipped so no user
// input ever reaches the query text.
func orderByClause(columns map[string]string, ordering []core.DBOrdering) string {
	terms := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	terms = append(terms, "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}
