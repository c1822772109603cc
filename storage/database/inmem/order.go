package inmemdb

import (
	"sort"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/table"
)

// orderBy sorts rows by ordering, then by id so that map iteration order never leaks.
func orderBy[T any](rows []T, fields map[string]func(T) interface{}, id func(T) string, ordering []core.DBOrdering) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			value, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := table.Compare(value(rows[i]), value(rows[j]))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return id(rows[i]) < id(rows[j])
	})
}
