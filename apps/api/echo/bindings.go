package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/table"
)

const (
	orderingParam  = "ordering"
	orderByParam   = "order_by"
	directionParam = "direction"
	searchParam    = "search"
	pageParam      = "page"
	pageSizeParam  = "page_size"
	selectedParam  = "selected"
	selectAllParam = "select_all"

	maxPageSize = 100
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the `ordering` param: comma separated fields, "-" prefixed for descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// TableQuery is the state of a table view carried by the query string.
type TableQuery struct {
	Search    string
	Filters   map[string]search.FilterValue
	Sort      table.SortState
	Page      int // 0-based
	PageSize  int
	Selected  []string
	SelectAll bool
}

// Bind reads the table state of the request. A filter is constrained only when its
// param is present and non-empty; malformed numbers fall back to the defaults.
func (q *TableQuery) Bind(ctx echo.Context, filterKeys ...string) {
	params := ctx.QueryParams()

	q.Search = strings.TrimSpace(params.Get(searchParam))

	q.Filters = make(map[string]search.FilterValue, len(filterKeys))
	for _, key := range filterKeys {
		if v := params.Get(key); v != "" {
			q.Filters[key] = search.Is(v)
		} else {
			q.Filters[key] = search.Unconstrained()
		}
	}

	if orderBy := strings.TrimSpace(params.Get(orderByParam)); orderBy != "" {
		q.Sort = table.SortState{OrderBy: orderBy, Direction: table.ParseDirection(params.Get(directionParam))}
	} else {
		ordering := new(Ordering)
		ordering.Bind(ctx)
		if len(ordering.Orderings) > 0 {
			first := ordering.Orderings[0]
			q.Sort = table.SortState{OrderBy: first.Field, Direction: table.Ascending}
			if !first.Ascending {
				q.Sort.Direction = table.Descending
			}
		}
	}

	if page, err := strconv.Atoi(params.Get(pageParam)); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(params.Get(pageSizeParam)); err == nil && size > 0 {
		if size > maxPageSize {
			size = maxPageSize
		}
		q.PageSize = size
	}

	for _, id := range params[selectedParam] {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.Selected = append(q.Selected, part)
			}
		}
	}
	q.SelectAll, _ = strconv.ParseBool(params.Get(selectAllParam))
}

// IsFiltered reports whether a search or a constrained filter narrows the rows.
func (q TableQuery) IsFiltered() bool {
	if q.Search != "" {
		return true
	}
	for _, fv := range q.Filters {
		if fv.IsConstrained() {
			return true
		}
	}
	return false
}
