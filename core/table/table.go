// Package table is the reusable data table controller: sorting, pagination, row
// selection, row actions and export over a collection owned by the caller.
//
// A Controller never fetches nor mutates the collection it is given; it only derives
// display state from it and reports user initiated events through callbacks.
// Controllers are not safe for concurrent use: each view owns its own.
package table

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownColumn     = errors.New("unknown column")
	ErrColumnNotSortable = errors.New("column is not sortable")
	ErrRowNotFound       = errors.New("row not found")
	ErrUnknownAction     = errors.New("unknown action")
	ErrNotSelectable     = errors.New("table is not selectable")
	ErrNotExportable     = errors.New("table is not exportable")
)

// Row is anything with a unique identifier.
type Row interface {
	RowID() string
}

type (
	// Column describes how a field of R is shown and sorted.
	Column[R Row] struct {
		Key         string
		Label       string
		Value       func(R) interface{} // raw value, used for sorting
		Render      func(R) string      // optional display value; defaults to the formatted Value
		DisableSort bool
	}

	// Action is an entry of a row's actions menu.
	Action[R Row] struct {
		Label   string
		Icon    string
		OnClick func(R)
	}

	Options[R Row] struct {
		Columns      []Column[R]
		Actions      []Action[R]
		Selectable   bool
		Exportable   bool
		PageSize     int // defaults to DefaultPageSize
		EmptyTitle   string
		EmptyMessage string
		OnRowClick   func(R)
		OnExport     func([]R)
	}
)

func (col Column[R]) Sortable() bool { return !col.DisableSort && col.Value != nil }

func (col Column[R]) render(row R) string {
	if col.Render != nil {
		return col.Render(row)
	}
	if col.Value == nil {
		return ""
	}
	return FormatValue(col.Value(row))
}

// Region is the part of a row that received a click.
type Region int

const (
	RegionCell Region = iota
	RegionCheckbox
	RegionActions
)

type Controller[R Row] struct {
	opts      Options[R]
	rows      []R
	index     map[string]int
	sort      SortState
	page      Pagination
	selection *Selection
	loading   bool

	sorted  []R
	visible []R
}

func New[R Row](opts Options[R]) *Controller[R] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.EmptyTitle == "" {
		opts.EmptyTitle = "No data"
	}
	if opts.EmptyMessage == "" {
		opts.EmptyMessage = "There is nothing to show here yet."
	}
	c := &Controller[R]{
		opts:      opts,
		index:     make(map[string]int),
		page:      Pagination{PageSize: opts.PageSize},
		selection: NewSelection(),
	}
	c.resort()
	return c
}

// SetRows replaces the collection. The sort state, page and page size are kept;
// selected ids that are not part of the new collection are dropped.
func (c *Controller[R]) SetRows(rows []R) {
	c.rows = rows
	c.index = make(map[string]int, len(rows))
	for i, row := range rows {
		c.index[row.RowID()] = i
	}
	c.selection.Retain(c.ids(rows))
	c.resort()
}

func (c *Controller[R]) SetLoading(loading bool) { c.loading = loading }

func (c *Controller[R]) Rows() []R        { return c.rows }
func (c *Controller[R]) Sorted() []R      { return c.sorted }
func (c *Controller[R]) Visible() []R     { return c.visible }
func (c *Controller[R]) Sort() SortState  { return c.sort }
func (c *Controller[R]) Page() Pagination { return c.page }

// ClickHeader handles a click on a column header: the active sort column flips its
// direction, any other sortable column becomes the ascending sort column.
func (c *Controller[R]) ClickHeader(key string) error {
	col, ok := c.column(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, key)
	}
	if !col.Sortable() {
		return fmt.Errorf("%w: %q", ErrColumnNotSortable, key)
	}
	if c.sort.OrderBy == key {
		c.sort.Direction = c.sort.Direction.Toggle()
	} else {
		c.sort = SortState{OrderBy: key, Direction: Ascending}
	}
	c.resort()
	return nil
}

// SetSort applies a sort state directly; an empty OrderBy restores the input order.
func (c *Controller[R]) SetSort(state SortState) error {
	if state.OrderBy != "" {
		col, ok := c.column(state.OrderBy)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, state.OrderBy)
		}
		if !col.Sortable() {
			return fmt.Errorf("%w: %q", ErrColumnNotSortable, state.OrderBy)
		}
	}
	if state.Direction != Descending {
		state.Direction = Ascending
	}
	c.sort = state
	c.resort()
	return nil
}

func (c *Controller[R]) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	c.page.Page = page
	c.repage()
}

// SetPageSize changes the page size and goes back to the first page.
func (c *Controller[R]) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	c.page = Pagination{Page: 0, PageSize: size}
	c.repage()
}

// SelectAll selects (or clears) every row of the collection, not only the visible page.
func (c *Controller[R]) SelectAll(checked bool) error {
	if !c.opts.Selectable {
		return ErrNotSelectable
	}
	c.selection.SelectAll(c.ids(c.sorted), checked)
	return nil
}

func (c *Controller[R]) ToggleRow(id string) error {
	if !c.opts.Selectable {
		return ErrNotSelectable
	}
	if _, ok := c.index[id]; !ok {
		return fmt.Errorf("%w: %q", ErrRowNotFound, id)
	}
	c.selection.Toggle(id)
	return nil
}

func (c *Controller[R]) IsSelected(id string) bool { return c.selection.IsSelected(id) }

func (c *Controller[R]) ClearSelection() { c.selection.Clear() }

func (c *Controller[R]) SelectedIDs() []string { return c.selection.IDs() }

// Click dispatches a click on a row. Only cell clicks reach OnRowClick; checkbox clicks
// toggle the selection and action menu clicks are left to InvokeAction.
func (c *Controller[R]) Click(id string, region Region) error {
	row, ok := c.row(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrRowNotFound, id)
	}
	switch region {
	case RegionCheckbox:
		return c.ToggleRow(id)
	case RegionActions:
		return nil
	default:
		if c.opts.OnRowClick != nil {
			c.opts.OnRowClick(row)
		}
		return nil
	}
}

// InvokeAction runs the action at index for the row identified by id.
func (c *Controller[R]) InvokeAction(index int, id string) error {
	if index < 0 || index >= len(c.opts.Actions) {
		return fmt.Errorf("%w: %d", ErrUnknownAction, index)
	}
	row, ok := c.row(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrRowNotFound, id)
	}
	if action := c.opts.Actions[index]; action.OnClick != nil {
		action.OnClick(row)
	}
	return nil
}

// Export returns the selected rows (in sorted order) or, with an empty selection, the
// whole sorted collection, and hands them to OnExport.
func (c *Controller[R]) Export() ([]R, error) {
	if !c.opts.Exportable {
		return nil, ErrNotExportable
	}
	var rows []R
	if c.selection.Len() > 0 {
		rows = make([]R, 0, c.selection.Len())
		for _, row := range c.sorted {
			if c.selection.IsSelected(row.RowID()) {
				rows = append(rows, row)
			}
		}
	} else {
		rows = make([]R, len(c.sorted))
		copy(rows, c.sorted)
	}
	if c.opts.OnExport != nil {
		c.opts.OnExport(rows)
	}
	return rows, nil
}

func (c *Controller[R]) Columns() []Column[R] { return c.opts.Columns }

func (c *Controller[R]) column(key string) (Column[R], bool) {
	for _, col := range c.opts.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[R]{}, false
}

func (c *Controller[R]) row(id string) (R, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero R
		return zero, false
	}
	return c.rows[i], true
}

func (c *Controller[R]) ids(rows []R) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.RowID())
	}
	return ids
}

func (c *Controller[R]) resort() {
	var value func(R) interface{}
	if c.sort.OrderBy != "" {
		if col, ok := c.column(c.sort.OrderBy); ok {
			value = col.Value
		}
	}
	c.sorted = Sort(c.rows, value, c.sort.Direction)
	c.repage()
}

func (c *Controller[R]) repage() {
	c.visible = Paginate(c.sorted, c.page.Page, c.page.PageSize)
}

// FormatValue is the default display of a raw cell value; nil renders blank.
func FormatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		if err != nil || val == nil {
			return ""
		}
		v = val
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
