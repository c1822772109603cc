package table

// State is what a table currently displays instead of (or along with) its rows.
type State string

const (
	StateLoading State = "loading"
	StateEmpty   State = "empty"
	StateReady   State = "ready"
)

type (
	Header struct {
		Key      string `json:"key"`
		Label    string `json:"label"`
		Sortable bool   `json:"sortable"`
		Active   bool   `json:"active"`
		// Direction is only set on the active header.
		Direction string `json:"direction,omitempty"`
	}

	ViewRow struct {
		ID       string            `json:"id"`
		Cells    map[string]string `json:"cells"`
		Selected bool              `json:"selected"`
	}

	PaginationView struct {
		Page       int  `json:"page"`
		PageSize   int  `json:"page_size"`
		PageCount  int  `json:"page_count"`
		Total      int  `json:"total"`
		From       int  `json:"from"` // 1-based, 0 when the page is empty
		To         int  `json:"to"`
		HasPrev    bool `json:"has_prev"`
		HasNext    bool `json:"has_next"`
		Visible    bool `json:"visible"`
		OutOfRange bool `json:"out_of_range,omitempty"`
	}

	SelectionView struct {
		Count       int      `json:"count"`
		IDs         []string `json:"ids"`
		AllSelected bool     `json:"all_selected"`
		// CanClear drives the "clear selection" affordance.
		CanClear bool `json:"can_clear"`
	}

	EmptyState struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}

	ActionView struct {
		Index int    `json:"index"`
		Label string `json:"label"`
		Icon  string `json:"icon,omitempty"`
	}

	// View is a serializable snapshot of everything a table renders.
	View struct {
		State      State           `json:"state"`
		Headers    []Header        `json:"headers"`
		Rows       []ViewRow       `json:"rows"`
		Actions    []ActionView    `json:"actions,omitempty"`
		Skeleton   int             `json:"skeleton,omitempty"` // placeholder rows while loading
		Empty      *EmptyState     `json:"empty,omitempty"`
		Pagination *PaginationView `json:"pagination,omitempty"`
		Selection  *SelectionView  `json:"selection,omitempty"`
		Selectable bool            `json:"selectable"`
		Exportable bool            `json:"exportable"`
	}
)

// View builds the current display snapshot.
func (c *Controller[R]) View() View {
	v := View{
		Headers:    c.headers(),
		Rows:       []ViewRow{},
		Selectable: c.opts.Selectable,
		Exportable: c.opts.Exportable,
	}
	for i, action := range c.opts.Actions {
		v.Actions = append(v.Actions, ActionView{Index: i, Label: action.Label, Icon: action.Icon})
	}

	switch {
	case c.loading:
		v.State = StateLoading
		v.Skeleton = c.page.PageSize
		return v
	case len(c.rows) == 0:
		v.State = StateEmpty
		v.Empty = &EmptyState{Title: c.opts.EmptyTitle, Message: c.opts.EmptyMessage}
		return v
	}

	v.State = StateReady
	for _, row := range c.visible {
		vr := ViewRow{
			ID:       row.RowID(),
			Cells:    make(map[string]string, len(c.opts.Columns)),
			Selected: c.selection.IsSelected(row.RowID()),
		}
		for _, col := range c.opts.Columns {
			vr.Cells[col.Key] = col.render(row)
		}
		v.Rows = append(v.Rows, vr)
	}
	v.Pagination = c.paginationView()
	if c.opts.Selectable {
		n := c.selection.Len()
		v.Selection = &SelectionView{
			Count:       n,
			IDs:         c.selection.IDs(),
			AllSelected: n > 0 && n == len(c.rows),
			CanClear:    n > 0,
		}
	}
	return v
}

func (c *Controller[R]) headers() []Header {
	headers := make([]Header, 0, len(c.opts.Columns))
	for _, col := range c.opts.Columns {
		h := Header{Key: col.Key, Label: col.Label, Sortable: col.Sortable()}
		if c.sort.OrderBy == col.Key {
			h.Active = true
			h.Direction = c.sort.Direction.String()
		}
		headers = append(headers, h)
	}
	return headers
}

func (c *Controller[R]) paginationView() *PaginationView {
	total, size, page := len(c.sorted), c.page.PageSize, c.page.Page
	count := PageCount(total, size)
	pv := &PaginationView{
		Page:       page,
		PageSize:   size,
		PageCount:  count,
		Total:      total,
		HasPrev:    page > 0,
		HasNext:    page+1 < count,
		Visible:    total > size,
		OutOfRange: page >= count,
	}
	if n := len(c.visible); n > 0 {
		pv.From = page*size + 1
		pv.To = page*size + n
	}
	return pv
}
