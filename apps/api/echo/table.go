package echoapi

import (
	"github.com/pkg/errors"

	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/table"
)

type (
	// tableSpec describes an admin table: how rows are shown, searched and filtered.
	tableSpec[R table.Row] struct {
		Columns      []table.Column[R]
		Fields       []search.Field[R]
		Filters      []search.Filter[R]
		Selectable   bool
		Exportable   bool
		EmptyTitle   string
		EmptyMessage string
	}

	FilterView struct {
		Key     string          `json:"key"`
		Label   string          `json:"label"`
		Options []search.Option `json:"options"`
		Value   *string         `json:"value"` // nil when unconstrained
	}

	TableResponse struct {
		table.View
		Search         string       `json:"search"`
		Filters        []FilterView `json:"filters"`
		RecentSearches []string     `json:"recent_searches,omitempty"`
	}
)

func (spec tableSpec[R]) filterKeys() []string {
	keys := make([]string, 0, len(spec.Filters))
	for _, f := range spec.Filters {
		keys = append(keys, f.Key)
	}
	return keys
}

// buildTable narrows rows with a search engine feeding a table controller, then applies
// the sort, page and selection of q.
func buildTable[R table.Row](spec tableSpec[R], rows []R, q TableQuery) (*table.Controller[R], *search.Engine[R], error) {
	opts := table.Options[R]{
		Columns:      spec.Columns,
		Selectable:   spec.Selectable,
		Exportable:   spec.Exportable,
		PageSize:     q.PageSize,
		EmptyTitle:   spec.EmptyTitle,
		EmptyMessage: spec.EmptyMessage,
	}
	if q.IsFiltered() {
		opts.EmptyTitle = "No results"
		opts.EmptyMessage = "Nothing matches the current search and filters."
	}
	ctrl := table.New(opts)
	if err := ctrl.SetSort(q.Sort); err != nil {
		return nil, nil, err
	}

	engine := search.New(search.Options[R]{
		Fields:   spec.Fields,
		Filters:  spec.Filters,
		OnFilter: ctrl.SetRows,
	})
	for key, fv := range q.Filters {
		engine.SetFilter(key, fv)
	}
	engine.SetQuery(q.Search)
	engine.SetRows(rows)

	ctrl.SetPage(q.Page)
	if spec.Selectable {
		if q.SelectAll {
			if err := ctrl.SelectAll(true); err != nil {
				return nil, nil, err
			}
		} else {
			for _, id := range q.Selected {
				if ctrl.IsSelected(id) {
					continue
				}
				// ids outside the narrowed rows are dropped
				if err := ctrl.ToggleRow(id); err != nil && !errors.Is(err, table.ErrRowNotFound) {
					return nil, nil, err
				}
			}
		}
	}
	return ctrl, engine, nil
}

func tableResponse[R table.Row](ctrl *table.Controller[R], engine *search.Engine[R], recent []string) TableResponse {
	resp := TableResponse{
		View:           ctrl.View(),
		Search:         engine.Query(),
		Filters:        make([]FilterView, 0, len(engine.Filters())),
		RecentSearches: recent,
	}
	for _, f := range engine.Filters() {
		fv := FilterView{Key: f.Key, Label: f.Label, Options: f.Options}
		if v, ok := engine.FilterValue(f.Key).Value(); ok {
			fv.Value = &v
		}
		if fv.Options == nil {
			fv.Options = []search.Option{}
		}
		resp.Filters = append(resp.Filters, fv)
	}
	return resp
}
