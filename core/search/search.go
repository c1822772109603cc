// Package search narrows a collection by a free text query and discrete filters.
package search

import (
	"sort"
	"strings"
)

type (
	// Field is a searchable text field of R.
	Field[R any] struct {
		Name  string
		Value func(R) string
	}

	Option struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	// Filter is a discrete filter: a row matches when Value(row) equals the active value.
	Filter[R any] struct {
		Key     string
		Label   string
		Options []Option
		Value   func(R) string
	}

	// FilterValue is either unconstrained (the zero value) or an exact value to match.
	FilterValue struct {
		value string
		set   bool
	}
)

// Unconstrained is the "all" choice of a filter.
func Unconstrained() FilterValue { return FilterValue{} }

// Is constrains a filter to v. Any string is a legal value, including "" and "all".
func Is(v string) FilterValue { return FilterValue{value: v, set: true} }

func (fv FilterValue) IsConstrained() bool { return fv.set }

func (fv FilterValue) Value() (string, bool) { return fv.value, fv.set }

func (fv FilterValue) String() string {
	if !fv.set {
		return "<all>"
	}
	return fv.value
}

type Options[R any] struct {
	Fields   []Field[R]
	Filters  []Filter[R]
	OnFilter func([]R)
}

// Engine recomputes the filtered collection whenever its inputs change and reports it
// through OnFilter. Engines are not safe for concurrent use.
type Engine[R any] struct {
	opts     Options[R]
	rows     []R
	query    string
	active   map[string]FilterValue
	filtered []R
	recent   *Recent
}

func New[R any](opts Options[R]) *Engine[R] {
	e := &Engine[R]{
		opts:   opts,
		active: make(map[string]FilterValue),
		recent: NewRecent(),
	}
	e.filtered = []R{}
	return e
}

func (e *Engine[R]) SetRows(rows []R) {
	e.rows = rows
	e.apply()
}

func (e *Engine[R]) SetQuery(query string) {
	e.query = query
	e.apply()
}

// SetFilter sets the active value of the filter identified by key. It reports false for
// an unknown key.
func (e *Engine[R]) SetFilter(key string, value FilterValue) bool {
	if _, ok := e.filter(key); !ok {
		return false
	}
	if value.IsConstrained() {
		e.active[key] = value
	} else {
		delete(e.active, key)
	}
	e.apply()
	return true
}

func (e *Engine[R]) ClearFilters() {
	e.active = make(map[string]FilterValue)
	e.apply()
}

// Submit runs query and records it among the recent searches.
func (e *Engine[R]) Submit(query string) {
	e.recent.Add(query)
	e.SetQuery(query)
}

func (e *Engine[R]) Query() string        { return e.query }
func (e *Engine[R]) Filtered() []R        { return e.filtered }
func (e *Engine[R]) Recent() []string     { return e.recent.List() }
func (e *Engine[R]) Filters() []Filter[R] { return e.opts.Filters }

// FilterValue returns the active value of a filter, Unconstrained if none.
func (e *Engine[R]) FilterValue(key string) FilterValue { return e.active[key] }

func (e *Engine[R]) filter(key string) (Filter[R], bool) {
	for _, f := range e.opts.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter[R]{}, false
}

func (e *Engine[R]) apply() {
	e.filtered = Apply(e.rows, e.query, e.opts.Fields, e.constraints())
	if e.opts.OnFilter != nil {
		e.opts.OnFilter(e.filtered)
	}
}

func (e *Engine[R]) constraints() []Constraint[R] {
	cs := make([]Constraint[R], 0, len(e.active))
	for _, f := range e.opts.Filters {
		if v, ok := e.active[f.Key].Value(); ok {
			cs = append(cs, Constraint[R]{Value: f.Value, Want: v})
		}
	}
	return cs
}

// Constraint is an active filter: Value(row) must equal Want.
type Constraint[R any] struct {
	Value func(R) string
	Want  string
}

// Apply returns the rows matching query on at least one field (case-insensitive
// substring) and every constraint exactly. An empty query and no constraints return a
// copy of rows in the same order.
func Apply[R any](rows []R, query string, fields []Field[R], cs []Constraint[R]) []R {
	q := strings.ToLower(query)
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if matchesQuery(row, q, fields) && matchesConstraints(row, cs) {
			out = append(out, row)
		}
	}
	return out
}

func matchesQuery[R any](row R, q string, fields []Field[R]) bool {
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Value(row)), q) {
			return true
		}
	}
	return false
}

func matchesConstraints[R any](row R, cs []Constraint[R]) bool {
	for _, c := range cs {
		if c.Value(row) != c.Want {
			return false
		}
	}
	return true
}

// OptionsOf builds the options of a filter from the distinct non-empty values found in
// rows, sorted by value. label may be nil, in which case the value is its own label.
func OptionsOf[R any](rows []R, value func(R) string, label func(string) string) []Option {
	seen := make(map[string]struct{})
	opts := make([]Option, 0)
	for _, row := range rows {
		v := value(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		lbl := v
		if label != nil {
			lbl = label(v)
		}
		opts = append(opts, Option{Value: v, Label: lbl})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Value < opts[j].Value })
	return opts
}
