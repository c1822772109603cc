package table

import (
	"cmp"
	"database/sql/driver"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Direction is the sort direction of a column.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseDirection accepts "desc"/"descending" (any case); anything else is ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// SortState is the active sort of a table. An empty OrderBy keeps the input order.
type SortState struct {
	OrderBy   string    `json:"order_by"`
	Direction Direction `json:"-"`
}

func (s SortState) IsSorted() bool { return s.OrderBy != "" }

// Sort returns a stably sorted copy of rows, ordered by the raw value extracted by value.
// Rows holding equal values keep their relative input order in both directions.
// A nil value func returns the rows in input order.
func Sort[R any](rows []R, value func(R) any, dir Direction) []R {
	sorted := make([]R, len(rows))
	copy(sorted, rows)
	if value == nil {
		return sorted
	}
	slices.SortStableFunc(sorted, func(a, b R) int {
		c := Compare(value(a), value(b))
		if dir == Descending {
			return -c
		}
		return c
	})
	return sorted
}

// Compare orders two raw cell values: nil first, then natural ordering for strings,
// booleans (false < true), times and numbers of any kind. Values of unrelated types are
// compared by their formatted representation.
func Compare(a, b interface{}) int {
	a, b = unwrap(a), unwrap(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}

	if x, ok := toInt(a); ok {
		if y, ok := toInt(b); ok {
			return cmp.Compare(x, y)
		}
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return cmp.Compare(x, y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// unwrap dereferences pointers and sql nullable wrappers (null.String & co).
func unwrap(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil
		}
		val, err := valuer.Value()
		if err != nil {
			return nil
		}
		if val == nil {
			return nil
		}
		if _, again := val.(driver.Valuer); !again {
			v = val
		}
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func toInt(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
