package table

// DefaultPageSize is used when a controller is built without a page size.
const DefaultPageSize = 10

// Pagination is the paging state of a table; Page is 0-based.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Paginate returns rows[page*size : page*size+size], clamped to the bounds of rows.
// An out-of-range page (or a non-positive size) yields an empty slice, never an error.
func Paginate[R any](rows []R, page, size int) []R {
	if size <= 0 || page < 0 || page > len(rows)/size {
		return []R{}
	}
	start := page * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	if start >= end {
		return []R{}
	}
	return rows[start:end]
}

// PageCount is the number of pages needed to show total rows.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
