package shared

import "math"

// Listing window bounds shared by every paginated endpoint.
const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageWindow converts 1-based page parameters into a query limit and offset,
// clamping per-page to the listing cap.
func PageWindow(page, perPage int) (limit, offset int) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}
