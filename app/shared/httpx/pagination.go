package httpx

import (
	"math"
	"net/http"
	"strconv"
)

const (
	// MaxPerPage caps the per_page query parameter.
	MaxPerPage = 100
	// MaxPage keeps Offset within an int32 for any per_page.
	MaxPage = math.MaxInt32 / MaxPerPage
)

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pages returns the page count for total rows.
func (p PageRequest) Pages(total int) int {
	if p.PerPage <= 0 || total <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// ParsePage reads page/per_page from the query string. Bad values fall back
// to defaults rather than failing the request.
func ParsePage(r *http.Request, defaultPerPage int) PageRequest {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}
