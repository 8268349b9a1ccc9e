package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Params is a 0-based page of Size items.
type Params struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// New clamps a requested page. A size of zero or less becomes defaultSize,
// sizes above maxSize become maxSize and negative pages become 0.
func New(page, size, defaultSize, maxSize int) Params {
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	if page < 0 {
		page = 0
	}
	return Params{Page: page, Size: size}
}

// Offset is the number of items before the page.
func (p Params) Offset() int {
	return p.Page * p.Size
}

// TotalPages returns how many pages of size hold total items.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	pages := total / size
	if total%size > 0 {
		pages++
	}
	return pages
}

// Limit reads the "limit" query parameter. A missing value yields def; a
// value that is not an integer in [1, max] is an error.
func Limit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > max {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", max)
	}
	return v, nil
}
