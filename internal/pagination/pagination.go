// Package pagination splits ordered listings into fixed-size, 1-indexed pages.
//
// Page numbers are never rejected: an absent or malformed number selects the
// first page, a number below one selects the first page and a number past the
// end selects the last page. An empty listing still has one (empty) page.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of posts shown per page.
const DefaultPageSize = 10

// Window locates one page inside a listing of Total items.
type Window struct {
	Number     int
	Size       int
	TotalPages int
	TotalItems int
}

// Resolve computes the window for the raw page number against total items.
func Resolve(total, size int, raw string) Window {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	raw = strings.TrimSpace(raw)
	number, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		number = pages
	case err != nil, number < 1:
		number = 1
	case number > pages:
		number = pages
	}

	return Window{Number: number, Size: size, TotalPages: pages, TotalItems: total}
}

// Offset returns the index of the first item on the page.
func (w Window) Offset() int {
	return (w.Number - 1) * w.Size
}

// Limit returns the maximum number of items on the page.
func (w Window) Limit() int {
	return w.Size
}

// Page is one page of items.
type Page[T any] struct {
	Window
	Items []T
}

// Paginate returns the requested page of an in-memory sequence.
func Paginate[T any](items []T, size int, raw string) Page[T] {
	w := Resolve(len(items), size, raw)
	start := min(w.Offset(), len(items))
	end := min(start+w.Size, len(items))
	return Page[T]{Window: w, Items: items[start:end]}
}

// NewPage wraps items already fetched for window w.
func NewPage[T any](w Window, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Window: w, Items: items}
}

// HasPrevious reports whether a page precedes this one.
func (w Window) HasPrevious() bool { return w.Number > 1 }

// HasNext reports whether a page follows this one.
func (w Window) HasNext() bool { return w.Number < w.TotalPages }

// HasOtherPages reports whether the listing spans more than one page.
func (w Window) HasOtherPages() bool { return w.TotalPages > 1 }

// PreviousNumber returns the previous page number, or 0 on the first page.
func (w Window) PreviousNumber() int {
	if !w.HasPrevious() {
		return 0
	}
	return w.Number - 1
}

// NextNumber returns the next page number, or 0 on the last page.
func (w Window) NextNumber() int {
	if !w.HasNext() {
		return 0
	}
	return w.Number + 1
}

// PageRange returns every page number, for paginator links.
func (w Window) PageRange() []int {
	r := make([]int, w.TotalPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
