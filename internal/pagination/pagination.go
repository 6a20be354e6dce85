// Package pagination provides page arithmetic shared by the bot and dashboard.
package pagination

// Page describes one page of a paginated result. Number is 1-based.
type Page struct {
	Number     int
	Size       int
	TotalItems int
	TotalPages int
}

// New computes the page for totalItems split into pages of size.
// The requested page is clamped into [1, TotalPages]; an empty result still has one page.
// A non-positive size is treated as 1.
func New(totalItems, page, size int) Page {
	if size <= 0 {
		size = 1
	}
	if totalItems < 0 {
		totalItems = 0
	}

	totalPages := (totalItems + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	page = min(max(page, 1), totalPages)

	return Page{
		Number:     page,
		Size:       size,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// Prev returns the previous page number, or the current one on the first page.
func (p Page) Prev() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}

// Next returns the next page number, or the current one on the last page.
func (p Page) Next() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// Slice returns the items on the requested page of an in-memory list.
func Slice[T any](items []T, page, size int) ([]T, Page) {
	p := New(len(items), page, size)
	start := min(p.Offset(), len(items))
	end := min(start+p.Size, len(items))
	return items[start:end], p
}
