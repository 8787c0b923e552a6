package page

import "fmt"

// Paginator splits a page collection into 1-indexed pages of a fixed
// size, exposing the navigation fields list/archive templates need.
type Paginator struct {
	pages   []*Page
	perPage int
}

// NewPaginator returns a Paginator over pages, perPage items per page.
// perPage <= 0 is treated as "no pagination" (a single page holding all
// items).
func NewPaginator(pages []*Page, perPage int) *Paginator {
	if perPage <= 0 {
		perPage = len(pages)
		if perPage == 0 {
			perPage = 1
		}
	}
	return &Paginator{pages: pages, perPage: perPage}
}

// NumPages returns the total number of pages, minimum 1 even for an
// empty collection (so callers can always render a (possibly empty)
// first page).
func (p *Paginator) NumPages() int {
	if len(p.pages) == 0 {
		return 1
	}
	n := len(p.pages) / p.perPage
	if len(p.pages)%p.perPage != 0 {
		n++
	}
	return n
}

// PageInfo is the per-page navigation context exposed to templates.
type PageInfo struct {
	Items      []*Page
	PageNumber int // 1-indexed
	NumPages   int
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
}

// Page returns the 1-indexed pageNumber's slice and navigation context.
// pageNumber outside [1, NumPages()] is a precondition violation — it
// returns an error rather than clamping, matching the documented
// pagination contract.
func (p *Paginator) Page(pageNumber int) (PageInfo, error) {
	numPages := p.NumPages()
	if pageNumber < 1 || pageNumber > numPages {
		return PageInfo{}, fmt.Errorf("page %d out of range (1-%d)", pageNumber, numPages)
	}

	start := (pageNumber - 1) * p.perPage
	end := start + p.perPage
	if end > len(p.pages) {
		end = len(p.pages)
	}

	return PageInfo{
		Items:      p.pages[start:end],
		PageNumber: pageNumber,
		NumPages:   numPages,
		HasPrev:    pageNumber > 1,
		HasNext:    pageNumber < numPages,
		PrevNumber: pageNumber - 1,
		NextNumber: pageNumber + 1,
	}, nil
}
