package paging

import "strconv"

const (
	// DefaultPerPage matches the candidates-per-page default of the web listing.
	DefaultPerPage = 10
	// MaxPerPage bounds page sizes coming from users.
	MaxPerPage = 100

	// window is how many pages around the current one are always linked.
	window = 2
)

// Page describes one slice of a result list.
type Page struct {
	Number     int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
	// Start and End delimit the page as a half-open range over the full list.
	Start int `json:"-"`
	End   int `json:"-"`
}

// Paginate computes the window for page (1-based) over total items. Out of range pages are
// clamped; perPage below 1 falls back to DefaultPerPage and is capped at MaxPerPage.
func Paginate(total, page, perPage int) Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if total < 0 {
		total = 0
	}

	totalPages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if totalPages == 0 {
		page = 1
	}

	start := min((page-1)*perPage, total)
	end := min(page*perPage, total)

	return Page{
		Number:     page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Total:      total,
		Start:      start,
		End:        end,
	}
}

// Slice returns the items of p. The returned slice shares memory with items.
func Slice[T any](items []T, p Page) []T {
	if p.Start >= len(items) {
		return items[:0]
	}
	return items[p.Start:min(p.End, len(items))]
}

// Link is one entry of a page selector: a page number or an ellipsis.
type Link struct {
	Number   int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func (l Link) String() string {
	if l.Ellipsis {
		return "..."
	}
	return strconv.Itoa(l.Number)
}

// Links builds the page selector: first, last and the pages within two of current.
// A gap of exactly one page shows that page; longer gaps collapse into one ellipsis.
func Links(current, totalPages int) []Link {
	if totalPages < 1 {
		return []Link{}
	}
	current = max(1, min(current, totalPages))

	pages := make([]int, 0, 2*window+3)
	pages = append(pages, 1)
	for p := current - window; p <= current+window; p++ {
		if p > 1 && p < totalPages {
			pages = append(pages, p)
		}
	}
	if totalPages > 1 {
		pages = append(pages, totalPages)
	}

	links := make([]Link, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if prev > 0 {
			switch gap := p - prev; {
			case gap == 2:
				links = append(links, Link{Number: prev + 1})
			case gap > 2:
				links = append(links, Link{Ellipsis: true})
			}
		}
		links = append(links, Link{Number: p, Current: p == current})
		prev = p
	}

	return links
}
