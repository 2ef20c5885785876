package core

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPageSize is the fixed number of items per page of every paginated listing.
const DefaultPageSize = 10

// Page describes one page of a listing.
type Page struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	PageSize   int       `json:"pageSize"`
	Count      int       `json:"count"`
	Links      PageLinks `json:"links"`
}

// PageLinks holds the HATEOAS links to the surrounding pages; boundary links are omitted.
type PageLinks struct {
	NextPage  string `json:"nextPage,omitempty"`
	LastPage  string `json:"lastPage,omitempty"`
	PrevPage  string `json:"prevPage,omitempty"`
	FirstPage string `json:"firstPage,omitempty"`
}

// NewPage computes the page to serve for `count` matching items.
// The requested page is clamped into [1, totalPages]; out of range values are not an error.
func NewPage(requested, count, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := (count + pageSize - 1) / pageSize

	page := requested
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return Page{
		Page:       page,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Count:      count,
	}
}

// EmptyPage is served when the filter can never match anything.
func EmptyPage() Page {
	return NewPage(1, 0, DefaultPageSize)
}

// Offset is the number of items to skip to reach the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the maximum number of items on the page.
func (p Page) Limit() int {
	return p.PageSize
}

// SetLinks fills the navigation links of `p` for the listing at `path`, keeping the `query` filters.
func (p *Page) SetLinks(path string, query url.Values) {
	link := func(page int) string {
		q := make(url.Values, len(query)+1)
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		return path + "?" + q.Encode()
	}

	p.Links = PageLinks{}
	if p.Page < p.TotalPages {
		p.Links.NextPage = link(p.Page + 1)
		p.Links.LastPage = link(p.TotalPages)
	}
	if p.Page > 1 {
		p.Links.PrevPage = link(p.Page - 1)
		p.Links.FirstPage = link(1)
	}
}

// ParsePageNumber reads the leading integer of the raw `page` query parameter ("2.5" is 2).
// No leading digits means page 1; out of range numbers saturate so they still get clamped.
func ParsePageNumber(raw string) int {
	raw = strings.TrimLeftFunc(raw, unicode.IsSpace)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}

	page, err := strconv.Atoi(raw[:end])
	if errors.Is(err, strconv.ErrRange) {
		if raw[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	if err != nil || page == 0 {
		return 1
	}
	return page
}
