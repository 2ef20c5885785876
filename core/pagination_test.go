package core

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		requested  int
		count      int
		wantPage   int
		wantTotal  int
		wantOffset int
	}{
		{name: "first page", requested: 1, count: 25, wantPage: 1, wantTotal: 3, wantOffset: 0},
		{name: "page 0 is page 1", requested: 0, count: 25, wantPage: 1, wantTotal: 3, wantOffset: 0},
		{name: "negative page is page 1", requested: -4, count: 25, wantPage: 1, wantTotal: 3, wantOffset: 0},
		{name: "page past the end is the last page", requested: 99, count: 25, wantPage: 3, wantTotal: 3, wantOffset: 20},
		{name: "exact multiple", requested: 2, count: 20, wantPage: 2, wantTotal: 2, wantOffset: 10},
		{name: "nothing to list", requested: 3, count: 0, wantPage: 1, wantTotal: 0, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.requested, tt.count, DefaultPageSize)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantTotal, p.TotalPages)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, DefaultPageSize, p.Limit())
			assert.Equal(t, tt.count, p.Count)
		})
	}
}

func TestPage_SetLinks(t *testing.T) {
	first := NewPage(1, 25, DefaultPageSize)
	first.SetLinks("/courses", nil)
	assert.Equal(t, PageLinks{NextPage: "/courses?page=2", LastPage: "/courses?page=3"}, first.Links)

	middle := NewPage(2, 25, DefaultPageSize)
	middle.SetLinks("/courses", url.Values{"subject": {"CS"}})
	assert.Equal(t, PageLinks{
		NextPage:  "/courses?page=3&subject=CS",
		LastPage:  "/courses?page=3&subject=CS",
		PrevPage:  "/courses?page=1&subject=CS",
		FirstPage: "/courses?page=1&subject=CS",
	}, middle.Links)

	last := NewPage(3, 25, DefaultPageSize)
	last.SetLinks("/courses", nil)
	assert.Equal(t, PageLinks{PrevPage: "/courses?page=2", FirstPage: "/courses?page=1"}, last.Links)

	empty := EmptyPage()
	empty.SetLinks("/courses", nil)
	assert.Equal(t, PageLinks{}, empty.Links)
}

func TestParsePageNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 1},
		{raw: "lol", want: 1},
		{raw: "-", want: 1},
		{raw: "0", want: 1},
		{raw: "4", want: 4},
		{raw: "+4", want: 4},
		{raw: " 4", want: 4},
		{raw: "-2", want: -2},
		{raw: "2.5", want: 2},
		{raw: "3abc", want: 3},
		{raw: "99999999999999999999", want: math.MaxInt},
		{raw: "-99999999999999999999", want: math.MinInt},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePageNumber(tt.raw))
		})
	}

	assert.Equal(t, 3, NewPage(ParsePageNumber("99999999999999999999"), 25, DefaultPageSize).Page)
	assert.Equal(t, 1, NewPage(ParsePageNumber("-99999999999999999999"), 25, DefaultPageSize).Page)
}
