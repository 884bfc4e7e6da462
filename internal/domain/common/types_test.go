package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, PageSize: DefaultPageSize}, PageRequest{}.Normalize())
	assert.Equal(t, PageRequest{Page: 3, PageSize: MaxPageSize}, PageRequest{Page: 3, PageSize: 1000}.Normalize())
	assert.Equal(t, 20, PageRequest{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, 0, PageRequest{Page: -2, PageSize: 10}.Offset())
}

func TestOffsetNeverOverflows(t *testing.T) {
	for _, page := range []int{MaxPage, MaxPage + 1, math.MaxInt/10 + 7, math.MaxInt} {
		for _, size := range []int{1, 10, MaxPageSize, math.MaxInt} {
			req := PageRequest{Page: page, PageSize: size}
			assert.GreaterOrEqual(t, req.Offset(), 0, "page=%d size=%d", page, size)
			assert.LessOrEqual(t, req.Normalize().Page, MaxPage)
		}
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](PageRequest{Page: 2, PageSize: 2}, []string{"c", "d"}, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)

	empty := NewPage[int](PageRequest{}, nil, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
