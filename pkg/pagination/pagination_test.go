package pagination_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/pkg/pagination"
)

var cfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		page     int
		pageSize int
	}{
		{"defaults", url.Values{}, 1, 20},
		{"explicit", url.Values{"page": {"3"}, "page_size": {"50"}}, 3, 50},
		{"clamped", url.Values{"page": {"-1"}, "page_size": {"1000"}}, 1, 100},
		{"garbage", url.Values{"page": {"x"}, "page_size": {"y"}}, 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequestFromQuery(tt.values, cfg)
			assert.Equal(t, tt.page, req.Page)
			assert.Equal(t, tt.pageSize, req.PageSize)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, pagination.PageRequest{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, pagination.PageRequest{Page: 3, PageSize: 20}.Offset())
}

func TestNewPageResult(t *testing.T) {
	r := pagination.NewPageResult([]string{"a", "b"}, 45, pagination.PageRequest{Page: 2, PageSize: 20})
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, 2, r.Page)
	assert.Len(t, r.Data, 2)

	empty := pagination.NewPageResult[string](nil, 0, pagination.PageRequest{Page: 1, PageSize: 20})
	assert.Equal(t, 1, empty.TotalPages)
	assert.NotNil(t, empty.Data)
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_PAGE_MAX", "10")

	c := pagination.Config{}
	err := c.Finalize(&pagination.ConfigEnv{MaxPageSize: "TEST_PAGE_MAX"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot exceed")

	c = pagination.Config{DefaultPageSize: 5}
	require.NoError(t, c.Finalize(&pagination.ConfigEnv{MaxPageSize: "TEST_PAGE_MAX"}))
	assert.Equal(t, 10, c.MaxPageSize)
}
