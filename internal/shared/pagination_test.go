package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageRequestDefaults(t *testing.T) {
	req := ParsePageRequest(url.Values{})
	require.Equal(t, 1, req.Page)
	require.Equal(t, defaultPerPage, req.PerPage)
	require.Equal(t, 0, req.Offset())
}

func TestParsePageRequestClampsPerPage(t *testing.T) {
	req := ParsePageRequest(url.Values{"page": {"3"}, "per_page": {"5000"}})
	require.Equal(t, maxPerPage, req.Limit())
	require.Equal(t, 2*maxPerPage, req.Offset())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	require.Equal(t, 4, p.TotalPages)
	require.Equal(t, 35, p.Total)
}
