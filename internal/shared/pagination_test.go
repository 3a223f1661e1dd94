package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageWindow(t *testing.T) {
	limit, offset := PageWindow(0, 0)
	require.Equal(t, DefaultPerPage, limit)
	require.Zero(t, offset)

	limit, offset = PageWindow(3, 25)
	require.Equal(t, 25, limit)
	require.Equal(t, 50, offset)

	limit, _ = PageWindow(1, MaxPerPage+1)
	require.Equal(t, DefaultPerPage, limit)
}

func TestNewPaginationRoundsPagesUp(t *testing.T) {
	p := NewPagination(2, 25, 51)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 51, p.Total)
}
