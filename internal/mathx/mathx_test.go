package mathx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalPages_Table(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     int
	}{
		{"empty", 0, 10, 1},
		{"partial", 3, 10, 1},
		{"exact", 20, 10, 2},
		{"spill", 21, 10, 3},
		{"one_per_page", 5, 1, 5},
		{"bad_page_size", 5, 0, 1},
		{"negative_total", -1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TotalPages(tt.total, tt.pageSize))
		})
	}
}

func TestClampPage_Table(t *testing.T) {
	tests := []struct {
		page  int
		total int
		want  int
	}{
		{0, 3, 1},
		{-5, 3, 1},
		{1, 3, 1},
		{3, 3, 3},
		{99, 3, 3},
		{2, 0, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page_%d_of_%d", tt.page, tt.total), func(t *testing.T) {
			require.Equal(t, tt.want, ClampPage(tt.page, tt.total))
		})
	}
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Offset(1, 10))
	require.Equal(t, 10, Offset(2, 10))
	require.Equal(t, 0, Offset(0, 10))
}
