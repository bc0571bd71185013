package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/tagnotes/internal/tags"
)

func TestList_UnknownTagSlugYieldsEmptyPage(t *testing.T) {
	// nil *sql.DB: any query would panic, so this also proves the filter
	// short-circuits before touching storage.
	r := NewRepository(nil, 10)
	r.lookupTag = func(context.Context, string) (tags.Tag, error) {
		return tags.Tag{}, sql.ErrNoRows
	}

	page, err := r.List(context.Background(), 1, ListParams{TagSlug: "no-such-tag", Page: 7})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 0, page.Total)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 10, page.PageSize)
	require.False(t, page.HasNext)
	require.False(t, page.HasPrev)
}

func TestList_TagLookupErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := NewRepository(nil, 10)
	r.lookupTag = func(context.Context, string) (tags.Tag, error) {
		return tags.Tag{}, boom
	}

	_, err := r.List(context.Background(), 1, ListParams{TagSlug: "work"})
	require.ErrorIs(t, err, boom)
}
