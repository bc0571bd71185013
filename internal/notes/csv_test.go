package notes

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"example.com/tagnotes/internal/tags"
)

func TestParseImport_HeaderOnly(t *testing.T) {
	rows, err := ParseImport([]byte("title,content,is_pinned,tags\n"))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestParseImport_EmptyFile(t *testing.T) {
	rows, err := ParseImport(nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestParseImport_PinnedTokens(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"Yes", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"pinned", false}, // unrecognized token is falsy, not an error
	}

	for _, tt := range tests {
		t.Run("token_"+tt.token, func(t *testing.T) {
			rows, err := ParseImport([]byte("title,content,is_pinned,tags\nx,y," + tt.token + ",\n"))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.Equal(t, tt.want, rows[0].IsPinned)
		})
	}
}

func TestParseImport_MissingColumnsDefaultEmpty(t *testing.T) {
	// Short row: only a title. Row is still created with defaults.
	rows, err := ParseImport([]byte("title,content,is_pinned,tags\nonly-title\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "only-title", rows[0].Title)
	require.Equal(t, "", rows[0].Content)
	require.False(t, rows[0].IsPinned)
	require.Empty(t, rows[0].TagNames)
}

func TestParseImport_TagsSplitAndCleaned(t *testing.T) {
	rows, err := ParseImport([]byte("title,content,is_pinned,tags\nx,y,1,\" go , web dev ,, go \"\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"go", "web dev"}, rows[0].TagNames)
}

func TestParseImport_ClipsLongTitle(t *testing.T) {
	long := strings.Repeat("a", MaxTitleLen+50)
	rows, err := ParseImport([]byte("title,content,is_pinned,tags\n" + long + ",,,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Title, MaxTitleLen)
}

func TestParseImport_ClipsMultibyteTitleToValidText(t *testing.T) {
	// Two bytes per rune, so twice the byte cap: the clip must land on a
	// rune boundary or the later INSERT would fail the encoding check.
	long := strings.Repeat("é", MaxTitleLen)
	rows, err := ParseImport([]byte("title,content,is_pinned,tags\n" + long + ",,,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.LessOrEqual(t, len(rows[0].Title), MaxTitleLen)
	require.True(t, utf8.ValidString(rows[0].Title))
}

func TestParseImport_InvalidUTF8(t *testing.T) {
	_, err := ParseImport([]byte{0xff, 0xfe, 0x00})
	require.ErrorIs(t, err, ErrBadEncoding)
}

func TestParseImport_ColumnsMatchedByHeaderName(t *testing.T) {
	// Reordered header still maps fields correctly.
	rows, err := ParseImport([]byte("tags,title,is_pinned,content\n\"a,b\",T,yes,C\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "T", rows[0].Title)
	require.Equal(t, "C", rows[0].Content)
	require.True(t, rows[0].IsPinned)
	require.Equal(t, []string{"a", "b"}, rows[0].TagNames)
}

func TestCSV_RoundTrip(t *testing.T) {
	orig := []Note{
		{
			Title:    "pinned note",
			Content:  "multi\nline, with commas",
			IsPinned: true,
			Tags:     []tags.Tag{{Name: "Work"}, {Name: "side projects"}},
		},
		{Title: "plain", Content: "", IsPinned: false, Tags: []tags.Tag{}},
		{Title: "dup title", Content: "a", Tags: []tags.Tag{{Name: "home"}}},
		{Title: "dup title", Content: "a", Tags: []tags.Tag{{Name: "home"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, orig))

	rows, err := ParseImport(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, len(orig))

	for i, row := range rows {
		require.Equal(t, orig[i].Title, row.Title)
		require.Equal(t, orig[i].Content, row.Content)
		require.Equal(t, orig[i].IsPinned, row.IsPinned)

		want := make([]string, len(orig[i].Tags))
		for j, tag := range orig[i].Tags {
			want[j] = tag.Name
		}
		require.ElementsMatch(t, want, row.TagNames)
	}
}

func TestWriteCSV_HeaderAlwaysPresent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	require.Equal(t, "title,content,is_pinned,tags\n", buf.String())
}
