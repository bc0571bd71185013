package notes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteInputValidate(t *testing.T) {
	cases := []struct {
		name  string
		input NoteInput
		field string
	}{
		{name: "ok", input: NoteInput{Title: "groceries"}},
		{name: "empty title", input: NoteInput{Title: ""}, field: "required"},
		{name: "whitespace-only title", input: NoteInput{Title: "  \t "}, field: "required"},
		{name: "title at the cap", input: NoteInput{Title: strings.Repeat("a", MaxTitleLen)}},
		{name: "title over the cap", input: NoteInput{Title: strings.Repeat("a", MaxTitleLen+1)}, field: "must be at most 200 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ve := tc.input.Validate()
			if tc.field == "" {
				require.Nil(t, ve)
				return
			}
			require.NotNil(t, ve)
			require.Equal(t, tc.field, ve.Fields["title"])
		})
	}
}
