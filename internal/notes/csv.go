package notes

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"example.com/tagnotes/internal/stringsx"
	"example.com/tagnotes/internal/tags"
)

// ErrBadEncoding rejects a whole import before any row is processed.
var ErrBadEncoding = errors.New("file is not valid UTF-8 text")

var csvHeader = []string{"title", "content", "is_pinned", "tags"}

// ParseImport turns an uploaded CSV file into import rows. The first line
// is the header; columns are matched by name, and a row missing a column
// gets an empty string for it instead of failing. Over-long titles are
// clipped. Only a non-text file or broken CSV framing is fatal.
func ParseImport(data []byte) ([]ImportRow, error) {
	if !utf8.Valid(data) {
		return nil, ErrBadEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []ImportRow{}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[stringsx.Normalize(name)] = i
	}

	rows := make([]ImportRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		rows = append(rows, ImportRow{
			Title:    stringsx.Clip(field("title"), MaxTitleLen),
			Content:  field("content"),
			IsPinned: isTruthy(field("is_pinned")),
			TagNames: tags.SplitCSV(field("tags")),
		})
	}
	return rows, nil
}

// WriteCSV streams the owner's notes as CSV: the fixed header, then one
// row per note with tags comma-joined in association order.
func WriteCSV(w io.Writer, notes []Note) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, n := range notes {
		names := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			names[i] = t.Name
		}
		err := cw.Write([]string{
			n.Title,
			n.Content,
			strconv.FormatBool(n.IsPinned),
			strings.Join(names, ","),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// isTruthy recognizes the import truthy tokens; anything else is false,
// never an error.
func isTruthy(s string) bool {
	switch stringsx.Normalize(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
