package notes

import (
	"errors"
	"time"

	"example.com/tagnotes/internal/stringsx"
	"example.com/tagnotes/internal/tags"
)

// MaxTitleLen caps note titles on every write surface.
const MaxTitleLen = 200

// ErrNotFound covers both a nonexistent note and a note owned by someone
// else; callers must not be able to tell the two apart.
var ErrNotFound = errors.New("note not found")

type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	IsPinned  bool       `json:"is_pinned"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt time.Time  `json:"updated"`
	Tags      []tags.Tag `json:"tags"`
}

// NoteInput is a create/update payload. A nil TagNames leaves the note's
// tags untouched; an empty non-nil list clears them.
type NoteInput struct {
	Title    string
	Content  string
	IsPinned bool
	TagNames *[]string
}

// ValidationError carries field-level detail for a rejected payload.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string { return "validation failed" }

// Validate rejects malformed note fields. No partial save happens on
// failure; handlers surface Fields to the caller.
func (in NoteInput) Validate() *ValidationError {
	fields := make(map[string]string)
	if stringsx.IsEmpty(in.Title) {
		fields["title"] = "required"
	} else if len(in.Title) > MaxTitleLen {
		fields["title"] = "must be at most 200 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type ListParams struct {
	Query    string // case-insensitive title substring; empty = no filter
	TagSlug  string // exact slug match; unknown slug yields an empty page
	Page     int
	PageSize int
}

// NoteList is one page of a listing plus its slicing metadata.
type NoteList struct {
	Items    []Note `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
	HasNext  bool   `json:"has_next"`
	HasPrev  bool   `json:"has_prev"`
}

// ImportRow is one parsed CSV row; every row becomes a new note.
type ImportRow struct {
	Title    string
	Content  string
	IsPinned bool
	TagNames []string
}
