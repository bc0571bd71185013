// Package tags is the global tag vocabulary: get-or-create resolution of
// names and set-style synchronization of note/tag associations. Tag names
// are case-insensitive; the lowercase slug carries the unique constraint
// and the first writer's trimmed spelling is kept as the display name.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/tagnotes/internal/stringsx"
)

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DBTX is satisfied by both *sql.DB and *sql.Tx, so resolution can run on
// the pool while association writes join the note's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CleanNames trims names, drops empties and deduplicates by slug while
// preserving first-seen order.
func CleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := stringsx.Slugify(name)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, name)
	}
	return out
}

// SplitCSV splits a comma-separated tag field into cleaned names.
func SplitCSV(csv string) []string {
	return CleanNames(strings.Split(csv, ","))
}

// Resolve returns the Tag for name, creating it on first use. Safe under
// concurrent calls for the same name: a losing insert hits the slug
// unique constraint and is retried as a read of the winner's row.
func Resolve(ctx context.Context, db DBTX, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, errors.New("empty tag name")
	}
	slug := stringsx.Slugify(name)
	if slug == "" {
		return Tag{}, errors.New("tag name has no alphanumeric characters")
	}

	return getOrCreate(
		func() (Tag, error) { return bySlug(ctx, db, slug) },
		func() (Tag, error) { return insertTag(ctx, db, name, slug) },
	)
}

// getOrCreate is the check-then-insert step of Resolve. A losing insert
// hits the slug unique constraint and is retried once as a read of the
// winner's row; any other insert error propagates.
func getOrCreate(get, insert func() (Tag, error)) (Tag, error) {
	t, err := get()
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tag{}, err
	}
	t, err = insert()
	if isUniqueViolation(err) {
		// Lost the create race; the row exists now.
		return get()
	}
	return t, err
}

func insertTag(ctx context.Context, db DBTX, name, slug string) (Tag, error) {
	var t Tag
	err := db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug
	`, name, slug).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// ResolveAll cleans names and resolves each of them. This is the staging
// half of synchronization: it needs no note identity, so a caller creating
// a note can resolve first and Apply once the row exists.
func ResolveAll(ctx context.Context, db DBTX, names []string) ([]Tag, error) {
	cleaned := CleanNames(names)
	out := make([]Tag, 0, len(cleaned))
	for _, name := range cleaned {
		t, err := Resolve(ctx, db, name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Apply makes resolved the note's exact tag set: rows already present keep
// their association, missing ones are inserted, anything else is pruned.
// Positions record the requested order for export.
func Apply(ctx context.Context, db DBTX, noteID int64, resolved []Tag) error {
	ids := make([]int64, len(resolved))
	for i, t := range resolved {
		ids[i] = t.ID
		_, err := db.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (note_id, tag_id) DO UPDATE SET position = EXCLUDED.position
		`, noteID, t.ID, i)
		if err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `
		DELETE FROM note_tags WHERE note_id = $1 AND tag_id <> ALL($2)
	`, noteID, ids)
	return err
}

// Sync replaces the tag set of an already-persisted note with the tags
// resolved from names. Idempotent for a fixed names list.
func Sync(ctx context.Context, db DBTX, noteID int64, names []string) error {
	resolved, err := ResolveAll(ctx, db, names)
	if err != nil {
		return err
	}
	return Apply(ctx, db, noteID, resolved)
}

// ForNotes loads the tags of every given note in association order,
// one query for the whole batch.
func ForNotes(ctx context.Context, db DBTX, noteIDs []int64) (map[int64][]Tag, error) {
	out := make(map[int64][]Tag, len(noteIDs))
	if len(noteIDs) == 0 {
		return out, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT nt.note_id, t.id, t.name, t.slug
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ANY($1)
		ORDER BY nt.note_id, nt.position, t.id
	`, noteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var noteID int64
		var t Tag
		if err := rows.Scan(&noteID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out[noteID] = append(out[noteID], t)
	}
	return out, rows.Err()
}

// List returns the whole vocabulary ordered by name.
func List(ctx context.Context, db DBTX) ([]Tag, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tag, 0, 16)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// BySlug returns the tag with the given slug, or sql.ErrNoRows.
func BySlug(ctx context.Context, db DBTX, slug string) (Tag, error) {
	return bySlug(ctx, db, slug)
}

func bySlug(ctx context.Context, db DBTX, slug string) (Tag, error) {
	var t Tag
	err := db.QueryRowContext(ctx, `
		SELECT id, name, slug FROM tags WHERE slug = $1
	`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
