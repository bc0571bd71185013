package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"example.com/tagnotes/internal/mathx"
	"example.com/tagnotes/internal/tags"
)

// Repository is the PostgreSQL store for notes. Every query carries the
// owner in its predicate: there is no path that reads or writes a note by
// id alone.
type Repository struct {
	db       *sql.DB
	pageSize int

	// lookupTag is a seam so List's filter resolution can be exercised
	// without a database.
	lookupTag func(ctx context.Context, slug string) (tags.Tag, error)
}

func NewRepository(db *sql.DB, defaultPageSize int) *Repository {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	r := &Repository{db: db, pageSize: defaultPageSize}
	r.lookupTag = func(ctx context.Context, slug string) (tags.Tag, error) {
		return tags.BySlug(ctx, r.db, slug)
	}
	return r
}

const noteColumns = `n.id, n.title, n.content, n.is_pinned, n.created_at, n.updated_at`

// Create inserts a note and its tag associations in one transaction.
// Tags are resolved against the pool first (the note has no identity yet;
// the global vocabulary tolerates orphans if the tx rolls back), then the
// associations are applied before commit so the note is never visible
// without them.
func (r *Repository) Create(ctx context.Context, ownerID int64, in NoteInput) (Note, error) {
	var staged []tags.Tag
	if in.TagNames != nil {
		var err error
		staged, err = tags.ResolveAll(ctx, r.db, *in.TagNames)
		if err != nil {
			return Note{}, err
		}
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Note{}, err
	}
	defer tx.Rollback()

	var n Note
	err = tx.QueryRowContext(ctx, `
		INSERT INTO notes (user_id, title, content, is_pinned)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, content, is_pinned, created_at, updated_at
	`, ownerID, in.Title, in.Content, in.IsPinned).
		Scan(&n.ID, &n.Title, &n.Content, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, err
	}

	if in.TagNames != nil {
		if err := tags.Apply(ctx, tx, n.ID, staged); err != nil {
			return Note{}, err
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO notes_audit (note_id, action) VALUES ($1, $2)`, n.ID, "create")
	if err != nil {
		return Note{}, err
	}

	if err := tx.Commit(); err != nil {
		return Note{}, err
	}

	n.Tags = staged
	if n.Tags == nil {
		n.Tags = []tags.Tag{}
	}
	return n, nil
}

// GetOwned is the single ownership gate: an id owned by someone else is
// indistinguishable from an id that does not exist.
func (r *Repository) GetOwned(ctx context.Context, id, ownerID int64) (Note, error) {
	var n Note
	err := r.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE n.id = $1 AND n.user_id = $2
	`, id, ownerID).Scan(&n.ID, &n.Title, &n.Content, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}
	if err := r.attachTags(ctx, []*Note{&n}); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (r *Repository) Update(ctx context.Context, id, ownerID int64, in NoteInput) (Note, error) {
	var staged []tags.Tag
	if in.TagNames != nil {
		var err error
		staged, err = tags.ResolveAll(ctx, r.db, *in.TagNames)
		if err != nil {
			return Note{}, err
		}
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Note{}, err
	}
	defer tx.Rollback()

	var n Note
	err = tx.QueryRowContext(ctx, `
		UPDATE notes n
		SET title = $1, content = $2, is_pinned = $3, updated_at = now()
		WHERE n.id = $4 AND n.user_id = $5
		RETURNING `+noteColumns+`
	`, in.Title, in.Content, in.IsPinned, id, ownerID).
		Scan(&n.ID, &n.Title, &n.Content, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}

	if in.TagNames != nil {
		if err := tags.Apply(ctx, tx, n.ID, staged); err != nil {
			return Note{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Note{}, err
	}
	if err := r.attachTags(ctx, []*Note{&n}); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (r *Repository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notes WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	a, _ := res.RowsAffected()
	if a == 0 {
		return ErrNotFound
	}
	return nil
}

// List composes the optional filters over the owner's notes and returns
// one page. Pinned notes sort first, then most recently updated, with id
// as the deterministic tiebreaker.
func (r *Repository) List(ctx context.Context, ownerID int64, p ListParams) (NoteList, error) {
	size := p.PageSize
	if size <= 0 || size > 100 {
		size = r.pageSize
	}

	where := []string{"n.user_id = $1"}
	args := []any{ownerID}

	if p.Query != "" {
		args = append(args, likePattern(p.Query))
		where = append(where, fmt.Sprintf(`n.title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if p.TagSlug != "" {
		t, err := r.lookupTag(ctx, p.TagSlug)
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown slug filters everything out; not an error.
			return NoteList{Items: []Note{}, Page: 1, PageSize: size}, nil
		}
		if err != nil {
			return NoteList{}, err
		}
		args = append(args, t.ID)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = n.id AND nt.tag_id = $%d)", len(args)))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notes n WHERE `+cond, args...).Scan(&total); err != nil {
		return NoteList{}, err
	}

	totalPages := mathx.TotalPages(total, size)
	page := mathx.ClampPage(p.Page, totalPages)

	args = append(args, size, mathx.Offset(page, size))
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+noteColumns+`
		FROM notes n
		WHERE %s
		ORDER BY n.is_pinned DESC, n.updated_at DESC, n.id DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return NoteList{}, err
	}
	defer rows.Close()

	items, err := scanNotes(rows)
	if err != nil {
		return NoteList{}, err
	}

	refs := make([]*Note, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := r.attachTags(ctx, refs); err != nil {
		return NoteList{}, err
	}

	return NoteList{
		Items:    items,
		Page:     page,
		PageSize: size,
		Total:    total,
		HasNext:  page < totalPages,
		HasPrev:  page > 1 && total > 0,
	}, nil
}

// ListAll returns every note the owner has, in listing order, for export.
func (r *Repository) ListAll(ctx context.Context, ownerID int64) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		WHERE n.user_id = $1
		ORDER BY n.is_pinned DESC, n.updated_at DESC, n.id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	refs := make([]*Note, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := r.attachTags(ctx, refs); err != nil {
		return nil, err
	}
	return items, nil
}

// ImportRows creates one note per row inside a single transaction, so a
// failed import never reports a count it did not commit.
func (r *Repository) ImportRows(ctx context.Context, ownerID int64, rows []ImportRow) (int, error) {
	staged := make([][]tags.Tag, len(rows))
	for i, row := range rows {
		resolved, err := tags.ResolveAll(ctx, r.db, row.TagNames)
		if err != nil {
			return 0, err
		}
		staged[i] = resolved
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	count := 0
	for i, row := range rows {
		var noteID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO notes (user_id, title, content, is_pinned)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, ownerID, row.Title, row.Content, row.IsPinned).Scan(&noteID)
		if err != nil {
			return 0, err
		}
		if len(staged[i]) > 0 {
			if err := tags.Apply(ctx, tx, noteID, staged[i]); err != nil {
				return 0, err
			}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO notes_audit (note_id, action) VALUES ($1, $2)`, noteID, "import")
		if err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) ListTags(ctx context.Context) ([]tags.Tag, error) {
	return tags.List(ctx, r.db)
}

func (r *Repository) attachTags(ctx context.Context, notes []*Note) error {
	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	byNote, err := tags.ForNotes(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for _, n := range notes {
		n.Tags = byNote[n.ID]
		if n.Tags == nil {
			n.Tags = []tags.Tag{}
		}
	}
	return nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	out := make([]Note, 0, 32)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// likePattern escapes %, _ and \ so user input matches literally.
func likePattern(q string) string {
	rep := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + rep.Replace(q) + "%"
}
