package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"example.com/tagnotes/internal/auth"
	"example.com/tagnotes/internal/tags"
)

// maxImportBytes caps an uploaded CSV file.
const maxImportBytes = 10 << 20

type Handlers struct {
	store Store
	log   zerolog.Logger
}

// Store is an abstraction over the notes storage.
// It allows unit-testing handlers without a real database.
type Store interface {
	Create(ctx context.Context, ownerID int64, in NoteInput) (Note, error)
	GetOwned(ctx context.Context, id, ownerID int64) (Note, error)
	Update(ctx context.Context, id, ownerID int64, in NoteInput) (Note, error)
	Delete(ctx context.Context, id, ownerID int64) error
	List(ctx context.Context, ownerID int64, p ListParams) (NoteList, error)
	ListAll(ctx context.Context, ownerID int64) ([]Note, error)
	ImportRows(ctx context.Context, ownerID int64, rows []ImportRow) (int, error)
	ListTags(ctx context.Context) ([]tags.Tag, error)
}

func NewHandlers(store Store, log zerolog.Logger) *Handlers {
	return &Handlers{store: store, log: log}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/new", h.formCreate)
		r.Get("/export.csv", h.exportCSV)
		r.Post("/import.csv", h.importCSV)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Post("/edit", h.formUpdate)
			r.Post("/delete", h.formDelete)
		})
	})

	r.Get("/tags", h.listTags)

	return r
}

// noteRequest is the JSON API payload. TagNames is write-only: a missing
// field leaves tags as they are, an explicit empty list clears them.
type noteRequest struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	IsPinned bool      `json:"is_pinned"`
	TagNames *[]string `json:"tag_names"`
}

func (req noteRequest) input() NoteInput {
	return NoteInput{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		IsPinned: req.IsPinned,
		TagNames: req.TagNames,
	}
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	in := req.input()
	if ve := in.Validate(); ve != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": ve.Fields})
		return
	}

	n, err := h.store.Create(r.Context(), ident.ID, in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	n, err := h.store.GetOwned(r.Context(), id, ident.ID)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	in := req.input()
	if ve := in.Validate(); ve != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": ve.Fields})
		return
	}

	n, err := h.store.Update(r.Context(), id, ident.ID, in)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.store.Delete(r.Context(), id, ident.ID); errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	} else if err != nil {
		h.internal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	q := r.URL.Query()
	p := ListParams{
		Query:   strings.TrimSpace(q.Get("q")),
		TagSlug: strings.TrimSpace(q.Get("tag")),
	}
	if s := q.Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			p.Page = v
		}
	}
	if s := q.Get("page_size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			p.PageSize = v
		}
	}

	page, err := h.store.List(r.Context(), ident.ID, p)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) listTags(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.ListTags(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": all})
}

// Form surface: urlencoded posts with a tags_csv field instead of a list.
// A form submit always carries the full tag state, so tags_csv is synced
// even when empty (clearing the set), unlike the JSON surface.

func (h *Handlers) formCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	in, ok := h.formInput(w, r)
	if !ok {
		return
	}

	n, err := h.store.Create(r.Context(), ident.ID, in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/notes/%d", n.ID), http.StatusSeeOther)
}

func (h *Handlers) formUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	in, ok := h.formInput(w, r)
	if !ok {
		return
	}

	n, err := h.store.Update(r.Context(), id, ident.ID, in)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/notes/%d", n.ID), http.StatusSeeOther)
}

func (h *Handlers) formDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.store.Delete(r.Context(), id, ident.ID); errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	} else if err != nil {
		h.internal(w, r, err)
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func (h *Handlers) formInput(w http.ResponseWriter, r *http.Request) (NoteInput, bool) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return NoteInput{}, false
	}
	names := tags.SplitCSV(r.PostFormValue("tags_csv"))
	in := NoteInput{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Content:  r.PostFormValue("content"),
		IsPinned: formBool(r.PostFormValue("is_pinned")),
		TagNames: &names,
	}
	if ve := in.Validate(); ve != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": ve.Fields})
		return NoteInput{}, false
	}
	return in, true
}

func (h *Handlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	all, err := h.store.ListAll(r.Context(), ident.ID)
	if err != nil {
		h.internal(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="notes.csv"`)
	if err := WriteCSV(w, all); err != nil {
		h.log.Error().Err(err).Msg("csv export write failed")
	}
}

func (h *Handlers) importCSV(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
		return
	}
	if len(data) > maxImportBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file exceeds the 10 MB import limit"})
		return
	}

	rows, err := ParseImport(data)
	if errors.Is(err, ErrBadEncoding) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ErrBadEncoding.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid csv: " + err.Error()})
		return
	}

	count, err := h.store.ImportRows(r.Context(), ident.ID, rows)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func (h *Handlers) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// formBool accepts the checkbox "on" next to the import truthy tokens.
func formBool(s string) bool {
	return s == "on" || isTruthy(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
