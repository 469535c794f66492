package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidanatural/farmacia-web/i18n"
	"github.com/vidanatural/farmacia-web/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pageSize = 50

// resource serves list, view, create, update and delete for one catalog table.
// Reads and writes accept JSON; writes also accept forms using the JSON field names.
type resource[T any] struct {
	db       *gorm.DB
	path     string // collection URL, also the redirect target
	preload  []string
	order    string
	search   []string // columns matched by ?q=
	omit     []string // columns never written from input
	fromForm func(url.Values) (T, validation.Violations)
	validate func(*T, validation.Violations)
	id       func(*T) uint
	setID    func(*T, uint)
	// prepare adjusts a record before it is written; creating is true on insert.
	prepare func(rec *T, creating bool)
	// changed runs after a successful write or delete.
	changed func(id uint)
}

func (h *resource[T]) query(r *http.Request) *gorm.DB {
	q := h.db.WithContext(r.Context())
	for _, p := range h.preload {
		q = q.Preload(p)
	}
	return q
}

// filter applies the ?q= search to q.
func (h *resource[T]) filter(r *http.Request, q *gorm.DB) *gorm.DB {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" || len(h.search) == 0 {
		return q
	}
	like := "%" + strings.ToLower(term) + "%"
	conds := make([]string, len(h.search))
	args := make([]any, len(h.search))
	for i, col := range h.search {
		conds[i] = "lower(" + col + ") LIKE ?"
		args[i] = like
	}
	return q.Where(strings.Join(conds, " OR "), args...)
}

func (h *resource[T]) List(w http.ResponseWriter, r *http.Request) {
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if pageNum < 1 {
		pageNum = 1
	}

	var total int64
	var items []T
	if err := h.filter(r, h.db.WithContext(r.Context()).Model(new(T))).Count(&total).Error; err != nil {
		fail(w, r, err, "/")
		return
	}
	if err := h.filter(r, h.query(r)).Order(h.order).Limit(pageSize).Offset((pageNum - 1) * pageSize).Find(&items).Error; err != nil {
		fail(w, r, err, "/")
		return
	}
	if items == nil {
		items = []T{}
	}
	page(w, r, map[string]any{"items": items, "total": total, "page": pageNum, "limit": pageSize})
}

func (h *resource[T]) load(r *http.Request) (*T, error) {
	id, ok := pathID(r)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var rec T
	if err := h.query(r).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (h *resource[T]) View(w http.ResponseWriter, r *http.Request) {
	rec, err := h.load(r)
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	page(w, r, map[string]any{"item": rec})
}

func (h *resource[T]) bind(r *http.Request) (*T, validation.Violations, error) {
	var rec T
	v := validation.Violations{}
	if isJSONBody(r) {
		if err := decodeJSON(r, &rec); err != nil {
			return nil, nil, err
		}
	} else {
		form, err := parseForm(r)
		if err != nil {
			return nil, nil, err
		}
		rec, v = h.fromForm(form)
	}
	h.validate(&rec, v)
	return &rec, v, nil
}

func (h *resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	rec, v, err := h.bind(r)
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	if !v.Empty() {
		invalid(w, r, v, h.path)
		return
	}
	h.setID(rec, 0)
	if h.prepare != nil {
		h.prepare(rec, true)
	}
	if err := h.db.WithContext(r.Context()).Omit(clause.Associations).Create(rec).Error; err != nil {
		fail(w, r, err, h.path)
		return
	}
	if h.changed != nil {
		h.changed(h.id(rec))
	}
	done(w, r, http.StatusCreated, rec, h.path, i18n.T(lang(r), "saved"))
}

func (h *resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	id := h.id(existing)
	rec, v, err := h.bind(r)
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	if !v.Empty() {
		invalid(w, r, v, h.path)
		return
	}
	h.setID(rec, id)
	if h.prepare != nil {
		h.prepare(rec, false)
	}
	omit := append([]string{"id", "created_at", clause.Associations}, h.omit...)
	err = h.db.WithContext(r.Context()).Model(existing).
		Select("*").Omit(omit...).
		Updates(rec).Error
	if err == nil {
		err = h.query(r).First(existing, id).Error
	}
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	if h.changed != nil {
		h.changed(id)
	}
	done(w, r, http.StatusOK, existing, h.path, i18n.T(lang(r), "saved"))
}

func (h *resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.load(r)
	if err != nil {
		fail(w, r, err, h.path)
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(rec).Error; err != nil {
		fail(w, r, err, h.path)
		return
	}
	if h.changed != nil {
		h.changed(h.id(rec))
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": h.id(rec)}, h.path, i18n.T(lang(r), "deleted"))
}
