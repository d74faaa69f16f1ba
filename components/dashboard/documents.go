package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/routing"
)

// documentFields are the editable parts of a document.
type documentFields struct {
	Title     string          `json:"title"     validate:"omitempty,max=200"`
	Slug      string          `json:"slug"      validate:"omitempty,max=100"`
	Body      json.RawMessage `json:"body"      validate:"required"`
	Published bool            `json:"published"`
	SortOrder int             `json:"sortOrder" validate:"gte=0"`
}

// documentInput is the create payload.
type documentInput struct {
	Type string `json:"type" validate:"required,oneof=siteSettings page service project teamMember testimonial faq certification"`
	documentFields
}

// documentUpdate is the update payload.  A document never changes type, so
// a type sent by the client is accepted and ignored.
type documentUpdate struct {
	Type string `json:"type"`
	documentFields
}

// slugged types are addressed by slug on the public site.
var slugged = map[string]bool{cms.TypePage: true, cms.TypeService: true, cms.TypeProject: true}

// normalise derives a missing slug from the title and checks the result.
func (in *documentInput) normalise() error {
	if !json.Valid(in.Body) {
		return &httpapi.ValidationError{Fields: []httpapi.FieldError{{Field: "body", Message: "must be valid JSON"}}}
	}
	if !slugged[in.Type] {
		in.Slug = ""
		return nil
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" && in.Title != "" {
		in.Slug = routing.MakeSlug(in.Title)
	}
	if !routing.ValidSlug(in.Slug) {
		return &httpapi.ValidationError{Fields: []httpapi.FieldError{{Field: "slug", Message: "must be lower-case letters, digits, and dashes"}}}
	}
	return nil
}

func nullSlug(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := c.docs.ListDocuments(r.Context(), actor(r).TenantID, r.URL.Query().Get("type"))
	if err != nil {
		c.internal(w, r, "list", err)
		return
	}
	if docs == nil {
		docs = []cms.Document{}
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, docs)
}

func (c *Component) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := c.owned(w, r)
	if !ok {
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, d)
}

func (c *Component) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in documentInput
	if err := httpapi.Decode(r, &in); httpapi.Respond(w, err) {
		return
	}
	if err := in.normalise(); httpapi.Respond(w, err) {
		return
	}

	a := actor(r)
	d := &cms.Document{
		TenantID:  a.TenantID,
		Type:      in.Type,
		Slug:      nullSlug(in.Slug),
		Body:      in.Body,
		Published: in.Published,
		SortOrder: in.SortOrder,
	}
	if err := c.docs.CreateDocument(r.Context(), d); err != nil {
		c.internal(w, r, "create", err)
		return
	}
	c.purge(r.Context(), d)
	zap.L().Info("document created",
		zap.String("tenant", a.TenantID), zap.String("user", a.UserID),
		zap.String("id", d.ID), zap.String("type", d.Type))
	_ = httpapi.WriteJSON(w, http.StatusCreated, d)
}

func (c *Component) handleUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := c.owned(w, r)
	if !ok {
		return
	}
	var up documentUpdate
	if err := httpapi.Decode(r, &up); httpapi.Respond(w, err) {
		return
	}
	in := documentInput{Type: d.Type, documentFields: up.documentFields}
	if err := in.normalise(); httpapi.Respond(w, err) {
		return
	}

	d.Slug = nullSlug(in.Slug)
	d.Body = in.Body
	d.Published = in.Published
	d.SortOrder = in.SortOrder
	if err := c.docs.UpdateDocument(r.Context(), d); err != nil {
		if errors.Is(err, cms.ErrDocumentNotFound) {
			_ = httpapi.WriteStatus(w, http.StatusNotFound)
			return
		}
		c.internal(w, r, "update", err)
		return
	}
	c.purge(r.Context(), d)
	_ = httpapi.WriteJSON(w, http.StatusOK, d)
}

func (c *Component) handleDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := c.owned(w, r)
	if !ok {
		return
	}
	if err := c.docs.DeleteDocument(r.Context(), d.TenantID, d.ID); err != nil {
		if errors.Is(err, cms.ErrDocumentNotFound) {
			_ = httpapi.WriteStatus(w, http.StatusNotFound)
			return
		}
		c.internal(w, r, "delete", err)
		return
	}
	c.purge(r.Context(), d)
	w.WriteHeader(http.StatusNoContent)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// owned loads the {id} document and answers the request itself unless it
// belongs to the actor's tenant.
func (c *Component) owned(w http.ResponseWriter, r *http.Request) (*cms.Document, bool) {
	d, err := c.load(r.Context(), actor(r).TenantID, chi.URLParam(r, "id"))
	switch {
	case err == nil:
		return d, true
	case errors.Is(err, errForbidden):
		a := actor(r)
		zap.L().Warn("cross-tenant document access",
			zap.String("tenant", a.TenantID), zap.String("user", a.UserID), zap.String("id", chi.URLParam(r, "id")))
		_ = httpapi.WriteStatus(w, http.StatusForbidden)
	case errors.Is(err, cms.ErrDocumentNotFound):
		_ = httpapi.WriteStatus(w, http.StatusNotFound)
	default:
		c.internal(w, r, "load", err)
	}
	return nil, false
}

func (c *Component) load(ctx context.Context, tenantID, id string) (*cms.Document, error) {
	d, err := c.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.TenantID != tenantID {
		return nil, errForbidden
	}
	return d, nil
}

// purge drops the cached content a document change affects.
func (c *Component) purge(ctx context.Context, d *cms.Document) {
	if c.cache == nil {
		return
	}
	c.cache.InvalidateTags(ctx, content.TagsFor(d.Type, d.TenantID)...)
}
