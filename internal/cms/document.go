package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDocumentNotFound is returned by the dashboard repository helpers.
var ErrDocumentNotFound = errors.New("cms: document not found")

// Document is one editable CMS record.
type Document struct {
	ID        string          `db:"id"         json:"id"`
	TenantID  string          `db:"tenant_id"  json:"tenantId"`
	Type      string          `db:"doc_type"   json:"type"`
	Slug      sql.NullString  `db:"slug"       json:"-"`
	Body      json.RawMessage `db:"-"          json:"body"`
	RawBody   []byte          `db:"body"       json:"-"`
	Published bool            `db:"published"  json:"published"`
	SortOrder int             `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// SlugValue returns the slug or "".
func (d *Document) SlugValue() string { return d.Slug.String }

// MarshalJSON adds the slug as a plain string.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return json.Marshal(struct {
		plain
		Slug string `json:"slug,omitempty"`
	}{plain(d), d.Slug.String})
}

func (d *Document) fromRow() {
	if d.Body == nil && d.RawBody != nil {
		d.Body = append(json.RawMessage(nil), d.RawBody...)
	}
}

const documentCols = `id, tenant_id, doc_type, slug, body, published, sort_order, created_at, updated_at`

// GetDocument loads one document by id regardless of tenant.  Ownership is
// the caller's decision; the dashboard compares TenantID with the actor.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := s.db.GetContext(ctx, &d, `SELECT `+documentCols+` FROM document WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	d.fromRow()
	return &d, nil
}

// ListDocuments returns a tenant's documents, optionally of one type.
func (s *Store) ListDocuments(ctx context.Context, tenantID, docType string) ([]Document, error) {
	q := `SELECT ` + documentCols + ` FROM document WHERE tenant_id = ?`
	args := []any{tenantID}
	if docType != "" {
		q += ` AND doc_type = ?`
		args = append(args, docType)
	}
	q += ` ORDER BY doc_type, sort_order, created_at`

	var docs []Document
	if err := s.db.SelectContext(ctx, &docs, q, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		docs[i].fromRow()
	}
	return docs, nil
}

// CreateDocument inserts d, assigning an id and timestamps.
func (s *Store) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `INSERT INTO document
            (id, tenant_id, doc_type, slug, body, published, sort_order, created_at, updated_at)
     VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.TenantID, d.Type, d.Slug, []byte(d.Body), d.Published, d.SortOrder, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// UpdateDocument overwrites the mutable fields of d.  The tenant id is part
// of the WHERE clause, so a forged id cannot touch another tenant's row.
func (s *Store) UpdateDocument(ctx context.Context, d *Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE document
        SET slug = ?, body = ?, published = ?, sort_order = ?, updated_at = ?
      WHERE id = ? AND tenant_id = ?`,
		d.Slug, []byte(d.Body), d.Published, d.SortOrder, d.UpdatedAt, d.ID, d.TenantID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// DeleteDocument removes a tenant's document.
func (s *Store) DeleteDocument(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM document WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// CountByType returns how many documents of docType the tenant owns.
func (s *Store) CountByType(ctx context.Context, tenantID, docType string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM document WHERE tenant_id = ? AND doc_type = ?`, tenantID, docType)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", docType, err)
	}
	return n, nil
}
