// internal/cms/store.go
//
// MySQL-backed Querier over the CMS document tables.
//
// Context
// -------
// Editors write documents through the dashboard; the public site reads
// them through FetchByQuery.  Schema (see migrations/001_cms.sql):
//
//	tenant         (id PK, name, data_source, static_file, sections JSON)
//	tenant_domain  (domain PK, tenant_id)
//	document       (id PK, tenant_id, doc_type, slug, body JSON,
//	                published, created_at, updated_at)
//
// Every content query is filtered by tenant id.  Point queries return the
// document body verbatim; list queries return a JSON array of bodies in
// `sort_order, created_at` order.
//
// Notes
// -----
//   - sql.ErrNoRows and empty lists both map to `(nil, nil)`.
//   - The per-call timeout is applied here so a slow CMS cannot hold a
//     request past `cms.timeout`.
package cms

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store implements Querier on a sqlx handle.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore wraps db.  timeout <= 0 disables the per-call deadline.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// DB exposes the handle for packages sharing the CMS database
// (ACL, inquiries, GDPR).
func (s *Store) DB() *sqlx.DB { return s.db }

type tenantRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	DataSource string         `db:"data_source"`
	StaticFile sql.NullString `db:"static_file"`
	Sections   []byte         `db:"sections"`
}

// tenantDoc is the JSON shape handed to the tenant package.
type tenantDoc struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Domains    []string        `json:"domains,omitempty"`
	DataSource string          `json:"dataSource,omitempty"`
	StaticFile string          `json:"staticFile,omitempty"`
	Sections   json.RawMessage `json:"sections,omitempty"`
}

const tenantCols = `t.id, t.name, t.data_source, t.static_file, t.sections`

// FetchByQuery runs one named query.
func (s *Store) FetchByQuery(ctx context.Context, q Query, p Params) (json.RawMessage, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch q {
	case QueryTenantByDomain:
		args, err := p.require("domain")
		if err != nil {
			return nil, err
		}
		return s.tenant(ctx, `SELECT `+tenantCols+`
               FROM tenant_domain d
               JOIN tenant t ON t.id = d.tenant_id
              WHERE d.domain = ?
              LIMIT 1`, args...)

	case QueryTenantByID:
		args, err := p.require("id")
		if err != nil {
			return nil, err
		}
		return s.tenant(ctx, `SELECT `+tenantCols+`
               FROM tenant t
              WHERE t.id = ?
              LIMIT 1`, args...)

	case QuerySiteSettings:
		args, err := p.require("tenantId")
		if err != nil {
			return nil, err
		}
		return s.body(ctx, `SELECT body FROM document
              WHERE tenant_id = ? AND doc_type = 'siteSettings' AND published = TRUE
              ORDER BY updated_at DESC
              LIMIT 1`, args...)

	case QueryPageBySlug, QueryServiceBySlug, QueryProjectBySlug:
		args, err := p.require("tenantId", "slug")
		if err != nil {
			return nil, err
		}
		args = []any{args[0], slugType(q), args[1]}
		return s.body(ctx, `SELECT body FROM document
              WHERE tenant_id = ? AND doc_type = ? AND slug = ? AND published = TRUE
              LIMIT 1`, args...)

	case QueryListByType:
		args, err := p.require("tenantId", "type")
		if err != nil {
			return nil, err
		}
		return s.list(ctx, args...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, q)
}

func slugType(q Query) string {
	switch q {
	case QueryServiceBySlug:
		return TypeService
	case QueryProjectBySlug:
		return TypeProject
	}
	return TypePage
}

func (s *Store) tenant(ctx context.Context, q string, args ...any) (json.RawMessage, error) {
	var row tenantRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("tenant lookup: %w", err)
	}

	var domains []string
	if err := s.db.SelectContext(ctx, &domains,
		`SELECT domain FROM tenant_domain WHERE tenant_id = ? ORDER BY domain`, row.ID); err != nil {
		return nil, fmt.Errorf("tenant domains: %w", err)
	}

	doc := tenantDoc{
		ID:         row.ID,
		Name:       row.Name,
		Domains:    domains,
		DataSource: row.DataSource,
		StaticFile: row.StaticFile.String,
	}
	if len(row.Sections) > 0 && json.Valid(row.Sections) {
		doc.Sections = append(json.RawMessage(nil), row.Sections...)
	}
	return json.Marshal(doc)
}

func (s *Store) body(ctx context.Context, q string, args ...any) (json.RawMessage, error) {
	var b []byte
	if err := s.db.QueryRowxContext(ctx, q, args...).Scan(&b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("document lookup: %w", err)
	}
	return append(json.RawMessage(nil), b...), nil
}

func (s *Store) list(ctx context.Context, args ...any) (json.RawMessage, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT body FROM document
          WHERE tenant_id = ? AND doc_type = ? AND published = TRUE
          ORDER BY sort_order, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("document list: %w", err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	n := 0
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		if n == 0 {
			buf.WriteByte('[')
		} else {
			buf.WriteByte(',')
		}
		buf.Write(b)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
