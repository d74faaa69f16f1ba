package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func TestFetchByQuery_TenantByDomain(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM tenant_domain d JOIN tenant t").
		WithArgs("muellerbau.de").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "data_source", "static_file", "sections"}).
			AddRow("mueller", "Müller Bau", "static", "static-mueller.json", []byte(`["hero","services"]`)))
	mock.ExpectQuery("SELECT domain FROM tenant_domain WHERE tenant_id").
		WithArgs("mueller").
		WillReturnRows(sqlmock.NewRows([]string{"domain"}).AddRow("muellerbau.de").AddRow("www.muellerbau.de"))

	raw, err := s.FetchByQuery(context.Background(), QueryTenantByDomain, Params{"domain": "muellerbau.de"})
	require.NoError(t, err)

	var got tenantDoc
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "mueller", got.ID)
	assert.Equal(t, "static", got.DataSource)
	assert.Equal(t, "static-mueller.json", got.StaticFile)
	assert.Equal(t, []string{"muellerbau.de", "www.muellerbau.de"}, got.Domains)
	assert.JSONEq(t, `["hero","services"]`, string(got.Sections))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchByQuery_AbsentIsNilNil(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT body FROM document").
		WithArgs("t1", TypePage, "missing").
		WillReturnError(sql.ErrNoRows)

	raw, err := s.FetchByQuery(context.Background(), QueryPageBySlug, Params{"tenantId": "t1", "slug": "missing"})
	assert.NoError(t, err)
	assert.Nil(t, raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchByQuery_UpstreamErrorIsReturned(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("connection refused")

	mock.ExpectQuery("SELECT body FROM document").WillReturnError(boom)

	_, err := s.FetchByQuery(context.Background(), QuerySiteSettings, Params{"tenantId": "t1"})
	assert.ErrorIs(t, err, boom)
}

func TestFetchByQuery_ListJoinsBodies(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT body FROM document (.+) ORDER BY sort_order").
		WithArgs("t1", TypeService).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).
			AddRow([]byte(`{"slug":"dach"}`)).
			AddRow([]byte(`{"slug":"fassade"}`)))

	raw, err := s.FetchByQuery(context.Background(), QueryListByType, Params{"tenantId": "t1", "type": TypeService})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"dach"},{"slug":"fassade"}]`, string(raw))
}

func TestFetchByQuery_EmptyListIsAbsent(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT body FROM document").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	raw, err := s.FetchByQuery(context.Background(), QueryListByType, Params{"tenantId": "t1", "type": TypeProject})
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFetchByQuery_Validation(t *testing.T) {
	s, _ := newMock(t)

	_, err := s.FetchByQuery(context.Background(), QueryPageBySlug, Params{"tenantId": "t1"})
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = s.FetchByQuery(context.Background(), Query("dropTables"), nil)
	assert.ErrorIs(t, err, ErrUnknownQuery)
}

func TestDocuments_GetAndUpdateScopedByTenant(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM document WHERE id").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "doc_type", "slug", "body", "published", "sort_order", "created_at", "updated_at"}).
			AddRow("d1", "t1", TypePage, "about", []byte(`{"title":"Über uns"}`), true, 0, now, now))

	d, err := s.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "t1", d.TenantID)
	assert.Equal(t, "about", d.SlugValue())
	assert.JSONEq(t, `{"title":"Über uns"}`, string(d.Body))

	mock.ExpectExec("UPDATE document (.+) WHERE id = \\? AND tenant_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	d.TenantID = "t2"
	assert.ErrorIs(t, s.UpdateDocument(context.Background(), d), ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocuments_GetMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM document WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := s.GetDocument(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocuments_CreateAssignsID(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO document").WillReturnResult(sqlmock.NewResult(1, 1))

	d := &Document{TenantID: "t1", Type: TypeFAQ, Body: json.RawMessage(`{}`)}
	require.NoError(t, s.CreateDocument(context.Background(), d))
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
}

func TestDocument_MarshalJSONFlattensSlug(t *testing.T) {
	d := Document{ID: "d1", Slug: sql.NullString{String: "kontakt", Valid: true}, Body: json.RawMessage(`{"a":1}`)}
	b, err := json.Marshal(d)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "kontakt", m["slug"])
	assert.Equal(t, map[string]any{"a": float64(1)}, m["body"])
}
