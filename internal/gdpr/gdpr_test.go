package gdpr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/inquiry"
)

type recordingCache struct{ tags []string }

func (c *recordingCache) InvalidateTags(_ context.Context, tags ...string) int {
	c.tags = append(c.tags, tags...)
	return len(tags)
}

func newService(t *testing.T) (*Service, sqlmock.Sqlmock, *recordingCache) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")
	rc := &recordingCache{}
	return &Service{
		DB:        db,
		Documents: cms.NewStore(db, time.Second),
		Inquiries: inquiry.NewStore(db),
		Tokens:    NewMemoryTokens(),
		TokenTTL:  15 * time.Minute,
		Cache:     rc,
	}, mock, rc
}

func TestForget_ValidTokenCascadesAndInvalidates(t *testing.T) {
	s, mock, rc := newService(t)
	ctx := context.Background()

	tok, exp, err := s.IssueToken(ctx, "mueller")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM contact_request WHERE tenant_id = \\?").
		WithArgs("mueller").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM document WHERE tenant_id = \\?").
		WithArgs("mueller").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	res, err := s.Forget(ctx, "mueller", tok)
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Documents)
	assert.Equal(t, int64(3), res.ContactRequests)
	assert.Equal(t, []string{"tenant:mueller"}, rc.tags)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = s.Forget(ctx, "mueller", tok)
	assert.ErrorIs(t, err, ErrTokenInvalid, "token is single use")
}

func TestForget_WrongTokenConsumesAndTouchesNothing(t *testing.T) {
	s, mock, rc := newService(t)
	ctx := context.Background()

	tok, _, err := s.IssueToken(ctx, "mueller")
	require.NoError(t, err)

	_, err = s.Forget(ctx, "mueller", "not-the-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.Forget(ctx, "mueller", tok)
	assert.ErrorIs(t, err, ErrTokenInvalid, "pending token was consumed by the failed attempt")

	assert.Empty(t, rc.tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForget_TokenIsScopedToTenant(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	tok, _, err := s.IssueToken(ctx, "mueller")
	require.NoError(t, err)

	_, err = s.Forget(ctx, "schulz", tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestForget_RollsBackOnError(t *testing.T) {
	s, mock, rc := newService(t)
	ctx := context.Background()
	tok, _, _ := s.IssueToken(ctx, "mueller")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM contact_request").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM document").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := s.Forget(ctx, "mueller", tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
	assert.Empty(t, rc.tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExport_AggregatesTenantRows(t *testing.T) {
	s, mock, _ := newService(t)
	now := time.Now()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT (.+) FROM document WHERE tenant_id = \\?").
		WithArgs("mueller").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "doc_type", "slug", "body", "published", "sort_order", "created_at", "updated_at"}).
			AddRow("d1", "mueller", cms.TypePage, "home", []byte(`{"title":"Start"}`), true, 0, now, now))
	mock.ExpectQuery("SELECT (.+) FROM contact_request WHERE tenant_id = \\?").
		WithArgs("mueller").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "email", "phone", "message", "consent", "created_at"}).
			AddRow("c1", "mueller", "Anna", "anna@example.de", "", "Angebot Dachsanierung", true, now))

	exp, err := s.Export(context.Background(), "mueller")
	require.NoError(t, err)
	assert.Equal(t, "mueller", exp.TenantID)
	require.Len(t, exp.Documents, 1)
	require.Len(t, exp.ContactRequests, 1)
	assert.Equal(t, "anna@example.de", exp.ContactRequests[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryTokens_Expire(t *testing.T) {
	now := time.Now()
	s := NewMemoryTokens()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(context.Background(), "t1", []byte("h"), time.Minute))
	now = now.Add(2 * time.Minute)

	got, err := s.Take(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisTokens_TakeIsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisTokens(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "sitewerk:gdpr")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", []byte("digest"), time.Minute))
	assert.True(t, mr.Exists("sitewerk:gdpr:t1"))

	got, err := s.Take(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []byte("digest"), got)

	got, err = s.Take(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Put(ctx, "t2", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)
	got, err = s.Take(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
