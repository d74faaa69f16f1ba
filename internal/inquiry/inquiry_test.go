package inquiry

import (
	"context"
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
	return NewStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestStore_CreateAndList(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("INSERT INTO contact_request").
		WithArgs(sqlmock.AnyArg(), "mueller", "Anna Schmidt", "anna@example.de", "", "Bitte um Rückruf wegen Anbau.", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	in := FromSubmission("mueller", &Submission{
		Name: " Anna Schmidt ", Email: "anna@example.de", Message: "Bitte um Rückruf wegen Anbau.", Consent: true,
	})
	require.NoError(t, s.Create(context.Background(), in))
	assert.NotEmpty(t, in.ID)

	mock.ExpectQuery("SELECT (.+) FROM contact_request WHERE tenant_id = \\?").
		WithArgs("mueller").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "email", "phone", "message", "consent", "created_at"}).
			AddRow(in.ID, "mueller", in.Name, in.Email, "", in.Message, true, time.Now()))

	list, err := s.ListByTenant(context.Background(), "mueller")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anna Schmidt", list[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListEmptyIsNotNil(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM contact_request").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := s.ListByTenant(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, list)
}

func TestSubmission_Honeypot(t *testing.T) {
	assert.False(t, (&Submission{}).IsBot())
	assert.True(t, (&Submission{Website: "http://spam"}).IsBot())
}

func TestTokens(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tk := NewTokens("0123456789abcdef0123456789abcdef", WithClock(func() time.Time { return now }))

	tok, err := tk.Issue("mueller")
	require.NoError(t, err)

	assert.ErrorIs(t, tk.Verify(tok, "mueller"), ErrTooFast)

	now = now.Add(10 * time.Second)
	assert.NoError(t, tk.Verify(tok, "mueller"))
	assert.ErrorIs(t, tk.Verify(tok, "schulz"), ErrTokenInvalid, "bound to tenant")
	assert.ErrorIs(t, tk.Verify("garbage", "mueller"), ErrTokenInvalid)

	now = now.Add(3 * time.Hour)
	assert.ErrorIs(t, tk.Verify(tok, "mueller"), ErrExpired)
}
