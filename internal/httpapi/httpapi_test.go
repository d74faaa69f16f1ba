package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecode_ValidationReportsJSONNames(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	var p payload
	err := Decode(r, &p)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "name", ve.Fields[0].Field)
	assert.Equal(t, "is required", ve.Fields[0].Message)
	assert.Equal(t, "email", ve.Fields[1].Field)

	rec := httptest.NewRecorder()
	assert.True(t, Respond(rec, err))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors []FieldError `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Errors, 2)
}

func TestDecode_MalformedIs400(t *testing.T) {
	for _, in := range []string{`{`, `{"name":"a","email":"a@b.de","extra":1}`} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(in))
		var p payload
		err := Decode(r, &p)
		require.Error(t, err)

		rec := httptest.NewRecorder()
		Respond(rec, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "input %s", in)
	}
}

func TestWriteStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteStatus(rec, http.StatusForbidden))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"code":"forbidden","message":"Forbidden"}`, rec.Body.String())
}

func TestValidate_SingleLine(t *testing.T) {
	type header struct {
		Subject string `json:"subject" validate:"singleline"`
	}
	assert.NoError(t, Validate(&header{Subject: "Anfrage von Anna Weber"}))

	for _, bad := range []string{"a\nb", "a\r\nBcc: x@example.org", "tab\there"} {
		var ve *ValidationError
		require.ErrorAs(t, Validate(&header{Subject: bad}), &ve, "%q", bad)
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, "subject", ve.Fields[0].Field)
		assert.Equal(t, "must not contain line breaks or control characters", ve.Fields[0].Message)
	}
}
