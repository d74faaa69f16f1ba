// Package httpapi holds the JSON response and request helpers shared by
// every API component.
//
// Error bodies are `{"code": "...", "message": "..."}`.  Validation
// failures are answered with 422 and `{"errors": [{"field", "message"}]}`,
// where field is the JSON name of the offending input.  Authorization
// errors never carry resource data.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxBody caps request bodies decoded by Decode.
const MaxBody = 1 << 20

// ErrorEnvelope standardizes JSON error responses.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError is one validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed field of a request.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// singleline rejects control characters, CR and LF among them, in
	// values that end up in mail headers.
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
	})
	return v
}()

// WriteJSON encodes payload with status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteError answers with an ErrorEnvelope.
func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{Code: code, Message: message})
}

// WriteStatus answers with the standard text of status as message.
func WriteStatus(w http.ResponseWriter, status int) error {
	code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	return WriteError(w, status, code, http.StatusText(status))
}

// WriteValidation answers 422 with the field list.
func WriteValidation(w http.ResponseWriter, err *ValidationError) error {
	return WriteJSON(w, http.StatusUnprocessableEntity, err)
}

// Decode reads a JSON body into dst and validates it.  Malformed JSON
// yields a plain error; failed rules yield *ValidationError.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return Validate(dst)
}

// Validate runs the struct rules of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// Respond maps a Decode error to 400 or 422 and reports whether it wrote.
func Respond(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		_ = WriteValidation(w, ve)
		return true
	}
	_ = WriteError(w, http.StatusBadRequest, "bad_request", "malformed request body")
	return true
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "eq":
		return "must be " + fe.Param()
	case "singleline":
		return "must not contain line breaks or control characters"
	}
	return "is invalid (" + fe.Tag() + ")"
}
