// internal/inquiry/inquiry.go
//
// Contact requests ("Anfragen") submitted through a tenant's website.
//
// Context
//   The public contact form posts a Submission.  After the honeypot and
//   form-token checks pass, the request is stored in `contact_request` and
//   an email job is queued for the tenant's office.  Rows are tenant-owned:
//   the GDPR export lists them and the forget flow deletes them.
//
// Notes
//   - Phone is optional; consent must be given explicitly.
//   - Two spaces after periods.
//
//------------------------------------------------------------------------------

package inquiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Submission is the decoded body of POST /api/contact.
type Submission struct {
	Name      string `json:"name"      validate:"required,max=200,singleline"`
	Email     string `json:"email"     validate:"required,email,max=254,singleline"`
	Phone     string `json:"phone"     validate:"omitempty,max=50,singleline"`
	Message   string `json:"message"   validate:"required,min=10,max=5000"`
	Consent   bool   `json:"consent"   validate:"eq=true"`
	FormToken string `json:"formToken" validate:"required"`

	// Website is the honeypot.  Humans never see the field.
	Website string `json:"website"`
}

// IsBot reports whether the honeypot was filled in.
func (s *Submission) IsBot() bool { return strings.TrimSpace(s.Website) != "" }

// Inquiry is one stored contact request.
type Inquiry struct {
	ID        string    `db:"id"         json:"id"`
	TenantID  string    `db:"tenant_id"  json:"tenantId"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	Phone     string    `db:"phone"      json:"phone,omitempty"`
	Message   string    `db:"message"    json:"message"`
	Consent   bool      `db:"consent"    json:"consent"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// FromSubmission builds a new Inquiry for tenantID.
func FromSubmission(tenantID string, s *Submission) *Inquiry {
	return &Inquiry{
		TenantID: tenantID,
		Name:     strings.TrimSpace(s.Name),
		Email:    strings.TrimSpace(s.Email),
		Phone:    strings.TrimSpace(s.Phone),
		Message:  strings.TrimSpace(s.Message),
		Consent:  s.Consent,
	}
}

// Store persists inquiries.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

const cols = `id, tenant_id, name, email, phone, message, consent, created_at`

// Create assigns an id and timestamp and inserts in.
func (s *Store) Create(ctx context.Context, in *Inquiry) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO contact_request (`+cols+`)
		 VALUES (:id, :tenant_id, :name, :email, :phone, :message, :consent, :created_at)`, in)
	if err != nil {
		return fmt.Errorf("insert contact request: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's inquiries, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]Inquiry, error) {
	out := []Inquiry{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+cols+` FROM contact_request WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list contact requests: %w", err)
	}
	return out, nil
}

// CountByTenant is used by the dashboard overview.
func (s *Store) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM contact_request WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("count contact requests: %w", err)
	}
	return n, nil
}
