// internal/gdpr/gdpr.go
//
// Tenant-scoped data export and erasure.
//
// Context
//   Export aggregates everything a tenant owns: CMS documents and contact
//   requests.  Forget deletes the same rows in one transaction after the
//   caller presents a token issued by IssueToken, then clears every cached
//   entry tagged `tenant:<id>` so no erased content is served afterwards.
//
//   Every operation takes the tenant id from the authenticated actor; the
//   package never accepts a tenant id from request input.
//
// Notes
//   - Tokens are 32 random bytes, base64url, compared as SHA-256 digests
//     with crypto/subtle.
//   - Role assignments (user_role) survive; owners keep dashboard access
//     to an emptied tenant.
//
//------------------------------------------------------------------------------

package gdpr

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/sitewerk/internal/cms"
	"github.com/yanizio/sitewerk/internal/inquiry"
)

// ErrTokenInvalid covers missing, expired, reused, and mismatched tokens.
var ErrTokenInvalid = errors.New("gdpr: confirmation token invalid")

// Invalidator drops cached entries by tag.
type Invalidator interface {
	InvalidateTags(ctx context.Context, tags ...string) int
}

// Export is the aggregate returned to the owner.
type Export struct {
	TenantID        string            `json:"tenantId"`
	GeneratedAt     time.Time         `json:"generatedAt"`
	Documents       []cms.Document    `json:"documents"`
	ContactRequests []inquiry.Inquiry `json:"contactRequests"`
}

// Result reports what Forget removed.
type Result struct {
	Documents       int64 `json:"documents"`
	ContactRequests int64 `json:"contactRequests"`
}

// Service implements export and forget.
type Service struct {
	DB        *sqlx.DB
	Documents *cms.Store
	Inquiries *inquiry.Store
	Tokens    TokenStore
	TokenTTL  time.Duration
	Cache     Invalidator
}

// Export collects the tenant's documents and contact requests concurrently.
func (s *Service) Export(ctx context.Context, tenantID string) (*Export, error) {
	out := &Export{TenantID: tenantID, GeneratedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.Documents.ListDocuments(gctx, tenantID, "")
		out.Documents = docs
		return err
	})
	g.Go(func() error {
		reqs, err := s.Inquiries.ListByTenant(gctx, tenantID)
		out.ContactRequests = reqs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gdpr export %s: %w", tenantID, err)
	}
	if out.Documents == nil {
		out.Documents = []cms.Document{}
	}
	return out, nil
}

// IssueToken creates the confirmation token and replaces any pending one.
func (s *Service) IssueToken(ctx context.Context, tenantID string) (string, time.Time, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	tok := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(tok))
	if err := s.Tokens.Put(ctx, tenantID, sum[:], s.TokenTTL); err != nil {
		return "", time.Time{}, fmt.Errorf("store gdpr token: %w", err)
	}
	zap.L().Info("gdpr forget token issued", zap.String("tenant", tenantID))
	return tok, time.Now().Add(s.TokenTTL), nil
}

// Forget consumes the pending token and, when it matches, deletes the
// tenant's data.  A wrong token still consumes the pending one.
func (s *Service) Forget(ctx context.Context, tenantID, token string) (*Result, error) {
	want, err := s.Tokens.Take(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("take gdpr token: %w", err)
	}
	got := sha256.Sum256([]byte(token))
	if want == nil || subtle.ConstantTimeCompare(want, got[:]) != 1 {
		zap.L().Warn("gdpr forget rejected", zap.String("tenant", tenantID))
		return nil, ErrTokenInvalid
	}

	res, err := s.erase(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	n := s.Cache.InvalidateTags(ctx, "tenant:"+tenantID)
	zap.L().Info("gdpr forget completed",
		zap.String("tenant", tenantID),
		zap.Int64("documents", res.Documents),
		zap.Int64("contact_requests", res.ContactRequests),
		zap.Int("cache_entries", n))
	return res, nil
}

func (s *Service) erase(ctx context.Context, tenantID string) (res *Result, err error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("gdpr begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res = &Result{}
	r, err := tx.ExecContext(ctx, `DELETE FROM contact_request WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("gdpr delete contact requests: %w", err)
	}
	res.ContactRequests, _ = r.RowsAffected()

	r, err = tx.ExecContext(ctx, `DELETE FROM document WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("gdpr delete documents: %w", err)
	}
	res.Documents, _ = r.RowsAffected()

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("gdpr commit: %w", err)
	}
	return res, nil
}
