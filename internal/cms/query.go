// internal/cms/query.go
//
// CMS adapter contract.
//
// Context
// -------
// The headless CMS is consumed through one operation: fetch a single
// record (or a list) by a named point query plus string parameters.  The
// set of queries is closed; callers cannot pass free-form query text.
// An absent record is `(nil, nil)`, never an error.  Errors mean the CMS
// could not answer (network, SQL, timeout) and callers in the fallback
// chain treat them as "try the next source".
//
// Notes
// -----
//   - No retries, no pagination.  One call, one answer.
//   - Results are raw JSON so the adapter stays ignorant of the content
//     model; decoding happens in the content and tenant packages.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Query names one point query understood by every Querier.
type Query string

const (
	QueryTenantByDomain Query = "tenantByDomain" // params: domain
	QueryTenantByID     Query = "tenantByID"     // params: id
	QuerySiteSettings   Query = "siteSettings"   // params: tenantId
	QueryPageBySlug     Query = "pageBySlug"     // params: tenantId, slug
	QueryServiceBySlug  Query = "serviceBySlug"  // params: tenantId, slug
	QueryProjectBySlug  Query = "projectBySlug"  // params: tenantId, slug
	QueryListByType     Query = "listByType"     // params: tenantId, type
)

// Params carries query parameters by name.
type Params map[string]string

// Querier is the fetch-by-query interface of the CMS.
type Querier interface {
	FetchByQuery(ctx context.Context, q Query, p Params) (json.RawMessage, error)
}

var (
	ErrUnknownQuery = errors.New("cms: unknown query")
	ErrMissingParam = errors.New("cms: missing parameter")
)

// require returns the named params or ErrMissingParam for the first empty
// one.
func (p Params) require(names ...string) ([]any, error) {
	out := make([]any, 0, len(names))
	for _, n := range names {
		v := p[n]
		if v == "" {
			return nil, fmt.Errorf("%w %q", ErrMissingParam, n)
		}
		out = append(out, v)
	}
	return out, nil
}

// Document types stored in the `document` table.
const (
	TypeSiteSettings  = "siteSettings"
	TypePage          = "page"
	TypeService       = "service"
	TypeProject       = "project"
	TypeTeamMember    = "teamMember"
	TypeTestimonial   = "testimonial"
	TypeFAQ           = "faq"
	TypeCertification = "certification"
)

// DocumentTypes lists every type editors may create, in dashboard order.
var DocumentTypes = []string{
	TypeSiteSettings,
	TypePage,
	TypeService,
	TypeProject,
	TypeTeamMember,
	TypeTestimonial,
	TypeFAQ,
	TypeCertification,
}
