// internal/content/model.go
//
// Public content model of a tenant site.
//
// Context
// -------
// The same shapes are produced by both content sources.  A static file is
// one SiteData document; the CMS stores the `siteSettings` document
// (company, menu, footer) and one document per service, project, page,
// and list item, which the orchestrator assembles into a SiteData.
//
// Values handed to callers are decoded from cached bytes on every call, so
// a handler may modify its copy without affecting other requests.
package content

import (
	"github.com/yanizio/sitewerk/internal/section"
)

type Address struct {
	Street  string `json:"street"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

type Company struct {
	Name    string        `json:"name"`
	Tagline string        `json:"tagline,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Email   string        `json:"email,omitempty"`
	Address Address       `json:"address"`
	Logo    section.Image `json:"logo"`
	// Opening hours in schema.org notation, e.g. "Mo-Fr 07:00-17:00".
	OpeningHours []string `json:"openingHours,omitempty"`
	VATID        string   `json:"vatId,omitempty"`
}

type MenuItem struct {
	Label    string     `json:"label"`
	Href     string     `json:"href"`
	Children []MenuItem `json:"children,omitempty"`
}

type Footer struct {
	Text  string         `json:"text,omitempty"`
	Links []section.Link `json:"links,omitempty"`
}

type SEO struct {
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Image       section.Image `json:"image"`
	NoIndex     bool          `json:"noIndex,omitempty"`
}

type Page struct {
	ID       string       `json:"_id,omitempty"`
	TenantID string       `json:"tenantId,omitempty"`
	Title    string       `json:"title"`
	Slug     string       `json:"slug"`
	SEO      SEO          `json:"seo"`
	Sections section.List `json:"sections"`
}

// ServiceItem is one trade the company offers (roofing, facade, ...).
type ServiceItem struct {
	ID       string        `json:"_id,omitempty"`
	TenantID string        `json:"tenantId,omitempty"`
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	Summary  string        `json:"summary,omitempty"`
	Body     string        `json:"body,omitempty"`
	Icon     string        `json:"icon,omitempty"`
	Image    section.Image `json:"image"`
	SEO      SEO           `json:"seo"`
	Sections section.List  `json:"sections,omitempty"`
}

type Project struct {
	ID          string          `json:"_id,omitempty"`
	TenantID    string          `json:"tenantId,omitempty"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Location    string          `json:"location,omitempty"`
	Year        int             `json:"year,omitempty"`
	Description string          `json:"description,omitempty"`
	Images      []section.Image `json:"images,omitempty"`
	Services    []string        `json:"services,omitempty"` // service slugs
	SEO         SEO             `json:"seo"`
	Sections    section.List    `json:"sections,omitempty"`
}

type TeamMember struct {
	Name  string        `json:"name"`
	Role  string        `json:"role,omitempty"`
	Photo section.Image `json:"photo"`
}

type Testimonial struct {
	Author string `json:"author"`
	Role   string `json:"role,omitempty"`
	Text   string `json:"text"`
	Rating int    `json:"rating,omitempty"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Certification struct {
	Name   string        `json:"name"`
	Issuer string        `json:"issuer,omitempty"`
	Year   int           `json:"year,omitempty"`
	Logo   section.Image `json:"logo"`
}

// Settings is the CMS `siteSettings` document.
type Settings struct {
	Company Company    `json:"company"`
	Menu    []MenuItem `json:"menu,omitempty"`
	Footer  Footer     `json:"footer"`
}

// SiteData is the full public bundle of one tenant.
type SiteData struct {
	Settings
	Services       []ServiceItem   `json:"services,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Team           []TeamMember    `json:"team,omitempty"`
	Testimonials   []Testimonial   `json:"testimonials,omitempty"`
	FAQs           []FAQ           `json:"faqs,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Pages          []Page          `json:"pages,omitempty"`
}

// PageBySlug returns the page with slug from a static bundle.
func (d *SiteData) PageBySlug(slug string) (*Page, bool) {
	for i := range d.Pages {
		if d.Pages[i].Slug == slug {
			return &d.Pages[i], true
		}
	}
	return nil, false
}

func (d *SiteData) ServiceBySlug(slug string) (*ServiceItem, bool) {
	for i := range d.Services {
		if d.Services[i].Slug == slug {
			return &d.Services[i], true
		}
	}
	return nil, false
}

func (d *SiteData) ProjectBySlug(slug string) (*Project, bool) {
	for i := range d.Projects {
		if d.Projects[i].Slug == slug {
			return &d.Projects[i], true
		}
	}
	return nil, false
}
