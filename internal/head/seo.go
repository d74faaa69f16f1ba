package head

import (
	"github.com/yanizio/sitewerk/internal/content"
)

// PostalAddress is schema.org/PostalAddress.
type PostalAddress struct {
	Type       string `json:"@type"`
	Street     string `json:"streetAddress,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Locality   string `json:"addressLocality,omitempty"`
	Country    string `json:"addressCountry,omitempty"`
}

// LocalBusiness is the schema.org subset search engines read for trades.
// Construction companies use the GeneralContractor subtype.
type LocalBusiness struct {
	Context      string        `json:"@context"`
	Type         string        `json:"@type"`
	Name         string        `json:"name"`
	URL          string        `json:"url,omitempty"`
	Telephone    string        `json:"telephone,omitempty"`
	Email        string        `json:"email,omitempty"`
	Image        string        `json:"image,omitempty"`
	Address      PostalAddress `json:"address"`
	OpeningHours []string      `json:"openingHours,omitempty"`
}

// NewLocalBusiness maps the tenant's company block.
func NewLocalBusiness(c content.Company, siteURL, logoURL string) LocalBusiness {
	country := c.Address.Country
	if country == "" {
		country = "DE"
	}
	return LocalBusiness{
		Context:   "https://schema.org",
		Type:      "GeneralContractor",
		Name:      c.Name,
		URL:       siteURL,
		Telephone: c.Phone,
		Email:     c.Email,
		Image:     logoURL,
		Address: PostalAddress{
			Type:       "PostalAddress",
			Street:     c.Address.Street,
			PostalCode: c.Address.Zip,
			Locality:   c.Address.City,
			Country:    country,
		},
		OpeningHours: c.OpeningHours,
	}
}

// Page describes one rendered URL.
type Page struct {
	Title     string      // document title without the company suffix
	SEO       content.SEO // per-document overrides
	Canonical string      // absolute URL
	ImageURL  string      // resolved og:image, may be empty
	LogoURL   string      // resolved company logo, may be empty
	SiteURL   string      // https://<host>/
	Home      bool        // the LocalBusiness block goes on the home page
}

// ForPage fills a Builder with everything a tenant page needs.
func ForPage(site *content.SiteData, p Page) (*Builder, error) {
	b := New()

	title := p.Title
	if p.SEO.Title != "" {
		title = p.SEO.Title
	}
	company := site.Company.Name
	switch {
	case title == "":
		title = company
	case company != "" && title != company:
		title += " | " + company
	}
	b.SetTitle(title)

	desc := p.SEO.Description
	if desc == "" {
		desc = site.Company.Tagline
	}
	b.Meta("description", desc)
	b.Robots(p.SEO.NoIndex)
	b.Canonical(p.Canonical)
	b.OpenGraph(title, desc, p.Canonical, p.ImageURL, company)

	if p.Home && company != "" {
		if err := b.JSONLD(NewLocalBusiness(site.Company, p.SiteURL, p.LogoURL)); err != nil {
			return nil, err
		}
	}
	return b, nil
}
