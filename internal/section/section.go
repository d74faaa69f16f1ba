// internal/section/section.go
//
// Page section sum type.
//
// Context
// -------
// A page body is an ordered list of heterogeneous content blocks.  Each
// block arrives from the CMS (or the static JSON fallback) as an object
// carrying a `_type` discriminator.  In Go the blocks are modelled as a
// sealed interface: every variant lives in this package and implements the
// unexported `accept` method, so no other package can add a variant behind
// the renderer table's back.
//
// Adding a section type means:
//
//  1. Declare a Type constant and add it to `known`.
//  2. Declare the variant struct and its Type/accept methods.
//  3. Add a method to Visitor.  Every renderer then fails to compile until
//     it handles the new variant.
//
// Notes
// -----
//   - Types are plain data.  They carry no behaviour beyond dispatch.
//   - Oxford commas, two spaces after periods.
package section

// Type is the `_type` discriminator of a section record.
type Type string

const (
	TypeHero           Type = "hero"
	TypeSlider         Type = "slider"
	TypeBeforeAfter    Type = "beforeAfter"
	TypeServices       Type = "services"
	TypeProjects       Type = "projects"
	TypeCTA            Type = "cta"
	TypeTestimonials   Type = "testimonials"
	TypeFAQ            Type = "faq"
	TypeTeam           Type = "team"
	TypeCertifications Type = "certifications"
	TypeTest           Type = "test"
)

var known = map[Type]struct{}{
	TypeHero:           {},
	TypeSlider:         {},
	TypeBeforeAfter:    {},
	TypeServices:       {},
	TypeProjects:       {},
	TypeCTA:            {},
	TypeTestimonials:   {},
	TypeFAQ:            {},
	TypeTeam:           {},
	TypeCertifications: {},
	TypeTest:           {},
}

// Known reports whether t maps to a renderer.
func (t Type) Known() bool {
	_, ok := known[t]
	return ok
}

// Section is one block of a page body.
type Section interface {
	Type() Type
	Key() string
	accept(Visitor) Instruction
}

// Base carries the optional stable key editors attach to a block.
type Base struct {
	K string `json:"_key,omitempty"`
}

func (b Base) Key() string { return b.K }

//
// Shared value types
//

// Image references an asset on the image CDN.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Link is a labelled href, used for buttons and menu entries.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

//
// Variants
//

type Hero struct {
	Base
	Heading    string `json:"heading"`
	Subheading string `json:"subheading,omitempty"`
	Image      Image  `json:"image"`
	CTA        *Link  `json:"cta,omitempty"`
}

type Slide struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text,omitempty"`
	Image   Image  `json:"image"`
}

type Slider struct {
	Base
	Slides     []Slide `json:"slides"`
	Autoplay   bool    `json:"autoplay,omitempty"`
	IntervalMS int     `json:"intervalMs,omitempty"`
}

type BeforeAfterPair struct {
	Before  Image  `json:"before"`
	After   Image  `json:"after"`
	Caption string `json:"caption,omitempty"`
}

type BeforeAfter struct {
	Base
	Heading string            `json:"heading,omitempty"`
	Pairs   []BeforeAfterPair `json:"pairs"`
}

type ServiceRef struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

type Services struct {
	Base
	Heading string       `json:"heading,omitempty"`
	Intro   string       `json:"intro,omitempty"`
	Items   []ServiceRef `json:"items,omitempty"`
}

type ProjectRef struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Location string `json:"location,omitempty"`
	Image    Image  `json:"image"`
}

type Projects struct {
	Base
	Heading string       `json:"heading,omitempty"`
	Items   []ProjectRef `json:"items,omitempty"`
}

type CTA struct {
	Base
	Heading string `json:"heading"`
	Text    string `json:"text,omitempty"`
	Button  Link   `json:"button"`
	Phone   string `json:"phone,omitempty"`
}

type Quote struct {
	Author string `json:"author"`
	Role   string `json:"role,omitempty"`
	Text   string `json:"text"`
	Rating int    `json:"rating,omitempty"`
}

type Testimonials struct {
	Base
	Heading string  `json:"heading,omitempty"`
	Items   []Quote `json:"items"`
}

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQ struct {
	Base
	Heading string `json:"heading,omitempty"`
	Items   []QA   `json:"items"`
}

type Member struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Image Image  `json:"image"`
}

type Team struct {
	Base
	Heading string   `json:"heading,omitempty"`
	Members []Member `json:"members"`
}

type Cert struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Logo   Image  `json:"logo"`
	Year   int    `json:"year,omitempty"`
}

type Certifications struct {
	Base
	Heading string `json:"heading,omitempty"`
	Items   []Cert `json:"items"`
}

// Test is a free-form block editors use to preview layout changes.
type Test struct {
	Base
	Label   string         `json:"label,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (*Hero) Type() Type           { return TypeHero }
func (*Slider) Type() Type         { return TypeSlider }
func (*BeforeAfter) Type() Type    { return TypeBeforeAfter }
func (*Services) Type() Type       { return TypeServices }
func (*Projects) Type() Type       { return TypeProjects }
func (*CTA) Type() Type            { return TypeCTA }
func (*Testimonials) Type() Type   { return TypeTestimonials }
func (*FAQ) Type() Type            { return TypeFAQ }
func (*Team) Type() Type           { return TypeTeam }
func (*Certifications) Type() Type { return TypeCertifications }
func (*Test) Type() Type           { return TypeTest }

func (s *Hero) accept(v Visitor) Instruction           { return v.Hero(s) }
func (s *Slider) accept(v Visitor) Instruction         { return v.Slider(s) }
func (s *BeforeAfter) accept(v Visitor) Instruction    { return v.BeforeAfter(s) }
func (s *Services) accept(v Visitor) Instruction       { return v.Services(s) }
func (s *Projects) accept(v Visitor) Instruction       { return v.Projects(s) }
func (s *CTA) accept(v Visitor) Instruction            { return v.CTA(s) }
func (s *Testimonials) accept(v Visitor) Instruction   { return v.Testimonials(s) }
func (s *FAQ) accept(v Visitor) Instruction            { return v.FAQ(s) }
func (s *Team) accept(v Visitor) Instruction           { return v.Team(s) }
func (s *Certifications) accept(v Visitor) Instruction { return v.Certifications(s) }
func (s *Test) accept(v Visitor) Instruction           { return v.Test(s) }

// newVariant returns an empty variant for t, or nil when t is unknown.
func newVariant(t Type) Section {
	switch t {
	case TypeHero:
		return &Hero{}
	case TypeSlider:
		return &Slider{}
	case TypeBeforeAfter:
		return &BeforeAfter{}
	case TypeServices:
		return &Services{}
	case TypeProjects:
		return &Projects{}
	case TypeCTA:
		return &CTA{}
	case TypeTestimonials:
		return &Testimonials{}
	case TypeFAQ:
		return &FAQ{}
	case TypeTeam:
		return &Team{}
	case TypeCertifications:
		return &Certifications{}
	case TypeTest:
		return &Test{}
	}
	return nil
}
