// internal/section/compose.go
//
// Section composition: filter, then dispatch.
//
// Compose walks a page body once.  Records whose type is outside the
// tenant's allow-list produce nothing and reserve no slot.  Every remaining
// record is handed to exactly one Visitor method, which returns the render
// instruction for the view layer.
package section

// Instruction tells the view layer which template renders a section and
// with which data.
type Instruction struct {
	Type     Type
	Key      string
	Template string
	Data     any
}

// Visitor is the renderer table.  It has one method per variant, so a new
// variant is a compile error for every renderer until handled.
type Visitor interface {
	Hero(*Hero) Instruction
	Slider(*Slider) Instruction
	BeforeAfter(*BeforeAfter) Instruction
	Services(*Services) Instruction
	Projects(*Projects) Instruction
	CTA(*CTA) Instruction
	Testimonials(*Testimonials) Instruction
	FAQ(*FAQ) Instruction
	Team(*Team) Instruction
	Certifications(*Certifications) Instruction
	Test(*Test) Instruction
}

// Compose uses the default template table.
func Compose(list []Section, allow []Type) []Instruction {
	return ComposeWith(Templates{}, list, allow)
}

// ComposeWith filters list by allow (empty = everything) and maps the
// survivors through v, preserving order.
func ComposeWith(v Visitor, list []Section, allow []Type) []Instruction {
	var set map[Type]struct{}
	if len(allow) > 0 {
		set = make(map[Type]struct{}, len(allow))
		for _, t := range allow {
			set[t] = struct{}{}
		}
	}

	out := make([]Instruction, 0, len(list))
	for _, s := range list {
		if s == nil || !s.Type().Known() {
			continue
		}
		if set != nil {
			if _, ok := set[s.Type()]; !ok {
				continue
			}
		}
		in := s.accept(v)
		if in.Key == "" {
			in.Key = s.Key()
		}
		out = append(out, in)
	}
	return out
}

// Templates maps every variant to "section/<type>" with the variant itself
// as template data.
type Templates struct{}

func (Templates) Hero(s *Hero) Instruction               { return tpl(s) }
func (Templates) Slider(s *Slider) Instruction           { return tpl(s) }
func (Templates) BeforeAfter(s *BeforeAfter) Instruction { return tpl(s) }
func (Templates) Services(s *Services) Instruction       { return tpl(s) }
func (Templates) Projects(s *Projects) Instruction       { return tpl(s) }
func (Templates) CTA(s *CTA) Instruction                 { return tpl(s) }
func (Templates) Testimonials(s *Testimonials) Instruction {
	return tpl(s)
}
func (Templates) FAQ(s *FAQ) Instruction   { return tpl(s) }
func (Templates) Team(s *Team) Instruction { return tpl(s) }
func (Templates) Certifications(s *Certifications) Instruction {
	return tpl(s)
}
func (Templates) Test(s *Test) Instruction { return tpl(s) }

func tpl(s Section) Instruction {
	return Instruction{
		Type:     s.Type(),
		Key:      s.Key(),
		Template: "section/" + string(s.Type()),
		Data:     s,
	}
}
