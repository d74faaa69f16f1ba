// components/contact/contact.go
//
// Public contact form of a tenant site.
//
// Routes (tenant scope)
// ---------------------
//
//	GET  /api/contact/token   fresh form token for client-rendered forms
//	POST /api/contact         submit an inquiry (rate limited per client IP)
//
// Submission pipeline: decode, honeypot, validation, form token, store,
// queue notification.  A filled honeypot is answered exactly like a
// success so bots learn nothing; nothing is stored.
//
//------------------------------------------------------------------------------

package contact

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/sitewerk/internal/component"
	"github.com/yanizio/sitewerk/internal/content"
	"github.com/yanizio/sitewerk/internal/httpapi"
	"github.com/yanizio/sitewerk/internal/inquiry"
	"github.com/yanizio/sitewerk/internal/message"
	"github.com/yanizio/sitewerk/internal/tenant"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component handles contact submissions.
type Component struct {
	tokens    *inquiry.Tokens
	inquiries *inquiry.Store
	queue     message.Queue
	content   *content.Service
	limited   func(http.Handler) http.Handler
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string           { return "contact" }
func (c *Component) Scope() component.Scope { return component.ScopeTenant }

func (c *Component) Init(d *component.Deps) error {
	if d.FormTokens == nil || d.Queue == nil {
		return component.ErrUnavailable
	}
	c.tokens = d.FormTokens
	c.inquiries = d.Inquiries
	c.queue = d.Queue
	c.content = d.Content

	c.limited = func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil && d.Config != nil {
		mw, err := d.Limiter.Middleware("contact", d.Config.RateLimit.Rate)
		if err != nil {
			return err
		}
		c.limited = mw
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/api/contact/token", c.handleToken)
	r.With(c.limited).Post("/api/contact", c.handleSubmit)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleToken(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromContext(r.Context())
	tok, err := c.tokens.Issue(t.ID)
	if err != nil {
		zap.L().Error("issue form token", zap.String("tenant", t.ID), zap.Error(err))
		_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t := tenant.FromContext(ctx)

	var s inquiry.Submission
	err := httpapi.Decode(r, &s)
	var ve *httpapi.ValidationError
	if (err == nil || errors.As(err, &ve)) && s.IsBot() {
		zap.L().Info("contact honeypot", zap.String("tenant", t.ID))
		accepted(w)
		return
	}
	if httpapi.Respond(w, err) {
		return
	}

	if err := c.tokens.Verify(s.FormToken, t.ID); err != nil {
		msg := "has expired, please reload the page"
		if errors.Is(err, inquiry.ErrTooFast) {
			msg = "was submitted too quickly"
		}
		_ = httpapi.WriteValidation(w, &httpapi.ValidationError{
			Fields: []httpapi.FieldError{{Field: "formToken", Message: msg}},
		})
		return
	}

	in := inquiry.FromSubmission(t.ID, &s)
	stored := false
	if c.inquiries != nil {
		if err := c.inquiries.Create(ctx, in); err != nil {
			zap.L().Error("store contact request", zap.String("tenant", t.ID), zap.Error(err))
			_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
			return
		}
		stored = true
	}

	if err := c.notify(r, t, in); err != nil {
		zap.L().Error("queue contact email", zap.String("tenant", t.ID), zap.Error(err))
		if !stored {
			_ = httpapi.WriteStatus(w, http.StatusInternalServerError)
			return
		}
	}
	zap.L().Info("contact request received", zap.String("tenant", t.ID), zap.String("id", in.ID), zap.Bool("stored", stored))
	accepted(w)
}

func accepted(w http.ResponseWriter) {
	_ = httpapi.WriteJSON(w, http.StatusAccepted, map[string]bool{"received": true})
}

// notify queues the office email.  The recipient is the company address
// from the site bundle; tenants without one get no email.
func (c *Component) notify(r *http.Request, t *tenant.Tenant, in *inquiry.Inquiry) error {
	var to string
	if c.content != nil {
		if site, err := c.content.SiteData(r.Context(), r.Host); err == nil {
			to = site.Company.Email
		}
	}
	if to == "" {
		zap.L().Warn("contact email skipped: no company address", zap.String("tenant", t.ID))
		return nil
	}

	var body strings.Builder
	body.WriteString("Neue Anfrage über die Website\n\n")
	body.WriteString("Name:    " + in.Name + "\n")
	body.WriteString("E-Mail:  " + in.Email + "\n")
	if in.Phone != "" {
		body.WriteString("Telefon: " + in.Phone + "\n")
	}
	body.WriteString("\n" + in.Message + "\n")

	return c.queue.EnqueueEmail(r.Context(), message.Email{
		ID:       in.ID,
		TenantID: t.ID,
		To:       []string{to},
		ReplyTo:  in.Email,
		Subject:  "Anfrage von " + in.Name,
		Text:     body.String(),
	})
}
