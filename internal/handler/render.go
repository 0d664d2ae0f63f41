package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/pkordes/villa-admin/internal/domain"
	"github.com/pkordes/villa-admin/internal/middleware"
	"github.com/pkordes/villa-admin/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer renders booking notes. Raw HTML in the notes is escaped
// (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var funcs = template.FuncMap{
	"renderMarkdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"date": func(d domain.Date) string {
		if d.IsZero() {
			return "-"
		}
		return d.Format("02/01/2006")
	},
	"money": func(d decimal.Decimal) string {
		return "€" + d.StringFixed(2)
	},
	"revenue": func(d decimal.Decimal) string {
		return "€" + d.Round(0).String()
	},
	"statusLabel": func(s domain.Status) string {
		switch s {
		case domain.StatusPending:
			return "Pending"
		case domain.StatusConfirmed:
			return "Confirmed"
		case domain.StatusCancelled:
			return "Cancelled"
		default:
			return string(s)
		}
	},
}

// pages holds one parsed template set per page, each sharing layout.html.
type pages struct {
	login         *template.Template
	dashboard     *template.Template
	confirmDelete *template.Template
}

func mustParsePages() *pages {
	parse := func(name string) *template.Template {
		return template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return &pages{
		login:         parse("login.html"),
		dashboard:     parse("dashboard.html"),
		confirmDelete: parse("confirm_delete.html"),
	}
}

// filterTab is one status tab on the dashboard.
type filterTab struct {
	Filter domain.Filter
	Label  string
	Count  int
	Active bool
}

// pageData is the view model shared by all pages.
type pageData struct {
	Title     string
	Username  string
	CSRFField template.HTML
	Flashes   []service.Flash

	// login
	Error         string
	LoginUsername string

	// dashboard
	Stats    domain.Stats
	HasStats bool
	Tabs     []filterTab
	Filter   domain.Filter
	Bookings []domain.Booking

	// confirm_delete
	Booking domain.Booking
}

// newPageData fills the fields every page needs.
func newPageData(r *http.Request, title string) pageData {
	d := pageData{Title: title, CSRFField: csrf.TemplateField(r)}
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		d.Username = sess.Username
	}
	return d
}

// render executes tpl into a buffer first so a template error never leaves
// a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, tpl *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		s.log.ErrorContext(r.Context(), "template render failed", "template", tpl.Name(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func tabLabel(f domain.Filter) string {
	switch f {
	case domain.FilterAll:
		return "All"
	case domain.Filter(domain.StatusPending):
		return "Pending"
	case domain.Filter(domain.StatusConfirmed):
		return "Confirmed"
	case domain.Filter(domain.StatusCancelled):
		return "Cancelled"
	default:
		return fmt.Sprint(f)
	}
}
