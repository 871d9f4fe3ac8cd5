package ui

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/MrSnakeDoc/smartmarks/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormView is what the add form renders from.
type FormView struct {
	Title      string
	URL        string
	Button     string
	Submitting bool
}

// FormViewOf snapshots f for rendering.
func FormViewOf(f *AddForm) FormView {
	title, url := f.Values()
	return FormView{
		Title:      title,
		URL:        url,
		Button:     f.ButtonLabel(),
		Submitting: f.State() == Submitting,
	}
}

type listView struct {
	Loading bool
	Empty   bool
	Items   []ItemView
	Prompt  string
}

// HomePage is the signed-in page.
type HomePage struct {
	User  domain.User
	Form  FormView
	Alert string
	List  listView
}

// ProviderLink is one sign-in button on the login page.
type ProviderLink struct {
	Label string
	URL   string
}

type LoginPage struct {
	Providers []ProviderLink
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tpl *template.Template
	loc *time.Location
}

func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, loc: loc}, nil
}

// Home renders the signed-in page with the list still loading; the live
// stream fills it in.
func (r *Renderer) Home(w io.Writer, user domain.User, form FormView, alert string) error {
	return r.tpl.ExecuteTemplate(w, "home", HomePage{
		User:  user,
		Form:  form,
		Alert: alert,
		List:  r.listOf(ListState{Loading: true}),
	})
}

func (r *Renderer) Login(w io.Writer, page LoginPage) error {
	return r.tpl.ExecuteTemplate(w, "login", page)
}

// List renders the bookmark list fragment for s.
func (r *Renderer) List(w io.Writer, s ListState) error {
	return r.tpl.ExecuteTemplate(w, "list", r.listOf(s))
}

// ListHTML is List into a string.
func (r *Renderer) ListHTML(s ListState) (string, error) {
	var buf bytes.Buffer
	if err := r.List(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) listOf(s ListState) listView {
	return listView{
		Loading: s.Loading,
		Empty:   s.Empty(),
		Items:   Items(s.Items, r.loc),
		Prompt:  DeletePrompt,
	}
}
