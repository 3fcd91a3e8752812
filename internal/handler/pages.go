package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves the HTML shell of the application. The pages are thin:
// they render the layout and talk to the JSON API from the browser.
//
// Routes handled:
// - GET /           -> Home
// - GET /login      -> Login
// - GET /signup     -> Signup
// - GET /dashboard  -> Dashboard
// - GET /onboarding -> Onboarding
// - GET /profile    -> Profile
type PageHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewPageHandler parses the embedded templates and returns a PageHandler.
func NewPageHandler(logger *slog.Logger) (*PageHandler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		templates: templates,
		logger:    logger,
	}, nil
}

// PageData is the data passed to every page template.
type PageData struct {
	Title       string
	CurrentPath string
	User        *domain.User
	ReturnTo    string
}

// Home sends visitors to the dashboard or the login page depending on
// whether they are signed in.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundResponse(w, r, h.logger)
		return
	}
	if auth.GetUserFromRequest(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Login renders the login form.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", PageData{
		Title:       "Sign in",
		CurrentPath: r.URL.Path,
		ReturnTo:    r.URL.Query().Get("return_to"),
	})
}

// Signup renders the registration form.
func (h *PageHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup.html", PageData{
		Title:       "Create account",
		CurrentPath: r.URL.Path,
		ReturnTo:    r.URL.Query().Get("return_to"),
	})
}

// Dashboard renders the main authenticated view.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "dashboard.html", PageData{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
	})
}

// Onboarding renders the profile onboarding flow.
func (h *PageHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "onboarding.html", PageData{
		Title:       "Get started",
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
	})
}

// Profile renders the profile editor.
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile.html", PageData{
		Title:       "Your profile",
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "path", r.URL.Path, "error", err)
	}
}
