package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"sunrise/internal/adapters/http/middleware"
	"sunrise/internal/application/orchestrators"
	themeDomain "sunrise/internal/domain/theme"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// isFetch reports whether the request came from forum.js rather than a plain form post.
func isFetch(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "fetch"
}

// redirectBack answers a plain form post with a 303 to target, the page hosting the form.
func redirectBack(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// viewerTheme resolves the active theme for the request's client.
func viewerTheme(r *http.Request) string {
	hint := r.Header.Get("Sec-CH-Prefers-Color-Scheme")
	if deps.Preferences == nil {
		return themeDomain.Resolve(nil, hint)
	}
	t, err := orchestrators.ExecuteResolveTheme(r.Context(), orchestrators.ThemeInput{
		ClientID: middleware.GetClientID(r.Context()),
		Hint:     hint,
	}, deps.Preferences)
	if err != nil {
		slog.Warn("theme_failed", "error", err)
		return themeDomain.Resolve(nil, hint)
	}
	return t
}

func funcMap(r *http.Request) template.FuncMap {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	theme := viewerTheme(r)
	return template.FuncMap{
		"siteName":    func() string { return deps.Config.SiteName },
		"isLoggedIn":  func() bool { return ok },
		"currentUser": func() string { return sess.Username },
		"currentTier": func() string { return sess.Tier() },
		"csrfToken":   func() string { return csrf.Token(r) },
		"csrfField":   func() template.HTML { return csrf.TemplateField(r) },
		"theme":       func() string { return theme },
		"themeLabel":  func() string { return themeDomain.ToggleLabel(theme) },
		"themeIcon":   func() string { return themeDomain.ToggleIcon(theme) },
		"path":        func() string { return r.URL.Path },
		"mediaSrc":    mediaSrc,
		"fieldArgs":   fieldArgs,
	}
}

// mediaSrc resolves a backend-relative media path against the backend URL.
func mediaSrc(u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return strings.TrimRight(deps.Config.Backend.URL, "/") + u
	}
	return u
}

// renderTemplate renders page inside layout.html, plus any partials it includes.
func renderTemplate(w http.ResponseWriter, r *http.Request, page string, data any, partials ...string) {
	renderTemplateStatus(w, r, http.StatusOK, page, data, partials...)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, page string, data any, partials ...string) {
	files := append([]string{"templates/layout.html", "templates/" + page}, prefixed(partials)...)
	tpl, err := template.New("layout.html").Funcs(funcMap(r)).ParseFS(templatesFS, files...)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("render_failed", "template", page, "error", err)
	}
}

// renderFragment renders the named template from file without the layout.
func renderFragment(w http.ResponseWriter, r *http.Request, file, name string, data any) {
	tpl, err := template.New(file).Funcs(funcMap(r)).ParseFS(templatesFS, "templates/"+file)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render_failed", "template", name, "error", err)
	}
}

func prefixed(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "templates/" + n
	}
	return out
}
