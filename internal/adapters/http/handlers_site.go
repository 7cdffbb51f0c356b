package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"sunrise/internal/adapters/content"
	"sunrise/internal/adapters/http/middleware"
	"sunrise/internal/application/orchestrators"
	"sunrise/internal/application/projections"
	admissionDomain "sunrise/internal/domain/admission"
	"sunrise/internal/domain/forum"
	themeDomain "sunrise/internal/domain/theme"
	usageDomain "sunrise/internal/domain/usage"
)

// csrfFieldName is the hidden input gorilla/csrf adds to every form.
const csrfFieldName = "gorilla.csrf.Token"

// redirectTarget returns the form's next field when it is a local path, else fallback.
func redirectTarget(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return fallback
}

// pageData is the data for page.html.
type pageData struct {
	Page  content.Page
	Usage []usageDomain.Entry
}

// handleHome renders the home page with the viewer's most opened resources (GET /)
func handleHome(w http.ResponseWriter, r *http.Request) {
	renderContentPage(w, r, "home")
}

// handlePage renders a Markdown page (GET /pages/{slug})
func handlePage(w http.ResponseWriter, r *http.Request) {
	renderContentPage(w, r, r.PathValue("slug"))
}

func renderContentPage(w http.ResponseWriter, r *http.Request, slug string) {
	page, err := deps.Pages.Render(slug)
	if errors.Is(err, content.ErrPageNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	data := pageData{Page: page}
	if slug == "home" && deps.Usage != nil {
		entries, err := projections.QueryResourceUsage(r.Context(), middleware.GetClientID(r.Context()), deps.Usage)
		if err != nil {
			slog.Warn("usage_failed", "error", err)
		}
		data.Usage = entries
	}
	renderTemplate(w, r, "page.html", data)
}

// themeResult is the JSON reply to a fetch-based toggle.
type themeResult struct {
	Theme string `json:"theme"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// handleThemeToggle flips and stores the viewer's theme (POST /theme/toggle)
// POST: preferredTheme is written and legacy keys are removed
func handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	theme, err := orchestrators.ExecuteToggleTheme(r.Context(), orchestrators.ThemeInput{
		ClientID: middleware.GetClientID(r.Context()),
		Hint:     r.Header.Get("Sec-CH-Prefers-Color-Scheme"),
	}, deps.Preferences)
	if err != nil {
		internalError(w, err)
		return
	}
	if isFetch(r) {
		writeJSON(w, http.StatusOK, themeResult{
			Theme: theme,
			Label: themeDomain.ToggleLabel(theme),
			Icon:  themeDomain.ToggleIcon(theme),
		})
		return
	}
	redirectBack(w, r, redirectTarget(r, "/"))
}

// admissionPageData is the data for admission.html.
type admissionPageData struct {
	Values    url.Values
	Errors    admissionDomain.FieldErrors
	Step      int
	Programs  map[string]string
	Subjects  []string
	Submitted *admissionDomain.Application
}

// Checked reports whether a multi-value field contains value.
func (d admissionPageData) Checked(field, value string) bool {
	for _, v := range d.Values[field] {
		if v == value {
			return true
		}
	}
	return false
}

// fieldView is one text input of the admission form.
type fieldView struct {
	Name, Label, Type, Value, Error string
}

func fieldArgs(d admissionPageData, name, label, typ string) fieldView {
	return fieldView{Name: name, Label: label, Type: typ, Value: d.Values.Get(name), Error: d.Errors[name]}
}

func newAdmissionPage(values url.Values) admissionPageData {
	return admissionPageData{
		Values:   values,
		Errors:   admissionDomain.FieldErrors{},
		Step:     admissionDomain.StepPersonal,
		Programs: admissionDomain.ProgramNames,
		Subjects: admissionDomain.Subjects,
	}
}

// handleAdmissionPage renders the multi-step admission form (GET /admission)
// The autosaved draft is restored; ?class= preselects a program.
func handleAdmissionPage(w http.ResponseWriter, r *http.Request) {
	values, err := orchestrators.ExecuteLoadAdmissionDraft(r.Context(), middleware.GetClientID(r.Context()), deps.Preferences)
	if err != nil {
		internalError(w, err)
		return
	}
	if program := admissionDomain.ProgramFromQuery(r.URL.Query().Get("class")); program != "" {
		values.Set("selectedProgram", program)
	}
	renderTemplate(w, r, "admission.html", newAdmissionPage(values))
}

// formValues returns the posted fields without the CSRF token.
func formValues(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	values := url.Values{}
	for k, v := range r.PostForm {
		if k != csrfFieldName && k != "next" {
			values[k] = v
		}
	}
	return values, nil
}

// handleAdmissionAutosave stores the half-filled form (POST /admission/autosave)
// POST: 204; nothing is validated
func handleAdmissionAutosave(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := orchestrators.ExecuteAutosaveAdmission(r.Context(), orchestrators.AutosaveAdmissionInput{
		ClientID: middleware.GetClientID(r.Context()),
		Values:   values,
	}, deps.Preferences); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdmissionSubmit validates and stores an application (POST /admission/submit)
// POST: invalid forms re-render at the first failing step with 422; valid ones show the confirmation
func handleAdmissionSubmit(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app, err := orchestrators.ExecuteSubmitAdmission(r.Context(), orchestrators.SubmitAdmissionInput{
		ClientID: middleware.GetClientID(r.Context()),
		Values:   values,
	}, orchestrators.SubmitAdmissionDeps{
		Store:       deps.Admissions,
		Preferences: deps.Preferences,
		Mailer:      deps.Mailer,
		StaffEmail:  deps.Config.Email.Staff,
		GenerateID:  func() string { return uuid.New().String() },
		Now:         timeNow,
	})
	var fieldErrs admissionDomain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		data := newAdmissionPage(values)
		data.Errors = fieldErrs
		data.Step = app.FirstInvalidStep()
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "admission.html", data)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	data := newAdmissionPage(url.Values{})
	data.Submitted = &app
	renderTemplate(w, r, "admission.html", data)
}

// usageResult is the JSON reply to a resource open.
type usageResult struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

// handleResourceOpen counts a study resource being opened (POST /resources/{name}/open)
func handleResourceOpen(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	count, err := orchestrators.ExecuteTrackResourceUsage(r.Context(), middleware.GetClientID(r.Context()), name, deps.Usage)
	if errors.Is(err, usageDomain.ErrEmptyResource) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResult{Resource: strings.TrimSpace(name), Count: count})
}

// loginPageData is the data for login.html.
type loginPageData struct {
	Error string
	Next  string
}

// handleLoginPage renders the identity form (GET /login)
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "login.html", loginPageData{Next: r.URL.Query().Get("next")})
}

// handleLogin records who the viewer is and which backend session they carry (POST /login)
// Authentication itself is the backend's; this only remembers the identity the page renders for.
// PRE: username is non-blank
// POST: a session cookie is set and the viewer's forum state is reset
func handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "login.html", loginPageData{Error: "Username is required.", Next: r.FormValue("next")})
		return
	}
	sess := middleware.Session{
		Username:      username,
		Role:          strings.ToLower(strings.TrimSpace(r.FormValue("role"))),
		Paid:          r.FormValue("tier") == "paid",
		BackendCookie: strings.TrimSpace(r.FormValue("backend_cookie")),
		CreatedAt:     time.Now(),
	}
	token, err := sessions.Create(sess)
	if err != nil {
		internalError(w, err)
		return
	}
	resetForumState(r)
	middleware.SetSessionCookie(w, token)
	slog.Info("auth_event", "event", "login", "username", sess.Username, "role", sess.Role, "tier", sess.Tier())
	http.Redirect(w, r, redirectTarget(r, "/forum"), http.StatusSeeOther)
}

// handleLogout ends the session (POST /logout)
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	resetForumState(r)
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// resetForumState forgets the client's topic and draft so the next visit starts from the default topic.
func resetForumState(r *http.Request) {
	if err := deps.UIState.Delete(r.Context(), middleware.GetClientID(r.Context())); err != nil {
		slog.Warn("forum_state_reset_failed", "error", err)
	}
}

// handlePerfSnapshot returns the last hour of timings (GET /debug/perf)
// PRE: viewer is an admin or teacher
func handlePerfSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok || (sess.Role != forum.RoleAdmin && sess.Role != forum.RoleTeacher) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if deps.Collector == nil {
		http.Error(w, "timings are not collected", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, deps.Collector.Snapshot(timeNow().Add(-time.Hour), 10))
}
