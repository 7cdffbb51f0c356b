package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	emailAdapter "sunrise/internal/adapters/email"
	domain "sunrise/internal/domain/admission"
)

// AdmissionDraftKey is the preference key holding the autosaved form.
const AdmissionDraftKey = "admissionFormData"

// AdmissionStore persists submitted applications.
type AdmissionStore interface {
	Save(ctx context.Context, clientID string, a domain.Application) error
}

// AutosaveAdmissionInput carries the form as currently filled in.
type AutosaveAdmissionInput struct {
	ClientID string
	Values   url.Values
}

// ExecuteAutosaveAdmission persists the in-progress form.
// POST: the draft is stored under AdmissionDraftKey; nothing is validated
func ExecuteAutosaveAdmission(ctx context.Context, input AutosaveAdmissionInput, prefs PreferenceStore) error {
	raw, err := json.Marshal(input.Values)
	if err != nil {
		return fmt.Errorf("encode admission draft: %w", err)
	}
	return prefs.Set(ctx, input.ClientID, AdmissionDraftKey, string(raw))
}

// ExecuteLoadAdmissionDraft restores the autosaved form, or empty values when there is none.
func ExecuteLoadAdmissionDraft(ctx context.Context, clientID string, prefs PreferenceStore) (url.Values, error) {
	raw, ok, err := prefs.Get(ctx, clientID, AdmissionDraftKey)
	if err != nil || !ok {
		return url.Values{}, err
	}
	var v url.Values
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		slog.Warn("admission_draft_corrupt", "client_id", clientID, "error", err)
		return url.Values{}, nil
	}
	return v, nil
}

// SubmitAdmissionInput carries the final form.
type SubmitAdmissionInput struct {
	ClientID string
	Values   url.Values
}

// SubmitAdmissionDeps holds dependencies for SubmitAdmission.
type SubmitAdmissionDeps struct {
	Store       AdmissionStore
	Preferences PreferenceStore
	Mailer      emailAdapter.Sender
	StaffEmail  string
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSubmitAdmission validates, stores, and confirms an application.
// PRE: none
// POST: invalid forms return domain.FieldErrors and store nothing;
// valid forms are saved, the draft is cleared, confirmation mail is attempted
func ExecuteSubmitAdmission(ctx context.Context, input SubmitAdmissionInput, deps SubmitAdmissionDeps) (domain.Application, error) {
	app := domain.FromValues(input.Values)
	if err := app.Validate(); err != nil {
		return app, err
	}
	app.ID = deps.GenerateID()
	app.SubmittedAt = deps.Now()

	if err := deps.Store.Save(ctx, input.ClientID, app); err != nil {
		return domain.Application{}, err
	}
	if err := deps.Preferences.Delete(ctx, input.ClientID, AdmissionDraftKey); err != nil {
		slog.Warn("admission_draft_clear_failed", "client_id", input.ClientID, "error", err)
	}
	slog.Info("admission_event", "event", "application_submitted", "application_id", app.ID, "program", app.SelectedProgram)

	if deps.Mailer != nil {
		if _, err := deps.Mailer.SendBatch(ctx, admissionEmails(app, deps.StaffEmail)); err != nil {
			slog.Error("admission_email_failed", "application_id", app.ID, "error", err)
		}
	}
	return app, nil
}

func admissionEmails(app domain.Application, staff string) []emailAdapter.SendRequest {
	name := html.EscapeString(app.FullName())
	program := html.EscapeString(app.ProgramName())
	reqs := []emailAdapter.SendRequest{{
		To:      []string{app.Email},
		Subject: "We received your application",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Thank you for applying to the %s program. "+
			"Our team will contact you within 24 hours.</p><p>Reference: %s</p>",
			name, program, html.EscapeString(app.ID)),
	}}
	if staff != "" {
		reqs = append(reqs, emailAdapter.SendRequest{
			To:      []string{staff},
			ReplyTo: app.Email,
			Subject: "New admission application: " + app.FullName(),
			HTML: fmt.Sprintf("<p>%s applied for %s.</p><p>Phone: %s<br>Subjects: %s</p>",
				name, program, html.EscapeString(app.Phone),
				html.EscapeString(strings.Join(app.PreferredSubjects, ", "))),
		})
	}
	return reqs
}
