package admission

import (
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Form steps.
const (
	StepPersonal = 1
	StepAcademic = 2
	StepProgram  = 3
	StepReview   = 4
	TotalSteps   = 4
)

// Programs offered.
const (
	ProgramJunior = "class9-10"
	ProgramSenior = "class11-12"
	ProgramCrash  = "crash"
)

// ProgramNames maps program values to display names.
var ProgramNames = map[string]string{
	ProgramJunior: "Class 9 & 10",
	ProgramSenior: "Class 11 & 12",
	ProgramCrash:  "Crash Course",
}

// Subjects lists the preferred-subject checkboxes.
var Subjects = []string{"Mathematics", "Physics", "Chemistry", "Biology", "English", "Computer Science"}

// Domain errors
var (
	ErrTermsNotAccepted = errors.New("please accept the Terms and Conditions to continue")
	ErrInvalidStep      = errors.New("step must be between 1 and 4")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// FieldErrors maps form field names to messages. It is an error when non-empty.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return "invalid application: " + strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when e is empty.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Application is a submitted or in-progress admission form.
type Application struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	DateOfBirth        string
	Gender             string
	Address            string
	City               string
	State              string
	Pincode            string
	CurrentClass       string
	SchoolName         string
	Board              string
	PreviousPercentage string
	TargetPercentage   string
	SelectedProgram    string
	PreferredSubjects  []string
	TermsAccepted      bool
	SubmittedAt        time.Time
}

// FromValues reads the form fields posted by the admission page.
func FromValues(v url.Values) Application {
	get := func(k string) string { return strings.TrimSpace(v.Get(k)) }
	var subjects []string
	for _, s := range v["preferredSubjects"] {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	return Application{
		FirstName:          get("firstName"),
		LastName:           get("lastName"),
		Email:              get("email"),
		Phone:              get("phone"),
		DateOfBirth:        get("dateOfBirth"),
		Gender:             get("gender"),
		Address:            get("address"),
		City:               get("city"),
		State:              get("state"),
		Pincode:            get("pincode"),
		CurrentClass:       get("currentClass"),
		SchoolName:         get("schoolName"),
		Board:              get("board"),
		PreviousPercentage: get("previousPercentage"),
		TargetPercentage:   get("targetPercentage"),
		SelectedProgram:    get("selectedProgram"),
		PreferredSubjects:  subjects,
		TermsAccepted:      v.Get("termsAccepted") == "on" || v.Get("termsAccepted") == "true",
	}
}

// FullName joins first and last name.
func (a Application) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ProgramName is the display name of the selected program.
func (a Application) ProgramName() string {
	if name, ok := ProgramNames[a.SelectedProgram]; ok {
		return name
	}
	return a.SelectedProgram
}

// ValidateStep checks the fields shown on one step.
// PRE: step is between 1 and TotalSteps
// POST: returns field-scoped errors; empty when the step may be left
func (a Application) ValidateStep(step int) FieldErrors {
	errs := FieldErrors{}
	required := func(field, label, value string) bool {
		if value == "" {
			errs[field] = label + " is required."
			return false
		}
		return true
	}
	switch step {
	case StepPersonal:
		required("firstName", "First Name", a.FirstName)
		required("lastName", "Last Name", a.LastName)
		if required("email", "Email", a.Email) && !emailPattern.MatchString(a.Email) {
			errs["email"] = "Please enter a valid email address."
		}
		if required("phone", "Phone", a.Phone) && !phonePattern.MatchString(strings.Join(strings.Fields(a.Phone), "")) {
			errs["phone"] = "Please enter a valid phone number."
		}
		required("dateOfBirth", "Date of Birth", a.DateOfBirth)
	case StepAcademic:
		required("currentClass", "Current Class", a.CurrentClass)
		required("schoolName", "School Name", a.SchoolName)
		for field, value := range map[string]string{"previousPercentage": a.PreviousPercentage, "targetPercentage": a.TargetPercentage} {
			if value == "" {
				continue
			}
			if p, err := strconv.ParseFloat(value, 64); err != nil || p < 0 || p > 100 {
				errs[field] = "Percentage must be between 0 and 100."
			}
		}
	case StepProgram:
		if _, ok := ProgramNames[a.SelectedProgram]; !ok {
			errs["selectedProgram"] = "Please select a program to continue."
		}
		if len(a.PreferredSubjects) == 0 {
			errs["preferredSubjects"] = "Please select at least one preferred subject."
		}
	case StepReview:
		if !a.TermsAccepted {
			errs["termsAccepted"] = "Please accept the Terms and Conditions to continue."
		}
	}
	return errs
}

// Validate checks every step.
// PRE: none
// POST: returns nil if valid, FieldErrors otherwise
func (a Application) Validate() error {
	all := FieldErrors{}
	for step := StepPersonal; step <= TotalSteps; step++ {
		for k, v := range a.ValidateStep(step) {
			all[k] = v
		}
	}
	return all.Err()
}

// FirstInvalidStep returns the earliest step with errors, or 0 when all pass.
func (a Application) FirstInvalidStep() int {
	for step := StepPersonal; step <= TotalSteps; step++ {
		if len(a.ValidateStep(step)) > 0 {
			return step
		}
	}
	return 0
}

// ProgramFromQuery maps the ?class= shortcut used by program cards to a program value.
func ProgramFromQuery(class string) string {
	switch class {
	case "9-10":
		return ProgramJunior
	case "11-12":
		return ProgramSenior
	case "crash":
		return ProgramCrash
	}
	return ""
}
