package theme

import "strings"

// Colour schemes.
const (
	Light = "light"
	Dark  = "dark"
)

// Preference keys. KeyLegacy and KeyDarkMode are read only when KeyPreferred is unset.
const (
	KeyPreferred = "preferredTheme"
	KeyLegacy    = "theme"
	KeyDarkMode  = "darkMode"
)

// LegacyKeys are removed once a KeyPreferred value has been written.
var LegacyKeys = []string{KeyLegacy, KeyDarkMode}

// Resolve picks the active theme from stored preferences and the client's colour-scheme hint.
// PRE: prefs may be nil
// POST: returns Light or Dark
func Resolve(prefs map[string]string, hint string) string {
	if v := prefs[KeyPreferred]; v == Light || v == Dark {
		return v
	}
	if v := prefs[KeyLegacy]; v == Light || v == Dark {
		return v
	}
	switch prefs[KeyDarkMode] {
	case "true":
		return Dark
	case "false":
		return Light
	}
	// Browsers send the client hint as a structured-header string: "dark".
	if strings.Trim(strings.TrimSpace(hint), `"`) == Dark {
		return Dark
	}
	return Light
}

// Toggle flips the theme.
func Toggle(current string) string {
	if current == Dark {
		return Light
	}
	return Dark
}

// ToggleLabel names the theme the toggle would switch to.
func ToggleLabel(current string) string {
	if current == Dark {
		return "Light Mode"
	}
	return "Dark Mode"
}

// ToggleIcon is shown next to ToggleLabel.
func ToggleIcon(current string) string {
	if current == Dark {
		return "☀️"
	}
	return "🌙"
}
