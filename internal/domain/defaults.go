package domain

// DefaultAppTitle is the application name shown when a tenant supplies no
// branding of its own.
const DefaultAppTitle = "Talent Hub"

// Defaults is the process-wide last-resort value for every resolvable field.
// It is never mutated at runtime.
type Defaults struct {
	Language      string
	Theme         Theme
	DateFormat    string
	TimeFormat    TimeFormat
	Timezone      string
	Notifications EffectiveNotification
	Branding      EffectiveBranding
}

// SystemDefaults returns the built-in default configuration. A fresh value is
// returned on every call so callers cannot mutate shared state through the
// contained map.
func SystemDefaults() Defaults {
	return Defaults{
		Language:   "en",
		Theme:      ThemeLight,
		DateFormat: "YYYY-MM-DD",
		TimeFormat: TimeFormat24h,
		Timezone:   "UTC",
		Notifications: EffectiveNotification{
			Email:           true,
			InApp:           true,
			Push:            false,
			DigestFrequency: DigestDaily,
			QuietHours:      QuietHours{Enabled: false, Start: "22:00", End: "07:00"},
			Categories:      map[string]bool{},
		},
		Branding: EffectiveBranding{
			LogoURL:    "",
			FaviconURL: "",
			AppTitle:   DefaultAppTitle,
		},
	}
}
