package domain

import (
	"time"

	"github.com/google/uuid"
)

// Theme is the UI color scheme selection.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// TimeFormat is the clock display convention.
type TimeFormat string

const (
	TimeFormat12h TimeFormat = "12h"
	TimeFormat24h TimeFormat = "24h"
)

// DigestFrequency controls how often batched notification emails are sent.
type DigestFrequency string

const (
	DigestImmediate DigestFrequency = "immediate"
	DigestDaily     DigestFrequency = "daily"
	DigestWeekly    DigestFrequency = "weekly"
	DigestNone      DigestFrequency = "none"
)

// QuietHours is a user-defined window during which notification delivery is
// suppressed. Start and End are "HH:MM" in the user's timezone.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// UserNotificationPreference is the user-level notification layer. All fields
// are optional; it additionally carries quiet hours and per-category opt-outs,
// which have no tenant-level counterpart.
type UserNotificationPreference struct {
	Email           *bool            `json:"email,omitempty"`
	InApp           *bool            `json:"in_app,omitempty"`
	Push            *bool            `json:"push,omitempty"`
	DigestFrequency *DigestFrequency `json:"digest_frequency,omitempty"`
	QuietHours      *QuietHours      `json:"quiet_hours,omitempty"`
	Categories      map[string]bool  `json:"categories,omitempty"`
}

// UserPreference is the stored per-user override layer. Created on first
// customization, mutated by partial updates, deleted only by an explicit
// reset.
type UserPreference struct {
	UserID        uuid.UUID                   `json:"user_id"`
	TenantID      uuid.UUID                   `json:"tenant_id"`
	Language      *string                     `json:"language,omitempty"`
	Theme         *Theme                      `json:"theme,omitempty"`
	DateFormat    *string                     `json:"date_format,omitempty"`
	TimeFormat    *TimeFormat                 `json:"time_format,omitempty"`
	Timezone      *string                     `json:"timezone,omitempty"`
	Notifications *UserNotificationPreference `json:"notifications,omitempty"`
	UpdatedAt     time.Time                   `json:"updated_at,omitempty"`
}

// EffectiveNotification is the fully resolved notification block.
type EffectiveNotification struct {
	Email           bool            `json:"email"`
	InApp           bool            `json:"in_app"`
	Push            bool            `json:"push"`
	DigestFrequency DigestFrequency `json:"digest_frequency"`
	QuietHours      QuietHours      `json:"quiet_hours"`
	Categories      map[string]bool `json:"categories"`
}

// EffectiveBranding is the fully resolved branding block.
type EffectiveBranding struct {
	LogoURL    string `json:"logo_url"`
	FaviconURL string `json:"favicon_url"`
	AppTitle   string `json:"app_title"`
}

// EffectivePreference is the complete resolved record consumed by the rest of
// the application. It is a pure projection of the tenant layer, the user
// layer, and the system defaults; it is never persisted.
type EffectivePreference struct {
	TenantID      uuid.UUID             `json:"tenant_id"`
	UserID        uuid.UUID             `json:"user_id"`
	Language      string                `json:"language"`
	Theme         Theme                 `json:"theme"`
	DateFormat    string                `json:"date_format"`
	TimeFormat    TimeFormat            `json:"time_format"`
	Timezone      string                `json:"timezone"`
	Features      map[string]bool       `json:"features"`
	Notifications EffectiveNotification `json:"notifications"`
	Branding      EffectiveBranding     `json:"branding"`
}
