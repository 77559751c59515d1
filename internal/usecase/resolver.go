package usecase

import (
	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
)

// ResolveEffective computes the complete effective preference record from the
// three configuration layers, applying the override order user > tenant >
// system default to every field independently. It is a pure function: both
// preference layers may be nil, and the result never contains an absent field.
func ResolveEffective(defaults domain.Defaults, tenantPref *domain.TenantPreference, userPref *domain.UserPreference, userID, tenantID uuid.UUID) domain.EffectivePreference {
	eff := domain.EffectivePreference{
		TenantID:   tenantID,
		UserID:     userID,
		Language:   defaults.Language,
		Theme:      defaults.Theme,
		DateFormat: defaults.DateFormat,
		TimeFormat: defaults.TimeFormat,
		Timezone:   defaults.Timezone,
	}

	// Tenant layer first, then the user layer on top. A nil pointer at either
	// layer leaves the lower value in place; sibling fields resolve
	// independently.
	if tenantPref != nil {
		if tenantPref.DefaultLanguage != nil {
			eff.Language = *tenantPref.DefaultLanguage
		}
		if tenantPref.DefaultTheme != nil {
			eff.Theme = *tenantPref.DefaultTheme
		}
		if tenantPref.DateFormat != nil {
			eff.DateFormat = *tenantPref.DateFormat
		}
		if tenantPref.TimeFormat != nil {
			eff.TimeFormat = *tenantPref.TimeFormat
		}
		if tenantPref.Timezone != nil {
			eff.Timezone = *tenantPref.Timezone
		}
	}

	if userPref != nil {
		if userPref.Language != nil {
			eff.Language = *userPref.Language
		}
		if userPref.Theme != nil {
			eff.Theme = *userPref.Theme
		}
		if userPref.DateFormat != nil {
			eff.DateFormat = *userPref.DateFormat
		}
		if userPref.TimeFormat != nil {
			eff.TimeFormat = *userPref.TimeFormat
		}
		if userPref.Timezone != nil {
			eff.Timezone = *userPref.Timezone
		}
	}

	eff.Notifications = resolveNotifications(defaults, tenantPref, userPref)
	eff.Features = resolveFeatures(tenantPref)
	eff.Branding = resolveBranding(defaults, tenantPref)

	return eff
}

func resolveNotifications(defaults domain.Defaults, tenantPref *domain.TenantPreference, userPref *domain.UserPreference) domain.EffectiveNotification {
	n := defaults.Notifications

	var tn *domain.NotificationSettings
	if tenantPref != nil {
		tn = tenantPref.Notifications
	}
	var un *domain.UserNotificationPreference
	if userPref != nil {
		un = userPref.Notifications
	}

	if tn != nil {
		n.Email = tn.Email
		n.InApp = tn.InApp
		n.Push = tn.Push
		n.DigestFrequency = tn.DigestFrequency
	}

	if un != nil {
		if un.Email != nil {
			n.Email = *un.Email
		}
		if un.InApp != nil {
			n.InApp = *un.InApp
		}
		if un.Push != nil {
			n.Push = *un.Push
		}
		if un.DigestFrequency != nil {
			n.DigestFrequency = *un.DigestFrequency
		}
		// Quiet hours and categories exist only at the user layer.
		if un.QuietHours != nil {
			n.QuietHours = *un.QuietHours
		}
		if un.Categories != nil {
			n.Categories = make(map[string]bool, len(un.Categories))
			for k, v := range un.Categories {
				n.Categories[k] = v
			}
		}
	}

	if n.Categories == nil {
		n.Categories = map[string]bool{}
	}

	return n
}

// resolveFeatures is tenant-governed only: the user layer is never consulted.
func resolveFeatures(tenantPref *domain.TenantPreference) map[string]bool {
	if tenantPref == nil || tenantPref.Features == nil {
		return map[string]bool{}
	}
	features := make(map[string]bool, len(tenantPref.Features))
	for k, v := range tenantPref.Features {
		features[k] = v
	}
	return features
}

// resolveBranding is tenant-governed only, with a per-member system fallback.
func resolveBranding(defaults domain.Defaults, tenantPref *domain.TenantPreference) domain.EffectiveBranding {
	b := defaults.Branding
	if tenantPref == nil || tenantPref.Branding == nil {
		return b
	}
	tb := tenantPref.Branding
	if tb.LogoURL != nil {
		b.LogoURL = *tb.LogoURL
	}
	if tb.FaviconURL != nil {
		b.FaviconURL = *tb.FaviconURL
	}
	if tb.AppTitle != nil {
		b.AppTitle = *tb.AppTitle
	}
	return b
}
