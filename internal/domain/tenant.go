package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantPlan defines the subscription tier of a tenant.
type TenantPlan string

const (
	PlanFree         TenantPlan = "free"
	PlanStarter      TenantPlan = "starter"
	PlanProfessional TenantPlan = "professional"
	PlanEnterprise   TenantPlan = "enterprise"
)

// Tenant represents an isolated customer organization.
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Domain    string     `json:"domain,omitempty"`
	IsActive  bool       `json:"is_active"`
	Plan      TenantPlan `json:"plan"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NotificationSettings is the tenant-level notification default block.
// When a tenant provides one, every member is populated.
type NotificationSettings struct {
	Email           bool            `json:"email"`
	InApp           bool            `json:"in_app"`
	Push            bool            `json:"push"`
	DigestFrequency DigestFrequency `json:"digest_frequency"`
}

// TenantBranding carries tenant-controlled visual identity. Members are
// pointers so an unset member falls through to the system default.
type TenantBranding struct {
	LogoURL    *string `json:"logo_url,omitempty"`
	FaviconURL *string `json:"favicon_url,omitempty"`
	AppTitle   *string `json:"app_title,omitempty"`
}

// TenantPreference is the organization-level default layer. Every field is
// optional; absent fields fall through to system defaults during resolution.
type TenantPreference struct {
	TenantID        uuid.UUID             `json:"tenant_id"`
	DefaultLanguage *string               `json:"default_language,omitempty"`
	DefaultTheme    *Theme                `json:"default_theme,omitempty"`
	DateFormat      *string               `json:"date_format,omitempty"`
	TimeFormat      *TimeFormat           `json:"time_format,omitempty"`
	Timezone        *string               `json:"timezone,omitempty"`
	Notifications   *NotificationSettings `json:"notifications,omitempty"`
	Features        map[string]bool       `json:"features,omitempty"`
	Branding        *TenantBranding       `json:"branding,omitempty"`
}

// TenantRepository defines the interface for tenant context lookups.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// Preference returns the tenant's preference layer, or ErrNotFound when
	// the tenant has never configured one.
	Preference(ctx context.Context, tenantID uuid.UUID) (*TenantPreference, error)

	// AllowedLanguages returns the set of language codes the tenant permits
	// its users to select.
	AllowedLanguages(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}
