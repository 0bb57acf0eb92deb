package integrations

import "time"

// Integration is a tenant-scoped third-party integration record. For the
// telephony provider it carries the shared webhook secret and the virtual
// number; other providers keep free-form connection settings.
//
// One active record per (workspace, provider) pair is expected. Key rotation
// replaces the stored secret in place: the previous secret stops validating
// immediately, with no grace period.
type Integration struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Name     string `json:"name" db:"name"`
	Type     string `json:"type" db:"type"`         // e.g. telephony, crm, ticketing
	Provider string `json:"provider" db:"provider"` // e.g. knowlarity_sr

	Status Status `json:"status" db:"status"`

	// Config is free-form provider configuration, stored as JSONB.
	// Secrets live here (see ConfigKeyAPIKey); never log this map.
	Config map[string]string `json:"config" db:"config"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// TelephonyProvider is the inbound voice vendor whose webhooks this service
// authenticates.
const TelephonyProvider = "knowlarity_sr"

// Well-known Config keys.
const (
	ConfigKeyAPIKey        = "sr_api_key"
	ConfigKeyVirtualNumber = "virtual_number"
	ConfigKeyURL           = "url"
)
