package models

import "time"

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusPaused AccountStatus = "PAUSED"
	AccountStatusOnHold AccountStatus = "ON_HOLD"
)

// Account is a tenant-owned credential set for one site.
type Account struct {
	ID                  string                 `bson:"_id,omitempty" json:"id,omitempty"`
	TenantID            string                 `bson:"tenant_id" json:"tenant_id"`
	Site                string                 `bson:"site" json:"site"`
	Username            string                 `bson:"username" json:"username"`
	CredentialEncrypted string                 `bson:"credential_encrypted" json:"credential_encrypted,omitempty"`
	ProxyURL            *string                `bson:"proxy_url" json:"proxy_url"`
	Fingerprint         map[string]interface{} `bson:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	BehaviorProfile     map[string]interface{} `bson:"behavior_profile,omitempty" json:"behavior_profile,omitempty"`
	Status              AccountStatus          `bson:"status" json:"status"`
	LastRunAt           *time.Time             `bson:"last_run_at" json:"last_run_at"`
	RevenueHour         float64                `bson:"revenue_hour" json:"revenue_hour"`
	HealthScore         float64                `bson:"health_score" json:"health_score"`
}
