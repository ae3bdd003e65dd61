package entities

import "time"

type AuditAction string

const (
	AuditActionRegister     AuditAction = "register"
	AuditActionLogin        AuditAction = "login"
	AuditActionLogout       AuditAction = "logout"
	AuditActionOAuthLogin   AuditAction = "oauth_login"
	AuditActionSubmitSecret AuditAction = "submit_secret"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent records an authentication-related action. It never stores
// passwords, secrets or session tokens.
type AuditEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index" json:"user_id"` // 0 when no user could be identified
	Action    AuditAction `gorm:"index;size:50" json:"action"`
	Detail    string      `gorm:"size:255" json:"detail,omitempty"` // e.g. provider name or attempted username
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
