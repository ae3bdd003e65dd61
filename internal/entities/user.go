package entities

import (
	"time"
)

// OAuthProvider names an external identity provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// User is the only persistent record. A user may carry a local credential,
// an external identity, or both; nullable columns keep the unique indexes
// from colliding on empty values.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     *string   `gorm:"uniqueIndex;size:100" json:"username,omitempty"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Provider and Subject identify an OAuth-created account (e.g. google + "sub" claim)
	Provider *OAuthProvider `gorm:"type:varchar(50);uniqueIndex:idx_provider_subject" json:"provider,omitempty"`
	Subject  *string        `gorm:"type:varchar(255);uniqueIndex:idx_provider_subject" json:"-"`

	// Secret is nil until the user submits one; it is never cleared automatically.
	Secret *string `gorm:"type:text" json:"secret,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasLocalCredential reports whether the user registered with a password.
func (u *User) HasLocalCredential() bool {
	return u.Username != nil && u.PasswordHash != ""
}

// DisplayName returns the username, or the provider name for OAuth-only accounts.
func (u *User) DisplayName() string {
	if u.Username != nil {
		return *u.Username
	}
	if u.Provider != nil {
		return string(*u.Provider) + " user"
	}
	return "anonymous"
}

// SecretText returns the submitted secret or an empty string.
func (u *User) SecretText() string {
	if u.Secret == nil {
		return ""
	}
	return *u.Secret
}
