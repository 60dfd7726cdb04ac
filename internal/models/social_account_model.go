package models

import (
	"time"
)

type SocialAccount struct {
	OwnerID        string    `db:"owner_id" json:"owner_id"`
	Platform       Platform  `db:"platform" json:"platform"`
	AccountID      string    `db:"account_id" json:"account_id"`
	AccountName    string    `db:"account_name" json:"account_name"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AccessToken is a decrypted, currently valid credential for one platform.
type AccessToken struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
}
