package models

import "time"

type LinkedInCredential struct {
	ID           int64     `db:"id" json:"id"`
	PersonURN    string    `db:"person_urn" json:"person_urn"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (c *LinkedInCredential) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
