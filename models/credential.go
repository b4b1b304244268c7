package models

import "time"

// Credential holds a tutor's calendar provider tokens. Mutated only by the
// token refresh coordinator.
type Credential struct {
	TutorID      string    `bson:"tutorId" json:"tutorId"`
	AccessToken  string    `bson:"accessToken" json:"-"`
	RefreshToken string    `bson:"refreshToken" json:"-"`
	Expiry       time.Time `bson:"expiry" json:"expiry"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the access token is past (or within a minute of)
// its expiry.
func (c *Credential) Expired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry.Add(-time.Minute))
}
