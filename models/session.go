package models

import "time"

// Session is a short-lived guest session; the playground has no accounts.
type Session struct {
	ID         string    `json:"id" gorm:"type:text;primaryKey"`
	Active     bool      `json:"active" gorm:"not null;default:true"`
	IPAddress  string    `json:"-" gorm:"type:text"`
	UserAgent  string    `json:"-" gorm:"type:text"`
	LastActive time.Time `json:"lastActive"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
