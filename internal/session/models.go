package session

import "time"

// Session links a gateway session id to an upstream bearer token.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    int       `gorm:"not null;index" json:"user_id"`
	Employer  bool      `gorm:"not null;default:false" json:"employer"`
	Token     string    `gorm:"not null" json:"-"` // sealed at rest by GormStore
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (Session) TableName() string { return "gateway.sessions" }

// Expired reports whether s is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
