package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is the server side half of a bearer token. A user holds at most one.
type AuthToken struct {
	Key       string    `gorm:"column:token_key;size:64;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
