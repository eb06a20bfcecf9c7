package models

import "time"

// Base is embedded by every row that belongs to a single user.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) SetOwner(userID uint) { b.UserID = userID }

func (b *Base) SetID(id uint) { b.ID = id }

func (b *Base) GetID() uint { return b.ID }

func (b *Base) Created() time.Time { return b.CreatedAt }

func (b *Base) SetCreated(t time.Time) { b.CreatedAt = t }
