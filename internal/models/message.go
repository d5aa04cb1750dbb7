package models

import "time"

type Message struct {
	ID         string     `gorm:"type:varchar(36);primarykey" json:"id"`
	SenderID   uint64     `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint64     `gorm:"not null;index" json:"receiver_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Edited     bool       `gorm:"not null;default:false" json:"edited"`
	Read       bool       `gorm:"not null;default:false" json:"read"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}
