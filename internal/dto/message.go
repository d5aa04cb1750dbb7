package dto

import (
	"time"

	"github.com/yukikurage/team-task-tracker/internal/models"
)

// MessageDTO uses the camelCase keys of the chat client
type MessageDTO struct {
	ID         string     `json:"id"`
	SenderID   uint64     `json:"senderId"`
	ReceiverID uint64     `json:"receiverId"`
	Content    string     `json:"content"`
	Edited     bool       `json:"edited"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"readAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func ToMessageDTO(m models.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Edited:     m.Edited,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ToMessageDTOs(messages []models.Message) []MessageDTO {
	items := make([]MessageDTO, len(messages))
	for i, m := range messages {
		items[i] = ToMessageDTO(m)
	}
	return items
}
