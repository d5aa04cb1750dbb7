package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-task-tracker/internal/chat"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/metrics"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/repository"
	"github.com/yukikurage/team-task-tracker/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound  = apierrors.New(apierrors.ErrNotFound, "message not found")
	ErrMessageEmpty     = apierrors.New(apierrors.ErrValidation, "message content cannot be empty")
	ErrInvalidReceiver  = apierrors.New(apierrors.ErrValidation, "receiver does not exist")
	ErrMessageToSelf    = apierrors.New(apierrors.ErrValidation, "cannot send a message to yourself")
	ErrNotMessageSender = apierrors.New(apierrors.ErrForbidden, "only the sender can change this message")
	ErrNotMessageTarget = apierrors.New(apierrors.ErrForbidden, "only the receiver can mark this message as read")
)

// ChatService stores direct messages and pushes events to the hub. Delivery
// is best effort; clients reload the conversation to catch up.
type ChatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	hub         *chat.Hub
	metrics     metrics.Recorder
	now         func() time.Time
}

func NewChatService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	hub *chat.Hub,
	rec metrics.Recorder,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		hub:         hub,
		metrics:     rec,
		now:         time.Now,
	}
}

// SendMessage stores a message and notifies the receiver.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID uint64, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrMessageEmpty
	}
	if senderID == receiverID {
		return nil, ErrMessageToSelf
	}
	if err := s.ensureUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.publish(chat.EventMessageReceived, msg, receiverID)
	return msg, nil
}

// EditMessage replaces the content of a message. Sender only.
func (s *ChatService) EditMessage(ctx context.Context, actorID uint64, messageID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrMessageEmpty
	}

	msg, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, ErrNotMessageSender
	}

	msg.Content = content
	msg.Edited = true
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	s.publish(chat.EventMessageUpdated, msg, msg.SenderID, msg.ReceiverID)
	return msg, nil
}

// DeleteMessage removes a message. Sender only.
func (s *ChatService) DeleteMessage(ctx context.Context, actorID uint64, messageID string) error {
	msg, err := s.findMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return ErrNotMessageSender
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.publish(chat.EventMessageDeleted, msg.ID, msg.SenderID, msg.ReceiverID)
	return nil
}

// MarkAsRead flags a message as read. Receiver only; repeated calls keep the
// first read time.
func (s *ChatService) MarkAsRead(ctx context.Context, actorID uint64, messageID string) (*models.Message, error) {
	msg, err := s.findMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != actorID {
		return nil, ErrNotMessageTarget
	}
	if msg.Read {
		return msg, nil
	}

	readAt := s.now().UTC()
	msg.Read = true
	msg.ReadAt = &readAt
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	s.publish(chat.EventMessageUpdated, msg, msg.SenderID, msg.ReceiverID)
	return msg, nil
}

// LoadMessages returns the conversation between actorID and peerID, oldest first.
func (s *ChatService) LoadMessages(ctx context.Context, actorID, peerID uint64, params utils.PaginationParams) ([]models.Message, error) {
	messages, err := s.messageRepo.ListConversation(ctx, actorID, peerID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// SetTyping forwards a typing indicator to peerID. Nothing is stored.
func (s *ChatService) SetTyping(ctx context.Context, actorID, peerID uint64, isTyping bool) error {
	if err := s.ensureUser(ctx, peerID); err != nil {
		return err
	}

	s.publish(chat.EventTypingStatus, chat.TypingStatus{UserID: actorID, IsTyping: isTyping}, peerID)
	return nil
}

// Subscribe opens an event stream for userID.
func (s *ChatService) Subscribe(userID uint64) (<-chan chat.Event, func()) {
	return s.hub.Subscribe(userID)
}

func (s *ChatService) publish(eventType string, payload interface{}, userIDs ...uint64) {
	ev := chat.Event{Type: eventType, Payload: payload}
	for _, id := range uniqueUint64(userIDs) {
		s.hub.Publish(id, ev)
	}
	s.metrics.RecordChatEvent(eventType)
}

func (s *ChatService) findMessage(ctx context.Context, id string) (*models.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMessageNotFound
	}

	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return msg, nil
}

func (s *ChatService) ensureUser(ctx context.Context, id uint64) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidReceiver
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}
