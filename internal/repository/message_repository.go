package repository

import (
	"context"

	"github.com/yukikurage/team-task-tracker/internal/database"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMessageRepository is a GORM implementation of MessageRepository
type GormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error
}

func (r *GormMessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *GormMessageRepository) Update(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(msg).Error
}

func (r *GormMessageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormMessageRepository) ListConversation(ctx context.Context, userA, userB uint64, params utils.PaginationParams) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Scopes(database.Conversation(userA, userB), database.Paginate(params)).
		Find(&messages).Error
	return messages, err
}
