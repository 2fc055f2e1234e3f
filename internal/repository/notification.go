package repository

import (
	"context"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error)
	MarkSeen(ctx context.Context, notificationID, userID int64) error
	MarkAllSeen(ctx context.Context, userID int64) error
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{
		db: db,
	}
}

func (r *notificationRepoImpl) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepoImpl) ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error

	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepoImpl) MarkSeen(ctx context.Context, notificationID, userID int64) error {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND to_user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{
			"seen":       true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *notificationRepoImpl) MarkAllSeen(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("to_user_id = ? AND seen = ?", userID, false).
		Updates(map[string]interface{}{
			"seen":       true,
			"updated_at": time.Now(),
		}).Error
}
