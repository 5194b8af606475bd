package dao

import (
	"context"

	"deenly/deenly/domain"
	"deenly/deenly/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderDAO struct {
	DB *gorm.DB
}

func NewReminderDAO(db *gorm.DB) *ReminderDAO {
	return &ReminderDAO{DB: db}
}

func (dao *ReminderDAO) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	return storeErr("create reminder", dao.DB.WithContext(ctx).Create(reminder).Error)
}

// ListReminders returns the user's reminders, soonest first. Done reminders
// are included only when includeDone is set.
func (dao *ReminderDAO) ListReminders(ctx context.Context, userID string, includeDone bool) ([]models.Reminder, error) {
	var reminders []models.Reminder
	q := dao.DB.WithContext(ctx).Where("user_id = ?", userID)
	if !includeDone {
		q = q.Where("done = ?", false)
	}
	if err := q.Order("remind_at asc").Find(&reminders).Error; err != nil {
		return nil, storeErr("list reminders", err)
	}
	return reminders, nil
}

func (dao *ReminderDAO) SetDone(ctx context.Context, userID string, id uuid.UUID, done bool) error {
	res := dao.DB.WithContext(ctx).Model(&models.Reminder{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("done", done)
	if res.Error != nil {
		return storeErr("update reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (dao *ReminderDAO) DeleteReminder(ctx context.Context, userID string, id uuid.UUID) error {
	res := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Reminder{})
	if res.Error != nil {
		return storeErr("delete reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
