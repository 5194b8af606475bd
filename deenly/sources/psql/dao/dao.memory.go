package dao

import (
	"context"

	"deenly/deenly/domain"
	"deenly/deenly/services/chat"
	"deenly/deenly/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemoryDAO struct {
	DB *gorm.DB
}

func NewMemoryDAO(db *gorm.DB) *MemoryDAO {
	return &MemoryDAO{DB: db}
}

func (dao *MemoryDAO) ListMemories(ctx context.Context, userID string) ([]chat.Memory, error) {
	var rows []models.Memory
	err := dao.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&rows).Error
	if err != nil {
		return nil, storeErr("list memories", err)
	}
	out := make([]chat.Memory, 0, len(rows))
	for _, r := range rows {
		out = append(out, toMemory(r))
	}
	return out, nil
}

func (dao *MemoryDAO) CreateMemory(ctx context.Context, userID, content string) (chat.Memory, error) {
	row := models.Memory{UserID: userID, Content: content}
	if err := dao.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return chat.Memory{}, storeErr("create memory", err)
	}
	return toMemory(row), nil
}

func (dao *MemoryDAO) DeleteMemory(ctx context.Context, userID, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return &domain.ValidationError{Message: "invalid id " + id}
	}
	res := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", uid, userID).Delete(&models.Memory{})
	if res.Error != nil {
		return storeErr("delete memory", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toMemory(r models.Memory) chat.Memory {
	return chat.Memory{ID: r.ID.String(), Content: r.Content, CreatedAt: r.CreatedAt}
}
