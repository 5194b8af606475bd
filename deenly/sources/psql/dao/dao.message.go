package dao

import (
	"context"

	"deenly/deenly/services/threads"
	"deenly/deenly/sources/psql/models"
	"deenly/deenly/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// MessageDAO is the durable message log of every user.
type MessageDAO struct {
	DB *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{DB: db}
}

func (dao *MessageDAO) ListMessages(ctx context.Context, userID string) ([]threads.Message, error) {
	var rows []models.Message
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, seq asc").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	out := make([]threads.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, threads.Message{
			ID:        r.ID.String(),
			Role:      r.Role,
			Content:   r.Content,
			Timestamp: r.CreatedAt,
			Starred:   r.Starred,
		})
	}
	return out, nil
}

func (dao *MessageDAO) InsertMessage(ctx context.Context, userID string, msg threads.Message) error {
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return storeErr("insert message", err)
	}
	row := models.Message{
		ID:        id,
		UserID:    userID,
		Role:      msg.Role,
		Content:   msg.Content,
		Starred:   msg.Starred,
		CreatedAt: msg.Timestamp,
	}
	err = dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&models.Message{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		row.Seq = last + 1
		return tx.Create(&row).Error
	})
	return storeErr("insert message", err)
}

// DeleteMessages removes the given ids in one statement, so either all of
// them go or none do.
func (dao *MessageDAO) DeleteMessages(ctx context.Context, userID string, ids []string) (err error) {
	ctx, span := telemetry.Start(ctx, "dao.DeleteMessages", attribute.Int("ids", len(ids)))
	defer func() { telemetry.End(span, err) }()

	uids, err := parseIDs(ids)
	if err != nil || len(uids) == 0 {
		return err
	}
	return storeErr("delete messages", dao.DB.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, uids).
		Delete(&models.Message{}).Error)
}

func (dao *MessageDAO) SetStarred(ctx context.Context, userID string, ids []string, value bool) (err error) {
	ctx, span := telemetry.Start(ctx, "dao.SetStarred", attribute.Int("ids", len(ids)), attribute.Bool("value", value))
	defer func() { telemetry.End(span, err) }()

	uids, err := parseIDs(ids)
	if err != nil || len(uids) == 0 {
		return err
	}
	return storeErr("set starred", dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id = ? AND id IN ?", userID, uids).
		Update("starred", value).Error)
}

func (dao *MessageDAO) DeleteAllMessages(ctx context.Context, userID string) error {
	return storeErr("clear messages", dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Message{}).Error)
}
