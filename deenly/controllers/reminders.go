package controllers

import (
	"context"

	"deenly/deenly/domain"
	"deenly/deenly/services/chat"
	"deenly/deenly/sources/psql/dao"
	"deenly/deenly/sources/psql/models"
	"deenly/deenly/utils/types"

	"github.com/google/uuid"
)

type ReminderController struct {
	dao *dao.ReminderDAO
}

func NewReminderController(dao *dao.ReminderDAO) *ReminderController {
	return &ReminderController{dao: dao}
}

func (c *ReminderController) Create(ctx context.Context, userID string, req types.ReminderRequest) (*models.Reminder, error) {
	if chat.IsGuest(userID) {
		return nil, domain.ErrGuest
	}
	r := &models.Reminder{UserID: userID, Title: req.Title, Note: req.Note, RemindAt: req.RemindAt}
	if err := c.dao.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *ReminderController) List(ctx context.Context, userID string, includeDone bool) ([]models.Reminder, error) {
	if chat.IsGuest(userID) {
		return []models.Reminder{}, nil
	}
	return c.dao.ListReminders(ctx, userID, includeDone)
}

func (c *ReminderController) SetDone(ctx context.Context, userID, id string, done bool) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}
	return c.dao.SetDone(ctx, userID, rid, done)
}

func (c *ReminderController) Delete(ctx context.Context, userID, id string) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}
	return c.dao.DeleteReminder(ctx, userID, rid)
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Message: "invalid id " + id}
	}
	return u, nil
}
