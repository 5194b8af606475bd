package controllers

import (
	"context"

	"deenly/deenly/domain"
	"deenly/deenly/services/chat"
	"deenly/deenly/sources/psql/dao"
	"deenly/deenly/sources/psql/models"
	"deenly/deenly/utils/types"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

type Profile struct {
	*models.User
	Guest bool `json:"guest"`
}

func (c *UserController) GetUser(ctx context.Context, id string) (Profile, error) {
	if chat.IsGuest(id) {
		return Profile{User: &models.User{ID: id, Username: chat.GuestID}, Guest: true}, nil
	}
	user, err := c.dao.GetUserByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if user == nil {
		return Profile{}, domain.ErrNotFound
	}
	return Profile{User: user}, nil
}

func (c *UserController) UpdateUser(ctx context.Context, id string, req types.UpdateUserRequest) (Profile, error) {
	if chat.IsGuest(id) {
		return Profile{}, domain.ErrGuest
	}
	p, err := c.GetUser(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.FullName != nil {
		p.FullName = req.FullName
	}
	if err := c.dao.UpdateUser(ctx, p.User); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SetPremium flips the subscription flag. Billing is handled elsewhere.
func (c *UserController) SetPremium(ctx context.Context, id string, premium bool) (Profile, error) {
	if chat.IsGuest(id) {
		return Profile{}, domain.ErrGuest
	}
	if err := c.dao.SetPremium(ctx, id, premium); err != nil {
		return Profile{}, err
	}
	return c.GetUser(ctx, id)
}
