package controllers

import (
	"context"

	"deenly/deenly/middlewares"
	"deenly/deenly/services/chat"
	"deenly/deenly/sources/psql/dao"
	"deenly/deenly/sources/psql/models"
	"deenly/deenly/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthController struct {
	userDAO *dao.UserDAO
	auth    *middlewares.Authenticator
}

func NewAuthController(userDAO *dao.UserDAO, auth *middlewares.Authenticator) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		auth:    auth,
	}
}

// Login issues a token for username, creating the account on first use.
func (c *AuthController) Login(ctx context.Context, username string) (string, error) {
	user, err := c.userDAO.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		// Auto-create with dummy email
		user = &models.User{Username: username, Email: username + "@example.com"}
		if err := c.userDAO.CreateUser(ctx, user); err != nil {
			return "", err
		}
		logging.AppLogger.Info("user created", zap.String("user_id", user.ID), zap.String("username", username))
	}
	return c.auth.IssueToken(user.ID)
}

// Guest issues a token for a fresh guest identity. Its history lives only
// in memory.
func (c *AuthController) Guest() (string, string, error) {
	id := chat.GuestID + ":" + uuid.NewString()
	token, err := c.auth.IssueToken(id)
	return token, id, err
}
