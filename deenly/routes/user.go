package routes

import (
	"net/http"

	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/utils/types"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(ctrl *controllers.UserController, auth *middlewares.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(auth))

	r.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		user, err := ctrl.GetUser(r.Context(), id)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	r.Put("/me", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.UpdateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, 0, err
		}
		user, err := ctrl.UpdateUser(r.Context(), id, req)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	r.Put("/me/premium", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.PremiumRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, 0, err
		}
		user, err := ctrl.SetPremium(r.Context(), id, *req.IsPremium)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	return r
}
