package routes

import (
	"net/http"

	"deenly/deenly/controllers"
	"deenly/deenly/utils/types"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, 0, err
		}
		token, err := ctrl.Login(r.Context(), req.Username)
		if err != nil {
			return nil, 0, err
		}
		return map[string]string{"token": token}, http.StatusOK, nil
	}))
	r.Post("/guest", handleJSON(func(r *http.Request) (any, int, error) {
		token, id, err := ctrl.Guest()
		if err != nil {
			return nil, 0, err
		}
		return map[string]string{"token": token, "user_id": id}, http.StatusOK, nil
	}))
	return r
}
