package routes

import (
	"net/http"

	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/utils/types"

	"github.com/go-chi/chi/v5"
)

func MemoryRoutes(ctrl *controllers.ChatController, auth *middlewares.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(auth))

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		mems, err := ctrl.ListMemories(r.Context(), userID)
		if err != nil {
			return nil, 0, err
		}
		return mems, http.StatusOK, nil
	}))

	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.MemoryRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, 0, err
		}
		mem, err := ctrl.AddMemory(r.Context(), userID, req.Content)
		if err != nil {
			return nil, 0, err
		}
		return mem, http.StatusCreated, nil
	}))

	r.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		if err := ctrl.DeleteMemory(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			return nil, 0, err
		}
		return nil, http.StatusNoContent, nil
	}))

	return r
}
