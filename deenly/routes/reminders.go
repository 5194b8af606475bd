package routes

import (
	"net/http"

	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/utils/types"

	"github.com/go-chi/chi/v5"
)

func ReminderRoutes(ctrl *controllers.ReminderController, auth *middlewares.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(auth))

	// GET /reminders?all=true includes done ones
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		list, err := ctrl.List(r.Context(), userID, r.URL.Query().Get("all") == "true")
		if err != nil {
			return nil, 0, err
		}
		return list, http.StatusOK, nil
	}))

	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.ReminderRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, 0, err
		}
		rem, err := ctrl.Create(r.Context(), userID, req)
		if err != nil {
			return nil, 0, err
		}
		return rem, http.StatusCreated, nil
	}))

	r.Put("/{id}/done", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		// an empty body marks the reminder done
		var req types.DoneRequest
		if r.ContentLength > 0 {
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
		}
		done := true
		if req.Done != nil {
			done = *req.Done
		}
		if err := ctrl.SetDone(r.Context(), userID, chi.URLParam(r, "id"), done); err != nil {
			return nil, 0, err
		}
		return map[string]bool{"done": done}, http.StatusOK, nil
	}))

	r.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		if err := ctrl.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			return nil, 0, err
		}
		return nil, http.StatusNoContent, nil
	}))

	return r
}
