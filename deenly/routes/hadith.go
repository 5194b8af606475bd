package routes

import (
	"net/http"

	"deenly/deenly/controllers"

	"github.com/go-chi/chi/v5"
)

// HadithRoutes are public; the library is read-only.
func HadithRoutes(ctrl *controllers.HadithController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Collections(), http.StatusOK, nil
	}))
	r.Get("/search", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Search(r.URL.Query().Get("q")), http.StatusOK, nil
	}))
	r.Get("/{collection}", handleJSON(func(r *http.Request) (any, int, error) {
		col, err := ctrl.Collection(chi.URLParam(r, "collection"))
		if err != nil {
			return nil, 0, err
		}
		return col, http.StatusOK, nil
	}))
	return r
}
