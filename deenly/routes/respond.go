package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"deenly/deenly/domain"
	"deenly/deenly/middlewares"
	"deenly/deenly/utils/logging"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// generic wrapper to reduce boilerplate. A zero status on error means the
// status is derived from the error.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			if status == 0 {
				status = domain.StatusFor(err)
			}
			writeError(w, r, status, err)
			return
		}
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// decodeJSON reads the body into v and runs its validation rules.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Message: "invalid json: " + err.Error()}
	}
	if val, ok := v.(validation.Validatable); ok {
		if err := val.Validate(); err != nil {
			var internal validation.InternalError
			if errors.As(err, &internal) {
				return err
			}
			return &domain.ValidationError{Message: err.Error()}
		}
	}
	return nil
}

func currentUser(r *http.Request) (string, error) {
	id, ok := middlewares.UserID(r.Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}
