package routes

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"deenly/deenly/controllers"
	"deenly/deenly/domain"
	"deenly/deenly/middlewares"
	"deenly/deenly/services/chat"
	"deenly/deenly/utils/logging"
	"deenly/deenly/utils/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// wsSendTimeout bounds one question over the websocket, which has no
// request timeout of its own.
const wsSendTimeout = 90 * time.Second

func ChatRoutes(ctrl *controllers.ChatController, auth *middlewares.Authenticator, originPatterns []string) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(auth))
		gr.Use(middleware.Timeout(60 * time.Second))

		// GET /chat/threads?q= : sidebar list, starred first
		gr.Get("/threads", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			ts, err := ctrl.Threads(r.Context(), userID, r.URL.Query().Get("q"))
			if err != nil {
				return nil, 0, err
			}
			return ts, http.StatusOK, nil
		}))

		// GET /chat/messages?thread= : one thread, or everything when unknown
		gr.Get("/messages", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			msgs, err := ctrl.Messages(r.Context(), userID, r.URL.Query().Get("thread"))
			if err != nil {
				return nil, 0, err
			}
			return msgs, http.StatusOK, nil
		}))

		gr.Get("/active", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			msgs, err := ctrl.Active(r.Context(), userID)
			if err != nil {
				return nil, 0, err
			}
			return msgs, http.StatusOK, nil
		}))

		// POST /chat/ : send message
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.ChatRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			res, err := ctrl.Send(r.Context(), userID, req.Content)
			if err != nil {
				return nil, 0, err
			}
			return res, http.StatusOK, nil
		}))

		// POST toggles, PUT sets an explicit value
		gr.Post("/threads/{id}/star", handleJSON(func(r *http.Request) (any, int, error) {
			return applyToThread(r, ctrl, chat.MutationToggleStar)
		}))
		gr.Put("/threads/{id}/star", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.StarRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			m := chat.MutationUnstar
			if *req.Starred {
				m = chat.MutationStar
			}
			return applyToThread(r, ctrl, m)
		}))
		gr.Delete("/threads/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			return applyToThread(r, ctrl, chat.MutationDelete)
		}))

		gr.Delete("/messages", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			if err := ctrl.ClearAll(r.Context(), userID); err != nil {
				return nil, 0, err
			}
			return nil, http.StatusNoContent, nil
		}))

		gr.Post("/export", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			key, err := ctrl.Export(r.Context(), userID)
			if err != nil {
				return nil, 0, err
			}
			return map[string]string{"key": key}, http.StatusCreated, nil
		}))
	})

	// the browser cannot set headers on a websocket, so the first frame
	// carries the token
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		var first types.WSMessage
		if err := wsjson.Read(ctx, conn, &first); err != nil {
			conn.Close(websocket.StatusUnsupportedData, "invalid json")
			return
		}
		userID, err := auth.ParseToken(first.Token)
		if err != nil {
			wsjson.Write(ctx, conn, map[string]string{"error": "invalid token"})
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}
		logging.AppLogger.Info("chat websocket opened", zap.String("user_id", userID))

		msg := first
		for {
			if msg.Content != "" {
				if err := wsSend(ctx, conn, ctrl, userID, msg.Content); err != nil {
					return
				}
			}
			msg = types.WSMessage{}
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
					conn.Close(websocket.StatusNormalClosure, "")
				}
				return
			}
		}
	})
	return r
}

func applyToThread(r *http.Request, ctrl *controllers.ChatController, m chat.Mutation) (any, int, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, 0, err
	}
	upd, err := ctrl.ApplyToThread(r.Context(), userID, chi.URLParam(r, "id"), m)
	if err != nil {
		return nil, 0, err
	}
	return upd, http.StatusOK, nil
}

// wsSend answers one question. Only write failures are returned; domain
// errors go back to the client as an error frame.
func wsSend(ctx context.Context, conn *websocket.Conn, ctrl *controllers.ChatController, userID, content string) error {
	sctx, cancel := context.WithTimeout(ctx, wsSendTimeout)
	defer cancel()

	res, err := ctrl.Send(sctx, userID, content)
	if err != nil {
		if domain.StatusFor(err) >= http.StatusInternalServerError {
			logging.ErrorLogger.Error("websocket send failed", zap.String("user_id", userID), zap.Error(err))
		}
		return wsjson.Write(ctx, conn, map[string]string{"error": err.Error()})
	}
	return wsjson.Write(ctx, conn, res)
}

// OriginPatterns turns CORS origins into the host patterns the websocket
// handshake checks.
func OriginPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}
