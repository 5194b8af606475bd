package routes

import (
	"net/http"
	"time"

	"deenly/deenly/controllers"
	"deenly/deenly/middlewares"
	"deenly/deenly/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Controllers struct {
	Auth      *controllers.AuthController
	User      *controllers.UserController
	Chat      *controllers.ChatController
	Reminders *controllers.ReminderController
	Hadith    *controllers.HadithController
	Health    *controllers.HealthController
}

// NewRouter mounts every route group behind the shared middleware stack.
func NewRouter(c Controllers, auth *middlewares.Authenticator, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestMiddleware)
	r.Use(middleware.Recoverer)

	// CORS must run before auth to answer pre-flight requests
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.Mount("/health", HealthRoutes(c.Health))
	r.Mount("/auth", AuthRoutes(c.Auth))
	r.Mount("/hadiths", HadithRoutes(c.Hadith))

	// the websocket lives for the whole conversation, so it stays outside
	// the request timeout
	chatRoutes := ChatRoutes(c.Chat, auth, OriginPatterns(corsOrigins))
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(60 * time.Second))
		gr.Mount("/users", UserRoutes(c.User, auth))
		gr.Mount("/memories", MemoryRoutes(c.Chat, auth))
		gr.Mount("/reminders", ReminderRoutes(c.Reminders, auth))
	})
	r.Mount("/chat", chatRoutes)
	return r
}
