package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bcnelson/yatube/internal/api/handler"
	"github.com/bcnelson/yatube/internal/api/middleware"
	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/service"
	"github.com/bcnelson/yatube/internal/storage"
	"github.com/bcnelson/yatube/internal/web"
)

// Deps holds what the router needs to build the web UI and the JSON API.
type Deps struct {
	Store        storage.Storage
	Posts        *service.PostService
	Users        *service.UserService
	Sessions     *auth.SessionManager
	OIDC         web.OIDCAuthenticator // nil disables OIDC login
	BootstrapKey string
	Logger       *slog.Logger
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(deps.Store, deps.BootstrapKey, logger))

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(service.NewKeyService(deps.Store, logger))
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys", keyHandler.List)
		r.Delete("/keys/{id}", keyHandler.Delete)

		// Groups
		groupHandler := handler.NewGroupHandler(deps.Store, deps.Posts.PageSize(), logger)
		r.Post("/groups", groupHandler.Create)
		r.Get("/groups", groupHandler.List)
		r.Get("/groups/{slug}", groupHandler.Get)
		r.Put("/groups/{slug}", groupHandler.Update)
		r.Delete("/groups/{slug}", groupHandler.Delete)

		// Users
		userHandler := handler.NewUserHandler(deps.Users)
		r.Post("/users", userHandler.Create)
		r.Get("/users/{username}", userHandler.Get)
		r.Delete("/users/{username}", userHandler.Delete)

		// Posts (read-only)
		postHandler := handler.NewPostHandler(deps.Posts)
		r.Get("/posts", postHandler.List)
		r.Get("/posts/{id}", postHandler.Get)
	})

	// Mount web UI (no Content-Type middleware - serves HTML)
	r.Mount("/", web.NewRouter(web.Options{
		Posts:    deps.Posts,
		Users:    deps.Users,
		Sessions: deps.Sessions,
		OIDC:     deps.OIDC,
		Logger:   logger,
	}))

	return r
}
