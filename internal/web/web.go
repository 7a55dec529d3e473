package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/service"
)

//go:embed templates
var content embed.FS

// OIDCAuthenticator runs the authorization code flow against an identity
// provider. *auth.OIDCProvider implements it.
type OIDCAuthenticator interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (*auth.OIDCClaims, error)
}

// Options holds the dependencies of the web UI.
type Options struct {
	Posts    *service.PostService
	Users    *service.UserService
	Sessions *auth.SessionManager
	OIDC     OIDCAuthenticator // nil disables OIDC login
	Logger   *slog.Logger
}

// Server holds dependencies for web handlers.
type Server struct {
	posts     *service.PostService
	users     *service.UserService
	sessions  *auth.SessionManager
	oidc      OIDCAuthenticator
	logger    *slog.Logger
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// NewRouter creates a new web router with all routes configured.
func NewRouter(opts Options) http.Handler {
	s := &Server{
		posts:    opts.Posts,
		users:    opts.Users,
		sessions: opts.Sessions,
		oidc:     opts.OIDC,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.templates = s.parseTemplates()

	r := chi.NewRouter()
	r.Use(s.loadIdentity)

	// Public routes
	r.Get("/", s.handleIndex)
	r.Get("/group/{slug}/", s.handleGroupPosts)
	r.Get("/profile/{username}/", s.handleProfile)
	r.Get("/posts/{post_id}/", s.handlePostDetail)
	r.Get("/search/", s.handleSearch)

	r.Get("/auth/login/", s.handleLoginPage)
	r.Post("/auth/login/", s.handleLogin)
	r.Get("/auth/logout/", s.handleLogout)
	r.Get("/auth/oidc/login", s.handleOIDCLogin)
	r.Get("/auth/oidc/callback", s.handleOIDCCallback)

	// Authoring routes (require login)
	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)

		r.Get("/create/", s.handlePostCreateForm)
		r.Post("/create/", s.handlePostCreate)
		r.Get("/posts/{post_id}/edit/", s.handlePostEditForm)
		r.Post("/posts/{post_id}/edit/", s.handlePostEdit)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound)
	})

	return r
}

// parseTemplates parses every page together with the base layout and the
// shared components. It panics on a malformed template.
func (s *Server) parseTemplates() map[string]*template.Template {
	s.funcMap = template.FuncMap{
		"dict":     dict,
		"pageURL":  pageURL,
		"date":     formatDate,
		"truncate": truncateWords,
		"itoa":     strconv.FormatInt,
	}

	templates := make(map[string]*template.Template)

	base, err := template.New("layout").Funcs(s.funcMap).ParseFS(content, "templates/base.html", "templates/components/*.html")
	if err != nil {
		panic("failed to parse layout: " + err.Error())
	}

	pageFiles, _ := fs.Glob(content, "templates/pages/*.html")
	for _, pagePath := range pageFiles {
		pageName := strings.TrimSuffix(filepath.Base(pagePath), ".html")

		tmpl, err := template.Must(base.Clone()).ParseFS(content, pagePath)
		if err != nil {
			panic("failed to parse template " + pageName + ": " + err.Error())
		}
		templates[pageName] = tmpl
	}

	return templates
}

// dict creates a map from key-value pairs for use in templates.
func dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		m[key] = values[i+1]
	}
	return m
}

// pageURL links to page n of the listing at path, keeping a search query.
func pageURL(path, query string, n int) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	v.Set("page", strconv.Itoa(n))
	return path + "?" + v.Encode()
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// truncateWords shortens s to at most n words.
func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// PageData holds common data passed to all page templates.
type PageData struct {
	Title       string
	Active      string // Current nav item
	Flash       *FlashMessage
	User        service.Identity
	OIDCEnabled bool
	Content     any
}

// FlashMessage represents a flash message.
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}
