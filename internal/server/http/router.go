// Package http exposes the authentication and account API over HTTP.
package http

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, accessToken, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, current *models.CurrentUser) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUsers(ctx context.Context, q *users.Query) ([]*models.User, error)
	UpdateUser(ctx context.Context, current *models.CurrentUser, id int64, upd services.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, current *models.CurrentUser, id int64) error
}

type Handler struct {
	users  UserService
	codec  *auth.AccessCodec
	logger logging.Logger
}

func NewHandler(us UserService, codec *auth.AccessCodec, l logging.Logger) *Handler {
	return &Handler{users: us, codec: codec, logger: l.With("module", "http")}
}

// NewRouter registers the routes. Everything outside the public group goes
// through Authenticate.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(h.logger))
	r.Use(loggingMiddleware(h.logger))

	r.Get("/healthz", h.healthz)

	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
	r.Post("/auth/logout", h.logout)
	r.Post("/users", h.createUser)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.codec, h.logger))
		r.Get("/auth/me", h.me)
		r.Post("/auth/logout-all", h.logoutAll)
		r.Get("/users", h.listUsers)
		r.Put("/users/{id}", h.updateUser)
		r.Delete("/users/{id}", h.deleteUser)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
