package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.UserName}
}

func toTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		User:         toUserResponse(p.User),
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeMappedError(r.Context(), w, "login", err)
		return
	}

	pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			h.logger.Warn(r.Context(), "login failed", "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		h.writeMappedError(r.Context(), w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeMappedError(r.Context(), w, "refresh", err)
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		h.writeMappedError(r.Context(), w, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

// logout takes the raw refresh token as the body. A JSON string literal is
// accepted as well.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	// an unreadable body logs out nothing and still answers 200
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Debug(r.Context(), "logout body unreadable", "error", err)
		body = nil
	}

	token := strings.TrimSpace(string(body))
	if strings.HasPrefix(token, `"`) {
		var s string
		if err := json.Unmarshal([]byte(token), &s); err == nil {
			token = s
		}
	}

	if err := h.users.Logout(r.Context(), token); err != nil {
		h.writeMappedError(r.Context(), w, "logout", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	current, _ := CurrentUserFromContext(r.Context())

	n, err := h.users.LogoutAll(r.Context(), current)
	if err != nil {
		h.writeMappedError(r.Context(), w, "logout_all", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"revoked": n})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	current, ok := CurrentUserFromContext(r.Context())
	if !ok {
		h.writeMappedError(r.Context(), w, "me", common.ErrorUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: current.UserID, Username: current.UserName})
}
