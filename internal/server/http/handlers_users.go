package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeMappedError(r.Context(), w, "create_user", err)
		return
	}

	u, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeMappedError(r.Context(), w, "create_user", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := users.NewQuery()
	if v := strings.TrimSpace(r.URL.Query().Get("id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeMappedError(r.Context(), w, "list_users", fmt.Errorf("%w: id must be an integer", common.ErrorValidation))
			return
		}
		q.ByID(id)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("username")); v != "" {
		q.UsernameContains(v)
	}

	list, err := h.users.FindUsers(r.Context(), q)
	if err != nil {
		h.writeMappedError(r.Context(), w, "list_users", err)
		return
	}

	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeMappedError(r.Context(), w, "update_user", err)
		return
	}
	current, _ := CurrentUserFromContext(r.Context())

	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeMappedError(r.Context(), w, "update_user", err)
		return
	}

	u, err := h.users.UpdateUser(r.Context(), current, id, services.UserUpdate{UserName: req.Username, Password: req.Password})
	if err != nil {
		h.writeMappedError(r.Context(), w, "update_user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeMappedError(r.Context(), w, "delete_user", err)
		return
	}
	current, _ := CurrentUserFromContext(r.Context())

	if err := h.users.DeleteUser(r.Context(), current, id); err != nil {
		h.writeMappedError(r.Context(), w, "delete_user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", common.ErrorValidation)
	}
	return id, nil
}
