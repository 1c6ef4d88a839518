package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/proctor/internal/model"
)

type userRequest struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Password    string     `json:"password"`
	Role        model.Role `json:"role"`
	Active      *bool      `json:"active"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, errNotFound("user not found"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, errBadRequest("email and password required"))
		return
	}
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		writeError(w, r, errBadRequest("unknown role %q", req.Role))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Email
	}

	id, err := h.store.CreateUser(model.User{
		Email:        req.Email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, errNotFound("user not found"))
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, r, errNotFound("user not found"))
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u := *existing
	if req.DisplayName != "" {
		u.DisplayName = req.DisplayName
	}
	if req.Role != "" {
		if !req.Role.Valid() {
			writeError(w, r, errBadRequest("unknown role %q", req.Role))
			return
		}
		u.Role = req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	u.PasswordHash = ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, r, err)
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := h.store.UpdateUser(u); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.store.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if updated == nil {
		writeError(w, r, errNotFound("user not found"))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if self := model.UserFromContext(r.Context()); self != nil && self.ID == id {
		writeError(w, r, errBadRequest("cannot delete your own account"))
		return
	}
	if err := h.store.DeleteUser(id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("deleted user", "id", id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
