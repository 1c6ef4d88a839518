package handler

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, errBadRequest("email and password required"))
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !user.Active {
		writeError(w, r, errUnauthorized(appI18n.T(r.Context(), "LoginError")))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, r, errUnauthorized(appI18n.T(r.Context(), "LoginError")))
		return
	}

	tok, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: tok, User: *user})
}

// requireAuth is middleware that verifies the bearer token and attaches the
// authenticated user to the request context. The downstream controller is
// never invoked on failure.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, r, errUnauthorized("authorization header required"))
			return
		}
		const scheme = "Bearer "
		if !strings.HasPrefix(authHeader, scheme) {
			writeError(w, r, errUnauthorized("bearer token required"))
			return
		}
		tokenStr := strings.TrimSpace(authHeader[len(scheme):])
		if tokenStr == "" {
			writeError(w, r, errUnauthorized("bearer token required"))
			return
		}

		claims, err := h.tokens.Verify(tokenStr)
		if err != nil {
			writeError(w, r, errUnauthorized("invalid or expired token"))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			writeError(w, r, errUnauthorized("invalid or expired token"))
			return
		}

		user, err := h.store.GetUserByID(userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if user == nil || !user.Active {
			writeError(w, r, errUnauthorized("unknown or inactive user"))
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission returns middleware that checks the authenticated user's
// role against a permission predicate (e.g. model.Role.CanManageUsers).
func requirePermission(allowed func(model.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, errUnauthorized("unauthorized"))
				return
			}
			if !allowed(user.Role) {
				writeError(w, r, errForbidden(appI18n.T(r.Context(), "Forbidden")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
