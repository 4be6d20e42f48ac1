package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/validation"
)

type userResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	IsActive      bool     `json:"isActive"`
	EmailVerified bool     `json:"emailVerified"`
	CreatedAt     string   `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		Permissions:   perms,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     formatTime(u.CreatedAt),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	if !validation.IsValidEmail(req.Email) {
		respondMessage(w, http.StatusBadRequest, "invalid email")
		return
	}

	if len(req.Password) < validation.MinPasswordLength {
		respondMessage(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	res, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err, "register user error", zap.String("email", req.Email))
		return
	}

	token, err := h.authMiddleware.IssueToken(res.User.ID)
	if err != nil {
		h.respondError(w, err, "issue token error")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User:  toUserResponse(res.User),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и выдачу токена.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err, "login error", zap.String("email", req.Email))
		return
	}

	token, err := h.authMiddleware.IssueToken(user.ID)
	if err != nil {
		h.respondError(w, err, "issue token error")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Verify возвращает пользователя, которому принадлежит предъявленный токен.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}

// VerifyEmail подтверждает email пользователя по токену из письма.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondMessage(w, http.StatusBadRequest, "verification token required")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		h.respondError(w, err, "verify email error")
		return
	}

	respondMessage(w, http.StatusOK, "email verified")
}
