package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/validation"
)

// GetProfile возвращает профиль текущего пользователя.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile обновляет имя и email текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		req.Name = user.Name
	}
	if req.Email == "" {
		req.Email = user.Email
	}

	if !validation.IsValidEmail(req.Email) {
		respondMessage(w, http.StatusBadRequest, "invalid email")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		h.respondError(w, err, "update profile error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(updated))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondMessage(w, http.StatusBadRequest, "current and new passwords are required")
		return
	}

	if len(req.NewPassword) < validation.MinPasswordLength {
		respondMessage(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(w, err, "change password error", zap.Int64("userID", user.ID))
		return
	}

	respondMessage(w, http.StatusOK, "password updated")
}

type addressRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

type addressResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

func toAddressResponses(addresses []model.Address) []addressResponse {
	res := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		res = append(res, addressResponse{
			ID:         a.ID,
			Name:       a.Name,
			Phone:      a.Phone,
			Street:     a.Street,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			IsDefault:  a.IsDefault,
		})
	}
	return res
}

// ListAddresses возвращает адреса текущего пользователя.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err, "list addresses error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toAddressResponses(addresses))
}

// AddAddress добавляет адрес текущему пользователю.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Phone == "" || req.Street == "" || req.City == "" || req.PostalCode == "" {
		respondMessage(w, http.StatusBadRequest, "name, phone, street, city and postal code are required")
		return
	}

	addresses, err := h.service.AddAddress(r.Context(), user.ID, model.Address{
		Name:       req.Name,
		Phone:      req.Phone,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.respondError(w, err, "add address error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusCreated, toAddressResponses(addresses))
}

// UpdateAddress обновляет адрес текущего пользователя.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	addressID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid address id")
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addresses, err := h.service.UpdateAddress(r.Context(), user.ID, addressID, model.Address{
		Name:       req.Name,
		Phone:      req.Phone,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.respondError(w, err, "update address error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toAddressResponses(addresses))
}

// DeleteAddress удаляет адрес текущего пользователя.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	addressID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid address id")
		return
	}

	addresses, err := h.service.DeleteAddress(r.Context(), user.ID, addressID)
	if err != nil {
		h.respondError(w, err, "delete address error", zap.Int64("userID", user.ID))
		return
	}

	respondJSON(w, http.StatusOK, toAddressResponses(addresses))
}
