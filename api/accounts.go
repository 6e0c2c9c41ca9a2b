package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"widget-dashboard/auth"
	"widget-dashboard/preference"
	"widget-dashboard/userstore"
	"widget-dashboard/widget"
)

var validate = validator.New()

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// visibleByDefault are the widgets a new account starts with switched on.
var visibleByDefault = map[string]bool{"1": true, "11": true, "12": true}

// DefaultArrangement lists every registered widget in registry order with
// only the starter widgets visible.
func DefaultArrangement(reg *widget.Registry) preference.Set {
	set := preference.Set{}
	for _, e := range reg.Entries() {
		set = append(set, preference.Descriptor{ID: e.ID, Label: e.Label, IsVisible: visibleByDefault[e.ID]})
	}
	return set
}

func decodeCredentials(r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.Email = userstore.NormalizeEmail(req.Email)
	return req, validate.Struct(req) == nil
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to register", http.StatusInternalServerError)
		return
	}
	err = h.store.CreateUser(r.Context(), userstore.User{
		Email:        req.Email,
		PasswordHash: hash,
		Components:   DefaultArrangement(h.registry),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrUserExists) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.Error("create user", zap.Error(err))
		http.Error(w, "failed to register", http.StatusInternalServerError)
		return
	}

	h.logger.Info("registered user", zap.String("email", req.Email))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful. You can now log in."})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.loginLimiter.Allow() {
		metricLogins.WithLabelValues("limited").Inc()
		http.Error(w, "too many login attempts", http.StatusTooManyRequests)
		return
	}
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.store.User(r.Context(), req.Email)
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if err != nil {
		if !errors.Is(err, userstore.ErrUserNotFound) && !errors.Is(err, auth.ErrBadPassword) {
			h.logger.Error("login lookup", zap.Error(err))
			http.Error(w, "failed to log in", http.StatusInternalServerError)
			return
		}
		metricLogins.WithLabelValues("rejected").Inc()
		http.Error(w, "Invalid email or password", http.StatusBadRequest)
		return
	}

	token, expires, err := h.tokens.Issue(u.Email)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}
	metricLogins.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expires,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.store.User(r.Context(), email)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.OldPassword); err != nil {
		http.Error(w, "Old password is incorrect", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "failed to change password", http.StatusInternalServerError)
		return
	}
	if err := h.store.UpdatePassword(r.Context(), email, hash); err != nil {
		h.storeError(w, err)
		return
	}
	h.logger.Info("password changed", zap.String("email", email))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
