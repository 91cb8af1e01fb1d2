// Profile HTTP handlers.
//
// This file exposes endpoints for the authenticated user's own profile:
//   - GET   /users/me   (fetch profile and preferences)
//   - PATCH /users/me   (partial update; preference dimensions merge)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for a profile patch. Absent fields
// are left untouched; preference dimensions merge individually.
type UpdateProfileRequest struct {
	Username    *string             `json:"username,omitempty" example:"ruth_reader"`
	FirstName   *string             `json:"first_name,omitempty" example:"Ruth"`
	Preferences *domain.Preferences `json:"preferences,omitempty"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch the current user's profile
// @Tags        Users
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
//
// @Success     200  {object} handlers.Envelope{data=domain.User}
// @Failure     404  {object} handlers.Envelope "User not found"
// @Router      /users/me [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	u, err := h.userSvc.GetOrProvision(c.Request.Context(), userID(c), userEmail(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Description Applies a partial update. Preference values outside their allowed sets are rejected.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       body           body    handlers.UpdateProfileRequest true "Profile patch"
//
// @Success     200  {object} handlers.Envelope{data=domain.User}
// @Failure     400  {object} handlers.Envelope "Invalid preference value"
// @Failure     404  {object} handlers.Envelope "User not found"
// @Router      /users/me [patch]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), userID(c), services.ProfileUpdate{
		Username:    req.Username,
		FirstName:   req.FirstName,
		Preferences: req.Preferences,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPreference):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, u)
}
