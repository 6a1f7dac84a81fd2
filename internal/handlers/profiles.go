package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"codecritic-backend/internal/models"
	"codecritic-backend/internal/supabase"
)

const maxAvatarBytes = 2 << 20 // 2 MiB

type ProfilesHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewProfilesHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ProfilesHandler {
	return &ProfilesHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// GetProfile godoc
// @Summary     Get the caller's profile
// @Description Creates the profile row on first authenticated access.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProfileResponse
// @Router      /profile [get]
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	profile, err := h.dbClient.GetOrCreateProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load profile",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, profileResponse(profile))
}

// UpdateProfile godoc
// @Summary     Update the caller's display name
// @Tags        profiles
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.ProfileResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /profile [put]
func (h *ProfilesHandler) UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if _, err := h.dbClient.GetOrCreateProfile(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load profile",
			Message: err.Error(),
		})
		return
	}

	profile, err := h.dbClient.UpdateProfile(userID, req.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update profile",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, profileResponse(profile))
}

// UploadAvatar godoc
// @Summary     Upload a profile avatar
// @Tags        profiles
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       avatar formData file true "Avatar image"
// @Success     200 {object} models.ProfileResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /profile/avatar [post]
func (h *ProfilesHandler) UploadAvatar(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing avatar file"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "avatar too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read avatar file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read avatar file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "avatar must be an image"})
		return
	}

	if _, err := h.dbClient.GetOrCreateProfile(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load profile",
			Message: err.Error(),
		})
		return
	}

	// Avatar filenames are timestamped, so clear out previous uploads
	// rather than letting them accumulate.
	_ = h.storageClient.DeleteUserAvatars(userID)

	filename := fmt.Sprintf("avatar_%d%s", time.Now().Unix(), filepath.Ext(fileHeader.Filename))
	_, publicURL, err := h.storageClient.UploadAvatar(userID, filename, contentType, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store avatar",
			Message: err.Error(),
		})
		return
	}

	if err := h.dbClient.UpdateAvatar(userID, publicURL); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update avatar",
			Message: err.Error(),
		})
		return
	}

	profile, err := h.dbClient.GetOrCreateProfile(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load profile",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, profileResponse(profile))
}

func profileResponse(p *models.UserProfile) models.ProfileResponse {
	resp := models.ProfileResponse{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName.String,
		AvatarURL:   p.AvatarURL.String,
		IsPremium:   p.IsPremium,
		Credits:     p.Credits,
		CreatedAt:   p.CreatedAt,
	}
	if p.PremiumSince.Valid {
		t := p.PremiumSince.Time
		resp.PremiumSince = &t
	}
	return resp
}
