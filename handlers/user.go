package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-api/middleware"
	"gift-api/models"
	"gift-api/services"
	"gift-api/storage"
	"gift-api/utils"
)

// UserHandler covers the account surface: profile, managed accounts and
// two-factor setup.
type UserHandler struct {
	Store    storage.Store
	Accounts *services.AccountService
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateChild(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	child, err := h.Accounts.CreateChild(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, child)
}

func (h *UserHandler) ListChildren(c *gin.Context) {
	userID := middleware.GetUserID(c)

	children, err := h.Accounts.ListChildren(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if children == nil {
		children = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"children": children})
}

func (h *UserHandler) SetupTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	accountName := user.Name
	if user.Email != nil {
		accountName = *user.Email
	}

	secret, url, err := utils.GenerateTOTPSecret(accountName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate secret"})
		return
	}

	// Stored disabled until the first code is verified.
	if err := h.Store.UpdateUserTOTP(c.Request.Context(), userID, secret, false); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{Secret: secret, QRCode: url})
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if user.TOTPSecret == "" || !utils.VerifyTOTP(user.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if err := h.Store.UpdateUserTOTP(c.Request.Context(), userID, user.TOTPSecret, true); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled"})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.Store.UpdateUserTOTP(c.Request.Context(), userID, "", false); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled"})
}
