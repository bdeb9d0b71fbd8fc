package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"gift-api/middleware"
	"gift-api/models"
	"gift-api/services"
)

type GiftHandler struct {
	Gifts     *services.GiftService
	WS        *WSHandler
	validator *validator.Validate
}

func NewGiftHandler(gifts *services.GiftService, ws *WSHandler) *GiftHandler {
	return &GiftHandler{
		Gifts:     gifts,
		WS:        ws,
		validator: validator.New(),
	}
}

func (h *GiftHandler) ProposeGift(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")

	var req models.ProposeGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift, err := h.Gifts.Propose(c.Request.Context(), groupID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(groupID, "gift_proposed", userID)
	c.JSON(http.StatusCreated, gift)
}

func (h *GiftHandler) ListGifts(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")

	gifts, err := h.Gifts.ListByGroup(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if gifts == nil {
		gifts = []models.GiftIdea{}
	}
	c.JSON(http.StatusOK, gin.H{"gifts": gifts})
}

// ClaimGift moves a gift to buying for the caller, or for one of their
// managed accounts when the body names one. Losing the race answers 409.
func (h *GiftHandler) ClaimGift(c *gin.Context) {
	userID := middleware.GetUserID(c)
	giftID := c.Param("id")

	var req models.ClaimGiftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	claimantID := req.BuyerID
	if claimantID == "" {
		claimantID = userID
	}

	gift, err := h.Gifts.Claim(c.Request.Context(), giftID, claimantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(gift.GroupID, "gift_claimed", userID)
	c.JSON(http.StatusOK, gift)
}

func (h *GiftHandler) MarkGiftBought(c *gin.Context) {
	userID := middleware.GetUserID(c)
	giftID := c.Param("id")

	var req models.ClaimGiftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	buyerID := req.BuyerID
	if buyerID == "" {
		buyerID = userID
	}

	gift, err := h.Gifts.MarkBought(c.Request.Context(), giftID, buyerID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(gift.GroupID, "gift_bought", userID)
	c.JSON(http.StatusOK, gift)
}

func (h *GiftHandler) ReleaseGiftClaim(c *gin.Context) {
	userID := middleware.GetUserID(c)
	giftID := c.Param("id")

	var req models.ClaimGiftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	buyerID := req.BuyerID
	if buyerID == "" {
		buyerID = userID
	}

	gift, err := h.Gifts.Release(c.Request.Context(), giftID, buyerID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(gift.GroupID, "gift_released", userID)
	c.JSON(http.StatusOK, gift)
}

func (h *GiftHandler) DeleteGift(c *gin.Context) {
	userID := middleware.GetUserID(c)
	giftID := c.Param("id")

	gift, err := h.Gifts.Get(c.Request.Context(), giftID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Gifts.Delete(c.Request.Context(), giftID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(gift.GroupID, "gift_deleted", userID)
	c.Status(http.StatusNoContent)
}
