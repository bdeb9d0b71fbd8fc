package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-api/middleware"
	"gift-api/models"
	"gift-api/services"
	"gift-api/utils"
)

type InvitationHandler struct {
	Invitations *services.InvitationService
	Accounts    *services.AccountService
	Groups      *services.GroupService
}

// CreateInvitation issues a token for a group and emails it when the
// request names a recipient. Email failure does not fail the request.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")

	var req models.InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.Invitations.Create(c.Request.Context(), groupID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Email != "" {
		inviter, err := h.Accounts.GetUser(c.Request.Context(), userID)
		inviterName := "A group member"
		if err == nil {
			inviterName = inviter.Name
		}

		groupName := "a gift group"
		if group, err := h.Groups.Get(c.Request.Context(), groupID, userID); err == nil {
			groupName = group.Name
		}

		if err := utils.SendInvitationEmail(req.Email, inviterName, groupName, inv.Token); err != nil {
			slog.Warn("invitation email failed", "group_id", groupID, "error", err)
			c.JSON(http.StatusCreated, gin.H{
				"invitation": inv,
				"warning":    "Invitation created but email failed to send",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"invitation": inv})
}

// ResolveInvitation is a read-only token lookup: 404 unknown, 410 expired.
func (h *InvitationHandler) ResolveInvitation(c *gin.Context) {
	resolved, err := h.Invitations.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// AcceptInvitation redeems a token for the caller and/or their managed
// accounts. Repeat submissions succeed and report already_member.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Invitations.Accept(c.Request.Context(), req.Token, req.AccountIDs, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
