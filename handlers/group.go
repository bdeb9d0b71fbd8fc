package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gift-api/middleware"
	"gift-api/models"
	"gift-api/services"
)

type GroupHandler struct {
	Groups *services.GroupService
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.Groups.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)

	group, err := h.Groups.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := middleware.GetUserID(c)

	groups, err := h.Groups.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.Groups.UpdateMemberRole(c.Request.Context(),
		c.Param("id"), c.Param("memberId"), req.Role, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.Groups.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("memberId"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
