package routes

import (
	"github.com/gin-gonic/gin"

	"gift-api/handlers"
	"gift-api/services"
	"gift-api/storage"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, store storage.Store) {
	authHandler := &handlers.AuthHandler{Store: store}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
}

// SetupUserRoutes sets up protected account routes: profile, managed
// accounts and 2FA.
func SetupUserRoutes(rg *gin.RouterGroup, store storage.Store, accounts *services.AccountService) {
	userHandler := &handlers.UserHandler{Store: store, Accounts: accounts}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.GET("/user/children", userHandler.ListChildren)
	rg.POST("/user/children", userHandler.CreateChild)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}

// SetupGroupRoutes sets up group, membership and gift routes.
func SetupGroupRoutes(rg *gin.RouterGroup, groups *services.GroupService, gifts *services.GiftService, ws *handlers.WSHandler) {
	groupHandler := &handlers.GroupHandler{Groups: groups}
	giftHandler := handlers.NewGiftHandler(gifts, ws)

	rg.POST("/groups", groupHandler.CreateGroup)
	rg.GET("/groups", groupHandler.ListGroups)
	rg.GET("/groups/:id", groupHandler.GetGroup)

	rg.PUT("/groups/:id/members/:memberId", groupHandler.UpdateMemberRole)
	rg.DELETE("/groups/:id/members/:memberId", groupHandler.RemoveMember)

	rg.POST("/groups/:id/gifts", giftHandler.ProposeGift)
	rg.GET("/groups/:id/gifts", giftHandler.ListGifts)
	rg.POST("/gifts/:id/claim", giftHandler.ClaimGift)
	rg.POST("/gifts/:id/bought", giftHandler.MarkGiftBought)
	rg.POST("/gifts/:id/release", giftHandler.ReleaseGiftClaim)
	rg.DELETE("/gifts/:id", giftHandler.DeleteGift)
}

// SetupInvitationRoutes sets up invitation creation and redemption.
func SetupInvitationRoutes(rg *gin.RouterGroup, invitations *services.InvitationService, accounts *services.AccountService, groups *services.GroupService) {
	invitationHandler := &handlers.InvitationHandler{
		Invitations: invitations,
		Accounts:    accounts,
		Groups:      groups,
	}

	rg.POST("/groups/:id/invitations", invitationHandler.CreateInvitation)
	rg.GET("/invitations/:token", invitationHandler.ResolveInvitation)
	rg.POST("/invitations/accept", invitationHandler.AcceptInvitation)
}
