package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gift-api/handlers"
	"gift-api/middleware"
	"gift-api/models"
	"gift-api/routes"
	"gift-api/services"
	"gift-api/storage/memory"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := memory.New()
	accounts := services.NewAccountService(store)
	groups := services.NewGroupService(store)
	gifts := services.NewGiftService(store, accounts)
	invitations := services.NewInvitationService(store, accounts)
	ws := handlers.NewWSHandler()

	router := gin.New()
	v1 := router.Group("/api/v1")
	routes.SetupAuthRoutes(v1, store)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	routes.SetupUserRoutes(protected, store, accounts)
	routes.SetupGroupRoutes(protected, groups, gifts, ws)
	routes.SetupInvitationRoutes(protected, invitations, accounts, groups)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func signup(t *testing.T, router *gin.Engine, email, name string) models.AuthResponse {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{
		Email:    email,
		Password: "secret123",
		Name:     name,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.AuthResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp
}

func createGroup(t *testing.T, router *gin.Engine, token, name string) models.Group {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/groups", token, models.CreateGroupRequest{Name: name})
	require.Equal(t, http.StatusCreated, w.Code)

	var group models.Group
	decode(t, w, &group)
	return group
}

func createInvitation(t *testing.T, router *gin.Engine, token, groupID string) models.Invitation {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/groups/"+groupID+"/invitations", token,
		models.InvitationRequest{Role: models.RoleMember})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Invitation models.Invitation `json:"invitation"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Invitation.Token)
	return resp.Invitation
}

func joinGroup(t *testing.T, router *gin.Engine, adminToken, groupID string, member models.AuthResponse) {
	t.Helper()

	inv := createInvitation(t, router, adminToken, groupID)
	w := doJSON(t, router, http.MethodPost, "/api/v1/invitations/accept", member.AccessToken,
		models.AcceptInvitationRequest{Token: inv.Token, AccountIDs: []string{member.User.ID}})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignupAndLogin(t *testing.T) {
	router := newTestRouter()

	alice := signup(t, router, "alice@example.com", "Alice")
	require.Equal(t, "Alice", alice.User.Name)

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{
			Email:    "alice@example.com",
			Password: "secret123",
			Name:     "Alice Again",
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login with valid credentials", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
			Email:    "alice@example.com",
			Password: "secret123",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		decode(t, w, &resp)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("protected route requires token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/groups", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGroupLifecycle(t *testing.T) {
	router := newTestRouter()
	alice := signup(t, router, "alice@example.com", "Alice")

	group := createGroup(t, router, alice.AccessToken, "Family Christmas")
	require.Equal(t, alice.User.ID, group.CreatedBy)

	t.Run("creator is admin on detail read", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/groups/"+group.ID, alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var detail models.Group
		decode(t, w, &detail)
		require.Len(t, detail.Members, 1)
		require.Equal(t, models.RoleAdmin, detail.Members[0].Role)
	})

	t.Run("non-member cannot read the group", func(t *testing.T) {
		bob := signup(t, router, "bob@example.com", "Bob")
		w := doJSON(t, router, http.MethodGet, "/api/v1/groups/"+group.ID, bob.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("sole admin cannot leave", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/groups/"+group.ID, alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var detail models.Group
		decode(t, w, &detail)
		memberID := detail.Members[0].ID

		w = doJSON(t, router, http.MethodDelete,
			"/api/v1/groups/"+group.ID+"/members/"+memberID, alice.AccessToken, nil)
		require.Equal(t, http.StatusConflict, w.Code)

		w = doJSON(t, router, http.MethodPut,
			"/api/v1/groups/"+group.ID+"/members/"+memberID, alice.AccessToken,
			models.UpdateMemberRoleRequest{Role: models.RoleMember})
		require.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGiftLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter()
	alice := signup(t, router, "alice@example.com", "Alice")
	bob := signup(t, router, "bob@example.com", "Bob")
	carol := signup(t, router, "carol@example.com", "Carol")

	group := createGroup(t, router, alice.AccessToken, "Birthdays")
	joinGroup(t, router, alice.AccessToken, group.ID, bob)
	joinGroup(t, router, alice.AccessToken, group.ID, carol)

	w := doJSON(t, router, http.MethodPost, "/api/v1/groups/"+group.ID+"/gifts", alice.AccessToken,
		models.ProposeGiftRequest{
			Title:        "Mountain bike",
			RecipientIDs: []string{bob.User.ID},
		})
	require.Equal(t, http.StatusCreated, w.Code)

	var gift models.GiftIdea
	decode(t, w, &gift)
	require.Equal(t, models.GiftProposed, gift.Status)

	t.Run("sole recipient cannot claim", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/claim", bob.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("first claim wins", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/claim", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var claimed models.GiftIdea
		decode(t, w, &claimed)
		require.Equal(t, models.GiftBuying, claimed.Status)
		require.NotNil(t, claimed.BuyerID)
		require.Equal(t, alice.User.ID, *claimed.BuyerID)
	})

	t.Run("losing claim answers conflict", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/claim", carol.AccessToken, nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("only the buyer can mark bought", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/bought", carol.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/bought", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var bought models.GiftIdea
		decode(t, w, &bought)
		require.Equal(t, models.GiftBought, bought.Status)
	})

	t.Run("bought is terminal", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/gifts/"+gift.ID+"/release", alice.AccessToken, nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("gift listing excludes nobody but requires membership", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/groups/"+group.ID+"/gifts", carol.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Gifts []models.GiftIdea `json:"gifts"`
		}
		decode(t, w, &resp)
		require.Len(t, resp.Gifts, 1)

		dave := signup(t, router, "dave@example.com", "Dave")
		w = doJSON(t, router, http.MethodGet, "/api/v1/groups/"+group.ID+"/gifts", dave.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	router := newTestRouter()
	alice := signup(t, router, "alice@example.com", "Alice")
	bob := signup(t, router, "bob@example.com", "Bob")

	group := createGroup(t, router, alice.AccessToken, "Cousins")
	inv := createInvitation(t, router, alice.AccessToken, group.ID)

	t.Run("resolve known token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/invitations/"+inv.Token, bob.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resolved models.ResolveInvitationResponse
		decode(t, w, &resolved)
		require.Equal(t, group.ID, resolved.GroupID)
		require.Equal(t, "Cousins", resolved.GroupName)
	})

	t.Run("resolve unknown token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/invitations/no-such-token", bob.AccessToken, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("accept for self and managed account", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/user/children", bob.AccessToken,
			models.CreateChildRequest{Name: "Kiddo"})
		require.Equal(t, http.StatusCreated, w.Code)

		var child models.User
		decode(t, w, &child)
		require.NotNil(t, child.ParentID)

		accountIDs := []string{bob.User.ID, child.ID}
		w = doJSON(t, router, http.MethodPost, "/api/v1/invitations/accept", bob.AccessToken,
			models.AcceptInvitationRequest{Token: inv.Token, AccountIDs: accountIDs})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.AcceptInvitationResponse
		decode(t, w, &resp)
		require.Len(t, resp.CreatedMemberships, 2)
		require.Empty(t, resp.AlreadyMember)

		// Same submission again reports existing memberships, no error.
		w = doJSON(t, router, http.MethodPost, "/api/v1/invitations/accept", bob.AccessToken,
			models.AcceptInvitationRequest{Token: inv.Token, AccountIDs: accountIDs})
		require.Equal(t, http.StatusOK, w.Code)

		decode(t, w, &resp)
		require.Empty(t, resp.CreatedMemberships)
		require.ElementsMatch(t, accountIDs, resp.AlreadyMember)
	})

	t.Run("cannot accept for an account you do not control", func(t *testing.T) {
		eve := signup(t, router, "eve@example.com", "Eve")
		w := doJSON(t, router, http.MethodPost, "/api/v1/invitations/accept", eve.AccessToken,
			models.AcceptInvitationRequest{Token: inv.Token, AccountIDs: []string{bob.User.ID}})
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
