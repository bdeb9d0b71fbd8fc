package models

import "time"

// Invitation is a token that grants group membership. Tokens are reusable
// until expiry so a parent and their managed accounts can redeem the same
// token across separate calls; per-account redemption records keep repeated
// acceptance idempotent.
type Invitation struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Email     *string   `json:"email,omitempty"`
	Role      string    `json:"role"`
	InvitedBy string    `json:"invited_by"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the invitation is past its validity at now.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type InvitationRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
	Role  string `json:"role" binding:"omitempty,oneof=member admin"`
}

type AcceptInvitationRequest struct {
	Token      string   `json:"token" binding:"required"`
	AccountIDs []string `json:"account_ids" binding:"required,min=1"`
}

type ResolveInvitationResponse struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Role      string `json:"role"`
}

type AcceptInvitationResponse struct {
	CreatedMemberships []GroupMember `json:"created_memberships"`
	AlreadyMember      []string      `json:"already_member"`
}
