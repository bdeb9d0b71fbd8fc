// Package storage defines the persistence boundary for the coordination
// core. Gift status and membership role are mutated only through the
// compare-and-swap operations below; there is no other write path.
package storage

import (
	"context"
	"errors"
	"time"

	"gift-api/models"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrConflict means a conditional write observed stale state and
	// changed nothing. Callers re-read and surface the current state;
	// the store never retries.
	ErrConflict = errors.New("storage: conflict")

	// ErrDuplicate means a uniqueness constraint was hit, e.g. a
	// membership that already exists for (group, user).
	ErrDuplicate = errors.New("storage: duplicate")

	// ErrLastAdmin means a role change or removal would leave a group
	// with zero admins.
	ErrLastAdmin = errors.New("storage: last admin")
)

// Store is the authoritative record of accounts, groups, memberships,
// invitations and gift ideas. Implementations must make each mutating
// method atomic on its own; no cross-entity locking is assumed.
type Store interface {
	// Accounts.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListChildren(ctx context.Context, parentID string) ([]models.User, error)
	UpdateUserTOTP(ctx context.Context, userID, secret string, enabled bool) error
	CreateSession(ctx context.Context, userID, refreshToken string, expiresAt time.Time) error

	// Groups and memberships. CreateGroup also inserts the creator as
	// the group's first admin in the same atomic step.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, memberID string) (*models.GroupMember, error)
	// UpdateMemberRole and RemoveMember enforce the last-admin invariant
	// atomically with the mutation, returning ErrLastAdmin.
	UpdateMemberRole(ctx context.Context, groupID, memberID, role string) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, memberID string) error

	// Invitations.
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	// RecordRedemption notes that an account redeemed an invitation.
	// Recording the same (invitation, account) pair twice is not an error.
	RecordRedemption(ctx context.Context, invitationID, userID string) error

	// Gift ideas.
	CreateGift(ctx context.Context, gift *models.GiftIdea) error
	GetGift(ctx context.Context, id string) (*models.GiftIdea, error)
	ListGiftsByGroup(ctx context.Context, groupID string) ([]models.GiftIdea, error)
	// ClaimGift is the proposed→buying compare-and-swap. It fails with
	// ErrConflict when the gift is no longer proposed.
	ClaimGift(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error)
	// MarkGiftBought is the buying→bought compare-and-swap, conditional
	// on buyerID being the current buyer.
	MarkGiftBought(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error)
	// ReleaseGift is the buying→proposed compare-and-swap, clearing the
	// buyer; conditional on buyerID being the current buyer.
	ReleaseGift(ctx context.Context, giftID, buyerID string) (*models.GiftIdea, error)
	DeleteGift(ctx context.Context, giftID string) error

	Close() error
}
