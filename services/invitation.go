package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gift-api/models"
	"gift-api/storage"
)

const invitationTTL = 7 * 24 * time.Hour

// InvitationService redeems invitation tokens into group memberships.
// Tokens are reusable until expiry; a per-account redemption record and
// the membership uniqueness constraint make repeated acceptance
// idempotent rather than an error.
type InvitationService struct {
	store    storage.Store
	accounts *AccountService
}

func NewInvitationService(store storage.Store, accounts *AccountService) *InvitationService {
	return &InvitationService{store: store, accounts: accounts}
}

// Create issues a new invitation token for a group. Any member may invite.
func (s *InvitationService) Create(ctx context.Context, groupID, inviterID string, req models.InvitationRequest) (*models.Invitation, error) {
	isMember, err := s.store.IsMember(ctx, groupID, inviterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	inv := &models.Invitation{
		GroupID:   groupID,
		Role:      role,
		InvitedBy: inviterID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	if req.Email != "" {
		inv.Email = &req.Email
	}

	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	slog.Info("invitation created", "group_id", groupID, "invited_by", inviterID)
	return inv, nil
}

// Resolve looks a token up without side effects.
func (s *InvitationService) Resolve(ctx context.Context, token string) (*models.ResolveInvitationResponse, error) {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Expired(time.Now()) {
		return nil, ErrExpired
	}

	group, err := s.store.GetGroup(ctx, inv.GroupID)
	if err != nil {
		return nil, err
	}

	return &models.ResolveInvitationResponse{
		GroupID:   group.ID,
		GroupName: group.Name,
		Role:      inv.Role,
	}, nil
}

// Accept redeems a token for every account in accountIDs. The acting
// principal must control each account, checked for the whole batch before
// anything is written; one unauthorized id aborts the call with nothing
// created. Accounts that are already members are skipped and reported, so
// a client can safely re-submit the same request. Memberships created
// before a mid-batch store failure stay committed; idempotence makes the
// retry safe.
func (s *InvitationService) Accept(ctx context.Context, token string, accountIDs []string, principalID string) (*models.AcceptInvitationResponse, error) {
	if len(accountIDs) == 0 {
		return nil, ErrInvalidInput
	}

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Expired(time.Now()) {
		return nil, ErrExpired
	}

	// Authorization pass, all-or-nothing.
	for _, accountID := range accountIDs {
		controlled, err := s.accounts.IsControlledBy(ctx, accountID, principalID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidInput
		}
		if err != nil {
			return nil, err
		}
		if !controlled {
			return nil, ErrNotAuthorized
		}
	}

	resp := &models.AcceptInvitationResponse{
		CreatedMemberships: []models.GroupMember{},
		AlreadyMember:      []string{},
	}

	for _, accountID := range accountIDs {
		member := &models.GroupMember{
			GroupID: inv.GroupID,
			UserID:  accountID,
			Role:    inv.Role,
		}

		err := s.store.AddMember(ctx, member)
		if errors.Is(err, storage.ErrDuplicate) {
			resp.AlreadyMember = append(resp.AlreadyMember, accountID)
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.store.RecordRedemption(ctx, inv.ID, accountID); err != nil {
			return nil, err
		}
		resp.CreatedMemberships = append(resp.CreatedMemberships, *member)
	}

	slog.Info("invitation accepted",
		"group_id", inv.GroupID,
		"principal_id", principalID,
		"created", len(resp.CreatedMemberships),
		"already_member", len(resp.AlreadyMember),
	)
	return resp, nil
}
