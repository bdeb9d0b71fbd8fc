package services

import (
	"context"
	"errors"
	"log/slog"

	"gift-api/models"
	"gift-api/storage"
)

// GiftService owns the gift-idea state machine:
//
//	proposed --Claim--> buying --MarkBought--> bought
//	buying --Release--> proposed
//
// Every transition is a single compare-and-swap in the store, so two
// accounts can never hold buying/bought for the same gift at once. A
// stale observed state surfaces as storage.ErrConflict and is never
// retried here; the caller re-fetches and decides.
type GiftService struct {
	store    storage.Store
	accounts *AccountService
}

func NewGiftService(store storage.Store, accounts *AccountService) *GiftService {
	return &GiftService{store: store, accounts: accounts}
}

// Propose creates a gift idea in the proposed state. The creator and
// every recipient must be members of the group. A user may propose a gift
// for themselves (personal wishlist), that is not restricted here.
func (s *GiftService) Propose(ctx context.Context, groupID, creatorID string, req models.ProposeGiftRequest) (*models.GiftIdea, error) {
	if len(req.RecipientIDs) == 0 {
		return nil, ErrInvalidInput
	}

	isMember, err := s.store.IsMember(ctx, groupID, creatorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	for _, recipientID := range req.RecipientIDs {
		isMember, err := s.store.IsMember(ctx, groupID, recipientID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, ErrInvalidInput
		}
	}

	gift := &models.GiftIdea{
		GroupID:      groupID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Link:         req.Link,
		ImageURL:     req.ImageURL,
		CreatedBy:    creatorID,
		RecipientIDs: req.RecipientIDs,
	}
	if err := s.store.CreateGift(ctx, gift); err != nil {
		return nil, err
	}

	slog.Info("gift proposed", "gift_id", gift.ID, "group_id", groupID, "created_by", creatorID)
	return gift, nil
}

// Claim transitions proposed→buying for exactly one claimant. claimantID
// may be a managed account when principalID is its parent. Losing the
// race returns storage.ErrConflict.
func (s *GiftService) Claim(ctx context.Context, giftID, claimantID, principalID string) (*models.GiftIdea, error) {
	if err := s.authorizeActing(ctx, claimantID, principalID); err != nil {
		return nil, err
	}

	gift, err := s.store.GetGift(ctx, giftID)
	if err != nil {
		return nil, err
	}

	// No self-buying when the claimant is the only recipient.
	if gift.IsSoleRecipient(claimantID) {
		return nil, ErrNotAuthorized
	}

	isMember, err := s.store.IsMember(ctx, gift.GroupID, claimantID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	// The directory and membership reads above may be stale by now; the
	// store's compare-and-swap is what actually decides the race.
	claimed, err := s.store.ClaimGift(ctx, giftID, claimantID)
	if err != nil {
		return nil, err
	}

	slog.Info("gift claimed", "gift_id", giftID, "buyer_id", claimantID)
	return claimed, nil
}

// MarkBought transitions buying→bought. Only the exact current buyer may
// do it; anyone else gets ErrNotAuthorized, and a gift that is not in
// buying yields storage.ErrConflict.
func (s *GiftService) MarkBought(ctx context.Context, giftID, buyerID, principalID string) (*models.GiftIdea, error) {
	if err := s.authorizeActing(ctx, buyerID, principalID); err != nil {
		return nil, err
	}

	bought, err := s.store.MarkGiftBought(ctx, giftID, buyerID)
	if err != nil {
		return nil, s.refineConflict(ctx, giftID, buyerID, err)
	}

	slog.Info("gift bought", "gift_id", giftID, "buyer_id", buyerID)
	return bought, nil
}

// Release reverts buying→proposed and clears the buyer, so an abandoned
// claim is never sticky. Buyer-only.
func (s *GiftService) Release(ctx context.Context, giftID, buyerID, principalID string) (*models.GiftIdea, error) {
	if err := s.authorizeActing(ctx, buyerID, principalID); err != nil {
		return nil, err
	}

	released, err := s.store.ReleaseGift(ctx, giftID, buyerID)
	if err != nil {
		return nil, s.refineConflict(ctx, giftID, buyerID, err)
	}

	slog.Info("gift claim released", "gift_id", giftID, "buyer_id", buyerID)
	return released, nil
}

// Delete removes a gift. Permitted for the creator or the current buyer.
func (s *GiftService) Delete(ctx context.Context, giftID, actorID string) error {
	gift, err := s.store.GetGift(ctx, giftID)
	if err != nil {
		return err
	}

	isCreator := gift.CreatedBy == actorID
	isBuyer := gift.BuyerID != nil && *gift.BuyerID == actorID
	if !isCreator && !isBuyer {
		return ErrNotAuthorized
	}

	if err := s.store.DeleteGift(ctx, giftID); err != nil {
		return err
	}

	slog.Info("gift deleted", "gift_id", giftID, "actor_id", actorID)
	return nil
}

func (s *GiftService) Get(ctx context.Context, giftID string) (*models.GiftIdea, error) {
	return s.store.GetGift(ctx, giftID)
}

// ListByGroup returns the group's gifts for a member.
func (s *GiftService) ListByGroup(ctx context.Context, groupID, userID string) ([]models.GiftIdea, error) {
	isMember, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}
	return s.store.ListGiftsByGroup(ctx, groupID)
}

func (s *GiftService) authorizeActing(ctx context.Context, accountID, principalID string) error {
	controlled, err := s.accounts.IsControlledBy(ctx, accountID, principalID)
	if err != nil {
		return err
	}
	if !controlled {
		return ErrNotAuthorized
	}
	return nil
}

// refineConflict turns a failed compare-and-swap into ErrNotAuthorized
// when the real problem is that someone else is the buyer, so handlers
// can answer 403 instead of 409.
func (s *GiftService) refineConflict(ctx context.Context, giftID, buyerID string, err error) error {
	if !errors.Is(err, storage.ErrConflict) {
		return err
	}

	gift, getErr := s.store.GetGift(ctx, giftID)
	if getErr != nil {
		return err
	}
	if gift.BuyerID != nil && *gift.BuyerID != buyerID {
		return ErrNotAuthorized
	}
	return err
}
