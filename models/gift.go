package models

import "time"

// Gift idea lifecycle. A gift starts proposed, is claimed into buying by
// exactly one buyer, and ends bought. Buying can be released back to
// proposed; bought is terminal.
const (
	GiftProposed = "proposed"
	GiftBuying   = "buying"
	GiftBought   = "bought"
)

// GiftIdea is a suggestion to buy something for one or more group members.
// BuyerID is set exactly when Status is buying or bought.
type GiftIdea struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"group_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	Link         string    `json:"link,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	BuyerID      *string   `json:"buyer_id,omitempty"`
	RecipientIDs []string  `json:"recipient_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsSoleRecipient reports whether userID is the one and only recipient.
func (g *GiftIdea) IsSoleRecipient(userID string) bool {
	return len(g.RecipientIDs) == 1 && g.RecipientIDs[0] == userID
}

type ProposeGiftRequest struct {
	Title        string   `json:"title" validate:"required,min=1,max=255"`
	Description  string   `json:"description" validate:"max=2000"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Link         string   `json:"link" validate:"omitempty,url"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	RecipientIDs []string `json:"recipient_ids" validate:"required,min=1,dive,required"`
}

// ClaimGiftRequest optionally names a managed account the caller is
// claiming on behalf of. Empty means the caller claims for themselves.
type ClaimGiftRequest struct {
	BuyerID string `json:"buyer_id"`
}
