package models

import "time"

// User is an account that can appear in groups. A managed account has
// ParentID set and no credentials of its own; it never acts on its own
// behalf and cannot have managed accounts itself.
type User struct {
	ID           string    `json:"id"`
	Email        *string   `json:"email,omitempty"`
	Name         string    `json:"name"`
	ParentID     *string   `json:"parent_id,omitempty"`
	PasswordHash string    `json:"-"`
	TOTPSecret   string    `json:"-"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsManaged reports whether the account is controlled by a parent principal.
func (u *User) IsManaged() bool {
	return u.ParentID != nil && *u.ParentID != ""
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type CreateChildRequest struct {
	Name string `json:"name" binding:"required"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

type VerifyTOTPRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}
