package user

import "time"

const (
	EventUserCreated         = "UserCreated"
	EventUserEmailVerified   = "UserEmailVerified"
	EventUserUpdated         = "UserUpdated"
	EventBankDetailsUpdated  = "BankDetailsUpdated"
	EventUserPasswordChanged = "UserPasswordChanged"
	EventUserLoggedIn        = "UserLoggedIn"
	EventUserLoggedOut       = "UserLoggedOut"
	EventUserDeactivated     = "UserDeactivated"
	EventUserActivated       = "UserActivated"
	EventUserPromoted        = "UserPromotedToMerchant"
)

// UserCreated is emitted when a new user is registered. VerifyToken is the
// one-time token mailed to the address; it never reaches the read models.
type UserCreated struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	State        string    `json:"state,omitempty"`
	City         string    `json:"city,omitempty"`
	VerifyToken  string    `json:"verify_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserEmailVerified is emitted when the user confirms their address.
type UserEmailVerified struct {
	UserID     string    `json:"user_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// UserUpdated is emitted when the profile is edited; empty fields are
// unchanged.
type UserUpdated struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	State     string    `json:"state,omitempty"`
	City      string    `json:"city,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BankDetailsUpdated is emitted when a merchant sets payout details.
type BankDetailsUpdated struct {
	UserID        string    `json:"user_id"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserPasswordChanged is emitted when user changes password
type UserPasswordChanged struct {
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
	ChangedAt    time.Time `json:"changed_at"`
}

// UserLoggedIn is emitted when user successfully logs in
type UserLoggedIn struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	LoggedAt  time.Time `json:"logged_at"`
}

// UserLoggedOut is emitted when user logs out
type UserLoggedOut struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	LoggedAt  time.Time `json:"logged_at"`
}

// UserDeactivated is emitted when user account is deactivated
type UserDeactivated struct {
	UserID        string    `json:"user_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// UserActivated is emitted when user account is reactivated
type UserActivated struct {
	UserID      string    `json:"user_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

// UserPromoted is emitted when a customer upgrades to a merchant account.
// Payout bank details are required before the promotion is accepted.
type UserPromoted struct {
	UserID        string    `json:"user_id"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code"`
	PromotedAt    time.Time `json:"promoted_at"`
}
