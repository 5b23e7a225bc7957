package user

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

// Roles a user can hold. A merchant can also buy; role gates selling and
// admin endpoints, not purchasing.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
	ErrMissingBankDetails = errors.New("bank account details are incomplete")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrInvalidVerifyToken = errors.New("invalid verification token")
)

// BankDetails are the merchant's payout coordinates for gateway transfers.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
}

func (b BankDetails) Complete() bool {
	return b.AccountName != "" && b.AccountNumber != "" && b.BankCode != ""
}

// User represents a user aggregate
type User struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"password_hash"`
	Name          string      `json:"name"`
	Role          string      `json:"role"`
	Phone         string      `json:"phone,omitempty"`
	State         string      `json:"state,omitempty"`
	City          string      `json:"city,omitempty"`
	Bank          BankDetails `json:"bank,omitempty"`
	IsActive      bool        `json:"is_active"`
	EmailVerified bool        `json:"email_verified"`
	VerifyToken   string      `json:"verify_token,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Version       int         `json:"version"`
}

func (u *User) GetID() string    { return u.ID }
func (u *User) GetVersion() int  { return u.Version }
func (u *User) SetVersion(v int) { u.Version = v }

// ApplyEvent applies a single event to the user state
func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var data UserCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Name = data.Name
		u.Role = data.Role
		u.Phone = data.Phone
		u.State = data.State
		u.City = data.City
		u.IsActive = true
		u.VerifyToken = data.VerifyToken
		u.CreatedAt = data.CreatedAt
		u.UpdatedAt = data.CreatedAt
	case EventUserEmailVerified:
		var data UserEmailVerified
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.EmailVerified = true
		u.VerifyToken = ""
		u.UpdatedAt = data.VerifiedAt
	case EventUserUpdated:
		var data UserUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if data.Name != "" {
			u.Name = data.Name
		}
		if data.Phone != "" {
			u.Phone = data.Phone
		}
		if data.State != "" {
			u.State = data.State
		}
		if data.City != "" {
			u.City = data.City
		}
		u.UpdatedAt = data.UpdatedAt
	case EventBankDetailsUpdated:
		var data BankDetailsUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Bank = BankDetails{
			AccountName:   data.AccountName,
			AccountNumber: data.AccountNumber,
			BankCode:      data.BankCode,
		}
		u.UpdatedAt = data.UpdatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	case EventUserDeactivated:
		u.IsActive = false
	case EventUserActivated:
		u.IsActive = true
	case EventUserPromoted:
		var data UserPromoted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.Role = RoleMerchant
		u.Bank = BankDetails{
			AccountName:   data.AccountName,
			AccountNumber: data.AccountNumber,
			BankCode:      data.BankCode,
		}
		u.UpdatedAt = data.PromotedAt
	}
	u.Version = event.Version
	return nil
}

// Service handles user domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get loads a user by replaying their event stream.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.Load(ctx, s.eventStore, userID, func() *User {
		return &User{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Register creates a new customer account
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleCustomer)
}

// RegisterWithRole creates a new user with a specific role
func (s *Service) RegisterWithRole(ctx context.Context, email, password, name, role string) (*User, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	switch role {
	case RoleCustomer, RoleMerchant, RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	verifyToken := uuid.New().String()
	now := time.Now()

	event := UserCreated{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		VerifyToken:  verifyToken,
		CreatedAt:    now,
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserCreated, event)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:          userID,
		Email:       email,
		Name:        name,
		Role:        role,
		IsActive:    true,
		VerifyToken: verifyToken,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// VerifyEmail confirms the address with the token mailed at registration.
// Verifying an already-verified account succeeds without a new event.
func (s *Service) VerifyEmail(ctx context.Context, userID, token string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return nil
	}
	if token == "" || token != u.VerifyToken {
		return ErrInvalidVerifyToken
	}

	event := UserEmailVerified{UserID: userID, VerifiedAt: time.Now()}
	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserEmailVerified, event)
	return err
}

// UpdateProfile edits the contact fields; empty values keep current ones.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, phone, state, city string) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	event := UserUpdated{
		UserID:    userID,
		Name:      name,
		Phone:     phone,
		State:     state,
		City:      city,
		UpdatedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserUpdated, event)
	if err != nil {
		return nil, err
	}
	if storedEvent != nil {
		_ = u.ApplyEvent(*storedEvent)
	}
	return u, nil
}

// SetBankDetails records a merchant's payout account. All three fields are
// required so payouts cannot go out half-addressed.
func (s *Service) SetBankDetails(ctx context.Context, userID string, bank BankDetails) (*User, error) {
	if !bank.Complete() {
		return nil, ErrMissingBankDetails
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	event := BankDetailsUpdated{
		UserID:        userID,
		AccountName:   bank.AccountName,
		AccountNumber: bank.AccountNumber,
		BankCode:      bank.BankCode,
		UpdatedAt:     time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, userID, AggregateType, EventBankDetailsUpdated, event)
	if err != nil {
		return nil, err
	}
	if storedEvent != nil {
		_ = u.ApplyEvent(*storedEvent)
	}
	return u, nil
}

// ChangePassword verifies the current password before setting a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(currentPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: hash,
		ChangedAt:    time.Now(),
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, event)
	return err
}

// Authenticate checks credentials against the replayed user state.
func (s *Service) Authenticate(ctx context.Context, userID, password string) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserDeactivated
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// RecordLogin records a user login event
func (s *Service) RecordLogin(ctx context.Context, userID, sessionID, ipAddress, userAgent string) error {
	event := UserLoggedIn{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, event)
	return err
}

// RecordLogout records a user logout event
func (s *Service) RecordLogout(ctx context.Context, userID, sessionID string) error {
	event := UserLoggedOut{
		UserID:    userID,
		SessionID: sessionID,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedOut, event)
	return err
}

// Deactivate disables an account.
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	event := UserDeactivated{UserID: userID, DeactivatedAt: time.Now()}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserDeactivated, event)
	return err
}

// Activate re-enables a previously deactivated account.
func (s *Service) Activate(ctx context.Context, userID string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsActive {
		return nil
	}
	event := UserActivated{UserID: userID, ActivatedAt: time.Now()}
	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserActivated, event)
	return err
}

// PromoteToMerchant upgrades a customer to a merchant account. Payout bank
// details must be complete so the account can receive transfers.
func (s *Service) PromoteToMerchant(ctx context.Context, userID string, bank BankDetails) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserDeactivated
	}
	if u.Role == RoleMerchant {
		return u, nil
	}
	if u.Role != RoleCustomer {
		return nil, ErrInvalidRole
	}
	if !bank.Complete() {
		return nil, ErrMissingBankDetails
	}

	now := time.Now()
	event := UserPromoted{
		UserID:        userID,
		AccountName:   bank.AccountName,
		AccountNumber: bank.AccountNumber,
		BankCode:      bank.BankCode,
		PromotedAt:    now,
	}
	if _, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserPromoted, event); err != nil {
		return nil, err
	}

	u.Role = RoleMerchant
	u.Bank = bank
	u.UpdatedAt = now
	return u, nil
}
