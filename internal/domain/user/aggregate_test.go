package user

import (
	"context"
	"testing"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	u, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.PasswordHash, "hash must not leak on the returned user")

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserCreated, eventStore.AppendCalls[0].EventType)
}

func TestRegisterWithRole(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	u, err := service.RegisterWithRole(ctx, "crafts@example.com", "password123", "Habesha Crafts", RoleMerchant)
	require.NoError(t, err)
	assert.Equal(t, RoleMerchant, u.Role)

	_, err = service.RegisterWithRole(ctx, "x@example.com", "password123", "X", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegisterValidation(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	_, err := service.Register(ctx, "", "password123", "Abebe")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register(ctx, "abebe@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = service.Register(ctx, "abebe@example.com", "short", "Abebe")
	assert.Error(t, err)
}

func TestVerifyEmail(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)
	require.NotEmpty(t, registered.VerifyToken)

	err = service.VerifyEmail(ctx, registered.ID, "not-the-token")
	assert.ErrorIs(t, err, ErrInvalidVerifyToken)

	require.NoError(t, service.VerifyEmail(ctx, registered.ID, registered.VerifyToken))

	u, err := service.Get(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Empty(t, u.VerifyToken, "token is single-use")

	// Re-verifying is a no-op, even with a stale token.
	require.NoError(t, service.VerifyEmail(ctx, registered.ID, "anything"))
}

func TestAuthenticate(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	u, err := service.Authenticate(ctx, registered.ID, "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, err = service.Authenticate(ctx, registered.ID, "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Authenticate(ctx, "missing-user", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateDeactivated(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(ctx, registered.ID))

	_, err = service.Authenticate(ctx, registered.ID, "password123")
	assert.ErrorIs(t, err, ErrUserDeactivated)
}

func TestUpdateProfile(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	updated, err := service.UpdateProfile(ctx, registered.ID, "", "0911000000", "Addis Ababa", "Bole")
	require.NoError(t, err)
	assert.Equal(t, "Abebe Kebede", updated.Name, "empty name keeps current value")
	assert.Equal(t, "0911000000", updated.Phone)
	assert.Equal(t, "Bole", updated.City)
}

func TestSetBankDetails(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.RegisterWithRole(ctx, "crafts@example.com", "password123", "Habesha Crafts", RoleMerchant)
	require.NoError(t, err)

	_, err = service.SetBankDetails(ctx, registered.ID, BankDetails{AccountName: "Habesha Crafts"})
	assert.ErrorIs(t, err, ErrMissingBankDetails)

	updated, err := service.SetBankDetails(ctx, registered.ID, BankDetails{
		AccountName:   "Habesha Crafts",
		AccountNumber: "1000200030004000",
		BankCode:      "946",
	})
	require.NoError(t, err)
	assert.True(t, updated.Bank.Complete())
	assert.Equal(t, "946", updated.Bank.BankCode)
}

func TestPromoteToMerchant(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	_, err = service.PromoteToMerchant(ctx, registered.ID, BankDetails{AccountName: "Abebe Kebede"})
	assert.ErrorIs(t, err, ErrMissingBankDetails)

	bank := BankDetails{
		AccountName:   "Abebe Kebede",
		AccountNumber: "1000123456",
		BankCode:      "946",
	}
	promoted, err := service.PromoteToMerchant(ctx, registered.ID, bank)
	require.NoError(t, err)
	assert.Equal(t, RoleMerchant, promoted.Role)
	assert.True(t, promoted.Bank.Complete())

	// Promoting a merchant again is a no-op.
	before := len(eventStore.AppendCalls)
	_, err = service.PromoteToMerchant(ctx, registered.ID, bank)
	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, before)
}

func TestChangePassword(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	registered, err := service.Register(ctx, "abebe@example.com", "password123", "Abebe Kebede")
	require.NoError(t, err)

	err = service.ChangePassword(ctx, registered.ID, "wrongpassword", "newpassword123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, service.ChangePassword(ctx, registered.ID, "password123", "newpassword123"))

	_, err = service.Authenticate(ctx, registered.ID, "newpassword123")
	assert.NoError(t, err)
	_, err = service.Authenticate(ctx, registered.ID, "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
