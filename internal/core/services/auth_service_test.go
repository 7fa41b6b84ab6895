package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"realestate-crm/internal/config"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/jwt"
	"realestate-crm/internal/pkg/password"
	"realestate-crm/internal/pkg/validation"
	"realestate-crm/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, testConfig(), testutil.Logger())

	_, err := auth.Login(ctx, &LoginInput{Username: "cons1", Password: "wrong-password"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = auth.Login(ctx, &LoginInput{Username: "ghost", Password: testutil.DefaultPassword})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	resp, err := auth.Login(ctx, &LoginInput{Username: "cons1", Password: testutil.DefaultPassword})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)

	p, err := auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.cons1.ID, p.ID)
	assert.Equal(t, domain.RoleConsultant, p.Role)

	_, err = auth.Authenticate(ctx, resp.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, testConfig(), testutil.Logger())

	require.NoError(t, f.db.Table("users").Where("id = ?", f.cons2.ID).Update("status", domain.StatusInactive).Error)

	_, err := auth.Login(ctx, &LoginInput{Username: "cons2", Password: testutil.DefaultPassword})
	assert.True(t, errors.Is(err, domain.ErrUserInactive))
}

func TestAuthenticate_UnknownRole(t *testing.T) {
	cfg := testConfig()
	auth := NewAuthService(nil, nil, cfg, testutil.Logger())

	token, err := jwt.GenerateAccessToken("u-1", "someone", "superuser", cfg.JWT.Secret, 5)
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
}

func TestAuthenticate_ReadsCurrentAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := testConfig()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, cfg, testutil.Logger())

	// token minted while cons1 was a consultant; the account is then promoted
	token, err := jwt.GenerateAccessToken(f.cons1.ID, "cons1", string(domain.RoleConsultant), cfg.JWT.Secret, 15)
	require.NoError(t, err)
	require.NoError(t, f.db.Table("users").Where("id = ?", f.cons1.ID).Update("role", domain.RoleAdmin).Error)

	p, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)

	require.NoError(t, f.db.Table("users").Where("id = ?", f.cons1.ID).Update("status", domain.StatusInactive).Error)
	_, err = auth.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, domain.ErrUserInactive))

	ghost, err := jwt.GenerateAccessToken("no-such-user", "ghost", string(domain.RoleAdmin), cfg.JWT.Secret, 15)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, ghost)
	assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
}

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, testConfig(), testutil.Logger())

	first, err := auth.Login(ctx, &LoginInput{Username: "admin", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	second, err := auth.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = auth.RefreshToken(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrTokenRevoked))

	require.NoError(t, auth.LogoutAll(ctx, f.admin.ID))
	_, err = auth.RefreshToken(ctx, second.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrTokenRevoked))

	_, err = auth.RefreshToken(ctx, "not-a-token")
	assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
}

func TestCleanupExpiredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, testConfig(), testutil.Logger())

	_, err := auth.Login(ctx, &LoginInput{Username: "admin", Password: testutil.DefaultPassword})
	require.NoError(t, err)
	require.NoError(t, f.db.Table("refresh_tokens").Where("1 = 1").
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	n, err := auth.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := NewUserService(f.repos.Users, f.repos.RefreshTokens, validation.New("TR"), testutil.Logger())

	u, err := users.UpdateProfile(ctx, f.cons1, domain.Payload{"first_name": "Zeynep", "notes": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Zeynep", u.FirstName)

	_, err = users.UpdateProfile(ctx, f.cons1, domain.Payload{"role": "admin"})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"role"}, derr.Fields)

	_, err = users.UpdateProfile(ctx, f.cons1, domain.Payload{"email": "cons2@example.com"})
	requireKind(t, err, domain.ErrConflict)

	// case and surrounding spaces do not make a new address
	_, err = users.UpdateProfile(ctx, f.cons1, domain.Payload{"email": "  CONS2@Example.com "})
	requireKind(t, err, domain.ErrConflict)

	u, err = users.UpdateProfile(ctx, f.cons1, domain.Payload{"email": " Zeynep.Kaya@Example.COM"})
	require.NoError(t, err)
	assert.Equal(t, "zeynep.kaya@example.com", u.Email)
	stored, err := f.repos.Users.GetByID(ctx, f.cons1.ID)
	require.NoError(t, err)
	assert.Equal(t, "zeynep.kaya@example.com", stored.Email)

	_, err = users.UpdateProfile(ctx, f.cons1, domain.Payload{"phone": "12"})
	derr = requireKind(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"phone"}, derr.Fields)

	_, err = users.GetProfile(ctx, nil)
	requireKind(t, err, domain.ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := testConfig()
	auth := NewAuthService(f.repos.Users, f.repos.RefreshTokens, cfg, testutil.Logger())
	users := NewUserService(f.repos.Users, f.repos.RefreshTokens, validation.New("TR"), testutil.Logger())

	session, err := auth.Login(ctx, &LoginInput{Username: "cons1", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	err = users.ChangePassword(ctx, f.cons1, &ChangePasswordInput{OldPassword: "nope-nope", NewPassword: "new-password-1"})
	requireKind(t, err, domain.ErrValidation)

	err = users.ChangePassword(ctx, f.cons1, &ChangePasswordInput{OldPassword: testutil.DefaultPassword, NewPassword: "short"})
	derr := requireKind(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"new_password"}, derr.Fields)

	require.NoError(t, users.ChangePassword(ctx, f.cons1, &ChangePasswordInput{
		OldPassword: testutil.DefaultPassword,
		NewPassword: "new-password-1",
	}))

	stored, err := f.repos.Users.GetByID(ctx, f.cons1.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("new-password-1", stored.Password))

	_, err = auth.RefreshToken(ctx, session.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrTokenRevoked))
}
