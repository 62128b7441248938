package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/model"
	"ticketdesk/internal/repository"
)

const maxUsernameLength = 80

var (
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = apperrors.NewUnauthorizedError("Invalid credentials")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = apperrors.NewUnauthorizedError("Invalid or expired refresh token")
	// ErrMissingCredentials is returned when username or password is absent.
	ErrMissingCredentials = apperrors.NewValidationError("Missing username or password")
)

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	audit      AuditService
	log        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	audit AuditService,
	log *slog.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		audit:      audit,
		log:        log,
	}
}

// Register creates a new user with a hashed password. The unique index on
// username decides concurrent registrations.
func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		_ = s.audit.Append(ctx, ActionUserRegisterError, ErrMissingCredentials.Message, nil)
		return nil, ErrMissingCredentials
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		err := apperrors.NewValidationError(fmt.Sprintf("Username must be at most %d characters.", maxUsernameLength))
		_ = s.audit.Append(ctx, ActionUserRegisterError, err.Message, nil)
		return nil, err
	}

	// Fast path only.
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, s.registerConflict(ctx, username)
	}
	if !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, s.registerFailed(ctx, username, err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.registerFailed(ctx, username, err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: &hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.registerConflict(ctx, username)
		}
		return nil, s.registerFailed(ctx, username, err)
	}

	_ = s.audit.Append(ctx, ActionUserRegisterSuccess, registerSuccess(username), &user.ID)
	return user, nil
}

func (s *authService) registerConflict(ctx context.Context, username string) error {
	_ = s.audit.Append(ctx, ActionUserRegisterError, registerAlreadyExists(username), nil)
	return apperrors.NewConflictError(registerAlreadyExists(username))
}

func (s *authService) registerFailed(ctx context.Context, username string, err error) error {
	s.log.ErrorContext(ctx, "register user failed", "username", username, "error", err)
	_ = s.audit.Append(ctx, ActionUserRegisterError, registerError(err, username), nil)
	return storageError(err, "An internal error occurred")
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", "", nil, ErrMissingCredentials
	}

	user, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		s.log.ErrorContext(ctx, "login lookup failed", "username", username, "error", err)
		_ = s.audit.Append(ctx, ActionUserLoginError, loginError(err, username), nil)
		return "", "", nil, storageError(err, "An internal error occurred")
	}
	if user == nil || !s.hasher.Verify(user.PasswordHash, password) {
		_ = s.audit.Append(ctx, ActionUserLoginError, loginInvalidCredentials(username), nil)
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", "", nil, s.loginFailed(ctx, username, fmt.Errorf("generate access token: %w", err))
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return "", "", nil, s.loginFailed(ctx, username, fmt.Errorf("generate refresh token: %w", err))
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Username, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, s.loginFailed(ctx, username, fmt.Errorf("store refresh token: %w", err))
	}

	_ = s.audit.Append(ctx, ActionUserLoginSuccess, loginSuccess(username), &user.ID)
	return accessToken, refreshToken, user, nil
}

func (s *authService) loginFailed(ctx context.Context, username string, err error) error {
	s.log.ErrorContext(ctx, "login failed", "username", username, "error", err)
	_ = s.audit.Append(ctx, ActionUserLoginError, loginError(err, username), nil)
	return apperrors.NewInternalError("An internal error occurred", err)
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", ErrInvalidRefreshToken
	}

	// Revoked tokens are gone from the store.
	storedUserID, storedUsername, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedUsername != claims.Username {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err = s.jwtService.GenerateAccessToken(claims.UserID, claims.Username)
	if err != nil {
		return "", apperrors.NewInternalError("An internal error occurred", fmt.Errorf("generate access token: %w", err))
	}
	return accessToken, nil
}

// Logout revokes the refresh token and, when given, blacklists the access
// token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return ErrInvalidRefreshToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return apperrors.NewInternalError("An internal error occurred", fmt.Errorf("delete refresh token: %w", err))
	}

	if accessToken != "" {
		if access, err := s.jwtService.ValidateAccessToken(accessToken); err == nil && access.ID != "" && access.ExpiresAt != nil {
			if ttl := time.Until(access.ExpiresAt.Time); ttl > 0 {
				if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
					s.log.WarnContext(ctx, "blacklist access token failed", "error", err)
				}
			}
		}
	}

	_ = s.audit.Append(ctx, ActionUserLogoutSuccess, logoutSuccess(claims.Username), userRef(claims.UserID))
	return nil
}
