package identity

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
)

// AuthServiceConfig holds lockout policy for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

// DefaultAuthServiceConfig returns the default lockout policy
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo       identity.UserRepository
	tenantRepo     identity.TenantRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventPublisher shared.EventPublisher
	config         AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
) *AuthService {
	if config.MaxLoginAttempts <= 0 {
		config = DefaultAuthServiceConfig()
	}
	return &AuthService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AuthService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// Login verifies credentials and returns a token pair. Failed attempts
// count toward the lockout policy.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, req.TenantCode)
	if err != nil {
		// Do not reveal whether the tenant exists
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_SUSPENDED", "This workspace is suspended")
	}

	user, err := s.userRepo.FindByUsername(ctx, tenant.ID, req.Username)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	if !user.CanLogin() {
		switch {
		case user.IsLocked():
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to failed login attempts")
		case user.IsDeactivated():
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		default:
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is awaiting activation")
		}
	}

	if !user.VerifyPassword(req.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		user.AddDomainEvent(identity.NewUserLoginFailedEvent(user, req.RequestIP, locked))
		// A failed save must not mask the credential error
		if saveErr := s.userRepo.Save(ctx, user); saveErr == nil {
			s.publish(ctx, user.GetDomainEvents()...)
			user.ClearDomainEvents()
		}
		if locked {
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked due to failed login attempts")
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}

	user.RecordLoginSuccess(req.RequestIP)
	user.AddDomainEvent(identity.NewUserLoggedInEvent(user, req.RequestIP))
	// Recording the login is best effort; the credentials already checked out
	if err := s.userRepo.Save(ctx, user); err == nil {
		s.publish(ctx, user.GetDomainEvents()...)
		user.ClearDomainEvents()
	}

	return &LoginResult{
		AccessToken:           tokens.AccessToken,
		RefreshToken:          tokens.RefreshToken,
		AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
		TokenType:             tokens.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
// The user and role are re-read from storage so revoked access ends here.
func (s *AuthService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err == nil && revoked {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Token has been revoked")
		}
		invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err == nil && invalidated {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Token has been revoked")
		}
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account can no longer sign in")
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}

	// The old refresh token is single use
	if s.blacklist != nil {
		_ = s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
	}

	return &LoginResult{
		AccessToken:           tokens.AccessToken,
		RefreshToken:          tokens.RefreshToken,
		AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
		TokenType:             tokens.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

// Logout revokes the presented access token for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		// An expired token needs no revocation
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil
		}
		return mapTokenError(err)
	}

	if s.blacklist == nil {
		return nil
	}

	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// LogoutEverywhere invalidates every token issued to the user before now
func (s *AuthService) LogoutEverywhere(ctx context.Context, userID string) error {
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.AddUserTokensToBlacklist(ctx, userID, s.jwtService.GetRefreshTokenExpiration())
}

// ValidateAccessToken validates an access token against signature, expiry
// and the blacklist
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err == nil && revoked {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Token has been revoked")
		}
		invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err == nil && invalidated {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Token has been revoked")
		}
	}

	return claims, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingTenantID),
		errors.Is(err, auth.ErrMissingUserID):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	default:
		return err
	}
}
