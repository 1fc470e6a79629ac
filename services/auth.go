package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/utils"
)

// AuthService checks credentials and resolves request identities.
type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenManager
}

// NewAuthService creates an AuthService with an explicitly configured token manager.
func NewAuthService(db *gorm.DB, tokens *utils.TokenManager) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// Login verifies the password and issues a fresh token pair. Unknown users,
// inactive users and wrong passwords all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (utils.TokenPair, error) {
	fields := map[string]string{}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "this field is required"
	}
	if password == "" {
		fields["password"] = "this field is required"
	}
	if len(fields) > 0 {
		return utils.TokenPair{}, &ValidationError{Fields: fields}
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.BurnPasswordCheck(password)
		return utils.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		return utils.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return utils.TokenPair{}, err
	}
	utils.Sugar.Infow("login succeeded", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a refresh-class token for a new access token carrying the
// same user id. Validation is a pure signature and expiry check.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	if strings.TrimSpace(refresh) == "" {
		return "", fieldError("refresh", "this field is required")
	}
	claims, err := s.tokens.Parse(refresh, utils.RefreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	return s.tokens.IssueAccess(claims.UserID)
}

// Authenticate resolves the actor for an Authorization header value. It never
// fails: a missing, malformed, invalid or expired credential, or one whose
// user no longer exists, yields Anonymous so public reads keep working.
func (s *AuthService) Authenticate(ctx context.Context, header string) Actor {
	token, ok := BearerToken(header)
	if !ok {
		return Anonymous()
	}
	claims, err := s.tokens.Parse(token, utils.AccessToken)
	if err != nil {
		utils.Sugar.Debugw("bearer token rejected", "err", err)
		return Anonymous()
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Warnw("load token user failed", "user_id", claims.UserID, "err", err)
		}
		return Anonymous()
	}
	if !user.IsActive {
		return Anonymous()
	}
	return ActorFromUser(&user)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
