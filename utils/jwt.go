package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cppla/multiplex/config"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	// ErrTokenInvalid covers bad signatures, expiry and malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenType is returned when a token of the wrong class is presented.
	ErrTokenType = errors.New("wrong token type")
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID    uint      `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is issued on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenManager signs and verifies HS256 tokens. New tokens are signed with the
// current secret; previous secrets stay valid for verification so a secret can
// be rotated without logging everybody out.
type TokenManager struct {
	signingKey []byte
	signingKid string
	keys       map[string][]byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a TokenManager from explicit configuration.
func NewTokenManager(cfg config.TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	m := &TokenManager{
		signingKey: []byte(cfg.Secret),
		signingKid: keyID(cfg.Secret),
		keys:       map[string][]byte{},
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	m.keys[m.signingKid] = m.signingKey
	for _, s := range cfg.PreviousSecrets {
		if s == "" {
			continue
		}
		m.keys[keyID(s)] = []byte(s)
	}
	return m, nil
}

// AccessTTL reports the access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// IssuePair creates a fresh access/refresh pair for the user.
func (m *TokenManager) IssuePair(userID uint) (TokenPair, error) {
	access, err := m.issue(userID, AccessToken, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.issue(userID, RefreshToken, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess creates a new access token for the user.
func (m *TokenManager) IssueAccess(userID uint) (string, error) {
	return m.issue(userID, AccessToken, m.accessTTL)
}

func (m *TokenManager) issue(userID uint, typ TokenType, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = m.signingKid
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse validates signature, expiry, issuer and token class.
func (m *TokenManager) Parse(tokenStr string, want TokenType) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, m.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != want {
		return nil, ErrTokenType
	}
	return claims, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return m.signingKey, nil
	}
	key, ok := m.keys[kid]
	if !ok {
		return nil, errors.New("unknown signing key")
	}
	return key, nil
}

func keyID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:8])
}
