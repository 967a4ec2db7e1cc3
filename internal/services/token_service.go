package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type TokenType string

const (
	TokenTypeAccess        TokenType = "access"
	TokenTypeRefresh       TokenType = "refresh"
	TokenTypePasswordReset TokenType = "password_reset"
)

// Claims is the JWT payload shared by every token type.
type Claims struct {
	UserID uint64    `json:"uid"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   constants.PasswordResetTTL,
		now:        time.Now,
	}
}

// IssuePair issues a fresh access and refresh token for the user.
func (s *TokenService) IssuePair(userID uint64) (*TokenPair, error) {
	access, accessExp, err := s.sign(userID, TokenTypeAccess, s.accessTTL, s.secret)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.sign(userID, TokenTypeRefresh, s.refreshTTL, s.secret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) ParseAccessToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess, s.secret)
}

func (s *TokenService) ParseRefreshToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeRefresh, s.secret)
}

// IssuePasswordResetToken signs a reset token with a key derived from the
// user's current password hash, so it stops verifying once the password changes.
func (s *TokenService) IssuePasswordResetToken(user *models.User) (string, error) {
	token, _, err := s.sign(user.ID, TokenTypePasswordReset, s.resetTTL, s.resetKey(user))
	return token, err
}

// VerifyPasswordResetToken checks a reset token against the user's current state.
func (s *TokenService) VerifyPasswordResetToken(token string, user *models.User) error {
	claims, err := s.parse(token, TokenTypePasswordReset, s.resetKey(user))
	if err != nil {
		return err
	}
	if claims.UserID != user.ID {
		return ErrInvalidToken
	}
	return nil
}

func (s *TokenService) resetKey(user *models.User) []byte {
	key := make([]byte, 0, len(s.secret)+len(user.PasswordHash))
	key = append(key, s.secret...)
	return append(key, user.PasswordHash...)
}

func (s *TokenService) sign(userID uint64, typ TokenType, ttl time.Duration, key []byte) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

func (s *TokenService) parse(tokenString string, typ TokenType, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Type != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
