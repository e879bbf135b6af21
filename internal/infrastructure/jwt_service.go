package infrastructure

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accounts-service/internal/domain/entities"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTService mints and validates the self-contained token pair. Tokens carry
// only a subject claim and expiry; there is no server-side registry, so a
// token stays valid until its exp claim regardless of logout.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type tokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &JWTService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// IssueTokenPair mints a refresh token bound to the user id and derives an
// access token for the same subject.
func (j *JWTService) IssueTokenPair(userId string) (entities.TokenPair, error) {
	refresh, err := j.sign(userId, tokenTypeRefresh, j.refreshTTL)
	if err != nil {
		return entities.TokenPair{}, err
	}

	access, err := j.sign(userId, tokenTypeAccess, j.accessTTL)
	if err != nil {
		return entities.TokenPair{}, err
	}

	return entities.TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccessToken validates the refresh token and mints a new access
// token for the same subject. The refresh token itself is not rotated. Every
// failure collapses into entities.ErrTokenInvalid so callers cannot learn
// why a token was rejected.
func (j *JWTService) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := j.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}

	return j.sign(claims.Subject, tokenTypeAccess, j.accessTTL)
}

// ParseAccessToken validates an access token and returns its subject.
func (j *JWTService) ParseAccessToken(accessToken string) (uuid.UUID, error) {
	claims, err := j.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return uuid.Nil, err
	}

	userId, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, entities.ErrTokenInvalid
	}
	return userId, nil
}

func (j *JWTService) sign(subject, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTService) parse(tokenString, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, entities.ErrTokenInvalid
	}

	// Reject a refresh token presented where an access token is expected and
	// vice versa.
	if claims.TokenType != wantType {
		return nil, entities.ErrTokenInvalid
	}

	return claims, nil
}
