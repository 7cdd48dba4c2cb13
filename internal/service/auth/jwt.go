package auth

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// clockSkew is tolerated on exp and iat between replicas.
const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

// Claims is the payload of both token kinds. Roles is only set on access
// tokens; the subject holds the user id.
type Claims struct {
	TokenType string   `json:"token_type"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type JWTManager struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
	now        func() time.Time
}

func NewJWTManager(secretKey, issuer string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		key:        []byte(secretKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
		now: time.Now,
	}
}

// Issue signs a fresh access and refresh token for the user.
func (j *JWTManager) Issue(userID uuid.UUID, roles []string) (*models.TokenPair, error) {
	now := j.now()
	pair := &models.TokenPair{
		AccessExpiresAt:  now.Add(j.accessTTL),
		RefreshExpiresAt: now.Add(j.refreshTTL),
	}

	var err error
	pair.AccessToken, err = j.sign(Claims{
		TokenType:        AccessTokenType,
		Roles:            roles,
		RegisteredClaims: j.registered(userID, now, pair.AccessExpiresAt),
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	pair.RefreshToken, err = j.sign(Claims{
		TokenType:        RefreshTokenType,
		RegisteredClaims: j.registered(userID, now, pair.RefreshExpiresAt),
	})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return pair, nil
}

func (j *JWTManager) registered(userID uuid.UUID, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (j *JWTManager) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(signingMethod, claims).SignedString(j.key)
}

// Parse verifies a token of the wanted kind. An expired token yields
// ErrTokenExpired; every other failure yields ErrInvalidToken.
func (j *JWTManager) Parse(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := j.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, app_errors.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", app_errors.ErrInvalidToken, err)
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: %s token used as %s token", app_errors.ErrInvalidToken, claims.TokenType, wantType)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", app_errors.ErrInvalidToken)
	}
	return claims, nil
}

// hashToken is the digest a session is stored under.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}
