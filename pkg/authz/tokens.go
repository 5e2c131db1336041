package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing, signature,
	// expiry, type or revocation checks.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("token signing secret is required")
)

// TokenConfig configures session token issuance.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultTokenConfig returns a TokenConfig with default lifetimes. The
// secret must still be supplied.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		Issuer:     "sipcass",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

// Claims are the JWT claims of a session token. Subject is the employee id.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
	Name      string `json:"name,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Region    string `json:"region,omitempty"`
}

// TokenPair is the access/refresh pair handed to a client after login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	cfg         TokenConfig
	revocations RevocationStore
	now         func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. revocations may be nil, in which case
// refresh tokens cannot be revoked.
func NewTokenIssuer(cfg TokenConfig, revocations RevocationStore) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	def := DefaultTokenConfig()
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = def.AccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = def.RefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = def.Issuer
	}
	return &TokenIssuer{cfg: cfg, revocations: revocations, now: time.Now}, nil
}

// Issue signs a fresh access/refresh pair for p.
func (ti *TokenIssuer) Issue(p Principal) (TokenPair, error) {
	access, err := ti.sign(p, TokenTypeAccess, ti.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.sign(p, TokenTypeRefresh, ti.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (ti *TokenIssuer) sign(p Principal, tokenType string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   p.EmployeeID,
			Issuer:    ti.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		Name:      p.Name,
		Role:      p.Role,
		Region:    p.Region,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ti.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns its claims.
func (ti *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return ti.parse(token, TokenTypeAccess)
}

// VerifyRefresh validates a refresh token, including its revocation status.
func (ti *TokenIssuer) VerifyRefresh(ctx context.Context, token string) (*Claims, error) {
	claims, err := ti.parse(token, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if ti.revocations == nil {
		return claims, nil
	}
	revoked, err := ti.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke marks a refresh token as unusable until it expires.
func (ti *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if ti.revocations == nil || claims == nil {
		return nil
	}
	expiresAt := ti.now().Add(ti.cfg.RefreshTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return ti.revocations.Revoke(ctx, claims.ID, expiresAt)
}

func (ti *TokenIssuer) parse(token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(ti.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
