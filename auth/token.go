package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	issuer    = "kuticlicker"
)

var (
	ErrNoSecret         = errors.New("admin secret not configured")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Claims identify an operator. Players never carry tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 operator tokens.
type TokenManager struct {
	secret []byte
	maxAge time.Duration
}

func NewTokenManager(secret string, maxAge time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), maxAge: maxAge}
}

func (m *TokenManager) Generate(subject, role string, now time.Time) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRole is Verify plus a role check.
func (m *TokenManager) VerifyRole(tokenString, role string) (*Claims, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, ErrInsufficientRole
	}
	return claims, nil
}
