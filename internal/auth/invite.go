package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidInvite = errors.New("invalid or expired invite")

// InviteManager issues and validates signed invite tokens. An invite lets a
// user join a group through a deep link without typing the join secret.
type InviteManager struct {
	secretKey []byte
	ttl       time.Duration
}

// InviteClaims carries the invited group in a standard JWT claim set.
type InviteClaims struct {
	GroupID string `json:"group_id"`
	jwt.RegisteredClaims
}

// NewInviteManager creates an invite manager. secretKey should be a strong
// random string; ttl bounds how long an invite link stays redeemable.
func NewInviteManager(secretKey string, ttl time.Duration) *InviteManager {
	return &InviteManager{secretKey: []byte(secretKey), ttl: ttl}
}

// Generate creates a signed invite token for the given group.
func (m *InviteManager) Generate(groupID string) (string, error) {
	claims := &InviteClaims{
		GroupID: groupID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign invite: %w", err)
	}
	return tokenString, nil
}

// Validate parses an invite token and returns the group it opens.
func (m *InviteManager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&InviteClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}

	claims, ok := token.Claims.(*InviteClaims)
	if !ok || !token.Valid || claims.GroupID == "" {
		return "", ErrInvalidInvite
	}
	return claims.GroupID, nil
}
