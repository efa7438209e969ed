// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/socialrelay/internal/config"
	"github.com/tomtom215/socialrelay/internal/models"
	"github.com/tomtom215/socialrelay/internal/validation"
)

// minSecretLength matches the check in config validation.
const minSecretLength = 32

// Claims are the JWT claims issued by the account service.
type Claims struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified caller of a request or socket.
type Identity struct {
	UserID   string
	UserName string
	FullName string
	Avatar   string
}

// User returns the user record provisioned for the identity.
func (i Identity) User() models.User {
	return models.User{
		ID:       i.UserID,
		UserName: i.UserName,
		FullName: i.FullName,
		Avatar:   i.Avatar,
	}
}

// JWTManager verifies and issues HS256 tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager creates a JWT manager from the security configuration.
//
// The secret must be at least 32 characters. Tokens issued by GenerateToken
// expire after cfg.TokenTTL.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// GenerateToken signs a token for id. The service itself never logs users in;
// this exists for tests and operator tooling.
func (m *JWTManager) GenerateToken(id Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   id.UserID,
		UserName: id.UserName,
		FullName: id.FullName,
		Avatar:   id.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a raw token and returns the identity it carries.
//
// Tokens signed with anything other than HMAC are rejected before the
// signature is checked, which closes the alg=none and RS/HS confusion
// attacks. Every failure wraps models.ErrAuthentication.
func (m *JWTManager) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing token", models.ErrAuthentication)
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", models.ErrAuthentication, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token claims", models.ErrAuthentication)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: token has no user id", models.ErrAuthentication)
	}
	// Reported as an authentication failure, not a validation one.
	if err := validation.UserID(claims.UserID); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", models.ErrAuthentication, err)
	}

	return Identity{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		FullName: claims.FullName,
		Avatar:   claims.Avatar,
	}, nil
}
