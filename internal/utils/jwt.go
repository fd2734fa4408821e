// Package utils provides token issuing and password hashing helpers.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matchpoint/court-booking/internal/model"
)

// AccessToken is a signed HS256 JWT plus its expiry.  The token carries
// sub (user id), role, exp and iat claims; the role claim is what the role
// middleware gates routes on.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque token.  Raw goes back to the client;
// only its SHA-256 hash is ever stored.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs an access token for a user.
func NewAccessToken(secret string, userID uint64, role model.Role, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically random refresh token valid
// for ttlDays days.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: hex.EncodeToString(buf),
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the hex SHA-256 digest of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ParseAccessToken verifies an access token and extracts the user id and
// role claims.  It rejects tokens signed with anything but HMAC.
func ParseAccessToken(secret, raw string) (uint64, model.Role, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, "", jwt.ErrTokenUnverifiable
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", jwt.ErrTokenInvalidClaims
	}
	role, _ := claims["role"].(string)
	return uint64(sub), model.Role(role), nil
}
