package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mahaj/chatroom/pkg/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the chat identity of a connection. The token only names the
// user; it is not a credential check.
type Claims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	UserAvatar string `json:"user_avatar,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) User() model.User {
	return model.User{ID: c.UserID, Username: c.Username, UserAvatar: c.UserAvatar}
}

type contextKey string

const UserKey contextKey = "user"

// Signer issues and validates identity tokens with an HMAC secret.
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret), ttl: 24 * time.Hour}
}

// GenerateToken creates a token for user valid for 24 hours.
func (s *Signer) GenerateToken(user model.User) (string, error) {
	claims := &Claims{
		UserID:     user.ID,
		Username:   user.Username,
		UserAvatar: user.UserAvatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// ValidateToken parses and validates a token.
func (s *Signer) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// BearerToken strips an optional "Bearer " prefix.
func BearerToken(header string) string {
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return header
}
