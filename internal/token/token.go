package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AnshRaj112/winter-backend/internal/models"
)

var (
	// ErrInvalidToken covers bad signatures, tampered payloads and malformed encodings.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the minimal identity payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"userId"`
	UID         string `json:"uId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AvatarColor string `json:"avatarColor,omitempty"`
}

// Issuer signs and verifies HS256 session tokens with a server-held secret.
// A zero TTL omits the expiry claim entirely, matching the legacy token shape;
// any other TTL is applied as-is.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token over the credential record for the given user id.
func (i *Issuer) Sign(auth *models.AuthUser, userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID:      userID,
		UID:         auth.UID,
		Username:    auth.Username,
		Email:       auth.Email,
		AvatarColor: auth.AvatarColor,
	}
	if i.ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks the signature and returns the identity payload.
func (i *Issuer) Verify(tokenString string) (*models.AuthPayload, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	payload := &models.AuthPayload{
		UserID:      claims.UserID,
		UID:         claims.UID,
		Username:    claims.Username,
		Email:       claims.Email,
		AvatarColor: claims.AvatarColor,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Unix()
	}
	return payload, nil
}
