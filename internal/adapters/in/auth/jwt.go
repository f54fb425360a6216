// Package auth resolves bearer tokens into actors. Tokens are HS256 JWTs carrying the
// user id and role, the format issued by the account service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, malformed, badly signed or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

var _ ports.IdentityResolver = (*JWTResolver)(nil)

// Claims is the payload of an identity token.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTResolver struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:    time.Now,
	}
}

func (r *JWTResolver) Resolve(_ context.Context, token string) (kernel.Actor, error) {
	if token == "" {
		return kernel.Actor{}, ErrInvalidToken
	}

	var claims Claims
	if _, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}); err != nil {
		return kernel.Actor{}, errors.Join(ErrInvalidToken, err)
	}

	userID, err := kernel.UUIDFromString(claims.UserID)
	if err != nil {
		return kernel.Actor{}, errors.Join(ErrInvalidToken, err)
	}
	role, err := kernel.ParseRole(claims.Role)
	if err != nil {
		return kernel.Actor{}, errors.Join(ErrInvalidToken, err)
	}

	return kernel.NewActor(userID, role)
}

// Issue signs a token for the actor. The service itself never logs anyone in; Issue exists
// for tooling and tests.
func (r *JWTResolver) Issue(actor kernel.Actor, ttl time.Duration) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}

	now := r.now()
	claims := Claims{
		UserID: actor.ID().String(),
		Role:   actor.Role().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign identity token: %w", err)
	}
	return signed, nil
}
