// Package auth signs and validates access and refresh tokens and checks
// passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

// AccessCodec issues and validates short-lived access tokens.
type AccessCodec struct {
	secret   []byte
	validity time.Duration
	leeway   time.Duration
}

func NewAccessCodec(secret []byte, validity, leeway time.Duration) *AccessCodec {
	return &AccessCodec{secret: secret, validity: validity, leeway: leeway}
}

// Validity is the lifetime given to newly issued access tokens.
func (c *AccessCodec) Validity() time.Duration {
	return c.validity
}

// Issue signs an access token for the user expiring validity after now.
func (c *AccessCodec) Issue(userID int64, username string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(signingMethod, models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   userID,
		UserName: username,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return tokenString, nil
}

// Validate verifies an access token. An optional "Bearer " prefix is
// stripped first. When enforceExpiry is false the exp claim is not checked,
// which the refresh flow relies on; it must still be present, so a refresh
// token is never accepted here.
func (c *AccessCodec) Validate(tokenString string, now time.Time, enforceExpiry bool) (*models.AccessClaims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, common.BearerPrefix))

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if enforceExpiry {
		opts = append(opts, jwt.WithLeeway(c.leeway), jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &models.AccessClaims{}
	if err := parse(tokenString, claims, c.secret, opts...); err != nil {
		return nil, err
	}
	if claims.UserID == 0 || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// RefreshCodec issues and decodes refresh tokens. Refresh tokens carry no
// expiry of their own; the stored record decides whether one is still
// usable.
type RefreshCodec struct {
	secret []byte
}

func NewRefreshCodec(secret []byte) *RefreshCodec {
	return &RefreshCodec{secret: secret}
}

// Issue signs a refresh token for the user. Every call yields a distinct
// string because of the random jti.
func (c *RefreshCodec) Issue(userID int64, username string) (string, error) {
	token := jwt.NewWithClaims(signingMethod, models.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
		UserID:   userID,
		UserName: username,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return tokenString, nil
}

// Parse checks the signature of a refresh token and returns its claims.
func (c *RefreshCodec) Parse(tokenString string) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	err := parse(strings.TrimSpace(tokenString), claims, c.secret,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte, opts ...jwt.ParserOption) error {
	if tokenString == "" {
		return common.ErrMalformedToken
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return mapJWTError(err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrInvalidToken
	}
}
