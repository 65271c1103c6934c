package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session token fields: a random token id (jti), the
// owning user (sub), issue time and expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken mints a signed session token for userID valid from issuedAt
// for validityDuration. Each call embeds fresh randomness, so two tokens for
// the same user at the same instant still differ.
func GenerateToken(userID string, secretKey []byte, issuedAt time.Time, validityDuration time.Duration) (string, error) {
	jti, err := common.MakeRandHexString(common.SessionTokenBytes)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString as of now and
// returns its claims. Expired tokens yield common.ErrTokenExpired, anything
// else that fails verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
