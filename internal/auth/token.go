package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenGenerator issues and verifies stateless bearer tokens.
type TokenGenerator interface {
	Issue(subject string, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Verify(token string) (*Claims, error)
}

// Claims carries the username in the standard "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewJWTTokenGenerator creates an HMAC token generator. algorithm is one of
// HS256, HS384 or HS512.
func NewJWTTokenGenerator(secret, algorithm string) (*JWTTokenGenerator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	return &JWTTokenGenerator{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}, nil
}

// WithClock swaps the time source used for issuing and expiry checks.
func (j *JWTTokenGenerator) WithClock(now func() time.Time) *JWTTokenGenerator {
	j.now = now
	return j
}

func (j *JWTTokenGenerator) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := j.now()
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(j.method, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. A token is valid strictly
// before its exp claim.
func (j *JWTTokenGenerator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
