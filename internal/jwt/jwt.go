// Package jwt issues and verifies the operator tokens that guard the
// mutating API endpoints.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret    = errors.New("token secret is not configured")
	ErrMissingOperator  = errors.New("operator name is required")
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
)

var tokenSignatureAlg = jwt.SigningMethodHS256

const tokenIssuer = "rfid-access-console"

// Claim for operator tokens
type OperatorClaim struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer for HS256 tokens. ttl is in minutes.
func NewSigner(secret string, ttl uint) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl == 0 {
		return nil, fmt.Errorf("invalid token TTL: %d", ttl)
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    time.Duration(ttl) * time.Minute,
		now:    time.Now,
	}, nil
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

func (s *Signer) newClaim(operator string, ttl time.Duration) OperatorClaim {
	now := s.now().UTC()
	return OperatorClaim{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Issue signs a token for operator. A zero ttl uses the signer default.
func (s *Signer) Issue(operator string, ttl time.Duration) (string, error) {
	if operator == "" {
		return "", ErrMissingOperator
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	claim := s.newClaim(operator, ttl)
	token := jwt.NewWithClaims(tokenSignatureAlg, claim)
	return token.SignedString(s.secret)
}

// Decode verifies the signature, expiry and issuer of tokenString.
func (s *Signer) Decode(tokenString string) (*OperatorClaim, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &OperatorClaim{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	if err != nil {
		return nil, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return nil, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(*OperatorClaim); ok {
		if claims.Operator == "" {
			return nil, ErrMissingOperator
		}
		return claims, nil
	}

	return nil, ErrInvalidClaimType
}
