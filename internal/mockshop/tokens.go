package mockshop

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flora-shops.com/internal/shop"
)

const defaultTokenTTL = time.Hour

// tokenIssuer mints and verifies the stub's HS256 bearer tokens. Role is
// baked in at issuance: a role upgraded server-side shows up only in tokens
// issued afterwards, which is exactly the staleness real deployments exhibit.
type tokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string) *tokenIssuer {
	return &tokenIssuer{
		secret: []byte(secret),
		issuer: "mockshop",
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
}

func (t *tokenIssuer) Issue(u *User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     string(u.Role),
		"iss":      t.issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// tokenClaims is the verified view of a bearer token. Role comes from the
// claim, not the store: a server-side upgrade is invisible until reissue.
type tokenClaims struct {
	Subject string
	Role    shop.Role
}

// Verify parses and validates a bearer token.
func (t *tokenIssuer) Verify(token string) (tokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return tokenClaims{}, err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return tokenClaims{}, fmt.Errorf("token has no subject")
	}
	role, _ := claims["role"].(string)
	return tokenClaims{Subject: sub, Role: shop.Role(role)}, nil
}
