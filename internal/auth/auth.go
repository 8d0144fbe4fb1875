package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer   = "barbershop-api"
	audience = "barbershop-admin"

	RoleAdmin = "admin"

	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenKind separates short-lived access tokens from refresh tokens. Each
// kind is signed with its own key.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenKind = errors.New("wrong token kind")
	ErrEmptyJWTSecret = errors.New("jwt secret cannot be empty")
)

// Claims names the admin in the standard subject claim.
type Claims struct {
	Role string    `json:"role"`
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

func (c *Claims) Username() string {
	return c.Subject
}

type TokenPair struct {
	Access  string
	Refresh string
}

// Issuer signs and checks the admin console's tokens.
type Issuer struct {
	keys map[TokenKind][]byte
	ttls map[TokenKind]time.Duration
	now  func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string) *Issuer {
	return &Issuer{
		keys: map[TokenKind][]byte{
			AccessToken:  []byte(accessSecret),
			RefreshToken: []byte(refreshSecret),
		},
		ttls: map[TokenKind]time.Duration{
			AccessToken:  AccessTokenTTL,
			RefreshToken: RefreshTokenTTL,
		},
		now: time.Now,
	}
}

func (i *Issuer) key(kind TokenKind) ([]byte, error) {
	k := i.keys[kind]
	if len(k) == 0 {
		return nil, ErrEmptyJWTSecret
	}
	return k, nil
}

func (i *Issuer) Sign(kind TokenKind, username, role string) (string, error) {
	k, err := i.key(kind)
	if err != nil {
		return "", err
	}

	issuedAt := i.now()
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttls[kind])),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k)
}

// Issue signs the access and refresh pair handed out at login.
func (i *Issuer) Issue(username, role string) (TokenPair, error) {
	access, err := i.Sign(AccessToken, username, role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.Sign(RefreshToken, username, role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse verifies raw as a token of the given kind.
func (i *Issuer) Parse(kind TokenKind, raw string) (*Claims, error) {
	k, err := i.key(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return k, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh trades a refresh token for a new access token.
func (i *Issuer) Refresh(raw string) (string, *Claims, error) {
	claims, err := i.Parse(RefreshToken, raw)
	if err != nil {
		return "", nil, err
	}
	access, err := i.Sign(AccessToken, claims.Username(), claims.Role)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashedPassword, plainPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword)) == nil
}
