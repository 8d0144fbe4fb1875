package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-key-12345"
	testRefreshSecret = "test-refresh-key-67890"
)

func newTestIssuer(at time.Time) *Issuer {
	i := NewIssuer(testAccessSecret, testRefreshSecret)
	i.now = func() time.Time { return at }
	return i
}

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		hashed, err := HashPassword("barber-pass")

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, "barber-pass", hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		hash1, _ := HashPassword("samePassword")
		hash2, _ := HashPassword("samePassword")

		// bcrypt salts every hash
		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	hashed, _ := HashPassword("correctPassword")

	assert.True(t, CheckPassword(hashed, "correctPassword"))
	assert.False(t, CheckPassword(hashed, "wrongPassword"))
	assert.False(t, CheckPassword(hashed, ""))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "correctPassword"))
}

func TestIssuer_SignAndParse(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	issuerAt := newTestIssuer(now)

	for _, kind := range []TokenKind{AccessToken, RefreshToken} {
		t.Run(string(kind), func(t *testing.T) {
			raw, err := issuerAt.Sign(kind, "owner", RoleAdmin)
			require.NoError(t, err)

			claims, err := issuerAt.Parse(kind, raw)
			require.NoError(t, err)

			assert.Equal(t, "owner", claims.Username())
			assert.Equal(t, RoleAdmin, claims.Role)
			assert.Equal(t, kind, claims.Kind)
			assert.Equal(t, issuer, claims.Issuer)
			assert.Contains(t, claims.Audience, audience)
			assert.Equal(t, now, claims.IssuedAt.Time.UTC())
			assert.Equal(t, now.Add(issuerAt.ttls[kind]), claims.ExpiresAt.Time.UTC())
		})
	}
}

func TestIssuer_Issue(t *testing.T) {
	issuerAt := newTestIssuer(time.Now())

	pair, err := issuerAt.Issue("admin", RoleAdmin)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	_, err = issuerAt.Parse(AccessToken, pair.Access)
	assert.NoError(t, err)
	_, err = issuerAt.Parse(RefreshToken, pair.Refresh)
	assert.NoError(t, err)
}

func TestIssuer_EmptySecrets(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
	}{
		{"no access secret", "", testRefreshSecret},
		{"no refresh secret", testAccessSecret, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := NewIssuer(tt.access, tt.refresh).Issue("admin", RoleAdmin)
			assert.ErrorIs(t, err, ErrEmptyJWTSecret)
			assert.Empty(t, pair.Access)
		})
	}

	_, err := NewIssuer("", "").Parse(AccessToken, "a.b.c")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestIssuer_ParseRejects(t *testing.T) {
	now := time.Now()
	issuerAt := newTestIssuer(now)

	access, err := issuerAt.Sign(AccessToken, "admin", RoleAdmin)
	require.NoError(t, err)
	refresh, err := issuerAt.Sign(RefreshToken, "admin", RoleAdmin)
	require.NoError(t, err)

	forged := func(claims Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	withIssuer := valid
	withIssuer.Issuer = "someone-else"
	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"garbage", "invalid.token.format", ErrInvalidToken},
		{"refresh token as access", refresh, ErrInvalidToken},
		{"signed with another key", NewIssuer("other-key", "x").mustSign(t, AccessToken), ErrInvalidToken},
		{"refresh kind under access key", forged(Claims{Role: RoleAdmin, Kind: RefreshToken, RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte(testAccessSecret)), ErrWrongTokenKind},
		{"foreign issuer", forged(Claims{Role: RoleAdmin, Kind: AccessToken, RegisteredClaims: withIssuer}, jwt.SigningMethodHS256, []byte(testAccessSecret)), ErrInvalidToken},
		{"missing subject", forged(Claims{Role: RoleAdmin, Kind: AccessToken, RegisteredClaims: noSubject}, jwt.SigningMethodHS256, []byte(testAccessSecret)), ErrInvalidToken},
		{"unsigned", forged(Claims{Role: RoleAdmin, Kind: AccessToken, RegisteredClaims: valid}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuerAt.Parse(AccessToken, tt.raw)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, claims)
		})
	}

	_, err = issuerAt.Parse(AccessToken, access)
	assert.NoError(t, err)
}

func TestIssuer_Expiry(t *testing.T) {
	issued := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	signer := newTestIssuer(issued)

	access, err := signer.Sign(AccessToken, "admin", RoleAdmin)
	require.NoError(t, err)
	refresh, err := signer.Sign(RefreshToken, "admin", RoleAdmin)
	require.NoError(t, err)

	later := newTestIssuer(issued.Add(AccessTokenTTL + time.Minute))

	_, err = later.Parse(AccessToken, access)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Refresh tokens outlive access tokens.
	_, err = later.Parse(RefreshToken, refresh)
	assert.NoError(t, err)

	muchLater := newTestIssuer(issued.Add(RefreshTokenTTL + time.Minute))
	_, err = muchLater.Parse(RefreshToken, refresh)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_Refresh(t *testing.T) {
	issuerAt := newTestIssuer(time.Now())

	t.Run("issues a usable access token", func(t *testing.T) {
		refresh, err := issuerAt.Sign(RefreshToken, "admin", RoleAdmin)
		require.NoError(t, err)

		access, claims, err := issuerAt.Refresh(refresh)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username())

		parsed, err := issuerAt.Parse(AccessToken, access)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, parsed.Role)
		assert.Equal(t, AccessToken, parsed.Kind)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		access, err := issuerAt.Sign(AccessToken, "admin", RoleAdmin)
		require.NoError(t, err)

		got, claims, err := issuerAt.Refresh(access)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Empty(t, got)
		assert.Nil(t, claims)
	})
}

func (i *Issuer) mustSign(t *testing.T, kind TokenKind) string {
	t.Helper()
	raw, err := i.Sign(kind, "admin", RoleAdmin)
	require.NoError(t, err)
	return raw
}
