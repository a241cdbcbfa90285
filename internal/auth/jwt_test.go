package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(key, issuer, audience string) *JWTService {
	return NewJWTService(JWTConfig{SigningKey: key, Issuer: issuer, Audience: audience})
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := newTestJWT("test-secret-key-for-testing-only", "https://content.wayfarer.travel", "wayfarer-admin")

	token, expiresAt, err := svc.Issue("editor@wayfarer.travel", RoleEditor)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	p, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "editor@wayfarer.travel", p.Subject)
	assert.Equal(t, RoleEditor, p.Role)
	assert.True(t, p.Allows(RoleEditor))
	assert.False(t, p.Allows(RoleAdmin))
}

func TestPrincipal_AdminAllowsEverything(t *testing.T) {
	p := Principal{Subject: "root", Role: RoleAdmin}
	assert.True(t, p.Allows(RoleEditor))
	assert.True(t, p.Allows(RoleAdmin))
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newTestJWT("test-secret-key-for-testing-only", "https://content.wayfarer.travel", "wayfarer-admin")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	token, _, err := newTestJWT("key-one", "iss", "aud").Issue("editor", RoleEditor)
	require.NoError(t, err)

	_, err = newTestJWT("key-two", "iss", "aud").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongIssuerOrAudience(t *testing.T) {
	token, _, err := newTestJWT("test-key", "issuer-one", "audience-one").Issue("editor", RoleEditor)
	require.NoError(t, err)

	_, err = newTestJWT("test-key", "issuer-two", "audience-one").Verify(token)
	assert.Error(t, err)

	_, err = newTestJWT("test-key", "issuer-one", "audience-two").Verify(token)
	assert.Error(t, err)
}

func TestJWTService_UnknownRole(t *testing.T) {
	svc := newTestJWT("test-key", "iss", "aud")

	token, _, err := svc.Issue("visitor", "viewer")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWT("test-key", "iss", "aud")
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.Issue("editor", RoleEditor)
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(DefaultTokenExpiry + time.Minute) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
