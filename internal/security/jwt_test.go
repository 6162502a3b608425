package security

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/cwrk-planet/realtime-service/internal/domain"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "cwrk-planet-auth"
	testAudience = "cwrk-planet"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims AccessClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(now time.Time) AccessClaims {
	return AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "u1",
			Issuer:    testIssuer,
			Audience:  testAudience,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(time.Hour).Unix(),
		},
		Role:  "client",
		Name:  "Client One",
		Email: "u1@example.com",
	}
}

func TestVerifyValidToken(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	id, err := v.Verify(signToken(t, key, validClaims(time.Now())))
	require.NoError(t, err)

	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, domain.RoleClient, id.Role)
	assert.Equal(t, "Client One", id.Name)
	assert.Equal(t, "u1@example.com", id.Email)
}

func TestVerifyExpiredToken(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims(time.Now().Add(-2 * time.Hour))
	_, err := v.Verify(signToken(t, key, claims))
	assert.Error(t, err)
}

func TestVerifyWrongIssuer(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims(time.Now())
	claims.Issuer = "someone-else"
	_, err := v.Verify(signToken(t, key, claims))
	assert.ErrorIs(t, err, domain.ErrInvalidIssuer)
}

func TestVerifyWrongAudience(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims(time.Now())
	claims.Audience = "other-app"
	_, err := v.Verify(signToken(t, key, claims))
	assert.ErrorIs(t, err, domain.ErrInvalidAudience)
}

func TestVerifyUnknownRole(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims(time.Now())
	claims.Role = "admin"
	_, err := v.Verify(signToken(t, key, claims))
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestVerifyMissingSubject(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	claims := validClaims(time.Now())
	claims.Subject = ""
	_, err := v.Verify(signToken(t, key, claims))
	assert.ErrorIs(t, err, domain.ErrInvalidSubject)
}

func TestVerifyRejectsHMAC(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	// токен с HS256 и «секретом» вместо RSA-подписи
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(time.Now())).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(s)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	key := testKey(t)
	v := NewTokenVerifier(&key.PublicKey, testIssuer, testAudience, 30*time.Second)

	_, err := v.Verify("not-a-jwt")
	assert.Error(t, err)
}
