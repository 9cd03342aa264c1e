package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/articlehub/articlehub/internal/config"
)

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := NewContext(context.Background(), &Identity{UID: "u1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", id.UID)
}

func TestHMACVerifier(t *testing.T) {
	v, err := NewHMACVerifier("secret")
	require.NoError(t, err)
	ctx := context.Background()

	tok, err := IssueHMACToken("secret", Identity{UID: "u1", Email: "u1@example.com"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, "u1", id.UID)
	require.Equal(t, "u1@example.com", id.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, 5*time.Second)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := IssueHMACToken("other", Identity{UID: "u1"}, time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(ctx, other)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := IssueHMACToken("secret", Identity{UID: "u1"}, -time.Minute)
		require.NoError(t, err)
		_, err = v.Verify(ctx, old)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(ctx, raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		_, err := v.Verify(ctx, unsignedToken(`{"sub":"u-none","exp":9999999999}`))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(tok, ".")
		require.Len(t, parts, 3)
		payload, err := jwt.NewParser().DecodeSegment(parts[1])
		require.NoError(t, err)
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payload), `"u1"`, `"attacker"`, 1)))
		_, err = v.Verify(ctx, strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	_, err = NewHMACVerifier("")
	require.Error(t, err)
}

func unsignedToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + "."
}

func TestInsecureVerifier(t *testing.T) {
	v := NewInsecureVerifier()
	ctx := context.Background()

	id, err := v.Verify(ctx, unsignedToken(`{"sub":"u1","name":"Ann"}`))
	require.NoError(t, err)
	require.Equal(t, "u1", id.UID)
	require.Equal(t, "Ann", id.Name)

	// Firebase-style payload without sub
	id, err = v.Verify(ctx, unsignedToken(`{"user_id":"fb-1"}`))
	require.NoError(t, err)
	require.Equal(t, "fb-1", id.UID)

	_, err = v.Verify(ctx, unsignedToken(`{"sub":"u1","exp":1}`))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "onlyonepart")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "a.!!!.c")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestOIDCVerifier_StaticKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := FirebaseIssuer("demo-project")
	v := NewOIDCVerifierWithKeySet(issuer, "demo-project", &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})
	ctx := context.Background()

	sign := func(claims jwt.MapClaims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}
	exp := time.Now().Add(time.Hour).Unix()

	id, err := v.Verify(ctx, sign(jwt.MapClaims{"iss": issuer, "aud": "demo-project", "sub": "fb-uid", "exp": exp, "email": "a@b.c"}))
	require.NoError(t, err)
	require.Equal(t, "fb-uid", id.UID)
	require.Equal(t, "a@b.c", id.Email)
	require.Equal(t, exp, id.ExpiresAt.Unix())

	_, err = v.Verify(ctx, sign(jwt.MapClaims{"iss": issuer, "aud": "other-project", "sub": "fb-uid", "exp": exp}))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, sign(jwt.MapClaims{"iss": issuer, "aud": "demo-project", "sub": "fb-uid", "exp": time.Now().Add(-time.Hour).Unix()}))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuers(t *testing.T) {
	require.Equal(t, "https://securetoken.google.com/p1", FirebaseIssuer("p1"))
	require.Equal(t, "https://kc.example.com/realms/blog", KeycloakIssuer("https://kc.example.com/", "blog"))
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	v, err := FromConfig(ctx, config.IdentityConfig{}, nil)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = FromConfig(ctx, config.IdentityConfig{HMACSecret: "s"}, nil)
	require.NoError(t, err)
	require.IsType(t, &HMACVerifier{}, v)

	v, err = FromConfig(ctx, config.IdentityConfig{AllowInsecure: true}, nil)
	require.NoError(t, err)
	require.IsType(t, &InsecureVerifier{}, v)

	_, rdb := newMiniredis(t)
	v, err = FromConfig(ctx, config.IdentityConfig{HMACSecret: "s", CacheTTL: time.Minute}, rdb)
	require.NoError(t, err)
	require.IsType(t, &CachingVerifier{}, v)
}
