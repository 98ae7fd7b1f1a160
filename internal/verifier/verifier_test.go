package verifier

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/bizhub-platform/auth-service/internal/claims"
	"github.com/bizhub-platform/auth-service/internal/jwks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCfg() Config {
	return Config{
		Issuer:   "auth-service",
		Audience: []string{"bizhub-api"},
		Leeway:   5 * time.Second,
	}
}

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// signToken подписывает payload с заданным kid в заголовке.
func signToken(t *testing.T, key *rsa.PrivateKey, kid string, payload jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validPayload(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   uuid.NewString(),
		"tid":   uuid.NewString(),
		"roles": []string{"admin"},
		"iss":   "auth-service",
		"aud":   []string{"bizhub-api"},
		"exp":   now.Add(15 * time.Minute).Unix(),
		"iat":   now.Unix(),
	}
}

func TestVerify_OK(t *testing.T) {
	key := testRSAKey(t)
	v := New(testCfg(), nil)
	v.InstallKey("key-1", &key.PublicKey)

	now := time.Now().UTC()
	payload := validPayload(now)
	signed := signToken(t, key, "key-1", payload)

	c, err := v.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, payload["sub"], c.Subject.String())
	require.Equal(t, payload["tid"], c.Tenant.String())
	require.Equal(t, []string{"admin"}, c.Roles)
	require.Equal(t, "auth-service", c.Issuer)
	require.Equal(t, []string{"bizhub-api"}, c.Audience)
}

func TestVerify_KeySelection(t *testing.T) {
	key := testRSAKey(t)
	v := New(testCfg(), nil)
	v.InstallKey("key-1", &key.PublicKey)

	now := time.Now().UTC()

	t.Run("missing kid", func(t *testing.T) {
		signed := signToken(t, key, "", validPayload(now))
		_, err := v.Verify(signed)
		require.ErrorIs(t, err, ErrMissingKeyID)
	})

	t.Run("unknown kid", func(t *testing.T) {
		signed := signToken(t, key, "rotated-away", validPayload(now))
		_, err := v.Verify(signed)
		require.ErrorIs(t, err, ErrUnknownKeyID)
	})

	t.Run("signature from another key", func(t *testing.T) {
		other := testRSAKey(t)
		signed := signToken(t, other, "key-1", validPayload(now))
		_, err := v.Verify(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerify_TemporalAndClaims(t *testing.T) {
	key := testRSAKey(t)
	v := New(testCfg(), nil)
	v.InstallKey("key-1", &key.PublicKey)

	now := time.Now().UTC()

	t.Run("expired", func(t *testing.T) {
		payload := validPayload(now)
		payload["exp"] = now.Add(-time.Hour).Unix()
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("expired within leeway passes", func(t *testing.T) {
		payload := validPayload(now)
		payload["exp"] = now.Add(-2 * time.Second).Unix()
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.NoError(t, err)
	})

	t.Run("missing exp", func(t *testing.T) {
		payload := validPayload(now)
		delete(payload, "exp")
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		payload := validPayload(now)
		payload["iss"] = "somebody-else"
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		payload := validPayload(now)
		payload["aud"] = []string{"other-api"}
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token string", func(t *testing.T) {
		_, err := v.Verify("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad sub claim", func(t *testing.T) {
		payload := validPayload(now)
		payload["sub"] = "not-a-uuid"
		_, err := v.Verify(signToken(t, key, "key-1", payload))
		require.ErrorIs(t, err, claims.ErrInvalidClaim)
	})
}

// stubFetcher — подменный источник ключей для проверки контракта RefreshJWKS.
type stubFetcher struct {
	keys  []jwks.Key
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context) ([]jwks.Key, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

func TestRefreshJWKS_Contract(t *testing.T) {
	priv := testRSAKey(t)

	t.Run("nil fetcher is no-op", func(t *testing.T) {
		v := New(testCfg(), nil)
		n, err := v.RefreshJWKS(context.Background())
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("fetch error keeps current set", func(t *testing.T) {
		f := &stubFetcher{err: errors.New("network down")}
		v := New(testCfg(), f)
		v.InstallKey("key-1", &priv.PublicKey)

		n, err := v.RefreshJWKS(context.Background())
		require.Error(t, err)
		require.Zero(t, n)
		require.Equal(t, 1, v.KeyCount())
	})

	t.Run("empty result keeps current set", func(t *testing.T) {
		f := &stubFetcher{}
		v := New(testCfg(), f)
		v.InstallKey("key-1", &priv.PublicKey)

		n, err := v.RefreshJWKS(context.Background())
		require.NoError(t, err)
		require.Zero(t, n)
		require.Equal(t, 1, v.KeyCount())
	})

	t.Run("non-empty result replaces whole set", func(t *testing.T) {
		f := &stubFetcher{keys: []jwks.Key{
			{Kid: "key-2", Public: &priv.PublicKey},
			{Kid: "key-3", Public: &priv.PublicKey},
		}}
		v := New(testCfg(), f)
		v.InstallKey("key-1", &priv.PublicKey)

		n, err := v.RefreshJWKS(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, 2, v.KeyCount())

		// Прежний ключ вытеснен заменой набора.
		now := time.Now().UTC()
		_, err = v.Verify(signToken(t, priv, "key-1", validPayload(now)))
		require.ErrorIs(t, err, ErrUnknownKeyID)
	})
}

func TestRefreshJWKS_FailureKeepsVerifying(t *testing.T) {
	priv := testRSAKey(t)
	f := &stubFetcher{keys: []jwks.Key{{Kid: "key-1", Public: &priv.PublicKey}}}
	v := New(testCfg(), f)

	_, err := v.RefreshJWKS(context.Background())
	require.NoError(t, err)

	// Эндпоинт упал — проверки продолжают работать по прежнему набору.
	f.err = errors.New("endpoint down")
	_, err = v.RefreshJWKS(context.Background())
	require.Error(t, err)

	now := time.Now().UTC()
	_, err = v.Verify(signToken(t, priv, "key-1", validPayload(now)))
	require.NoError(t, err)
}

func TestRunRefreshLoop_NilFetcherReturns(t *testing.T) {
	v := New(testCfg(), nil)

	done := make(chan struct{})
	go func() {
		v.RunRefreshLoop(context.Background(), time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunRefreshLoop must return immediately without fetcher")
	}
}

func TestRunRefreshLoop_StopsOnCancel(t *testing.T) {
	f := &stubFetcher{}
	v := New(testCfg(), f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		v.RunRefreshLoop(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunRefreshLoop must stop on context cancel")
	}
}
