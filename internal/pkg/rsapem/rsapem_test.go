package rsapem

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_PKCS1RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	got, err := Parse(Encode(key))
	require.NoError(t, err)
	require.Equal(t, key.N, got.N)
	require.Equal(t, key.E, got.E)
}

func TestParse_PKCS8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	got, err := Parse(pemStr)
	require.NoError(t, err)
	require.Equal(t, key.N, got.N)
}

func TestParse_Errors(t *testing.T) {
	t.Run("not pem", func(t *testing.T) {
		_, err := Parse("definitely not a pem block")
		require.ErrorIs(t, err, ErrNotPEM)
	})

	t.Run("pkcs8 but not rsa", func(t *testing.T) {
		ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		der, err := x509.MarshalPKCS8PrivateKey(ec)
		require.NoError(t, err)
		pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		_, err = Parse(pemStr)
		require.ErrorIs(t, err, ErrNotRSA)
	})

	t.Run("pem with garbage body", func(t *testing.T) {
		pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte("junk")}))
		_, err := Parse(pemStr)
		require.Error(t, err)
	})
}
