package circle

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyServer(t *testing.T, priv *rsa.PrivateKey, fetches *int32) *httptest.Server {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/w3s/config/entity/publicKey" {
			http.NotFound(w, r)
			return
		}
		if fetches != nil {
			atomic.AddInt32(fetches, 1)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"publicKey": pemText},
		})
	}))
}

func TestValidateEntitySecretHex(t *testing.T) {
	valid := strings.Repeat("ab", 32)
	require.Len(t, valid, 64)
	assert.NoError(t, ValidateEntitySecretHex(valid))

	err := ValidateEntitySecretHex(valid[:63])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "63 caracteres")

	err = ValidateEntitySecretHex(strings.Repeat("z", 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hexadecimales")

	err = ValidateEntitySecretHex("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 caracteres")
}

func TestGenerateCiphertextIsFreshPerCall(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int32
	srv := testKeyServer(t, priv, &fetches)
	defer srv.Close()

	keys := NewKeyCache(srv.URL, "api-key", 0, quietLog())
	secretHex := strings.Repeat("0f", 32)

	first, err := GenerateCiphertext(context.Background(), keys, secretHex)
	require.NoError(t, err)
	second, err := GenerateCiphertext(context.Background(), keys, secretHex)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "OAEP output must differ per call; the provider rejects reuse")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches), "public key fetched once per process")

	// Both envelopes decrypt to the same plaintext secret.
	want, err := hex.DecodeString(secretHex)
	require.NoError(t, err)
	for _, ct := range []string{first, second} {
		raw, err := base64.StdEncoding.DecodeString(ct)
		require.NoError(t, err)
		plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, raw, nil)
		require.NoError(t, err)
		assert.Equal(t, want, plain)
	}
}

func TestGenerateCiphertextRejectsMalformedSecret(t *testing.T) {
	keys := NewKeyCache("http://unused.invalid", "api-key", 0, quietLog())
	_, err := GenerateCiphertext(context.Background(), keys, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 caracteres")
}

func TestParseRSAPublicKeyPKCS1(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der := x509.MarshalPKCS1PublicKey(&priv.PublicKey)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}))

	key, err := ParseRSAPublicKey(pemText)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey.N, key.N)
}

func TestParseRSAPublicKeyRejectsGarbage(t *testing.T) {
	_, err := ParseRSAPublicKey("not pem at all")
	assert.Error(t, err)
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}
