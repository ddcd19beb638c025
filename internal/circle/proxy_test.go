package circle

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacolor/casacolor-backend-go/internal/config"
)

func proxyRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/v1/w3s/*path", svc.ProxyHandler())
	return r
}

func proxyConfig(baseURL, apiKey, secretHex string) config.CircleConfig {
	return config.CircleConfig{
		APIKey:          apiKey,
		EntitySecretHex: secretHex,
		BaseURL:         baseURL,
		ProxyPrefix:     "/v1/w3s",
		Timeout:         "5s",
	}
}

func TestProxyMissingAPIKeyReturns401(t *testing.T) {
	svc := NewService(proxyConfig("http://unused.invalid", "", strings.Repeat("ab", 32)), quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/w3s/developer/wallets", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body proxyError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.Message)
}

func TestProxyShortSecretReturns400WithCharCount(t *testing.T) {
	svc := NewService(proxyConfig("http://unused.invalid", "api-key", strings.Repeat("a", 63)), quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/w3s/developer/wallets", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body proxyError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PROXY_CONFIG", body.Code)
	assert.Contains(t, body.Message, "63 caracteres")
}

func TestProxyNonHexSecretReturns400(t *testing.T) {
	svc := NewService(proxyConfig("http://unused.invalid", "api-key", strings.Repeat("x", 64)), quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/w3s/developer/wallets", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body proxyError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PROXY_CONFIG", body.Code)
	assert.Contains(t, body.Message, "no hexadecimales")
}

func TestProxyInjectsFreshCiphertextPerRequest(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var seen []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/w3s/config/entity/publicKey" {
			keySrv := testKeyServerPayload(t, priv)
			w.Write(keySrv)
			return
		}
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		ct, _ := payload["entitySecretCiphertext"].(string)
		require.NotEmpty(t, ct, "qualifying requests must carry a ciphertext")
		seen = append(seen, ct)
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer upstream.Close()

	svc := NewService(proxyConfig(upstream.URL, "api-key", strings.Repeat("ab", 32)), quietLog(), nil)
	r := proxyRouter(svc)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/w3s/developer/wallets", bytes.NewReader([]byte(`{"blockchain":"MATIC-AMOY"}`)))
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Len(t, seen, 2)
	assert.NotEqual(t, seen[0], seen[1], "ciphertext must never be reused across requests")
}

func TestProxyGetPassesThroughWithoutInjection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"wallets":[]}}`))
	}))
	defer upstream.Close()

	svc := NewService(proxyConfig(upstream.URL, "api-key", strings.Repeat("ab", 32)), quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/w3s/wallets?pageSize=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"wallets":[]}}`, w.Body.String())
}

func TestProxyAddsHintOnUpstream401(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Malformed authorization"}`))
	}))
	defer upstream.Close()

	svc := NewService(proxyConfig(upstream.URL, "api-key", ""), quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/w3s/wallets", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Malformed authorization", payload["message"])
	assert.Contains(t, payload["hint"], "CIRCLE_API_KEY")
}

func TestProxyLegacyStaticSecretHeader(t *testing.T) {
	var gotHeader string
	var gotBody map[string]interface{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Entity-Secret")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	cfg := proxyConfig(upstream.URL, "api-key", "")
	cfg.EntitySecret = "pre-registered-ciphertext"
	svc := NewService(cfg, quietLog(), nil)
	r := proxyRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/w3s/developer/wallets", strings.NewReader(`{"blockchain":"MATIC-AMOY"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pre-registered-ciphertext", gotHeader)
	_, injected := gotBody["entitySecretCiphertext"]
	assert.False(t, injected, "legacy mode must not rewrite the body")
}

// testKeyServerPayload returns the JSON body the provider serves for its
// public key endpoint.
func testKeyServerPayload(t *testing.T, priv *rsa.PrivateKey) []byte {
	t.Helper()
	srv := testKeyServer(t, priv, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/w3s/config/entity/publicKey")
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}
