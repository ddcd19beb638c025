package circle

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWalletSetNarrowsResponse(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/w3s/config/entity/publicKey" {
			w.Write(testKeyServerPayload(t, priv))
			return
		}
		require.Equal(t, "/v1/w3s/developer/walletSets", r.URL.Path)

		var req walletSetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.IdempotencyKey)
		assert.NotEmpty(t, req.EntitySecretCiphertext)
		assert.Equal(t, "resident-wallets", req.Name)

		// Deliberately includes provider internals that must not leak.
		w.Write([]byte(`{"data":{"walletSet":{
			"id":"ws-123","name":"resident-wallets",
			"createDate":"2026-01-01T00:00:00Z","updateDate":"2026-01-02T00:00:00Z",
			"custodyType":"DEVELOPER","entityId":"ent-internal"}}}`))
	}))
	defer upstream.Close()

	svc := NewService(proxyConfig(upstream.URL, "api-key", strings.Repeat("ab", 32)), quietLog(), nil)

	ws, err := svc.CreateWalletSet(context.Background(), "resident-wallets")
	require.NoError(t, err)
	assert.Equal(t, &WalletSet{
		ID:         "ws-123",
		Name:       "resident-wallets",
		CreateDate: "2026-01-01T00:00:00Z",
		UpdateDate: "2026-01-02T00:00:00Z",
	}, ws)
}

func TestCreateWalletSetNormalizesProviderError(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/w3s/config/entity/publicKey" {
			w.Write(testKeyServerPayload(t, priv))
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate idempotency key"}`))
	}))
	defer upstream.Close()

	svc := NewService(proxyConfig(upstream.URL, "api-key", strings.Repeat("ab", 32)), quietLog(), nil)

	_, err = svc.CreateWalletSet(context.Background(), "resident-wallets")
	require.Error(t, err)

	var wsErr *WalletSetError
	require.ErrorAs(t, err, &wsErr)
	assert.Equal(t, http.StatusConflict, wsErr.StatusCode)
	assert.Equal(t, "duplicate idempotency key", wsErr.Message)
}

func TestCreateWalletSetDefaultsTo502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // unreachable from here on

	svc := NewService(proxyConfig(upstream.URL, "api-key", strings.Repeat("ab", 32)), quietLog(), nil)

	_, err := svc.CreateWalletSet(context.Background(), "resident-wallets")
	require.Error(t, err)

	var wsErr *WalletSetError
	require.ErrorAs(t, err, &wsErr)
	assert.Equal(t, http.StatusBadGateway, wsErr.StatusCode)
}

func TestCreateWalletSetRequiresConfiguration(t *testing.T) {
	svc := NewService(proxyConfig("http://unused.invalid", "", ""), quietLog(), nil)
	_, err := svc.CreateWalletSet(context.Background(), "x")
	var wsErr *WalletSetError
	require.ErrorAs(t, err, &wsErr)
	assert.Equal(t, http.StatusUnauthorized, wsErr.StatusCode)

	svc = NewService(proxyConfig("http://unused.invalid", "api-key", ""), quietLog(), nil)
	_, err = svc.CreateWalletSet(context.Background(), "x")
	require.ErrorAs(t, err, &wsErr)
	assert.Equal(t, http.StatusBadRequest, wsErr.StatusCode)
}
