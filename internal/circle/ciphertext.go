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
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/pkg/errors"
)

// ValidateEntitySecretHex checks that the operator-configured secret is
// exactly 32 bytes in hex form. Diagnostics are precise so operators can spot
// a truncated paste immediately.
func ValidateEntitySecretHex(secret string) error {
	if len(secret) != 64 {
		return errors.NewConfigurationError("entity_secret_hex",
			fmt.Sprintf("el secreto debe tener 64 caracteres hexadecimales, tiene %d caracteres", len(secret)))
	}
	if _, err := hex.DecodeString(secret); err != nil {
		return errors.NewConfigurationError("entity_secret_hex",
			"el secreto tiene 64 caracteres pero contiene caracteres no hexadecimales")
	}
	return nil
}

// KeyCache fetches the provider's entity public key once and keeps it for the
// life of the process. The first successful fetch wins; no lock is held
// across the network call, so two concurrent first requests may each fetch
// (tolerated, not prevented).
type KeyCache struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger

	mu  sync.RWMutex
	key *rsa.PublicKey
}

// NewKeyCache creates an empty cache bound to the provider endpoint.
func NewKeyCache(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *KeyCache {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KeyCache{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type publicKeyResponse struct {
	Data struct {
		PublicKey string `json:"publicKey"`
	} `json:"data"`
}

// PublicKey returns the cached key, fetching it on first use.
func (k *KeyCache) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	k.mu.RLock()
	cached := k.key
	k.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	key, err := k.fetch(ctx)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	if k.key == nil {
		k.key = key
	}
	cached = k.key
	k.mu.Unlock()

	return cached, nil
}

func (k *KeyCache) fetch(ctx context.Context) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"/v1/w3s/config/entity/publicKey", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create public key request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+k.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, &errors.NetworkError{Op: "fetch public key", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.NetworkError{Op: "read public key response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errors.HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed publicKeyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse public key response: %w", err)
	}
	if parsed.Data.PublicKey == "" {
		return nil, fmt.Errorf("provider response carried no public key")
	}

	key, err := ParseRSAPublicKey(parsed.Data.PublicKey)
	if err != nil {
		return nil, err
	}

	k.logger.WithField("bits", key.N.BitLen()).Info("Cached provider entity public key")
	return key, nil
}

// ParseRSAPublicKey decodes a PEM RSA public key in either PKCS#1 or PKIX
// encoding; the provider has shipped both framings.
func ParseRSAPublicKey(pemText string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("public key is not valid PEM")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return key, nil
}

// GenerateCiphertext encrypts the decoded secret with RSA-OAEP/SHA-256 and
// returns it base64-encoded. The output is one-time use: OAEP is randomized,
// so every call yields a different envelope of the same plaintext, and
// nothing here caches the result, since the provider rejects ciphertext reuse.
func GenerateCiphertext(ctx context.Context, keys *KeyCache, secretHex string) (string, error) {
	if err := ValidateEntitySecretHex(secretHex); err != nil {
		return "", err
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", errors.NewConfigurationError("entity_secret_hex", "el secreto no es hexadecimal")
	}

	key, err := keys.PublicKey(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain provider public key: %w", err)
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, secret, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt entity secret: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
