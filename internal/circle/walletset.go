package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// WalletSet is the minimal safe projection of a provider wallet set. The
// provider response carries account internals (custody type, entity ids)
// that must not leak to the browser.
type WalletSet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CreateDate string `json:"createDate"`
	UpdateDate string `json:"updateDate"`
}

// WalletSetError is the normalized failure shape relayed to callers:
// {code, error, message} with the provider's status when available.
type WalletSetError struct {
	StatusCode int    `json:"code"`
	Err        string `json:"error"`
	Message    string `json:"message"`
}

func (e *WalletSetError) Error() string {
	return fmt.Sprintf("wallet set error %d: %s (%s)", e.StatusCode, e.Err, e.Message)
}

func newWalletSetError(status int, errLabel, message string) *WalletSetError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &WalletSetError{StatusCode: status, Err: errLabel, Message: message}
}

type walletSetRequest struct {
	IdempotencyKey         string `json:"idempotencyKey"`
	Name                   string `json:"name"`
	EntitySecretCiphertext string `json:"entitySecretCiphertext"`
}

type walletSetResponse struct {
	Data struct {
		WalletSet struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			CreateDate string `json:"createDate"`
			UpdateDate string `json:"updateDate"`
		} `json:"walletSet"`
	} `json:"data"`
}

// CreateWalletSet provisions a wallet set through the dedicated client path
// rather than the passthrough proxy: the ciphertext, idempotency key and
// response narrowing are all handled here.
func (s *Service) CreateWalletSet(ctx context.Context, name string) (*WalletSet, error) {
	if s.cfg.APIKey == "" {
		return nil, newWalletSetError(http.StatusUnauthorized, "missing api key", "configura CIRCLE_API_KEY para crear wallet sets")
	}
	if s.cfg.EntitySecretHex == "" {
		return nil, newWalletSetError(http.StatusBadRequest, "missing entity secret", "configura CIRCLE_ENTITY_SECRET_HEX para crear wallet sets")
	}

	ciphertext, err := GenerateCiphertext(ctx, s.keys, s.cfg.EntitySecretHex)
	if err != nil {
		return nil, newWalletSetError(0, "ciphertext generation failed", err.Error())
	}

	reqBody, err := json.Marshal(walletSetRequest{
		IdempotencyKey:         uuid.NewString(),
		Name:                   name,
		EntitySecretCiphertext: ciphertext,
	})
	if err != nil {
		return nil, newWalletSetError(0, "request encoding failed", err.Error())
	}

	url := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/v1/w3s/developer/walletSets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, newWalletSetError(0, "request build failed", err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, newWalletSetError(0, "upstream unreachable", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newWalletSetError(0, "unreadable upstream response", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		var parsed struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
			message = parsed.Message
		}
		return nil, newWalletSetError(resp.StatusCode, "wallet set creation rejected", message)
	}

	var parsed walletSetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, newWalletSetError(0, "unparseable upstream response", err.Error())
	}
	if parsed.Data.WalletSet.ID == "" {
		return nil, newWalletSetError(0, "unexpected upstream response", "la respuesta del proveedor no contiene un wallet set")
	}

	ws := parsed.Data.WalletSet
	return &WalletSet{
		ID:         ws.ID,
		Name:       ws.Name,
		CreateDate: ws.CreateDate,
		UpdateDate: ws.UpdateDate,
	}, nil
}
