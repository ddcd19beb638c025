package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/pkg/errors"
)

// Client is the thin REST client for a single hub. It performs no retries;
// retry policy belongs to the reconciliation controller.
type Client interface {
	// GetState fetches the current state of one entity.
	GetState(ctx context.Context, entityID string) (*EntityState, error)

	// CallService invokes a hub service (e.g. lock.lock) targeting an entity.
	CallService(ctx context.Context, domain, service, entityID string) error
}

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a hub client. An empty token does not fail here: requests
// are sent without the Authorization header and the hub's 401 is surfaced as
// an HTTP error for the caller to classify.
func NewClient(baseURL, token string, logger *logrus.Logger) Client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *client) GetState(ctx context.Context, entityID string) (*EntityState, error) {
	if entityID == "" {
		return nil, errors.NewConfigurationError("entity_id", "no entity configured")
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get state for entity %s: %w", entityID, err)
	}

	var state EntityState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state response for %s: %w", entityID, err)
	}
	state.State = NormalizeState(state.State)

	c.logger.WithFields(logrus.Fields{
		"entity_id": entityID,
		"state":     state.State,
	}).Debug("Retrieved entity state")

	return &state, nil
}

func (c *client) CallService(ctx context.Context, domain, service, entityID string) error {
	if entityID == "" {
		return errors.NewConfigurationError("entity_id", "no entity configured")
	}

	path := fmt.Sprintf("/api/services/%s/%s", domain, service)
	body := map[string]interface{}{"entity_id": entityID}

	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("failed to call service %s.%s: %w", domain, service, err)
	}

	c.logger.WithFields(logrus.Fields{
		"domain":    domain,
		"service":   service,
		"entity_id": entityID,
	}).Debug("Called hub service")

	return nil
}

// doRequest performs a single attempt against the hub. Transport failures are
// wrapped as NetworkError, non-2xx responses as HTTPError.
func (c *client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errors.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.NetworkError{Op: "read " + path, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return responseBody, nil
	}

	return nil, &errors.HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(responseBody))}
}
