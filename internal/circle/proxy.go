package circle

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/internal/config"
	"github.com/casacolor/casacolor-backend-go/pkg/errors"
	"github.com/casacolor/casacolor-backend-go/pkg/metrics"
)

// Service is the development-time proxy between the browser application and
// the payments provider. It attaches the operator's API credential to every
// forwarded request and, for body-carrying requests, computes a fresh
// one-time entity secret ciphertext.
type Service struct {
	cfg        config.CircleConfig
	keys       *KeyCache
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Collector
}

// NewService wires the proxy against the configured provider endpoint.
func NewService(cfg config.CircleConfig, logger *logrus.Logger, collector *metrics.Collector) *Service {
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}

	return &Service{
		cfg:        cfg,
		keys:       NewKeyCache(cfg.BaseURL, cfg.APIKey, timeout, logger),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    collector,
	}
}

// Enabled reports whether the proxy has a credential to forward with.
func (s *Service) Enabled() bool {
	return s.cfg.APIKey != ""
}

// Prefix returns the intercepted path prefix (e.g. /v1/w3s).
func (s *Service) Prefix() string {
	return s.cfg.ProxyPrefix
}

type proxyError struct {
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProxyHandler forwards any request under the configured prefix to the
// provider. Response status and body are relayed verbatim, except that 400
// and 401 upstream responses gain a diagnostic hint.
func (s *Service) ProxyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" {
			c.JSON(http.StatusUnauthorized, proxyError{
				Error:   "missing api key",
				Message: "configura CIRCLE_API_KEY (o VITE_CIRCLE_API_KEY) para usar el proxy de pagos",
			})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, proxyError{Error: "unreadable body", Message: err.Error()})
			return
		}

		outBody, staticSecret, perr := s.prepareBody(c, body)
		if perr != nil {
			return // prepareBody already wrote the response
		}

		upstreamURL := strings.TrimSuffix(s.cfg.BaseURL, "/") + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			upstreamURL += "?" + c.Request.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, upstreamURL, bytes.NewReader(outBody))
		if err != nil {
			c.JSON(http.StatusBadGateway, proxyError{Code: "PROXY_UPSTREAM", Error: "request build failed", Message: err.Error()})
			return
		}
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if staticSecret != "" {
			req.Header.Set("X-Entity-Secret", staticSecret)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				s.record(http.StatusGatewayTimeout)
				c.JSON(http.StatusGatewayTimeout, proxyError{
					Code:    "PROXY_TIMEOUT",
					Error:   "upstream timeout",
					Message: "el proveedor de pagos no respondió a tiempo",
				})
				return
			}
			s.record(http.StatusBadGateway)
			c.JSON(http.StatusBadGateway, proxyError{Code: "PROXY_UPSTREAM", Error: "upstream unreachable", Message: err.Error()})
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			s.record(http.StatusBadGateway)
			c.JSON(http.StatusBadGateway, proxyError{Code: "PROXY_UPSTREAM", Error: "unreadable upstream response", Message: err.Error()})
			return
		}

		s.record(resp.StatusCode)
		s.logger.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"status": resp.StatusCode,
		}).Debug("Forwarded payments request")

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			respBody = withHint(respBody, resp.StatusCode)
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(resp.StatusCode, contentType, respBody)
	}
}

// prepareBody injects the per-request ciphertext into a qualifying JSON body,
// or selects the legacy static-secret header mode. It writes the error
// response itself and returns a non-nil error when the request must not be
// forwarded.
func (s *Service) prepareBody(c *gin.Context, body []byte) (out []byte, staticSecret string, err error) {
	method := c.Request.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return body, "", nil
	}

	if s.cfg.EntitySecretHex == "" {
		// Legacy mode: a pre-registered ciphertext is passed through as-is.
		return body, s.cfg.EntitySecret, nil
	}

	if verr := ValidateEntitySecretHex(s.cfg.EntitySecretHex); verr != nil {
		var ce *errors.ConfigurationError
		msg := verr.Error()
		if stderrors.As(verr, &ce) {
			msg = ce.Message
		}
		c.JSON(http.StatusBadRequest, proxyError{
			Code:    "PROXY_CONFIG",
			Error:   "invalid entity secret",
			Message: msg,
		})
		return nil, "", verr
	}

	ciphertext, gerr := GenerateCiphertext(c.Request.Context(), s.keys, s.cfg.EntitySecretHex)
	if gerr != nil {
		s.logger.WithError(gerr).Error("Ciphertext generation failed")
		c.JSON(http.StatusBadGateway, proxyError{
			Code:    "PROXY_CIPHERTEXT",
			Error:   "ciphertext generation failed",
			Message: gerr.Error(),
		})
		return nil, "", gerr
	}

	payload := map[string]interface{}{}
	if len(body) > 0 {
		if jerr := json.Unmarshal(body, &payload); jerr != nil {
			// Non-object bodies are forwarded untouched.
			return body, "", nil
		}
	}
	payload["entitySecretCiphertext"] = ciphertext

	out, merr := json.Marshal(payload)
	if merr != nil {
		c.JSON(http.StatusBadGateway, proxyError{Code: "PROXY_CIPHERTEXT", Error: "body rewrite failed", Message: merr.Error()})
		return nil, "", merr
	}
	return out, "", nil
}

func (s *Service) record(status int) {
	if s.metrics != nil {
		s.metrics.RecordProxyForward(strconv.Itoa(status))
	}
}

// withHint appends a diagnostic hint to an upstream 400/401 JSON body so the
// operator can tell a proxy misconfiguration from a provider rejection.
func withHint(body []byte, status int) []byte {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	if status == http.StatusUnauthorized {
		payload["hint"] = "verifica que CIRCLE_API_KEY sea válida y corresponda al entorno del proveedor"
	} else {
		payload["hint"] = "verifica que el secreto de entidad esté registrado y que el ciphertext no se reutilice"
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return stderrors.As(err, &nerr) && nerr.Timeout()
}
