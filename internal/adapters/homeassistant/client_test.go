package homeassistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacolor/casacolor-backend-go/pkg/errors"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestGetStateNormalizesCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/states/lock.front_door", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"entity_id": "lock.front_door",
			"state":     "LOCKED",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", testLogger())
	state, err := c.GetState(context.Background(), "lock.front_door")
	require.NoError(t, err)
	assert.Equal(t, StateLocked, state.State)
}

func TestGetStateEmptyEntityIDShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", testLogger())
	_, err := c.GetState(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no I/O expected without an entity id")
}

func TestCallServicePostsEntityID(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", testLogger())
	err := c.CallService(context.Background(), "lock", "unlock", "lock.front_door")
	require.NoError(t, err)
	assert.Equal(t, "/api/services/lock/unlock", gotPath)
	assert.Equal(t, "lock.front_door", gotBody["entity_id"])
}

func TestDoRequestClassifiesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "token", testLogger())
	_, err := c.GetState(context.Background(), "lock.front_door")
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
}

func TestDoRequestClassifiesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-token", testLogger())
	_, err := c.GetState(context.Background(), "lock.front_door")
	require.Error(t, err)

	var httpErr *errors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.False(t, errors.IsNetworkError(httpErr), "application errors must not look like connectivity loss")
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "locked", NormalizeState("LOCKED"))
	assert.Equal(t, "locked", NormalizeState(" Locked "))
	assert.Equal(t, "unlocked", NormalizeState("unlocked"))
}

func TestEntityDomain(t *testing.T) {
	assert.Equal(t, "lock", EntityDomain("lock.front_door"))
	assert.Equal(t, "", EntityDomain("frontdoor"))
	assert.Equal(t, "", EntityDomain(".front_door"))
}
