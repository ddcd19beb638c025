package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ha "github.com/casacolor/casacolor-backend-go/internal/adapters/homeassistant"
	"github.com/casacolor/casacolor-backend-go/internal/config"
	"github.com/casacolor/casacolor-backend-go/internal/core/devices"
)

type fakeHubClient struct {
	mu       sync.Mutex
	state    string
	failNext bool
	calls    []string
}

func (f *fakeHubClient) GetState(ctx context.Context, entityID string) (*ha.EntityState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &ha.EntityState{EntityID: entityID, State: f.state}, nil
}

func (f *fakeHubClient) CallService(ctx context.Context, domain, service, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, service)
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("service call rejected")
	}
	return nil
}

func newDevicesRouter(t *testing.T, client ha.Client) (*gin.Engine, *devices.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	manager := devices.NewManager([]config.EntityConfig{
		{EntityID: "lock.front_door", Name: "Puerta Principal", Kind: "lock"},
	}, client, log, devices.Options{})
	t.Cleanup(manager.Close)

	h := &Handlers{log: log, devices: manager}

	router := gin.New()
	router.GET("/devices", h.GetDevices)
	router.GET("/devices/:entity_id", h.GetDevice)
	router.POST("/devices/:entity_id/lock", h.LockDevice)
	router.POST("/devices/:entity_id/unlock", h.UnlockDevice)
	router.POST("/devices/:entity_id/toggle", h.ToggleDevice)
	router.POST("/devices/:entity_id/refresh", h.RefreshDevice)

	return router, manager
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func snapshotFromResponse(t *testing.T, w *httptest.ResponseRecorder) devices.Snapshot {
	t.Helper()
	var envelope struct {
		Data devices.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestGetDevicesListsConfiguredEntities(t *testing.T) {
	router, _ := newDevicesRouter(t, &fakeHubClient{state: "locked"})

	w := doRequest(router, http.MethodGet, "/devices")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []devices.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "lock.front_door", envelope.Data[0].EntityID)
}

func TestGetDeviceUnknownEntity(t *testing.T) {
	router, _ := newDevicesRouter(t, &fakeHubClient{state: "locked"})

	w := doRequest(router, http.MethodGet, "/devices/lock.back_door")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLockCommandReturnsOptimisticSnapshot(t *testing.T) {
	client := &fakeHubClient{state: "unlocked"}
	router, _ := newDevicesRouter(t, client)

	w := doRequest(router, http.MethodPost, "/devices/lock.front_door/lock")
	require.Equal(t, http.StatusOK, w.Code)

	snap := snapshotFromResponse(t, w)
	assert.Equal(t, "locked", snap.State)
	assert.Equal(t, []string{"lock"}, client.calls)
}

func TestFailedCommandReturnsBadGateway(t *testing.T) {
	client := &fakeHubClient{state: "unlocked", failNext: true}
	router, manager := newDevicesRouter(t, client)

	w := doRequest(router, http.MethodPost, "/devices/lock.front_door/lock")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// Overlay rolled back: nothing optimistic remains.
	snap := manager.Get("lock.front_door").Snapshot()
	assert.Nil(t, snap.Optimistic)
}

func TestRefreshReturnsObservedState(t *testing.T) {
	client := &fakeHubClient{state: "locked"}
	router, _ := newDevicesRouter(t, client)

	w := doRequest(router, http.MethodPost, "/devices/lock.front_door/refresh")
	require.Equal(t, http.StatusOK, w.Code)

	snap := snapshotFromResponse(t, w)
	assert.Equal(t, "locked", snap.Observed)
	assert.True(t, snap.Connected)
}

func TestToggleUsesDisplayedState(t *testing.T) {
	client := &fakeHubClient{state: "locked"}
	router, _ := newDevicesRouter(t, client)

	// Prime observed state so toggle has something to invert.
	doRequest(router, http.MethodPost, "/devices/lock.front_door/refresh")

	w := doRequest(router, http.MethodPost, "/devices/lock.front_door/toggle")
	require.Equal(t, http.StatusOK, w.Code)

	snap := snapshotFromResponse(t, w)
	assert.Equal(t, "unlocked", snap.State)
	assert.Equal(t, []string{"unlock"}, client.calls)
}
