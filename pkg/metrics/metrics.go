package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments for the backend.
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	devicePolls     *prometheus.CounterVec
	deviceCommands  *prometheus.CounterVec
	deviceConnected *prometheus.GaugeVec
	proxyForwards   *prometheus.CounterVec
	wsClients       prometheus.Gauge
}

// NewCollector creates and registers the collector against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casacolor_http_requests_total",
				Help: "HTTP requests served, by method, path and status.",
			},
			[]string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "casacolor_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"}),
		devicePolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casacolor_device_polls_total",
				Help: "Hub state polls, by entity and result.",
			},
			[]string{"entity_id", "result"}),
		deviceCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casacolor_device_commands_total",
				Help: "Device commands issued, by entity, command and result.",
			},
			[]string{"entity_id", "command", "result"}),
		deviceConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "casacolor_device_connected",
				Help: "1 while the last poll for the entity succeeded.",
			},
			[]string{"entity_id"}),
		proxyForwards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casacolor_proxy_forwards_total",
				Help: "Payments proxy forwards, by upstream status class.",
			},
			[]string{"status"}),
		wsClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "casacolor_websocket_clients",
				Help: "Currently connected WebSocket clients.",
			}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.devicePolls,
		c.deviceCommands,
		c.deviceConnected,
		c.proxyForwards,
		c.wsClients,
	)

	return c
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, status).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPoll records one hub state poll.
func (c *Collector) RecordPoll(entityID string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.devicePolls.WithLabelValues(entityID, result).Inc()
}

// RecordCommand records one issued device command.
func (c *Collector) RecordCommand(entityID, command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.deviceCommands.WithLabelValues(entityID, command, result).Inc()
}

// SetConnected reflects the controller's connectivity status for an entity.
func (c *Collector) SetConnected(entityID string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	c.deviceConnected.WithLabelValues(entityID).Set(v)
}

// RecordProxyForward records one payments proxy forward by status code.
func (c *Collector) RecordProxyForward(status string) {
	c.proxyForwards.WithLabelValues(status).Inc()
}

// WSClientConnected / WSClientDisconnected adjust the client gauge.
func (c *Collector) WSClientConnected()    { c.wsClients.Inc() }
func (c *Collector) WSClientDisconnected() { c.wsClients.Dec() }
