package devices

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	ha "github.com/casacolor/casacolor-backend-go/internal/adapters/homeassistant"
	"github.com/casacolor/casacolor-backend-go/pkg/errors"
	"github.com/casacolor/casacolor-backend-go/pkg/metrics"
)

// followUpDelays is the staggered post-command poll schedule, measured from
// command success. The hub applies commands with eventual-consistency lag, so
// a single immediate poll would usually still see the old state.
var followUpDelays = []time.Duration{200 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond}

// ErrCommandInFlight rejects a command issued while another one is still
// running for the same entity. New intent overwrites, it never queues; the
// caller retries once the previous command settles.
var ErrCommandInFlight = errors.New(409, "another command is already in progress")

// Snapshot is the externally visible, already-reconciled view of one entity.
type Snapshot struct {
	EntityID       string    `json:"entity_id"`
	Name           string    `json:"name"`
	Kind           Kind      `json:"kind"`
	Configured     bool      `json:"configured"`
	Connected      bool      `json:"connected"`
	State          string    `json:"state"`
	Observed       string    `json:"observed_state"`
	Optimistic     *string   `json:"optimistic_state,omitempty"`
	ActionInFlight bool      `json:"action_in_progress"`
	LastError      string    `json:"last_error,omitempty"`
	LastObservedAt time.Time `json:"last_observed_at,omitempty"`
}

// Options tunes a controller. Zero values fall back to defaults.
type Options struct {
	PollInterval    time.Duration
	RefreshThrottle time.Duration
	AutoRefresh     bool
	Metrics         *metrics.Collector
	OnChange        func(Snapshot)
}

// Controller owns the reconciliation state of a single hub entity: the
// observed projection, the optimistic overlay, connectivity status and the
// polling loop. All state is guarded by mu; nothing is shared across
// controllers.
type Controller struct {
	entityID string
	name     string
	kind     Kind
	client   ha.Client
	logger   *logrus.Entry
	opts     Options

	mu             sync.Mutex
	observed       string
	lastObservedAt time.Time
	optimistic     *string
	connected      bool
	lastErr        error
	actionInFlight bool
	closed         bool

	lastRefreshAt time.Time
	followUps     []*time.Timer

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewController creates a controller and, when auto-refresh is enabled and an
// entity is configured, starts its background polling loop.
func NewController(entityID, name string, kind Kind, client ha.Client, logger *logrus.Logger, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.RefreshThrottle <= 0 {
		opts.RefreshThrottle = 300 * time.Millisecond
	}

	c := &Controller{
		entityID: entityID,
		name:     name,
		kind:     kind,
		client:   client,
		logger: logger.WithFields(logrus.Fields{
			"component": "devices",
			"entity_id": entityID,
		}),
		opts:   opts,
		stopCh: make(chan struct{}),
	}

	if opts.AutoRefresh && entityID != "" {
		c.wg.Add(1)
		go c.pollLoop()
	}

	return c
}

// Snapshot returns the current reconciled view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	displayed, _ := Reconcile(c.observed, c.optimistic)
	s := Snapshot{
		EntityID:       c.entityID,
		Name:           c.name,
		Kind:           c.kind,
		Configured:     c.entityID != "",
		Connected:      c.connected,
		State:          displayed,
		Observed:       c.observed,
		ActionInFlight: c.actionInFlight,
		LastObservedAt: c.lastObservedAt,
	}
	if c.optimistic != nil {
		v := *c.optimistic
		s.Optimistic = &v
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Lock moves the entity toward its securing state (lock, close, off).
func (c *Controller) Lock(ctx context.Context) error {
	cmd, err := lockCommand(c.kind, true)
	if err != nil {
		return err
	}
	return c.run(ctx, cmd)
}

// Unlock moves the entity toward its released state (unlock, open, on).
func (c *Controller) Unlock(ctx context.Context) error {
	cmd, err := lockCommand(c.kind, false)
	if err != nil {
		return err
	}
	return c.run(ctx, cmd)
}

// Toggle inverts the currently displayed state.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	displayed, _ := Reconcile(c.observed, c.optimistic)
	c.mu.Unlock()

	cmd, err := toggleCommand(c.kind, displayed)
	if err != nil {
		return err
	}
	return c.run(ctx, cmd)
}

// run issues one command: the optimistic overlay is written synchronously
// before any network I/O so the UI reflects intent with zero latency, then
// the service call goes out. Success schedules the staggered follow-up polls;
// failure rolls the overlay back and surfaces a CommandError.
func (c *Controller) run(ctx context.Context, cmd command) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewConfigurationError("controller", "controller is closed")
	}
	if c.entityID == "" {
		c.mu.Unlock()
		return errors.NewConfigurationError("entity_id", "no entity configured")
	}
	if c.actionInFlight {
		c.mu.Unlock()
		return ErrCommandInFlight
	}

	predicted := cmd.Predicted
	c.optimistic = &predicted
	c.actionInFlight = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	err := c.client.CallService(ctx, cmd.Domain, cmd.Service, c.entityID)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordCommand(c.entityID, cmd.Service, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.NewConfigurationError("controller", "controller is closed")
	}
	c.actionInFlight = false
	if err != nil {
		// Rollback to unknown: the predicted state never happened.
		c.optimistic = nil
		c.lastErr = err
		snap = c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)

		c.logger.WithError(err).Warn("Device command failed, overlay rolled back")
		return errors.NewCommandError(c.entityID, cmd.Service, err)
	}
	c.lastErr = nil
	c.scheduleFollowUpsLocked()
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.logger.WithField("service", cmd.Service).Debug("Device command accepted")
	return nil
}

// scheduleFollowUpsLocked arms the staggered post-command polls, replacing
// any schedule from a previous command. Caller holds mu.
func (c *Controller) scheduleFollowUpsLocked() {
	for _, t := range c.followUps {
		t.Stop()
	}
	c.followUps = c.followUps[:0]
	for _, d := range followUpDelays {
		c.followUps = append(c.followUps, time.AfterFunc(d, func() {
			c.Refresh(context.Background())
		}))
	}
}

// Refresh polls the hub once. Calls inside the throttle window collapse into
// the previous one. Poll failures are recorded, never returned: a
// network-class error demotes connectivity, an application error does not.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.entityID == "" {
		c.mu.Unlock()
		return
	}
	if c.actionInFlight {
		// A stale poll racing a just-issued optimistic value would undo it.
		c.mu.Unlock()
		return
	}
	if time.Since(c.lastRefreshAt) < c.opts.RefreshThrottle {
		c.mu.Unlock()
		return
	}
	c.lastRefreshAt = time.Now()
	c.mu.Unlock()

	state, err := c.client.GetState(ctx, c.entityID)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordPoll(c.entityID, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.lastErr = err
		if errors.IsNetworkError(err) {
			c.connected = false
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		c.logger.WithError(err).Debug("Poll failed")
		return
	}

	c.observed = state.State
	c.lastObservedAt = state.LastUpdated
	if c.lastObservedAt.IsZero() {
		c.lastObservedAt = time.Now()
	}
	c.connected = true
	c.lastErr = nil
	if _, confirmed := Reconcile(c.observed, c.optimistic); confirmed {
		// Server caught up with the prediction.
		c.optimistic = nil
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) pollLoop() {
	defer c.wg.Done()

	// Prime the observed state immediately rather than waiting a full tick.
	c.Refresh(context.Background())

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Refresh(context.Background())
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) notify(s Snapshot) {
	if c.opts.Metrics != nil && s.Configured {
		c.opts.Metrics.SetConnected(s.EntityID, s.Connected)
	}
	if c.opts.OnChange != nil {
		c.opts.OnChange(s)
	}
}

// Close cancels the polling loop and all pending follow-up timers. No state
// is mutated after Close returns; late results of in-flight requests are
// dropped by the closed flag.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, t := range c.followUps {
		t.Stop()
	}
	c.followUps = nil
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Debug("Device controller closed")
}
